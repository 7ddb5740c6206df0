package analytics

import (
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/logger"
)

// NodeMetrics is the analytics bundle of one entity. It is recomputed on
// every Analyze call and never stored on triples.
type NodeMetrics struct {
	Degree      int     `json:"degree"`
	Betweenness float64 `json:"betweenness"`
	Eigenvector float64 `json:"eigenvector"`
	Community   int     `json:"community"`
	Importance  float64 `json:"importance"`
	Size        float64 `json:"size"`
	Color       string  `json:"color"`
}

// Options configures Analyze. A nil Detector means Louvain with the
// degree-bucket fallback.
type Options struct {
	Detector Detector
}

// Result holds per-node metrics and graph-wide counts. EdgeCount is the
// number of triples, matching what is drawn.
type Result struct {
	Nodes          map[string]NodeMetrics `json:"nodes"`
	NodeCount      int                    `json:"node_count"`
	EdgeCount      int                    `json:"edge_count"`
	CommunityCount int                    `json:"community_count"`
	Physics        Physics                `json:"physics"`
}

// Analyze computes centralities, communities, importance and layout
// parameters for a triple set. An empty set yields zero counts.
func Analyze(triples []common.Triple, opts Options) *Result {
	g := NewUndirected(triples)

	res := &Result{
		Nodes:     make(map[string]NodeMetrics, g.NodeCount()),
		NodeCount: g.NodeCount(),
		EdgeCount: len(triples),
		Physics:   SelectPhysics(g.NodeCount(), len(triples)),
	}
	if g.NodeCount() == 0 {
		return res
	}

	detector := opts.Detector
	if detector == nil {
		detector = LouvainDetector{Resolution: 1}
	}

	degree := DegreeCentrality(g)
	betweenness := BetweennessCentrality(g)
	eigenvector := EigenvectorCentrality(g)
	communities := DetectCommunities(g, detector)
	importance := Importance(degree, betweenness, eigenvector)

	for _, name := range g.names {
		res.Nodes[name] = NodeMetrics{
			Degree:      degree[name],
			Betweenness: betweenness[name],
			Eigenvector: eigenvector[name],
			Community:   communities[name],
			Importance:  importance[name],
			Size:        NodeSize(importance[name]),
			Color:       CommunityColor(communities[name]),
		}
	}
	res.CommunityCount = CommunityCount(communities)

	logger.Debug("[Analytics] graph analyzed",
		"nodes", res.NodeCount,
		"edges", res.EdgeCount,
		"communities", res.CommunityCount,
		"solver", res.Physics.Solver,
	)
	return res
}
