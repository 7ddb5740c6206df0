package analytics

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/logger"

	"gonum.org/v1/gonum/graph/community"
)

// Palette colors communities; community i uses Palette[i%len(Palette)].
var Palette = []string{
	"#e41a1c", "#377eb8", "#4daf4a", "#984ea3",
	"#ff7f00", "#ffff33", "#a65628", "#f781bf",
}

var errNoEdges = errors.New("graph has no edges")

// Detector assigns a community index to every node of a graph.
type Detector interface {
	Name() string
	Detect(g *Graph) (map[string]int, error)
}

// LouvainDetector maximizes modularity with the Louvain method. Indices
// are dense and ordered by community size descending, then by smallest
// member name. Seed fixes the random node order so repeated runs agree.
type LouvainDetector struct {
	Resolution float64
	Seed       uint64
}

func (d LouvainDetector) Name() string { return "louvain" }

func (d LouvainDetector) Detect(g *Graph) (assignment map[string]int, err error) {
	if g.EdgeCount() == 0 {
		return nil, errNoEdges
	}
	resolution := d.Resolution
	if resolution <= 0 {
		resolution = 1
	}

	defer func() {
		if r := recover(); r != nil {
			assignment, err = nil, fmt.Errorf("louvain: %v", r)
		}
	}()

	reduced := community.Modularize(g.g, resolution, rand.NewPCG(d.Seed, d.Seed^0x9e3779b97f4a7c15))

	var groups [][]string
	for _, c := range reduced.Communities() {
		if len(c) == 0 {
			continue
		}
		members := make([]string, 0, len(c))
		for _, n := range c {
			members = append(members, g.name(n))
		}
		sort.Strings(members)
		groups = append(groups, members)
	}
	sortGroups(groups)

	assignment = make(map[string]int, g.NodeCount())
	for i, grp := range groups {
		for _, name := range grp {
			if _, dup := assignment[name]; dup {
				return nil, fmt.Errorf("louvain: node %q in more than one community", name)
			}
			assignment[name] = i
		}
	}
	if len(assignment) != g.NodeCount() {
		return nil, fmt.Errorf("louvain: partition covers %d of %d nodes", len(assignment), g.NodeCount())
	}
	return assignment, nil
}

// DegreeBucketDetector sets the community of a node to its degree modulo 8,
// so the palette always suffices. It never fails.
type DegreeBucketDetector struct{}

func (DegreeBucketDetector) Name() string { return "degree" }

func (DegreeBucketDetector) Detect(g *Graph) (map[string]int, error) {
	out := make(map[string]int, g.NodeCount())
	for _, name := range g.names {
		out[name] = max(0, g.Degree(name)) % len(Palette)
	}
	return out, nil
}

// DetectCommunities runs preferred and falls back to DegreeBucketDetector
// when preferred is nil or fails.
func DetectCommunities(g *Graph, preferred Detector) map[string]int {
	if g.NodeCount() == 0 {
		return map[string]int{}
	}

	if preferred != nil {
		assignment, err := preferred.Detect(g)
		if err == nil {
			return assignment
		}
		logger.Debug("[Analytics] community detection fell back", "detector", preferred.Name(), "err", err)
	}

	assignment, _ := DegreeBucketDetector{}.Detect(g)
	return assignment
}

// CommunityGroups inverts an assignment into sorted member lists indexed
// by community. Indices without members yield empty groups.
func CommunityGroups(assignment map[string]int) [][]string {
	n := 0
	for _, c := range assignment {
		n = max(n, c+1)
	}
	groups := make([][]string, n)
	for name, c := range assignment {
		groups[c] = append(groups[c], name)
	}
	for _, grp := range groups {
		sort.Strings(grp)
	}
	return groups
}

// CommunityCount returns the number of distinct community indices.
func CommunityCount(assignment map[string]int) int {
	seen := make(map[int]struct{})
	for _, c := range assignment {
		seen[c] = struct{}{}
	}
	return len(seen)
}

// CommunityColor returns the palette color for a community index.
func CommunityColor(id int) string {
	if id < 0 {
		id = -id
	}
	return Palette[id%len(Palette)]
}
