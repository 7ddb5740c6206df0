package analytics

import (
	"fmt"
	"sort"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/common"
)

const inferredEdgeColor = "#555555"

type OutputNode struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Color      string  `json:"color"`
	Title      string  `json:"title"`
	Size       float64 `json:"size"`
	Community  int     `json:"community"`
	Importance float64 `json:"importance"`
}

type OutputEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Label  string `json:"label"`
	Title  string `json:"title"`
	Arrows string `json:"arrows"`
	Dashes bool   `json:"dashes"`
	Color  string `json:"color,omitempty"`
}

type Stats struct {
	Nodes         int `json:"nodes"`
	Edges         int `json:"edges"`
	OriginalEdges int `json:"original_edges"`
	InferredEdges int `json:"inferred_edges"`
	Communities   int `json:"communities"`
}

// Output is the renderer-facing graph: one node per entity, one directed
// edge per triple, the layout options and summary counts.
type Output struct {
	Nodes   []OutputNode `json:"nodes"`
	Edges   []OutputEdge `json:"edges"`
	Options VisOptions   `json:"options"`
	Stats   Stats        `json:"stats"`
}

// Render turns triples and their analysis into Output. Nodes are sorted by
// importance descending, then by name; edges keep triple order. Inferred
// edges are dashed and drawn in a muted color.
func Render(triples []common.Triple, res *Result) Output {
	out := Output{
		Nodes:   make([]OutputNode, 0, len(res.Nodes)),
		Edges:   make([]OutputEdge, 0, len(triples)),
		Options: NewVisOptions(res.Physics),
	}

	for name, m := range res.Nodes {
		out.Nodes = append(out.Nodes, OutputNode{
			ID:         name,
			Label:      name,
			Color:      m.Color,
			Title:      fmt.Sprintf("%s - Connections: %d", name, m.Degree),
			Size:       m.Size,
			Community:  m.Community,
			Importance: m.Importance,
		})
	}
	sort.Slice(out.Nodes, func(i, j int) bool {
		if out.Nodes[i].Importance != out.Nodes[j].Importance {
			return out.Nodes[i].Importance > out.Nodes[j].Importance
		}
		return out.Nodes[i].ID < out.Nodes[j].ID
	})

	inferred := 0
	for _, t := range triples {
		if t.Subject == "" || t.Object == "" {
			continue
		}
		e := OutputEdge{
			From:   t.Subject,
			To:     t.Object,
			Label:  t.Predicate,
			Title:  t.Predicate,
			Arrows: "to",
		}
		if t.Inferred {
			e.Dashes = true
			e.Color = inferredEdgeColor
			inferred++
		}
		out.Edges = append(out.Edges, e)
	}

	out.Stats = Stats{
		Nodes:         res.NodeCount,
		Edges:         len(out.Edges),
		OriginalEdges: len(out.Edges) - inferred,
		InferredEdges: inferred,
		Communities:   res.CommunityCount,
	}
	return out
}
