package analytics

import (
	"sort"
	"strings"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/common"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Graph is the undirected simple view of a triple list. Parallel and
// reversed triples collapse into one edge and self-loops are dropped; an
// entity that only appears in a self-loop is still a node.
type Graph struct {
	g     *simple.UndirectedGraph
	names []string
	ids   map[string]int64
	edges int
}

// NewUndirected builds the metrics graph. Node IDs follow the sorted order
// of entity names so results are reproducible.
func NewUndirected(triples []common.Triple) *Graph {
	names := common.UniqueEntities(triples)
	g := &Graph{
		g:     simple.NewUndirectedGraph(),
		names: names,
		ids:   make(map[string]int64, len(names)),
	}
	for i, name := range names {
		g.ids[name] = int64(i)
		g.g.AddNode(simple.Node(i))
	}

	for _, t := range triples {
		from, ok := g.ids[t.Subject]
		if !ok {
			continue
		}
		to, ok := g.ids[t.Object]
		if !ok || from == to {
			continue
		}
		if g.g.HasEdgeBetween(from, to) {
			continue
		}
		g.g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		g.edges++
	}

	return g
}

// Nodes returns all entity names in sorted order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

func (g *Graph) NodeCount() int { return len(g.names) }

// EdgeCount returns the number of distinct undirected edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Degree returns the number of distinct neighbors of name.
func (g *Graph) Degree(name string) int {
	id, ok := g.ids[name]
	if !ok {
		return 0
	}
	return g.g.From(id).Len()
}

// Neighbors returns the sorted neighbor names of name.
func (g *Graph) Neighbors(name string) []string {
	id, ok := g.ids[name]
	if !ok {
		return nil
	}
	nodes := graph.NodesOf(g.g.From(id))
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, g.names[n.ID()])
	}
	sort.Strings(out)
	return out
}

// HasEdge reports whether a and b are adjacent.
func (g *Graph) HasEdge(a, b string) bool {
	x, ok := g.ids[a]
	if !ok {
		return false
	}
	y, ok := g.ids[b]
	if !ok {
		return false
	}
	return g.g.HasEdgeBetween(x, y)
}

func (g *Graph) name(n graph.Node) string { return g.names[n.ID()] }

// ConnectedComponents returns the components of g, largest first. Members
// are sorted and ties in size are broken by the first member name.
func ConnectedComponents(g *Graph) [][]string {
	if g.NodeCount() == 0 {
		return nil
	}

	raw := topo.ConnectedComponents(g.g)
	components := make([][]string, 0, len(raw))
	for _, c := range raw {
		members := make([]string, 0, len(c))
		for _, n := range c {
			members = append(members, g.name(n))
		}
		sort.Strings(members)
		components = append(components, members)
	}

	sortGroups(components)
	return components
}

// sortGroups orders groups by size descending, then by smallest member.
func sortGroups(groups [][]string) {
	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i]) != len(groups[j]) {
			return len(groups[i]) > len(groups[j])
		}
		return strings.Compare(groups[i][0], groups[j][0]) < 0
	})
}
