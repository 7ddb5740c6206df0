package analytics

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/common"
)

func triple(s, p, o string) common.Triple {
	return common.Triple{Subject: s, Predicate: p, Object: o}
}

func TestNewUndirectedCollapsesEdges(t *testing.T) {
	g := NewUndirected([]common.Triple{
		triple("a", "knows", "b"),
		triple("b", "knows", "a"),
		triple("a", "likes", "b"),
		triple("c", "is", "c"),
	})

	if g.NodeCount() != 3 {
		t.Fatalf("NodeCount() = %d, want 3", g.NodeCount())
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	if !g.HasEdge("b", "a") {
		t.Fatalf("expected edge between a and b")
	}
	if g.Degree("c") != 0 {
		t.Fatalf("self-loop must not count toward degree, got %d", g.Degree("c"))
	}
}

func TestConnectedComponents(t *testing.T) {
	g := NewUndirected([]common.Triple{
		triple("D", "r", "E"),
		triple("A", "r", "B"),
		triple("B", "r", "C"),
	})

	got := ConnectedComponents(g)
	want := [][]string{{"A", "B", "C"}, {"D", "E"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ConnectedComponents() = %v, want %v", got, want)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	res := Analyze(nil, Options{})
	if res.NodeCount != 0 || res.EdgeCount != 0 || res.CommunityCount != 0 {
		t.Fatalf("expected zero counts, got %+v", res)
	}

	out := Render(nil, res)
	if len(out.Nodes) != 0 || len(out.Edges) != 0 {
		t.Fatalf("expected empty output, got %+v", out)
	}
	if out.Stats != (Stats{}) {
		t.Fatalf("expected zero stats, got %+v", out.Stats)
	}

	data, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"nodes":[]`) {
		t.Fatalf("expected empty node list in JSON, got %s", data)
	}
}

func TestImportanceOfStar(t *testing.T) {
	res := Analyze([]common.Triple{
		triple("hub", "r", "a"),
		triple("hub", "r", "b"),
		triple("hub", "r", "c"),
	}, Options{})

	hub := res.Nodes["hub"]
	if math.Abs(hub.Importance-1) > 1e-9 {
		t.Fatalf("hub importance = %v, want 1", hub.Importance)
	}
	if math.Abs(hub.Size-MaxNodeSize) > 1e-9 {
		t.Fatalf("hub size = %v, want %v", hub.Size, MaxNodeSize)
	}
	for _, leaf := range []string{"a", "b", "c"} {
		m := res.Nodes[leaf]
		if m.Degree != 1 || m.Betweenness != 0 {
			t.Fatalf("%s metrics = %+v", leaf, m)
		}
		if m.Importance >= hub.Importance {
			t.Fatalf("%s importance %v not below hub %v", leaf, m.Importance, hub.Importance)
		}
	}
}

func TestImportanceBounds(t *testing.T) {
	res := Analyze(common.SampleTriples(), Options{})

	maxImportance := 0.0
	for name, m := range res.Nodes {
		if m.Importance < 0 || m.Importance > 1 {
			t.Fatalf("%s importance %v out of range", name, m.Importance)
		}
		if m.Size < MinNodeSize || m.Size > MaxNodeSize {
			t.Fatalf("%s size %v out of range", name, m.Size)
		}
		maxImportance = max(maxImportance, m.Importance)
	}
	if maxImportance <= 0 {
		t.Fatalf("expected a positive maximum importance")
	}
}

func TestImportanceZeroMaxima(t *testing.T) {
	got := Importance(
		map[string]int{"a": 0, "b": 0},
		map[string]float64{"a": 0, "b": 0},
		map[string]float64{"a": 0, "b": 0},
	)
	for name, v := range got {
		if v != 0 {
			t.Fatalf("%s importance = %v, want 0", name, v)
		}
	}
}

func TestEigenvectorFallback(t *testing.T) {
	tests := []struct {
		name    string
		triples []common.Triple
	}{
		{"no edges", []common.Triple{triple("a", "is", "a")}},
		{"isolated node", []common.Triple{triple("a", "r", "b"), triple("c", "is", "c")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EigenvectorCentrality(NewUndirected(tt.triples))
			for name, v := range got {
				if v != 0.5 {
					t.Fatalf("%s eigenvector = %v, want 0.5", name, v)
				}
			}
		})
	}
}

func TestEigenvectorPath(t *testing.T) {
	got := EigenvectorCentrality(NewUndirected([]common.Triple{
		triple("a", "r", "b"),
		triple("b", "r", "c"),
	}))
	if got["b"] <= got["a"] || math.Abs(got["a"]-got["c"]) > 1e-6 {
		t.Fatalf("unexpected path centrality %v", got)
	}
}

func TestDegreeBucketDeterministic(t *testing.T) {
	var triples []common.Triple
	for _, leaf := range []string{"l1", "l2", "l3", "l4", "l5", "l6", "l7", "l8", "l9"} {
		triples = append(triples, triple("hub", "r", leaf))
	}
	triples = append(triples, triple("x", "r", "y"))
	g := NewUndirected(triples)

	first, err := DegreeBucketDetector{}.Detect(g)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	second, _ := DegreeBucketDetector{}.Detect(g)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("degree buckets differ between runs: %v vs %v", first, second)
	}
	if first["hub"] != 9%8 {
		t.Fatalf("hub bucket = %d, want %d", first["hub"], 9%8)
	}
	if first["x"] != 1 || first["l1"] != 1 {
		t.Fatalf("unexpected buckets %v", first)
	}
}

type failingDetector struct{}

func (failingDetector) Name() string { return "failing" }

func (failingDetector) Detect(*Graph) (map[string]int, error) {
	return nil, errors.New("unavailable")
}

func TestDetectCommunitiesFallsBack(t *testing.T) {
	g := NewUndirected([]common.Triple{
		triple("a", "r", "b"),
		triple("b", "r", "c"),
	})

	got := DetectCommunities(g, failingDetector{})
	want := map[string]int{"a": 1, "b": 2, "c": 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DetectCommunities() = %v, want %v", got, want)
	}

	// Louvain has nothing to optimize without edges.
	empty := NewUndirected([]common.Triple{triple("a", "is", "a")})
	if got := DetectCommunities(empty, LouvainDetector{}); got["a"] != 0 {
		t.Fatalf("expected degree bucket 0, got %v", got)
	}
}

func TestLouvainSeparatesTriangles(t *testing.T) {
	g := NewUndirected([]common.Triple{
		triple("a", "r", "b"), triple("b", "r", "c"), triple("c", "r", "a"),
		triple("x", "r", "y"), triple("y", "r", "z"), triple("z", "r", "x"),
	})

	got := DetectCommunities(g, LouvainDetector{Resolution: 1, Seed: 1})
	want := map[string]int{"a": 0, "b": 0, "c": 0, "x": 1, "y": 1, "z": 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DetectCommunities() = %v, want %v", got, want)
	}
	if CommunityCount(got) != 2 {
		t.Fatalf("CommunityCount() = %d, want 2", CommunityCount(got))
	}
	groups := CommunityGroups(got)
	if !reflect.DeepEqual(groups, [][]string{{"a", "b", "c"}, {"x", "y", "z"}}) {
		t.Fatalf("CommunityGroups() = %v", groups)
	}
}

func TestCommunityColor(t *testing.T) {
	if CommunityColor(0) != "#e41a1c" || CommunityColor(9) != "#377eb8" {
		t.Fatalf("unexpected palette mapping")
	}
}

func TestRender(t *testing.T) {
	triples := common.SampleTriples()
	res := Analyze(triples, Options{Detector: DegreeBucketDetector{}})
	out := Render(triples, res)

	if out.Stats.Nodes != len(common.UniqueEntities(triples)) {
		t.Fatalf("stats nodes = %d", out.Stats.Nodes)
	}
	if out.Stats.Edges != len(triples) || out.Stats.InferredEdges != 1 || out.Stats.OriginalEdges != len(triples)-1 {
		t.Fatalf("unexpected stats %+v", out.Stats)
	}

	last := out.Edges[len(out.Edges)-1]
	if !last.Dashes || last.Color != "#555555" {
		t.Fatalf("inferred edge not marked: %+v", last)
	}
	if out.Edges[0].Dashes || out.Edges[0].Color != "" {
		t.Fatalf("extracted edge marked as inferred: %+v", out.Edges[0])
	}

	for _, n := range out.Nodes {
		if n.ID == "steam engine" {
			if n.Title != "steam engine - Connections: 4" {
				t.Fatalf("title = %q", n.Title)
			}
			return
		}
	}
	t.Fatalf("steam engine node missing")
}
