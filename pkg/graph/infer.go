package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/ai"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/analytics"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/logger"
)

const (
	inferSampleEntities = 10
	inferSampleTriples  = 10
	maxInferredPerGap   = 3
	maxCommunityScan    = 200
)

// InferReport describes one inference run.
type InferReport struct {
	Components  int `json:"components"`
	Communities int `json:"communities"`
	Gaps        int `json:"gaps"`
	FailedGaps  int `json:"failed_gaps"`
	Inferred    int `json:"inferred"`
	Rejected    int `json:"rejected"`
}

// entityPair is two unconnected entities of one community.
type entityPair struct {
	a, b   string
	shared int
}

// Infer asks the oracle for plausible relationships that close gaps in the
// graph and appends them to triples. Two kinds of gaps are considered:
// disconnected components, each paired with the largest one, and
// unconnected entity pairs in the same community that share at least
// SharedNeighborThreshold neighbors.
//
// Inferred triples never have the same subject and object, never repeat an
// existing triple, carry Inferred=true and no chunk. A gap whose call fails
// is logged and skipped.
func (g *GraphClient) Infer(ctx context.Context, triples []common.Triple) ([]common.Triple, InferReport) {
	out := copyTriples(triples)
	var report InferReport

	graph := analytics.NewUndirected(triples)
	if graph.NodeCount() < 2 {
		return out, report
	}

	existing := make(map[string]struct{}, len(triples))
	for _, t := range triples {
		existing[t.Key()] = struct{}{}
	}

	accept := func(found []common.Triple, limit int) {
		added := 0
		for _, t := range found {
			if added == limit {
				report.Rejected++
				continue
			}
			t, ok := normalizeInferred(t)
			if !ok {
				report.Rejected++
				continue
			}
			if _, dup := existing[t.Key()]; dup {
				report.Rejected++
				continue
			}
			existing[t.Key()] = struct{}{}
			out = append(out, t)
			added++
		}
		report.Inferred += added
	}

	components := analytics.ConnectedComponents(graph)
	report.Components = len(components)

	for i, other := range componentGaps(components, g.maxGaps) {
		if ctx.Err() != nil {
			break
		}
		report.Gaps++

		largest := components[0]
		prompt := fmt.Sprintf(
			ai.InferBetweenPrompt,
			strings.Join(sampleEntities(graph, largest, inferSampleEntities), ", "),
			strings.Join(sampleEntities(graph, other, inferSampleEntities), ", "),
			formatTriples(sampleTriples(triples, append(append([]string{}, largest...), other...), inferSampleTriples)),
		)
		found, err := g.inferCall(ctx, prompt, ai.InferBetweenSystemPrompt)
		if err != nil {
			report.FailedGaps++
			logger.Warn("[Infer] Skipping component gap", "gap", i+1, "err", err)
			continue
		}
		accept(found, maxInferredPerGap)
	}

	assignment := analytics.DetectCommunities(graph, g.detector)
	communities := analytics.CommunityGroups(assignment)
	report.Communities = analytics.CommunityCount(assignment)

	for id, members := range communities {
		if ctx.Err() != nil {
			break
		}
		pairs := candidatePairs(graph, members, g.sharedNeighborThreshold, g.maxPairsPerCommunity)
		if len(pairs) == 0 {
			continue
		}
		report.Gaps++

		entities := make([]string, 0, len(pairs)*2)
		var lines strings.Builder
		for _, p := range pairs {
			fmt.Fprintf(&lines, "- %s and %s (%d shared neighbors)\n", p.a, p.b, p.shared)
			entities = append(entities, p.a, p.b)
		}
		prompt := fmt.Sprintf(
			ai.InferWithinPrompt,
			lines.String(),
			formatTriples(sampleTriples(triples, entities, inferSampleTriples)),
		)
		found, err := g.inferCall(ctx, prompt, ai.InferWithinSystemPrompt)
		if err != nil {
			report.FailedGaps++
			logger.Warn("[Infer] Skipping community gap", "community", id, "err", err)
			continue
		}
		accept(found, len(pairs))
	}

	logger.Debug("[Infer] Relationships inferred",
		"components", report.Components,
		"communities", report.Communities,
		"gaps", report.Gaps,
		"inferred", report.Inferred,
		"rejected", report.Rejected,
	)
	return out, report
}

func (g *GraphClient) inferCall(ctx context.Context, prompt, systemPrompt string) ([]common.Triple, error) {
	reply, err := g.oracle.GenerateCompletion(ctx, prompt, g.generateOptions(systemPrompt)...)
	if err != nil {
		return nil, err
	}
	candidates, err := ai.ParseTriples(reply)
	if err != nil {
		return nil, err
	}
	found, _ := ai.ValidateTriples(candidates)
	return found, nil
}

// normalizeInferred trims t, caps its predicate and marks it inferred.
// Self-loops are rejected, comparing names without case.
func normalizeInferred(t common.Triple) (common.Triple, bool) {
	t = common.TrimTriple(t)
	if t.Subject == "" || t.Object == "" || t.Predicate == "" {
		return t, false
	}
	if strings.EqualFold(t.Subject, t.Object) {
		return t, false
	}
	t.Predicate = LimitPredicate(t.Predicate)
	t.Inferred = true
	t.Chunk = 0
	return t, true
}

// componentGaps pairs every component after the largest with the largest,
// up to maxGaps pairs.
func componentGaps(components [][]string, maxGaps int) [][]string {
	if len(components) < 2 {
		return nil
	}
	gaps := components[1:]
	if maxGaps >= 0 && len(gaps) > maxGaps {
		gaps = gaps[:maxGaps]
	}
	return gaps
}

// sampleEntities returns up to n members, highest degree first.
func sampleEntities(graph *analytics.Graph, members []string, n int) []string {
	sorted := make([]string, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := graph.Degree(sorted[i]), graph.Degree(sorted[j])
		if di != dj {
			return di > dj
		}
		return sorted[i] < sorted[j]
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// sampleTriples returns up to n triples touching any of entities, in order.
func sampleTriples(triples []common.Triple, entities []string, n int) []common.Triple {
	set := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		set[e] = struct{}{}
	}

	out := make([]common.Triple, 0, n)
	for _, t := range triples {
		if len(out) == n {
			break
		}
		_, s := set[t.Subject]
		_, o := set[t.Object]
		if s || o {
			out = append(out, t)
		}
	}
	return out
}

func formatTriples(triples []common.Triple) string {
	if len(triples) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, t := range triples {
		fmt.Fprintf(&b, "- %s -> %s -> %s\n", t.Subject, t.Predicate, t.Object)
	}
	return b.String()
}

// candidatePairs lists unconnected pairs of members sharing at least
// threshold neighbors, most shared first, at most limit pairs. Large
// communities are scanned through their highest degree members only.
func candidatePairs(graph *analytics.Graph, members []string, threshold, limit int) []entityPair {
	if len(members) < 2 || limit <= 0 {
		return nil
	}
	scan := sampleEntities(graph, members, maxCommunityScan)

	neighbors := make(map[string]map[string]struct{}, len(scan))
	for _, m := range scan {
		set := make(map[string]struct{})
		for _, n := range graph.Neighbors(m) {
			set[n] = struct{}{}
		}
		neighbors[m] = set
	}

	var pairs []entityPair
	for i := 0; i < len(scan); i++ {
		for j := i + 1; j < len(scan); j++ {
			a, b := scan[i], scan[j]
			if graph.HasEdge(a, b) {
				continue
			}
			shared := 0
			for n := range neighbors[a] {
				if _, ok := neighbors[b][n]; ok {
					shared++
				}
			}
			if shared < threshold {
				continue
			}
			if b < a {
				a, b = b, a
			}
			pairs = append(pairs, entityPair{a: a, b: b, shared: shared})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].shared != pairs[j].shared {
			return pairs[i].shared > pairs[j].shared
		}
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}
