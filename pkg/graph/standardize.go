package graph

import (
	"context"
	"sort"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/ai"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/logger"
)

// Standardize asks the oracle which entity names denote the same concept
// and rewrites subject and object of every triple to one canonical name.
// Predicate, chunk and inferred flag are preserved.
//
// Entity lists longer than ai.StandardizeBatchSize are split into batches.
// A batch whose call fails contributes no groups; when every batch fails
// the triples come back unchanged with an identity map.
func (g *GraphClient) Standardize(ctx context.Context, triples []common.Triple) ([]common.Triple, common.CanonicalMap) {
	entities := common.UniqueEntities(triples)
	if len(entities) < 2 {
		return copyTriples(triples), buildCanonicalMap(entities, nil)
	}

	var groups []ai.StandardizeGroup
	failed := 0
	batches := 0
	for start := 0; start < len(entities); start += ai.StandardizeBatchSize {
		end := min(start+ai.StandardizeBatchSize, len(entities))
		batches++

		res, err := ai.CallStandardizeAI(ctx, entities[start:end], g.oracle, g.generateOptions(ai.StandardizeSystemPrompt)...)
		if err != nil {
			failed++
			logger.Warn("[Standardize] Batch failed, keeping names", "batch", batches, "entities", end-start, "err", err)
			continue
		}
		groups = append(groups, res.Groups...)
	}

	if failed == batches {
		return copyTriples(triples), buildCanonicalMap(entities, nil)
	}

	canonical := buildCanonicalMap(entities, groups)
	out := canonical.Apply(triples)

	logger.Debug("[Standardize] Entities standardized",
		"before", len(entities),
		"after", len(common.UniqueEntities(out)),
		"groups", len(groups),
	)
	return out, canonical
}

// buildCanonicalMap maps every entity to the canonical name of its group.
//
// A variant claimed by several groups stays with the first group in name
// order. Chains are collapsed, so a canonical name that is itself a variant
// of another group resolves to that group's canonical name. Every canonical
// name maps to itself.
func buildCanonicalMap(entities []string, groups []ai.StandardizeGroup) common.CanonicalMap {
	sorted := make([]ai.StandardizeGroup, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	parent := make(map[string]string)
	for _, grp := range sorted {
		canonical := ai.NormalizeEntityName(grp.Name)
		if canonical == "" {
			continue
		}
		for _, v := range grp.Entities {
			v = ai.NormalizeEntityName(v)
			if v == "" || v == canonical {
				continue
			}
			if _, taken := parent[v]; taken {
				continue
			}
			parent[v] = canonical
		}
	}
	breakCycles(parent)

	resolve := func(name string) string {
		for {
			next, ok := parent[name]
			if !ok || next == name {
				return name
			}
			name = next
		}
	}

	out := make(common.CanonicalMap, len(entities))
	for _, e := range entities {
		out[e] = resolve(ai.NormalizeEntityName(e))
	}
	for _, c := range out {
		out[c] = c
	}
	return out
}

// breakCycles removes the outgoing link of the smallest name on every
// cycle of parent, making it the root of its chain.
func breakCycles(parent map[string]string) {
	keys := make([]string, 0, len(parent))
	for k := range parent {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, start := range keys {
		onPath := make(map[string]bool)
		cur := start
		for {
			next, ok := parent[cur]
			if !ok {
				break
			}
			if onPath[cur] {
				root := cur
				for n := parent[cur]; n != cur; n = parent[n] {
					root = min(root, n)
				}
				delete(parent, root)
				break
			}
			onPath[cur] = true
			cur = next
		}
	}
}

func copyTriples(triples []common.Triple) []common.Triple {
	out := make([]common.Triple, len(triples))
	copy(out, triples)
	return out
}
