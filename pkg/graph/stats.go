package graph

import (
	"sort"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/common"
)

// Count is a name with its number of occurrences.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats summarizes a triple set.
type Stats struct {
	TotalTriples    int     `json:"total_triples"`
	UniqueEntities  int     `json:"unique_entities"`
	UniqueRelations int     `json:"unique_relations"`
	InferredTriples int     `json:"inferred_triples"`
	TopPredicates   []Count `json:"top_predicates"`
	TopEntities     []Count `json:"top_entities"`
}

// ComputeStats counts triples, distinct names and the n most frequent
// predicates and entities.
func ComputeStats(triples []common.Triple, n int) Stats {
	return Stats{
		TotalTriples:    len(triples),
		UniqueEntities:  len(common.UniqueEntities(triples)),
		UniqueRelations: len(common.UniquePredicates(triples)),
		InferredTriples: common.CountInferred(triples),
		TopPredicates:   TopN(PredicateFrequency(triples), n),
		TopEntities:     TopN(EntityFrequency(triples), n),
	}
}

// PredicateFrequency counts predicates, most frequent first.
func PredicateFrequency(triples []common.Triple) []Count {
	counts := make(map[string]int)
	for _, t := range triples {
		counts[t.Predicate]++
	}
	return sortCounts(counts)
}

// EntityFrequency counts how often each entity appears as subject or
// object, most frequent first.
func EntityFrequency(triples []common.Triple) []Count {
	counts := make(map[string]int)
	for _, t := range triples {
		counts[t.Subject]++
		counts[t.Object]++
	}
	return sortCounts(counts)
}

// TopN returns at most the first n entries of counts.
func TopN(counts []Count, n int) []Count {
	if n < 0 || n >= len(counts) {
		return counts
	}
	return counts[:n]
}

func sortCounts(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for name, c := range counts {
		out = append(out, Count{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
