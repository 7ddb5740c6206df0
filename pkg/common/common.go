package common

import (
	"sort"
	"strings"
)

// Triple is a single subject-predicate-object fact.
//
// Chunk is the 1-based index of the text window the triple was extracted
// from. It is zero for triples that did not come from a window (inferred
// triples, sample data) and is omitted from JSON in that case.
//
// Inferred marks triples proposed by the oracle to bridge or densify the
// graph rather than read directly from text. An inferred triple never has
// the same subject and object.
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
	Chunk     int    `json:"chunk,omitempty"`
	Inferred  bool   `json:"inferred,omitempty"`
}

// Key identifies a triple by its three text fields.
func (t Triple) Key() string {
	return t.Subject + "\x1f" + t.Predicate + "\x1f" + t.Object
}

// CanonicalMap maps every known variant name of an entity to its canonical
// name. Canonical names map to themselves, so applying the map twice gives
// the same result as applying it once.
type CanonicalMap map[string]string

// Resolve returns the canonical form of name, or name itself when unknown.
func (m CanonicalMap) Resolve(name string) string {
	if canonical, ok := m[name]; ok {
		return canonical
	}
	return name
}

// Apply rewrites subject and object of every triple through the map.
// Predicate, Chunk and Inferred are left untouched.
func (m CanonicalMap) Apply(triples []Triple) []Triple {
	out := make([]Triple, len(triples))
	for i, t := range triples {
		t.Subject = m.Resolve(t.Subject)
		t.Object = m.Resolve(t.Object)
		out[i] = t
	}
	return out
}

// UniqueEntities returns the sorted set of names appearing as subject or object.
func UniqueEntities(triples []Triple) []string {
	seen := make(map[string]struct{}, len(triples)*2)
	for _, t := range triples {
		seen[t.Subject] = struct{}{}
		seen[t.Object] = struct{}{}
	}
	delete(seen, "")

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// UniquePredicates returns the sorted set of predicates.
func UniquePredicates(triples []Triple) []string {
	seen := make(map[string]struct{})
	for _, t := range triples {
		seen[t.Predicate] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// CountInferred returns how many triples carry the inferred flag.
func CountInferred(triples []Triple) int {
	n := 0
	for _, t := range triples {
		if t.Inferred {
			n++
		}
	}
	return n
}

// TrimTriple trims whitespace around all three text fields.
func TrimTriple(t Triple) Triple {
	t.Subject = strings.TrimSpace(t.Subject)
	t.Predicate = strings.TrimSpace(t.Predicate)
	t.Object = strings.TrimSpace(t.Object)
	return t
}
