package graph

import (
	"strings"
	"unicode"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/common"
)

// MaxPredicateWords caps the length of a predicate. Every CJK ideograph
// counts as one word.
const MaxPredicateWords = 3

func isCJK(r rune) bool {
	return r >= 0x4e00 && r <= 0x9fff
}

// LimitPredicate truncates p to its first MaxPredicateWords words and
// collapses inner whitespace.
func LimitPredicate(p string) string {
	p = strings.Join(strings.Fields(p), " ")

	var b strings.Builder
	words := 0
	inWord := false
	for _, r := range p {
		switch {
		case isCJK(r):
			if words == MaxPredicateWords {
				return strings.TrimSpace(b.String())
			}
			words++
			inWord = false
		case unicode.IsSpace(r):
			inWord = false
		default:
			if !inWord {
				if words == MaxPredicateWords {
					return strings.TrimSpace(b.String())
				}
				words++
				inWord = true
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// limitPredicates applies LimitPredicate to every triple in place.
func limitPredicates(triples []common.Triple) {
	for i := range triples {
		triples[i].Predicate = LimitPredicate(triples[i].Predicate)
	}
}
