package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/common"

	"github.com/go-playground/validator"
	"github.com/kaptinlin/jsonrepair"
)

var (
	bareKeyRe       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

	validate = validator.New()
)

const maxBracketScans = 16

// Candidate is one JSON object recovered from an oracle reply, with keys
// lowercased. It still has to pass ValidateTriple.
type Candidate map[string]any

// ParseTriples recovers a list of triple candidates from an oracle reply.
//
// The stages run in order and the first one that yields a JSON array wins:
//  1. strip a fenced code block
//  2. parse the whole body
//  3. parse the bracket-matched array starting at the first '['
//  4. quote bare keys and drop trailing commas, then reparse
//  5. for a truncated array, reassemble every balanced {...} object after
//     the '[' and reparse with the same repairs
//  6. hand the best candidate to jsonrepair
//
// When nothing can be recovered the error wraps ErrUnparseableOutput.
func ParseTriples(text string) ([]Candidate, error) {
	body := StripCodeFence(text)
	if body == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrUnparseableOutput)
	}

	if items, ok := decodeCandidates(body); ok {
		return items, nil
	}

	candidate := body
	found := false
	for offset, tries := 0, 0; offset < len(body) && tries < maxBracketScans; tries++ {
		rel := strings.IndexByte(body[offset:], '[')
		if rel < 0 {
			break
		}
		start := offset + rel
		offset = start + 1

		end := matchBracket(body, start)
		if end < 0 {
			objects := balancedObjects(body[start+1:])
			if len(objects) == 0 {
				continue
			}
			found = true
			candidate = "[" + strings.Join(objects, ",") + "]"
			if items, ok := decodeCandidates(candidate); ok {
				return items, nil
			}
			if items, ok := decodeCandidates(RepairJSON(candidate)); ok {
				return items, nil
			}
			break
		}

		slice := body[start : end+1]
		if !found {
			candidate = slice
			found = true
		}
		if items, ok := decodeCandidates(slice); ok {
			return items, nil
		}
		if items, ok := decodeCandidates(RepairJSON(slice)); ok {
			return items, nil
		}
	}
	if !found {
		if items, ok := decodeCandidates(RepairJSON(body)); ok {
			return items, nil
		}
	}

	if repaired, err := jsonrepair.JSONRepair(candidate); err == nil {
		if items, ok := decodeCandidates(repaired); ok {
			return items, nil
		}
	}

	return nil, fmt.Errorf("%w: no triple array found", ErrUnparseableOutput)
}

// RepairJSON applies the low-risk repairs: quoting bare object keys and
// removing trailing commas before a closing bracket or brace.
func RepairJSON(s string) string {
	s = bareKeyRe.ReplaceAllString(s, `$1"$2":`)
	return trailingCommaRe.ReplaceAllString(s, "$1")
}

// decodeCandidates accepts an array of objects, an object wrapping such an
// array under "triples" or "relationships", or a single triple object.
func decodeCandidates(s string) ([]Candidate, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}

	switch val := v.(type) {
	case []any:
		objects := collectObjects(val)
		return objects, len(val) == 0 || len(objects) > 0
	case map[string]any:
		obj := lowerKeys(val)
		for _, key := range []string{"triples", "relationships"} {
			if arr, ok := obj[key].([]any); ok {
				objects := collectObjects(arr)
				return objects, len(arr) == 0 || len(objects) > 0
			}
		}
		if _, ok := obj["subject"]; ok {
			return []Candidate{obj}, true
		}
	}
	return nil, false
}

func collectObjects(arr []any) []Candidate {
	out := make([]Candidate, 0, len(arr))
	for _, item := range arr {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, lowerKeys(obj))
		}
	}
	return out
}

func lowerKeys(m map[string]any) Candidate {
	out := make(Candidate, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

// matchBracket returns the index of the ']' closing the '[' at start, or -1
// when the array never closes. Brackets inside JSON strings are ignored.
func matchBracket(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// balancedObjects returns every complete top-level {...} span in s.
// A trailing incomplete object is discarded.
func balancedObjects(s string) []string {
	var out []string
	depth := 0
	begin := -1
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				begin = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && begin >= 0 {
				out = append(out, s[begin:i+1])
				begin = -1
			}
		}
	}
	return out
}

type tripleRecord struct {
	Subject   string `validate:"required"`
	Predicate string `validate:"required"`
	Object    string `validate:"required"`
}

// ValidateTriple turns a candidate into a typed triple. All three fields must
// be present and non-empty after coercion to trimmed strings; otherwise the
// error wraps ErrMalformedTriple.
func ValidateTriple(c Candidate) (common.Triple, error) {
	rec := tripleRecord{
		Subject:   coerceString(c["subject"]),
		Predicate: coerceString(c["predicate"]),
		Object:    coerceString(c["object"]),
	}
	if err := validate.Struct(rec); err != nil {
		return common.Triple{}, fmt.Errorf("%w: %v", ErrMalformedTriple, err)
	}

	return common.Triple{
		Subject:   rec.Subject,
		Predicate: rec.Predicate,
		Object:    rec.Object,
	}, nil
}

// ValidateTriples keeps the candidates that pass ValidateTriple and reports
// how many were dropped.
func ValidateTriples(candidates []Candidate) ([]common.Triple, int) {
	out := make([]common.Triple, 0, len(candidates))
	dropped := 0
	for _, c := range candidates {
		t, err := ValidateTriple(c)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, t)
	}
	return out, dropped
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
