package ai

import (
	"errors"
	"reflect"
	"testing"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/common"
)

func TestParseTriples(t *testing.T) {
	xyz := []common.Triple{{Subject: "x", Predicate: "y", Object: "z"}}

	tests := []struct {
		name  string
		input string
		want  []common.Triple
	}{
		{
			name:  "fenced block with prose",
			input: "here is the json: ```json\n[{\"subject\":\"x\",\"predicate\":\"y\",\"object\":\"z\"}]\n```",
			want:  xyz,
		},
		{
			name:  "plain array",
			input: `[{"subject":"x","predicate":"y","object":"z"}]`,
			want:  xyz,
		},
		{
			name:  "array embedded in prose",
			input: `Sure! [{"subject":"x","predicate":"y","object":"z"}] Hope this helps.`,
			want:  xyz,
		},
		{
			name:  "bracket noise before array",
			input: `[Note] result: [{"subject":"x","predicate":"y","object":"z"}]`,
			want:  xyz,
		},
		{
			name:  "brackets inside strings",
			input: `[{"subject":"x [1]","predicate":"y","object":"z]"}]`,
			want:  []common.Triple{{Subject: "x [1]", Predicate: "y", Object: "z]"}},
		},
		{
			name:  "bare keys",
			input: `[{subject: "x", predicate: "y", object: "z"}]`,
			want:  xyz,
		},
		{
			name:  "trailing commas",
			input: `[{"subject":"x","predicate":"y","object":"z",},]`,
			want:  xyz,
		},
		{
			name: "truncated array",
			input: `[{"subject":"x","predicate":"y","object":"z"},
{"subject":"a","predicate":"b","object":"c"},
{"subject":"d","predic`,
			want: []common.Triple{
				{Subject: "x", Predicate: "y", Object: "z"},
				{Subject: "a", Predicate: "b", Object: "c"},
			},
		},
		{
			name:  "truncated array with bare keys",
			input: "```json\n[{subject: \"x\", predicate: \"y\", object: \"z\",}, {subject: \"q\"",
			want:  xyz,
		},
		{
			name:  "wrapped in object",
			input: `{"triples":[{"subject":"x","predicate":"y","object":"z"}]}`,
			want:  xyz,
		},
		{
			name:  "single object",
			input: `{"Subject":" x ","Predicate":"y","Object":"z"}`,
			want:  xyz,
		},
		{
			name:  "empty array",
			input: `[]`,
			want:  []common.Triple{},
		},
		{
			name:  "cjk content",
			input: `[{"subject":"机器学习","predicate":"属于","object":"人工智能"}]`,
			want:  []common.Triple{{Subject: "机器学习", Predicate: "属于", Object: "人工智能"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			candidates, err := ParseTriples(tc.input)
			if err != nil {
				t.Fatalf("ParseTriples() error = %v", err)
			}
			got, _ := ValidateTriples(candidates)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParseTriples() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestParseTriplesUnparseable(t *testing.T) {
	for _, input := range []string{"", "   ", "I could not find any relationships."} {
		_, err := ParseTriples(input)
		if !errors.Is(err, ErrUnparseableOutput) {
			t.Fatalf("ParseTriples(%q) error = %v, want ErrUnparseableOutput", input, err)
		}
	}
}

func TestValidateTriple(t *testing.T) {
	tests := []struct {
		name    string
		in      Candidate
		want    common.Triple
		wantErr bool
	}{
		{
			name: "complete",
			in:   Candidate{"subject": "a", "predicate": "b", "object": "c"},
			want: common.Triple{Subject: "a", Predicate: "b", Object: "c"},
		},
		{
			name: "coerces numbers and bools",
			in:   Candidate{"subject": 2024.0, "predicate": "is", "object": true},
			want: common.Triple{Subject: "2024", Predicate: "is", Object: "true"},
		},
		{
			name:    "missing object",
			in:      Candidate{"subject": "a", "predicate": "b"},
			wantErr: true,
		},
		{
			name:    "whitespace only predicate",
			in:      Candidate{"subject": "a", "predicate": "  ", "object": "c"},
			wantErr: true,
		},
		{
			name:    "null subject",
			in:      Candidate{"subject": nil, "predicate": "b", "object": "c"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateTriple(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedTriple) {
					t.Fatalf("expected ErrMalformedTriple, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateTriple() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("ValidateTriple() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestValidateTriplesCountsDropped(t *testing.T) {
	got, dropped := ValidateTriples([]Candidate{
		{"subject": "a", "predicate": "b", "object": "c"},
		{"subject": "a"},
		{"predicate": "b", "object": "c"},
	})
	if len(got) != 1 || dropped != 2 {
		t.Fatalf("got %d triples and %d dropped, want 1 and 2", len(got), dropped)
	}
}
