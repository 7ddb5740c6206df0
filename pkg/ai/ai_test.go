package ai

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type flakyClient struct {
	failures int
	calls    int
	reply    string
}

func (f *flakyClient) GenerateCompletion(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", ErrOracleUnavailable
	}
	return f.reply, nil
}

func (f *flakyClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...GenerateOption) error {
	res, err := f.GenerateCompletion(ctx, prompt, opts...)
	if err != nil {
		return err
	}
	return UnmarshalFlexible(res, out)
}

func (f *flakyClient) ResetMetrics()            {}
func (f *flakyClient) GetMetrics() ModelMetrics { return ModelMetrics{} }

func TestApplyOptions(t *testing.T) {
	got := ApplyOptions(
		GenerateOptions{Model: "default", Temperature: 0.3},
		WithModel("custom"),
		WithModel(""),
		WithSystemPrompts("a", "b"),
		WithTemperature(0.1),
		WithMaxTokens(512),
	)
	want := GenerateOptions{Model: "custom", SystemPrompts: []string{"a", "b"}, Temperature: 0.1, MaxTokens: 512}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ApplyOptions() = %+v, want %+v", got, want)
	}
}

func TestBuildMessages(t *testing.T) {
	msgs := BuildMessages(GenerateOptions{SystemPrompts: []string{"sys"}}, "hello")
	want := []ChatMessage{{Role: "system", Content: "sys"}, {Role: "user", Content: "hello"}}
	if !reflect.DeepEqual(msgs, want) {
		t.Fatalf("BuildMessages() = %+v, want %+v", msgs, want)
	}
}

func TestModelMetricsAdd(t *testing.T) {
	var m ModelMetrics
	m.Add(ModelMetrics{Requests: 1, InputTokens: 100, OutputTokens: 50, TotalTokens: 150, DurationMs: 1000})
	m.Add(ModelMetrics{Requests: 1, InputTokens: 10, OutputTokens: 40, TotalTokens: 50, DurationMs: 1000})
	if m.Requests != 2 || m.TotalTokens != 200 || m.DurationMs != 2000 {
		t.Fatalf("unexpected totals: %+v", m)
	}
	if m.TokenPerSecond != 100 {
		t.Fatalf("TokenPerSecond = %v, want 100", m.TokenPerSecond)
	}
}

func TestRetryClientRecovers(t *testing.T) {
	inner := &flakyClient{failures: 2, reply: "ok"}
	c := NewRetryClient(inner, 3, 0)

	got, err := c.GenerateCompletion(context.Background(), "p")
	if err != nil {
		t.Fatalf("GenerateCompletion() error = %v", err)
	}
	if got != "ok" || inner.calls != 3 {
		t.Fatalf("got %q after %d calls", got, inner.calls)
	}
}

func TestRetryClientGivesUp(t *testing.T) {
	inner := &flakyClient{failures: 5}
	c := NewRetryClient(inner, 2, 0)

	_, err := c.GenerateCompletion(context.Background(), "p")
	if !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("expected ErrOracleUnavailable, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", inner.calls)
	}
}

func TestCallStandardizeAIShapes(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  map[string][]string
	}{
		{
			name:  "structured groups",
			reply: `{"groups":[{"canonicalName":"artificial intelligence","entities":["ai","a.i."]}]}`,
			want:  map[string][]string{"artificial intelligence": {"ai", "a.i."}},
		},
		{
			name:  "plain object",
			reply: "```json\n{\"artificial intelligence\": [\"ai\", \"a.i.\"]}\n```",
			want:  map[string][]string{"artificial intelligence": {"ai", "a.i."}},
		},
		{
			name:  "bare list",
			reply: `[{"standard":"usa","variants":["united states","us"]}]`,
			want:  map[string][]string{"usa": {"united states", "us"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &flakyClient{reply: tc.reply}
			res, err := CallStandardizeAI(context.Background(), []string{"ai", "a.i.", "artificial intelligence"}, client)
			if err != nil {
				t.Fatalf("CallStandardizeAI() error = %v", err)
			}
			got := make(map[string][]string)
			for _, g := range res.Groups {
				got[g.Name] = g.Entities
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("groups = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCallStandardizeAISkipsTinyLists(t *testing.T) {
	client := &flakyClient{reply: "never used"}
	res, err := CallStandardizeAI(context.Background(), []string{"only"}, client)
	if err != nil {
		t.Fatalf("CallStandardizeAI() error = %v", err)
	}
	if len(res.Groups) != 0 || client.calls != 0 {
		t.Fatalf("expected no oracle call, got %d calls", client.calls)
	}
}
