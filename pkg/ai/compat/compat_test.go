package compat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/ai"
)

func TestGenerateCompletionResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "openai choices",
			body: `{"choices":[{"message":{"role":"assistant","content":"[1]"}}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`,
			want: "[1]",
		},
		{
			name: "reply field",
			body: `{"reply":"[2]"}`,
			want: "[2]",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got chatRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer secret" {
					t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
				}
				if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
					t.Errorf("decode request: %v", err)
				}
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewGraphCompatClient(NewGraphCompatClientParams{
				URL:         srv.URL,
				ApiKey:      "secret",
				Model:       "test-model",
				Temperature: 0.2,
				MaxTokens:   256,
			})
			reply, err := c.GenerateCompletion(context.Background(), "hello", ai.WithSystemPrompts("sys"))
			if err != nil {
				t.Fatalf("GenerateCompletion() error = %v", err)
			}
			if reply != tc.want {
				t.Fatalf("reply = %q, want %q", reply, tc.want)
			}
			if got.Model != "test-model" || got.MaxTokens != 256 || got.Stream {
				t.Fatalf("unexpected request: %+v", got)
			}
			if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "hello" {
				t.Fatalf("unexpected messages: %+v", got.Messages)
			}
			if c.GetMetrics().Requests != 1 {
				t.Fatalf("expected one recorded request, got %+v", c.GetMetrics())
			}
		})
	}
}

func TestGenerateCompletionFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
	}{
		{
			name: "non 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "overloaded", http.StatusServiceUnavailable)
			},
		},
		{
			name: "no content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"choices":[]}`))
			},
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>`))
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(200 * time.Millisecond):
				case <-r.Context().Done():
				}
			},
			timeout: 20 * time.Millisecond,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c := NewGraphCompatClient(NewGraphCompatClientParams{URL: srv.URL, Timeout: tc.timeout})
			_, err := c.GenerateCompletion(context.Background(), "hello")
			if !errors.Is(err, ai.ErrOracleUnavailable) {
				t.Fatalf("expected ErrOracleUnavailable, got %v", err)
			}
		})
	}
}

func TestGenerateCompletionConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewGraphCompatClient(NewGraphCompatClientParams{URL: url})
	_, err := c.GenerateCompletion(context.Background(), "hello")
	if !errors.Is(err, ai.ErrOracleUnavailable) {
		t.Fatalf("expected ErrOracleUnavailable, got %v", err)
	}
}

func TestGenerateCompletionWithFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"reply":"` + "```json\\n{\\\"groups\\\":[{\\\"canonicalName\\\":\\\"ai\\\",\\\"entities\\\":[\\\"AI\\\"]}]}\\n```" + `"}`))
	}))
	defer srv.Close()

	c := NewGraphCompatClient(NewGraphCompatClientParams{URL: srv.URL})
	var out ai.StandardizeResponse
	if err := c.GenerateCompletionWithFormat(context.Background(), "n", "d", "p", &out); err != nil {
		t.Fatalf("GenerateCompletionWithFormat() error = %v", err)
	}
	if len(out.Groups) != 1 || out.Groups[0].Name != "ai" {
		t.Fatalf("unexpected groups: %+v", out.Groups)
	}
}
