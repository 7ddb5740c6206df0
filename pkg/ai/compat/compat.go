// Package compat talks to any chat-completion endpoint over plain HTTP.
//
// The request body is {model, messages, max_tokens, temperature, stream}
// and the reply is read either from choices[0].message.content or from a
// top-level "reply" field, which covers OpenAI-style servers as well as
// simple gateways.
package compat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/ai"
)

const DefaultTimeout = 60 * time.Second

// GraphCompatClient implements ai.GraphAIClient over raw HTTP.
type GraphCompatClient struct {
	url         string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int

	httpClient *http.Client

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics
}

// NewGraphCompatClientParams configures a GraphCompatClient.
//
// URL is the full completion endpoint, e.g.
// https://api.example.com/v1/chat/completions. Timeout defaults to 60s.
type NewGraphCompatClientParams struct {
	URL         string
	ApiKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration

	HTTPClient *http.Client
}

func NewGraphCompatClient(params NewGraphCompatClientParams) *GraphCompatClient {
	httpClient := params.HTTPClient
	if httpClient == nil {
		timeout := params.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &GraphCompatClient{
		url:         params.URL,
		apiKey:      params.ApiKey,
		model:       params.Model,
		temperature: params.Temperature,
		maxTokens:   params.MaxTokens,
		httpClient:  httpClient,
	}
}

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []ai.ChatMessage `json:"messages"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature float64          `json:"temperature"`
	Stream      bool             `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Reply *string `json:"reply"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GenerateCompletion posts the prompt and returns the reply text. Transport
// failures, timeouts and non-200 statuses wrap ai.ErrOracleUnavailable.
func (c *GraphCompatClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.ApplyOptions(ai.GenerateOptions{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}, opts...)

	payload, err := json.Marshal(chatRequest{
		Model:       options.Model,
		Messages:    ai.BuildMessages(options, prompt),
		MaxTokens:   options.MaxTokens,
		Temperature: options.Temperature,
		Stream:      false,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ai.ErrOracleUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ai.ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", ai.ErrOracleUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ai.ErrOracleUnavailable, resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ai.ErrOracleUnavailable, err)
	}

	c.modifyMetrics(ai.ModelMetrics{
		Requests:     1,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
		TotalTokens:  parsed.Usage.TotalTokens,
		DurationMs:   time.Since(start).Milliseconds(),
	})

	if len(parsed.Choices) > 0 {
		return parsed.Choices[0].Message.Content, nil
	}
	if parsed.Reply != nil {
		return *parsed.Reply, nil
	}
	return "", fmt.Errorf("%w: response has neither choices nor reply", ai.ErrOracleUnavailable)
}

// GenerateCompletionWithFormat has no server-side schema support; the reply
// is parsed leniently into out.
func (c *GraphCompatClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	if out == nil {
		return errors.New("out must be a non-nil pointer")
	}

	content, err := c.GenerateCompletion(ctx, prompt, opts...)
	if err != nil {
		return err
	}
	return ai.UnmarshalFlexible(content, out)
}

func (c *GraphCompatClient) ResetMetrics() {
	c.metricsLock.Lock()
	c.metrics = ai.ModelMetrics{}
	c.metricsLock.Unlock()
}

func (c *GraphCompatClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *GraphCompatClient) modifyMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	c.metrics.Add(m)
	c.metricsLock.Unlock()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
