package ai

import (
	"context"
	"time"

	"github.com/OFFIS-RIT/kiwi/kgraph/internal/util"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/logger"
)

// RetryClient wraps a GraphAIClient and retries failed calls with
// exponential backoff. Parse failures of structured calls are retried too.
type RetryClient struct {
	inner    GraphAIClient
	maxTries int
	delay    time.Duration
}

// NewRetryClient returns a client that tries every call up to maxTries times,
// waiting delay before the second attempt and doubling it afterwards.
func NewRetryClient(inner GraphAIClient, maxTries int, delay time.Duration) *RetryClient {
	if maxTries <= 0 {
		maxTries = 1
	}
	return &RetryClient{inner: inner, maxTries: maxTries, delay: delay}
}

func (c *RetryClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...GenerateOption,
) (string, error) {
	attempt := 0
	return util.RetryWithBackoff(ctx, c.maxTries, c.delay, func(ctx context.Context) (string, error) {
		attempt++
		res, err := c.inner.GenerateCompletion(ctx, prompt, opts...)
		if err != nil && attempt < c.maxTries {
			logger.Debug("[AI] completion failed, retrying", "attempt", attempt, "err", err)
		}
		return res, err
	})
}

func (c *RetryClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...GenerateOption,
) error {
	attempt := 0
	_, err := util.RetryWithBackoff(ctx, c.maxTries, c.delay, func(ctx context.Context) (struct{}, error) {
		attempt++
		err := c.inner.GenerateCompletionWithFormat(ctx, name, description, prompt, out, opts...)
		if err != nil && attempt < c.maxTries {
			logger.Debug("[AI] structured completion failed, retrying", "name", name, "attempt", attempt, "err", err)
		}
		return struct{}{}, err
	})
	return err
}

func (c *RetryClient) ResetMetrics() { c.inner.ResetMetrics() }

func (c *RetryClient) GetMetrics() ModelMetrics { return c.inner.GetMetrics() }
