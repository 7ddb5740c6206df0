package main

import (
	"fmt"

	"github.com/OFFIS-RIT/kiwi/kgraph/internal/config"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/ai"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/ai/compat"
	oai "github.com/OFFIS-RIT/kiwi/kgraph/pkg/ai/ollama"
	gai "github.com/OFFIS-RIT/kiwi/kgraph/pkg/ai/openai"
)

// newOracle builds the configured backend and wraps it with retries.
func newOracle(cfg config.AIConfig) (ai.GraphAIClient, error) {
	var client ai.GraphAIClient

	switch cfg.Adapter {
	case "ollama":
		c, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,

			BaseURL: cfg.URL,
			ApiKey:  cfg.Key,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create Ollama client: %w", err)
		}
		client = c
	case "compat":
		if cfg.URL == "" {
			return nil, fmt.Errorf("compat adapter needs a completion URL")
		}
		client = compat.NewGraphCompatClient(compat.NewGraphCompatClientParams{
			URL:         cfg.URL,
			ApiKey:      cfg.Key,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		})
	default:
		client = gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,

			ChatURL: cfg.URL,
			ChatKey: cfg.Key,
		})
	}

	return ai.NewRetryClient(client, cfg.Retries, cfg.RetryDelay), nil
}
