package graph

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/ai"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/logger"
)

// ExtractReport describes one extraction run. Failed holds the 1-based
// indices of windows that produced no triples.
type ExtractReport struct {
	Chunks  int   `json:"chunks"`
	Failed  []int `json:"failed"`
	Dropped int   `json:"dropped"`
}

// Succeeded returns the number of windows that produced triples.
func (r ExtractReport) Succeeded() int {
	return r.Chunks - len(r.Failed)
}

// Extract chunks text and asks the oracle for triples window by window, in
// order. A window whose call fails or yields nothing is logged and skipped.
// Triples are stamped with their 1-based window index and are not
// deduplicated across windows.
func (g *GraphClient) Extract(ctx context.Context, text string) ([]common.Triple, ExtractReport) {
	windows := Chunk(text, DefaultChunkOptions(g.chunkSize, g.overlap))
	report := ExtractReport{Chunks: len(windows), Failed: []int{}}
	triples := make([]common.Triple, 0)

	logger.Debug("[Extract] Text chunked", "chunks", len(windows), "chunk_size", g.chunkSize, "overlap", g.overlap)

	for i, window := range windows {
		index := i + 1
		if err := ctx.Err(); err != nil {
			for j := index; j <= len(windows); j++ {
				report.Failed = append(report.Failed, j)
			}
			logger.Warn("[Extract] Cancelled", "remaining", len(windows)-i, "err", err)
			break
		}

		found, dropped, err := g.extractWindow(ctx, index, window)
		report.Dropped += dropped
		if err != nil {
			report.Failed = append(report.Failed, index)
			logger.Warn("[Extract] Skipping chunk", "chunk", index, "of", len(windows), "err", err)
			continue
		}
		if len(found) == 0 {
			report.Failed = append(report.Failed, index)
			logger.Warn("[Extract] No triples in chunk", "chunk", index, "of", len(windows))
			continue
		}

		logger.Debug("[Extract] Chunk processed", "chunk", index, "triples", len(found), "dropped", dropped)
		triples = append(triples, found...)
	}

	return triples, report
}

func (g *GraphClient) extractWindow(ctx context.Context, index int, window string) ([]common.Triple, int, error) {
	callCtx := ctx
	if g.chunkTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.chunkTimeout)
		defer cancel()
	}

	prompt := fmt.Sprintf("%s```\n%s\n```", ai.ExtractUserPrompt, window)
	reply, err := g.oracle.GenerateCompletion(callCtx, prompt, g.generateOptions(ai.ExtractSystemPrompt)...)
	if err != nil {
		return nil, 0, err
	}

	candidates, err := ai.ParseTriples(reply)
	if err != nil {
		return nil, 0, err
	}

	triples, dropped := ai.ValidateTriples(candidates)
	for i := range triples {
		triples[i].Chunk = index
	}
	limitPredicates(triples)

	return triples, dropped, nil
}
