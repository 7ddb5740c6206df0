package graph

import (
	"fmt"
	"time"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/ai"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/analytics"
)

// GraphClient runs the triple pipeline for one document at a time:
// chunking, extraction, standardization and inference.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	oracle ai.GraphAIClient

	chunkSize    int
	overlap      int
	model        string
	temperature  float64
	maxTokens    int
	chunkTimeout time.Duration

	standardize bool
	infer       bool

	maxGaps                 int
	sharedNeighborThreshold int
	maxPairsPerCommunity    int
	detector                analytics.Detector
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// Oracle is required. Zero values select the defaults: ChunkSize 500,
// Overlap 50 (a negative Overlap disables overlap), MaxGaps 10,
// SharedNeighborThreshold 2 and MaxPairsPerCommunity 5.
// ChunkTimeout bounds a single extraction call; zero means no deadline
// beyond the caller's context.
type NewGraphClientParams struct {
	Oracle ai.GraphAIClient

	ChunkSize    int
	Overlap      int
	Model        string
	Temperature  float64
	MaxTokens    int
	ChunkTimeout time.Duration

	DisableStandardize bool
	DisableInference   bool

	MaxGaps                 int
	SharedNeighborThreshold int
	MaxPairsPerCommunity    int
	Detector                analytics.Detector
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
//		Oracle:    oracle,
//		ChunkSize: 500,
//		Overlap:   50,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	if params.Oracle == nil {
		return nil, fmt.Errorf("oracle is required")
	}

	g := &GraphClient{
		oracle:                  params.Oracle,
		chunkSize:               orDefault(params.ChunkSize, 500),
		overlap:                 params.Overlap,
		model:                   params.Model,
		temperature:             params.Temperature,
		maxTokens:               params.MaxTokens,
		chunkTimeout:            params.ChunkTimeout,
		standardize:             !params.DisableStandardize,
		infer:                   !params.DisableInference,
		maxGaps:                 orDefault(params.MaxGaps, 10),
		sharedNeighborThreshold: orDefault(params.SharedNeighborThreshold, 2),
		maxPairsPerCommunity:    orDefault(params.MaxPairsPerCommunity, 5),
		detector:                params.Detector,
	}
	if g.overlap == 0 {
		g.overlap = 50
	}
	if g.overlap < 0 {
		g.overlap = 0
	}
	if g.overlap >= g.chunkSize {
		return nil, fmt.Errorf("overlap %d must be smaller than chunk size %d", g.overlap, g.chunkSize)
	}
	if g.detector == nil {
		g.detector = analytics.LouvainDetector{Resolution: 1}
	}

	return g, nil
}

func (g *GraphClient) generateOptions(systemPrompt string) []ai.GenerateOption {
	opts := []ai.GenerateOption{
		ai.WithSystemPrompts(systemPrompt),
		ai.WithModel(g.model),
	}
	if g.temperature > 0 {
		opts = append(opts, ai.WithTemperature(g.temperature))
	}
	if g.maxTokens > 0 {
		opts = append(opts, ai.WithMaxTokens(g.maxTokens))
	}
	return opts
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
