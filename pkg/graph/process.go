package graph

import (
	"context"

	"github.com/OFFIS-RIT/kiwi/kgraph/internal/timing"
	"github.com/OFFIS-RIT/kiwi/kgraph/internal/util"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/logger"
)

const statsTopN = 10

// Result is the outcome of running the pipeline on one document.
type Result struct {
	Triples   []common.Triple     `json:"triples"`
	Canonical common.CanonicalMap `json:"canonical"`
	Extract   ExtractReport       `json:"extract"`
	Infer     InferReport         `json:"infer"`
	Stats     Stats               `json:"stats"`
	Phases    []timing.Phase      `json:"phases"`
	Seconds   float64             `json:"processing_seconds"`
}

// Process normalizes text and runs extraction, standardization and
// inference on it. Phase failures degrade the result instead of aborting;
// the returned triple set may be empty.
func (g *GraphClient) Process(ctx context.Context, text string) *Result {
	sw := timing.NewStopwatch()
	res := &Result{}

	text = util.NormalizeText(text)

	done := sw.Track("extract")
	triples, report := g.Extract(ctx, text)
	done()
	res.Extract = report
	logger.Info("[Graph] Extraction finished",
		"chunks", report.Chunks,
		"failed", len(report.Failed),
		"triples", len(triples),
	)

	if g.standardize && len(triples) > 0 {
		done = sw.Track("standardize")
		triples, res.Canonical = g.Standardize(ctx, triples)
		done()
	} else {
		res.Canonical = buildCanonicalMap(common.UniqueEntities(triples), nil)
	}

	before := TopN(PredicateFrequency(triples), statsTopN)
	if g.infer && len(triples) > 0 {
		done = sw.Track("infer")
		triples, res.Infer = g.Infer(ctx, triples)
		done()
		logger.Debug("[Graph] Top predicates", "before_inference", before, "after_inference", TopN(PredicateFrequency(triples), statsTopN))
	}
	limitPredicates(triples)

	res.Triples = triples
	res.Stats = ComputeStats(triples, statsTopN)
	res.Phases = sw.Phases()
	res.Seconds = sw.Total()
	return res
}
