package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/OFFIS-RIT/kiwi/kgraph/internal/storage"
	"github.com/OFFIS-RIT/kiwi/kgraph/internal/timing"
	"github.com/OFFIS-RIT/kiwi/kgraph/internal/util"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/analytics"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/graph"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/loader"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// IndexKey is the store key of the run summary listing completed documents.
const IndexKey = "index.json"

// Processor turns document text into a pipeline result. *graph.GraphClient
// implements it.
type Processor interface {
	Process(ctx context.Context, text string) *graph.Result
}

// Metadata describes how a document's graph was produced.
type Metadata struct {
	DocumentID        string         `json:"document_id"`
	Source            string         `json:"source"`
	RunID             string         `json:"run_id"`
	TotalTriples      int            `json:"total_triples"`
	UniqueEntities    int            `json:"unique_entities"`
	UniqueRelations   int            `json:"unique_relations"`
	ChunksProcessed   int            `json:"chunks_processed"`
	ChunksFailed      int            `json:"chunks_failed"`
	InferredTriples   int            `json:"inferred_triples"`
	ProcessingSeconds float64        `json:"processing_seconds"`
	Phases            []timing.Phase `json:"phases"`
}

// DocumentOutput is the persisted result of one document.
type DocumentOutput struct {
	Metadata Metadata         `json:"metadata"`
	Triples  []common.Triple  `json:"triples"`
	Graph    analytics.Output `json:"graph"`
}

// Index lists the IDs of every document completed so far.
type Index struct {
	RunID     string   `json:"run_id"`
	Completed []string `json:"completed"`
}

// Summary reports what one Run did.
type Summary struct {
	RunID     string   `json:"run_id"`
	Processed []string `json:"processed"`
	Skipped   []string `json:"skipped"`
	Failed    []string `json:"failed"`
}

// Runner processes documents in parallel and persists one output per
// document. Documents already present in the store are skipped, so an
// interrupted run can be resumed.
type Runner struct {
	processor Processor
	store     storage.Store
	workers   int
	runID     string
	analytics analytics.Options
}

type NewRunnerParams struct {
	Processor Processor
	Store     storage.Store
	Workers   int
	RunID     string
	Detector  analytics.Detector
}

func NewRunner(params NewRunnerParams) (*Runner, error) {
	if params.Processor == nil {
		return nil, errors.New("processor is required")
	}
	if params.Store == nil {
		return nil, errors.New("store is required")
	}
	workers := params.Workers
	if workers <= 0 {
		workers = 1
	}
	runID := params.RunID
	if runID == "" {
		runID = util.NewRunID()
	}
	return &Runner{
		processor: params.Processor,
		store:     params.Store,
		workers:   workers,
		runID:     runID,
		analytics: analytics.Options{Detector: params.Detector},
	}, nil
}

func (r *Runner) RunID() string { return r.runID }

// Run processes docs with at most the configured number of workers. A
// failing document is logged and reported without stopping the others.
// Once ctx is cancelled no further documents are started; the index is
// still written for everything that completed.
func (r *Runner) Run(ctx context.Context, docs []loader.Document) (*Summary, error) {
	index, err := r.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	completed := make(map[string]bool, len(index.Completed))
	for _, id := range index.Completed {
		completed[id] = true
	}

	summary := &Summary{RunID: r.runID}
	var mu sync.Mutex

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.workers)

	for _, doc := range docs {
		if ctx.Err() != nil {
			logger.Warn("[Batch] Cancelled, not scheduling remaining documents", "run_id", r.runID)
			break
		}

		if r.isCompleted(ctx, completed, doc.ID) {
			logger.Info("[Batch] Skipping completed document", "document_id", doc.ID)
			summary.Skipped = append(summary.Skipped, doc.ID)
			completed[doc.ID] = true
			continue
		}

		d := doc
		eg.Go(func() error {
			err := r.processDocument(gCtx, d)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Error("[Batch] Document failed", "document_id", d.ID, "path", d.Path, "err", err)
				summary.Failed = append(summary.Failed, d.ID)
				return nil
			}
			summary.Processed = append(summary.Processed, d.ID)
			return nil
		})
	}

	_ = eg.Wait()

	sort.Strings(summary.Processed)
	sort.Strings(summary.Failed)
	for _, id := range summary.Processed {
		completed[id] = true
	}

	ids := make([]string, 0, len(completed))
	for id := range completed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if err := r.writeJSON(context.WithoutCancel(ctx), IndexKey, Index{RunID: r.runID, Completed: ids}); err != nil {
		return summary, fmt.Errorf("failed to write index: %w", err)
	}

	logger.Info("[Batch] Run finished",
		"run_id", r.runID,
		"processed", len(summary.Processed),
		"skipped", len(summary.Skipped),
		"failed", len(summary.Failed),
	)
	return summary, ctx.Err()
}

func (r *Runner) isCompleted(ctx context.Context, completed map[string]bool, id string) bool {
	if completed[id] {
		return true
	}
	ok, err := r.store.Exists(ctx, OutputKey(id))
	if err != nil {
		logger.Warn("[Batch] Could not check for existing output", "document_id", id, "err", err)
		return false
	}
	return ok
}

// OutputKey is the store key of a document's output.
func OutputKey(id string) string {
	return id + ".json"
}

func (r *Runner) processDocument(ctx context.Context, doc loader.Document) error {
	text, err := doc.GetText(ctx)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", doc.Path, err)
	}

	logger.Info("[Batch] Processing document", "document_id", doc.ID, "path", doc.Path)
	res := r.processor.Process(ctx, text)

	// A cancelled document is left for the next run instead of being
	// persisted half done.
	if err := ctx.Err(); err != nil {
		return err
	}

	out := BuildOutput(doc, r.runID, res, r.analytics)
	if err := r.writeJSON(ctx, OutputKey(doc.ID), out); err != nil {
		return err
	}

	logger.Info("[Batch] Document done",
		"document_id", doc.ID,
		"triples", out.Metadata.TotalTriples,
		"entities", out.Metadata.UniqueEntities,
		"chunks_failed", out.Metadata.ChunksFailed,
		"seconds", out.Metadata.ProcessingSeconds,
	)
	return nil
}

// BuildOutput assembles the persisted form of a pipeline result including
// the rendered graph.
func BuildOutput(doc loader.Document, runID string, res *graph.Result, opts analytics.Options) DocumentOutput {
	triples := res.Triples
	if triples == nil {
		triples = []common.Triple{}
	}

	return DocumentOutput{
		Metadata: Metadata{
			DocumentID:        doc.ID,
			Source:            doc.Path,
			RunID:             runID,
			TotalTriples:      res.Stats.TotalTriples,
			UniqueEntities:    res.Stats.UniqueEntities,
			UniqueRelations:   res.Stats.UniqueRelations,
			ChunksProcessed:   res.Extract.Succeeded(),
			ChunksFailed:      len(res.Extract.Failed),
			InferredTriples:   res.Stats.InferredTriples,
			ProcessingSeconds: res.Seconds,
			Phases:            res.Phases,
		},
		Triples: triples,
		Graph:   analytics.Render(triples, analytics.Analyze(triples, opts)),
	}
}

func (r *Runner) loadIndex(ctx context.Context) (Index, error) {
	var index Index
	b, err := r.store.Get(ctx, IndexKey)
	if errors.Is(err, storage.ErrNotFound) {
		return index, nil
	}
	if err != nil {
		return index, fmt.Errorf("failed to read index: %w", err)
	}
	if err := json.Unmarshal(b, &index); err != nil {
		logger.Warn("[Batch] Ignoring unreadable index", "err", err)
		return Index{}, nil
	}
	return index, nil
}

func (r *Runner) writeJSON(ctx context.Context, key string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return r.store.Put(ctx, key, b)
}
