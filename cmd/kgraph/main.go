package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/OFFIS-RIT/kiwi/kgraph/internal/batch"
	"github.com/OFFIS-RIT/kiwi/kgraph/internal/config"
	"github.com/OFFIS-RIT/kiwi/kgraph/internal/storage"
	"github.com/OFFIS-RIT/kiwi/kgraph/internal/util"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/analytics"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/graph"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/loader"
	ioloader "github.com/OFFIS-RIT/kiwi/kgraph/pkg/loader/io"
	pdfloader "github.com/OFFIS-RIT/kiwi/kgraph/pkg/loader/pdf"
	s3loader "github.com/OFFIS-RIT/kiwi/kgraph/pkg/loader/s3"
	webloader "github.com/OFFIS-RIT/kiwi/kgraph/pkg/loader/web"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/logger"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/logger/console"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"
)

const sampleKey = "sample.json"

func main() {
	util.LoadEnv()

	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logger.Error("kgraph failed", "err", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kgraph",
		Short:         "Build knowledge graphs from documents",
		Long:          "kgraph extracts subject-predicate-object triples from documents with a language model, standardizes entities, infers missing relationships and writes an analyzed graph per document.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
				Debug: cfg.Debug,
			}))
			return run(cmd.Context(), cfg)
		},
	}
	config.RegisterFlags(cmd)
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	s3Client := lazyS3Client(ctx)

	store, err := newStore(cfg, s3Client)
	if err != nil {
		return err
	}

	if cfg.Test {
		return renderSample(ctx, store)
	}

	oracle, err := newOracle(cfg.AI)
	if err != nil {
		return err
	}

	// Overlap 0 means no overlap on the command line.
	overlap := cfg.Overlap
	if overlap == 0 {
		overlap = -1
	}

	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
		Oracle:                  oracle,
		ChunkSize:               cfg.ChunkSize,
		Overlap:                 overlap,
		Model:                   cfg.AI.Model,
		Temperature:             cfg.AI.Temperature,
		MaxTokens:               cfg.AI.MaxTokens,
		ChunkTimeout:            cfg.ChunkTimeout,
		DisableStandardize:      cfg.NoStandardize,
		DisableInference:        cfg.NoInference,
		MaxGaps:                 cfg.MaxGaps,
		SharedNeighborThreshold: cfg.SharedNeighbors,
		MaxPairsPerCommunity:    cfg.MaxPairs,
	})
	if err != nil {
		return err
	}

	docs, err := batch.Collect(cfg.Input, newSources(s3Client))
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no supported documents found in %v", cfg.Input)
	}

	runner, err := batch.NewRunner(batch.NewRunnerParams{
		Processor: client,
		Store:     store,
		Workers:   cfg.Workers,
	})
	if err != nil {
		return err
	}

	logger.Info("[Batch] Starting run", "run_id", runner.RunID(), "documents", len(docs), "workers", cfg.Workers)
	summary, err := runner.Run(ctx, docs)

	m := oracle.GetMetrics()
	logger.Info("[AI] Oracle usage",
		"requests", m.Requests,
		"input_tokens", m.InputTokens,
		"output_tokens", m.OutputTokens,
		"tokens_per_second", m.TokenPerSecond,
	)

	if err != nil {
		return err
	}
	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d of %d documents failed: %v", len(summary.Failed), len(docs), summary.Failed)
	}
	return nil
}

// lazyS3Client creates the S3 client on first use so runs without S3
// need no AWS configuration.
func lazyS3Client(ctx context.Context) func() (*s3.Client, error) {
	return sync.OnceValues(func() (*s3.Client, error) {
		return storage.NewS3Client(ctx)
	})
}

func newStore(cfg *config.Config, s3Client func() (*s3.Client, error)) (storage.Store, error) {
	if !cfg.S3 {
		return storage.NewLocalStore(cfg.Output)
	}
	client, err := s3Client()
	if err != nil {
		return nil, err
	}
	return storage.NewS3Store(client, cfg.Bucket, cfg.Output), nil
}

func newSources(s3Client func() (*s3.Client, error)) batch.Sources {
	local := ioloader.NewIOLoader()
	return batch.Sources{
		Local: loader.NewTypeLoader(map[loader.DocumentType]loader.DocumentLoader{
			loader.DocumentTypeText: local,
			loader.DocumentTypePDF:  pdfloader.NewPDFLoader(local),
		}),
		Web: webloader.NewWebLoader(http.DefaultClient),
		S3: func(bucket string) (loader.DocumentLoader, error) {
			client, err := s3Client()
			if err != nil {
				return nil, err
			}
			objects := s3loader.NewS3Loader(bucket, client)
			return loader.NewTypeLoader(map[loader.DocumentType]loader.DocumentLoader{
				loader.DocumentTypeText: objects,
				loader.DocumentTypePDF:  pdfloader.NewPDFLoader(objects),
			}), nil
		},
	}
}

// renderSample analyzes the built-in sample triples and stores the graph
// without calling an oracle.
func renderSample(ctx context.Context, store storage.Store) error {
	triples := common.SampleTriples()
	out := analytics.Render(triples, analytics.Analyze(triples, analytics.Options{}))

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if err := store.Put(ctx, sampleKey, b); err != nil {
		return err
	}

	logger.Info("Sample graph written",
		"key", sampleKey,
		"nodes", out.Stats.Nodes,
		"edges", out.Stats.Edges,
		"communities", out.Stats.Communities,
	)
	return nil
}
