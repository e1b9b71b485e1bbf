package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Lllllllleong/pdfdigest/internal/acquire"
	"github.com/Lllllllleong/pdfdigest/internal/gcp"
	"github.com/Lllllllleong/pdfdigest/internal/metrics"
	"github.com/Lllllllleong/pdfdigest/internal/search"
	"github.com/Lllllllleong/pdfdigest/internal/store"
	"github.com/Lllllllleong/pdfdigest/internal/store/memstore"
	"github.com/Lllllllleong/pdfdigest/internal/store/mongostore"
)

// NewProcessorFromEnv builds a fully wired Processor from the environment.
// Metrics are registered with reg when it is non-nil.
func NewProcessorFromEnv(ctx context.Context, reg prometheus.Registerer, opts ...ConfigOption) (_ *Processor, err error) {
	cfg, err := LoadConfig(opts...)
	if err != nil {
		return nil, err
	}
	logger := slog.Default()

	// everything opened so far is released if a later step fails
	var owned resources
	defer func() {
		if err != nil {
			owned.closeAll(logger)
		}
	}()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	owned.add(st)

	pipelineMetrics := metrics.NewPipeline(reg)
	acquireOpts := []acquire.Option{acquire.WithRetryHook(pipelineMetrics.IncRetry)}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		if cfg.ArtifactsBucket != "" {
			return nil, fmt.Errorf("failed to create Storage client: %w", err)
		}
		logger.Warn("Cloud Storage unavailable, gs:// references are disabled.", "error", err)
	} else {
		owned.add(storageClient)
		acquireOpts = append(acquireOpts, acquire.WithFetcher("gs", acquire.NewGCSFetcher(storageClient)))
	}

	var (
		sinks   []Sink
		closers []io.Closer
	)
	if cfg.ArtifactsBucket != "" {
		sinks = append(sinks, gcp.NewArtifactSink(storageClient, cfg.ArtifactsBucket))
	} else if storageClient != nil {
		closers = append(closers, storageClient)
	}
	if cfg.WorkflowID != "" {
		executionsClient, err := executions.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
		}
		owned.add(executionsClient)
		sinks = append(sinks, gcp.NewWorkflowSink(executionsClient, cfg.ProjectID, cfg.WorkflowLocation, cfg.WorkflowID))
	}
	if cfg.ElasticsearchAddr != "" {
		indexer, err := search.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, indexer)
	}

	p, err := NewProcessor(cfg, ProcessorDeps{
		Store:    st,
		Acquirer: acquire.NewAcquirer(cfg.RetryPolicy(), cfg.DownloadTimeout, logger, acquireOpts...),
		Sinks:    sinks,
		Metrics:  pipelineMetrics,
		Logger:   logger,
		Closers:  closers,
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	logger.Info("Processor initialized.", "storeBackend", cfg.StoreBackend, "workers", cfg.Workers, "segmenter", cfg.Segmenter, "sinks", names)
	return p, nil
}

// resources collects clients opened during wiring.
type resources []io.Closer

func (r *resources) add(c io.Closer) {
	*r = append(*r, c)
}

// closeAll closes the collected clients, most recently opened first.
func (r resources) closeAll(logger *slog.Logger) {
	for i := len(r) - 1; i >= 0; i-- {
		if err := r[i].Close(); err != nil {
			logger.Warn("Failed to release client after setup error.", "error", err)
		}
	}
}

func openStore(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case BackendMemory:
		return memstore.New(), nil
	case BackendMongo:
		ms, err := mongostore.Open(ctx, mongostore.Config{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		}, mongostore.ConnectPolicy(), logger)
		if err != nil {
			return nil, err
		}
		return ms, nil
	default:
		client, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		return gcp.NewFirestoreStore(client, cfg.FirestoreCollection), nil
	}
}
