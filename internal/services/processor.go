package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/pdfdigest/internal/acquire"
	"github.com/Lllllllleong/pdfdigest/internal/analysis"
	"github.com/Lllllllleong/pdfdigest/internal/metrics"
	"github.com/Lllllllleong/pdfdigest/internal/models"
	"github.com/Lllllllleong/pdfdigest/internal/pdfdoc"
	"github.com/Lllllllleong/pdfdigest/internal/store"
)

// errorWriteTimeout bounds the error-status write made after a failure.
const errorWriteTimeout = 10 * time.Second

// Acquirer loads the bytes behind a reference.
type Acquirer interface {
	Acquire(ctx context.Context, ref models.Reference) ([]byte, error)
}

// PDFReader is the page-count probe and text extractor.
type PDFReader interface {
	PageCount(data []byte) (int, error)
	ExtractText(data []byte) (string, error)
}

// Summarizer produces an extractive summary of raw text.
type Summarizer interface {
	Summarize(text string) string
}

// KeywordExtractor ranks the keywords of raw text.
type KeywordExtractor interface {
	Extract(text string) []string
}

// Sink receives every processed document. Sinks are best-effort: a failing
// sink is logged and never changes the outcome of the document.
type Sink interface {
	Name() string
	Publish(ctx context.Context, doc models.Document, text string) error
}

// ProcessorDeps are the collaborators of a Processor. Only Store is required.
type ProcessorDeps struct {
	Store      store.Store
	Acquirer   Acquirer
	PDF        PDFReader
	Summarizer Summarizer
	Keywords   KeywordExtractor
	Sinks      []Sink
	Metrics    *metrics.Pipeline
	Logger     *slog.Logger
	Now        func() time.Time
	// Closers are released by Close after the sinks and the store.
	Closers []io.Closer
}

// Processor runs documents through acquisition, classification and analysis,
// recording status in the store after every stage.
type Processor struct {
	config     Config
	store      store.Store
	acquirer   Acquirer
	pdf        PDFReader
	summarizer Summarizer
	keywords   KeywordExtractor
	sinks      []Sink
	metrics    *metrics.Pipeline
	logger     *slog.Logger
	now        func() time.Time
	closers    []io.Closer
}

// NewProcessor fills unset dependencies with the production defaults.
func NewProcessor(cfg Config, deps ProcessorDeps) (*Processor, error) {
	if deps.Store == nil {
		return nil, errors.New("a store is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	p := &Processor{
		config:     cfg,
		store:      deps.Store,
		acquirer:   deps.Acquirer,
		pdf:        deps.PDF,
		summarizer: deps.Summarizer,
		keywords:   deps.Keywords,
		sinks:      deps.Sinks,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        deps.Now,
		closers:    deps.Closers,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.acquirer == nil {
		p.acquirer = acquire.NewAcquirer(cfg.RetryPolicy(), cfg.DownloadTimeout, p.logger,
			acquire.WithRetryHook(p.metrics.IncRetry))
	}
	if p.pdf == nil {
		p.pdf = pdfdoc.NewReader()
	}
	if p.summarizer == nil {
		seg, err := analysis.NewSegmenter(cfg.Segmenter)
		if err != nil {
			return nil, err
		}
		p.summarizer = analysis.NewSummarizer(seg)
	}
	if p.keywords == nil {
		p.keywords = analysis.NewKeywordExtractor(0)
	}
	return p, nil
}

// Config returns the configuration the processor was built with.
func (p *Processor) Config() Config {
	return p.config
}

// docRun is the state of one ProcessDocument call.
type docRun struct {
	id     string
	ref    models.Reference
	name   string
	start  time.Time
	stages *tracker
	logCtx *slog.Logger
}

func (p *Processor) elapsed(run *docRun) time.Duration {
	return p.now().Sub(run.start)
}

// ProcessDocument runs one reference through the pipeline. It never returns an
// error: failures are reported in the result and persisted on the record.
func (p *Processor) ProcessDocument(ctx context.Context, ref models.Reference) models.ProcessResult {
	run := &docRun{
		id:     acquire.Identify(ref),
		ref:    ref,
		name:   documentName(ref),
		start:  p.now(),
		stages: newTracker(),
	}
	run.logCtx = p.logger.With("documentId", run.id, "source", ref.Name)

	result := p.process(ctx, run)
	p.metrics.ObserveDocument(result.Status, p.elapsed(run))
	return result
}

func (p *Processor) process(ctx context.Context, run *docRun) models.ProcessResult {
	existing, found, err := p.store.Find(ctx, run.id)
	if err != nil {
		return p.fail(ctx, run, KindPersistence, "failed to look up existing record", err)
	}
	if found && existing.Skippable() {
		run.logCtx.Info("Document already handled. Skipping.", "status", existing.Status)
		return models.ProcessResult{
			DocumentID:  run.id,
			Status:      models.OutcomeSkipped,
			LengthClass: existing.LengthClass,
		}
	}

	run.logCtx.Info("Processing document.")
	if err := run.stages.advance(StageAcquiring); err != nil {
		return p.fail(ctx, run, KindInternal, "pipeline out of order", err)
	}
	data, err := p.acquirer.Acquire(ctx, run.ref)
	if err != nil {
		return p.fail(ctx, run, KindAcquisition, "failed to acquire document", err)
	}
	status := models.StatusDownloaded
	if run.ref.Origin == models.OriginUpload {
		status = models.StatusUploaded
	}
	now := p.now()
	if err := p.store.Upsert(ctx, run.id, store.Fields{
		models.FieldSource:       run.ref.Name,
		models.FieldDocumentName: run.name,
		models.FieldSize:         int64(len(data)),
		models.FieldStatus:       string(status),
		models.FieldCreatedAt:    now,
		models.FieldLastUpdated:  now,
	}); err != nil {
		return p.fail(ctx, run, KindPersistence, "failed to record acquisition", err)
	}
	run.logCtx.Info("Document acquired.", "size", len(data), "status", status)

	if err := run.stages.advance(StageClassifying); err != nil {
		return p.fail(ctx, run, KindInternal, "pipeline out of order", err)
	}
	pageCount, err := p.pdf.PageCount(data)
	if err != nil {
		return p.fail(ctx, run, KindClassification, "failed to get page count", err)
	}
	class, err := analysis.Classify(pageCount)
	if err != nil {
		return p.fail(ctx, run, KindClassification, "failed to classify document", err)
	}
	if err := p.store.Upsert(ctx, run.id, store.Fields{
		models.FieldPageCount:   pageCount,
		models.FieldLengthClass: string(class),
		models.FieldLastUpdated: p.now(),
	}); err != nil {
		return p.fail(ctx, run, KindPersistence, "failed to record classification", err)
	}
	run.logCtx = run.logCtx.With("lengthClass", class)
	run.logCtx.Info("Document classified.", "pageCount", pageCount)

	if err := run.stages.advance(StageAnalyzing); err != nil {
		return p.fail(ctx, run, KindInternal, "pipeline out of order", err)
	}
	text, err := p.pdf.ExtractText(data)
	if err != nil {
		return p.fail(ctx, run, KindExtraction, "failed to extract text", err)
	}
	if strings.TrimSpace(text) == "" {
		return p.fail(ctx, run, KindExtraction, "failed to extract text", errors.New("document has no extractable text"))
	}
	summary := p.summarizer.Summarize(text)
	keywords := p.keywords.Extract(text)
	if keywords == nil {
		keywords = []string{}
	}

	if err := run.stages.advance(StageDone); err != nil {
		return p.fail(ctx, run, KindInternal, "pipeline out of order", err)
	}
	elapsed := p.elapsed(run).Seconds()
	finished := p.now()
	if err := p.store.Upsert(ctx, run.id, store.Fields{
		models.FieldStatus:         string(models.StatusProcessed),
		models.FieldSummary:        summary,
		models.FieldSummaryLength:  len(strings.Fields(summary)),
		models.FieldKeywords:       keywords,
		models.FieldKeywordsCount:  len(keywords),
		models.FieldProcessingTime: elapsed,
		models.FieldErrorMessage:   nil,
		models.FieldLastUpdated:    finished,
	}); err != nil {
		return p.fail(ctx, run, KindPersistence, "failed to record analysis results", err)
	}
	run.logCtx.Info("Document processed.", "processingTime", elapsed, "keywords", len(keywords))

	doc := models.Document{
		ID:             run.id,
		Source:         run.ref.Name,
		DocumentName:   run.name,
		Size:           int64(len(data)),
		Status:         models.StatusProcessed,
		LengthClass:    string(class),
		PageCount:      pageCount,
		Summary:        &summary,
		SummaryLength:  len(strings.Fields(summary)),
		Keywords:       keywords,
		KeywordsCount:  len(keywords),
		ProcessingTime: &elapsed,
		CreatedAt:      now,
		LastUpdated:    finished,
	}
	p.publish(ctx, run, doc, text)

	return models.ProcessResult{
		DocumentID:     run.id,
		Status:         models.OutcomeProcessed,
		LengthClass:    string(class),
		Summary:        summary,
		Keywords:       keywords,
		ProcessingTime: elapsed,
	}
}

func (p *Processor) publish(ctx context.Context, run *docRun, doc models.Document, text string) {
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, doc, text); err != nil {
			run.logCtx.Warn("Result sink failed.", "sink", sink.Name(), "error", err)
		}
	}
}

// fail records the error status for the document and builds the error result.
func (p *Processor) fail(ctx context.Context, run *docRun, kind ErrorKind, message string, cause error) models.ProcessResult {
	stage := run.stages.stage
	serr := &StageError{Kind: kind, Stage: stage, Err: fmt.Errorf("%s: %w", message, cause)}
	run.logCtx.Error(message, "stage", stage, "kind", kind, "error", cause)
	if err := run.stages.advance(StageFailed); err != nil {
		run.logCtx.Warn("Unexpected stage transition.", "error", err)
	}

	// Written even when ctx is done: a record left "downloaded" is skipped forever.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), errorWriteTimeout)
	defer cancel()

	elapsed := p.elapsed(run).Seconds()
	if err := p.store.Upsert(writeCtx, run.id, store.Fields{
		models.FieldStatus:         string(models.StatusError),
		models.FieldErrorMessage:   serr.Error(),
		models.FieldSource:         run.ref.Name,
		models.FieldDocumentName:   run.name,
		models.FieldProcessingTime: elapsed,
		models.FieldLastUpdated:    p.now(),
	}); err != nil {
		run.logCtx.Error("CRITICAL: Failed to record error status after a processing error.", "updateError", err)
	}

	return models.ProcessResult{
		DocumentID: run.id,
		Status:     models.OutcomeError,
		Error: &models.ErrorPayload{
			Kind:    string(kind),
			Stage:   string(stage),
			Message: serr.Err.Error(),
		},
		ProcessingTime: elapsed,
	}
}

// ProcessBatch fans refs out over the worker pool and waits for all of them.
// Per-status totals remain available afterwards through Counts.
func (p *Processor) ProcessBatch(ctx context.Context, refs []models.Reference) models.BatchReport {
	report := models.BatchReport{BatchID: uuid.NewString(), Total: len(refs)}
	logCtx := p.logger.With("batchId", report.BatchID)
	logCtx.Info("Starting batch.", "documents", len(refs), "workers", p.config.Workers)

	var (
		mu sync.Mutex
		eg errgroup.Group
	)
	eg.SetLimit(p.config.Workers)
	for _, ref := range refs {
		ref := ref
		eg.Go(func() error {
			res := p.ProcessDocument(ctx, ref)
			mu.Lock()
			defer mu.Unlock()
			switch res.Status {
			case models.OutcomeProcessed:
				report.Processed++
			case models.OutcomeSkipped:
				report.Skipped++
			default:
				report.Failed++
			}
			// one document's failure never stops the rest of the batch
			return nil
		})
	}
	_ = eg.Wait()

	logCtx.Info("Batch complete.", "processed", report.Processed, "skipped", report.Skipped, "failed", report.Failed)
	return report
}

// Counts returns the number of records in every status.
func (p *Processor) Counts(ctx context.Context) (map[models.Status]int, error) {
	counts := make(map[models.Status]int, len(models.Statuses))
	for _, st := range models.Statuses {
		n, err := p.store.Count(ctx, st)
		if err != nil {
			return nil, &StageError{Kind: KindPersistence, Stage: StageDone, Err: err}
		}
		counts[st] = n
	}
	return counts, nil
}

// Lookup returns the stored record for id.
func (p *Processor) Lookup(ctx context.Context, id string) (models.Document, bool, error) {
	doc, ok, err := p.store.Find(ctx, id)
	if err != nil {
		return models.Document{}, false, &StageError{Kind: KindPersistence, Stage: StageNew, Err: err}
	}
	return doc, ok, nil
}

// Close releases the store and any sink holding a client.
func (p *Processor) Close() error {
	var errs []error
	for _, sink := range p.sinks {
		if c, ok := sink.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", sink.Name(), err))
			}
		}
	}
	if err := p.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	for _, c := range p.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// documentName is the human-facing file name of a reference.
func documentName(ref models.Reference) string {
	switch ref.Origin {
	case models.OriginUpload:
		return filepath.Base(ref.Name)
	case models.OriginLocal:
		return filepath.Base(ref.Name)
	}
	if u, err := url.Parse(ref.Name); err == nil && u.Path != "" {
		if base := path.Base(u.Path); base != "/" && base != "." {
			return base
		}
	}
	return ref.Name
}
