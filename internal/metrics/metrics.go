// Package metrics holds the Prometheus collectors of the processing pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Lllllllleong/pdfdigest/internal/models"
)

// Pipeline groups the pipeline collectors. A nil *Pipeline records nothing.
type Pipeline struct {
	Documents *prometheus.CounterVec
	Duration  prometheus.Histogram
	Retries   prometheus.Counter
}

// NewPipeline creates the collectors and registers them with reg when it is non-nil.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	p := &Pipeline{
		Documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdfdigest",
			Name:      "documents_total",
			Help:      "Documents handled, by outcome.",
		}, []string{"status"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pdfdigest",
			Name:      "processing_seconds",
			Help:      "Wall-clock time of one document, acquisition backoff included.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pdfdigest",
			Name:      "acquisition_retries_total",
			Help:      "Acquisition attempts that failed and were retried.",
		}),
	}
	if reg != nil {
		reg.MustRegister(p.Documents, p.Duration, p.Retries)
	}
	return p
}

// ObserveDocument records the outcome of one document. Skips are counted but not timed.
func (p *Pipeline) ObserveDocument(outcome models.Outcome, elapsed time.Duration) {
	if p == nil {
		return
	}
	p.Documents.WithLabelValues(string(outcome)).Inc()
	if outcome != models.OutcomeSkipped {
		p.Duration.Observe(elapsed.Seconds())
	}
}

// IncRetry counts one retried acquisition attempt.
func (p *Pipeline) IncRetry() {
	if p == nil {
		return
	}
	p.Retries.Inc()
}
