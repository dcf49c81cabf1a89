// Package metrics provides Prometheus metrics for the grading pipeline:
// prediction counts per decision path, extraction failures, and latency
// histograms for OCR and end-to-end grading.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decision-path label values for PredictionsTotal.
const (
	PathModel   = "model"
	PathRules   = "rules"
	PathDefault = "default"
)

// Metrics holds all Prometheus metrics for the grader.
type Metrics struct {
	PredictionsTotal   *prometheus.CounterVec // predictions by decision path
	ExtractionFailures prometheus.Counter     // documents with no usable signal
	ToolUnavailable    prometheus.Counter     // OCR health-check failures
	ModelFallbacks     prometheus.Counter     // model errors absorbed by the rule path

	OCRDuration     prometheus.Histogram // OCR per-document latency
	PredictDuration prometheus.Histogram // end-to-end grading latency
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for tests).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grader_predictions_total",
			Help: "Predictions returned, labeled by decision path (model, rules, default)",
		}, []string{"path"}),
		ExtractionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "grader_extraction_failures_total",
			Help: "Documents that yielded no usable composition reading",
		}),
		ToolUnavailable: factory.NewCounter(prometheus.CounterOpts{
			Name: "grader_tool_unavailable_total",
			Help: "OCR invocations skipped because the tool health check failed",
		}),
		ModelFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "grader_model_fallbacks_total",
			Help: "Model inference errors absorbed by the rule-based path",
		}),
		OCRDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "grader_ocr_duration_seconds",
			Help:    "OCR extraction latency per document",
			Buckets: prometheus.DefBuckets,
		}),
		PredictDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "grader_predict_duration_seconds",
			Help:    "End-to-end grading latency per document",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// PredictionInc increments the prediction counter for a decision path.
// Nil-safe so the grader can run without metrics wired.
func (m *Metrics) PredictionInc(path string) {
	if m == nil {
		return
	}
	m.PredictionsTotal.WithLabelValues(path).Inc()
}

func (m *Metrics) ExtractionFailureInc() {
	if m == nil {
		return
	}
	m.ExtractionFailures.Inc()
}

func (m *Metrics) ToolUnavailableInc() {
	if m == nil {
		return
	}
	m.ToolUnavailable.Inc()
}

func (m *Metrics) ModelFallbackInc() {
	if m == nil {
		return
	}
	m.ModelFallbacks.Inc()
}

func (m *Metrics) ObserveOCR(seconds float64) {
	if m == nil {
		return
	}
	m.OCRDuration.Observe(seconds)
}

func (m *Metrics) ObservePredict(seconds float64) {
	if m == nil {
		return
	}
	m.PredictDuration.Observe(seconds)
}
