// Package grader is the public entry point of the quality pipeline. It
// sequences document extraction, model inference and the rule-based
// fallback, and absorbs every failure into a low-confidence default: no
// input produces an error, only variably-confident output.
package grader

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"github.com/navodyayashodani/oilgrade/constants"
	"github.com/navodyayashodani/oilgrade/internal/audit"
	"github.com/navodyayashodani/oilgrade/internal/common"
	"github.com/navodyayashodani/oilgrade/internal/features"
	"github.com/navodyayashodani/oilgrade/internal/metrics"
)

// Prediction is the unit of output: one per invocation, immutable once
// constructed. Features is an empty object (never null) when extraction
// produced nothing.
type Prediction struct {
	Grade      string             `json:"grade"`
	Score      float64            `json:"score"`
	Confidence float64            `json:"confidence"`
	Features   map[string]float64 `json:"features"`
}

// Thresholds are the eugenol cut-offs for the rule-based path. They are
// configuration with canonical defaults, not hard-coded law.
type Thresholds struct {
	A float64 // grade A at or above
	B float64
	C float64 // below C is D
}

// Config holds grading behavior knobs.
type Config struct {
	Thresholds Thresholds
}

// Default prediction returned when no usable signal exists: a deliberately
// mediocre, low-confidence placeholder, never an error.
const (
	defaultGrade      = string(constants.GradeC)
	defaultScore      = 75.0
	defaultConfidence = 0.3

	// ruleConfidence is reported by the threshold path: deterministic but
	// blind to everything except the eugenol reading.
	ruleConfidence = 0.85
)

// DocumentExtractor produces a composition reading from a report file.
// Errors are the sentinels in internal/common or wrapped I/O failures; the
// grader maps all of them to the default prediction.
type DocumentExtractor interface {
	Extract(ctx context.Context, path string) (features.Extraction, error)
}

// QualityModel scores a feature set. A nil model means the artifact did not
// load and the rule-based path carries every prediction.
type QualityModel interface {
	Predict(fs features.FeatureSet) (grade string, confidence float64, err error)
}

// Grader is a long-lived service object: construct once at process start,
// share across request handlers. It holds no per-call state.
type Grader struct {
	cfg       Config
	extractor DocumentExtractor
	model     QualityModel
	audits    *audit.Store
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New builds a Grader. model, audits and m may be nil: grading then runs on
// rules alone, unrecorded, unmeasured.
func New(cfg Config, extractor DocumentExtractor, model QualityModel, audits *audit.Store, m *metrics.Metrics, logger *slog.Logger) *Grader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Thresholds.A <= 0 {
		cfg.Thresholds.A = 85
	}
	if cfg.Thresholds.B <= 0 {
		cfg.Thresholds.B = 78
	}
	if cfg.Thresholds.C <= 0 {
		cfg.Thresholds.C = 70
	}
	return &Grader{
		cfg:       cfg,
		extractor: extractor,
		model:     model,
		audits:    audits,
		metrics:   m,
		logger:    logger,
	}
}

// DefaultPrediction returns the placeholder result for documents that could
// not be processed.
func DefaultPrediction() Prediction {
	return Prediction{
		Grade:      defaultGrade,
		Score:      defaultScore,
		Confidence: defaultConfidence,
		Features:   map[string]float64{},
	}
}

// PredictQuality grades the report at path. The contract is total: every
// call returns a complete Prediction, worst case the default one.
//
// The pipeline walks dispatch -> extraction -> scoring; each stage hands an
// explicit success or failure value to the next, and every failure funnels
// into the default instead of propagating.
func (g *Grader) PredictQuality(ctx context.Context, path string) Prediction {
	start := time.Now()
	rec := audit.Record{
		SourcePath: path,
		Format:     constants.MapExtToFormat(filepath.Ext(path)),
	}

	pred := g.run(ctx, path, &rec)

	rec.DurationMS = time.Since(start).Milliseconds()
	rec.Grade = pred.Grade
	rec.Score = pred.Score
	rec.Confidence = pred.Confidence
	g.metrics.PredictionInc(rec.DecisionPath)
	g.metrics.ObservePredict(time.Since(start).Seconds())
	g.record(ctx, &rec)

	g.logger.Info("grader.predict.done",
		"path", path,
		"decision_path", rec.DecisionPath,
		"grade", pred.Grade,
		"score", pred.Score,
		"confidence", pred.Confidence,
		"duration_ms", rec.DurationMS,
	)
	return pred
}

func (g *Grader) run(ctx context.Context, path string, rec *audit.Record) Prediction {
	if rec.Format == "" {
		g.logger.Warn("grader.dispatch.unsupported", "path", path)
		rec.DecisionPath = metrics.PathDefault
		rec.Failure = "unsupported_format"
		return DefaultPrediction()
	}

	ocrStart := time.Now()
	ex, err := g.extractor.Extract(ctx, path)
	g.metrics.ObserveOCR(time.Since(ocrStart).Seconds())
	if err != nil {
		rec.DecisionPath = metrics.PathDefault
		rec.Failure = g.classifyExtractFailure(path, err)
		return DefaultPrediction()
	}

	rec.Method = ex.Method
	rec.Page = ex.Page
	rec.OCRConfidence = ex.OCRConfidence
	rec.Tokens = ex.Tokens
	rec.Traces = ex.Traces
	rec.PaddedSlots = ex.PaddedSlots
	if len(ex.PaddedSlots) > 0 {
		// positional assignment is a heuristic; surface it for review
		g.logger.Warn("grader.extract.padded_traces",
			"path", path, "padded", ex.PaddedSlots, "traces", ex.Traces)
	}

	if g.model != nil {
		grade, confidence, err := g.model.Predict(ex.Features)
		if err == nil {
			rec.DecisionPath = metrics.PathModel
			return Prediction{
				Grade:      grade,
				Score:      round2(ex.Features.Eugenol),
				Confidence: clamp01(confidence),
				Features:   ex.Features.Map(),
			}
		}
		g.logger.Error("grader.model.failed", "path", path, "error", err)
		g.metrics.ModelFallbackInc()
	}

	rec.DecisionPath = metrics.PathRules
	return g.gradeByThreshold(ex.Features)
}

func (g *Grader) classifyExtractFailure(path string, err error) string {
	switch {
	case errors.Is(err, common.ErrToolUnavailable):
		g.logger.Warn("grader.extract.tool_unavailable", "path", path)
		g.metrics.ToolUnavailableInc()
		return "tool_unavailable"
	case errors.Is(err, common.ErrUnsupportedFormat):
		g.logger.Warn("grader.extract.unsupported", "path", path)
		return "unsupported_format"
	case errors.Is(err, common.ErrNoSignal):
		g.logger.Warn("grader.extract.no_signal", "path", path)
		g.metrics.ExtractionFailureInc()
		return "no_signal"
	default:
		g.logger.Error("grader.extract.failed", "path", path, "error", err)
		g.metrics.ExtractionFailureInc()
		return err.Error()
	}
}

// gradeByThreshold is the availability floor: no model, no decoder, just the
// eugenol reading against the configured cut-offs.
func (g *Grader) gradeByThreshold(fs features.FeatureSet) Prediction {
	var grade constants.Grade
	switch {
	case fs.Eugenol >= g.cfg.Thresholds.A:
		grade = constants.GradeA
	case fs.Eugenol >= g.cfg.Thresholds.B:
		grade = constants.GradeB
	case fs.Eugenol >= g.cfg.Thresholds.C:
		grade = constants.GradeC
	default:
		grade = constants.GradeD
	}
	return Prediction{
		Grade:      string(grade),
		Score:      round2(fs.Eugenol),
		Confidence: ruleConfidence,
		Features:   fs.Map(),
	}
}

// record writes the audit row; auditing is best-effort and never affects
// the prediction.
func (g *Grader) record(ctx context.Context, rec *audit.Record) {
	if g.audits == nil {
		return
	}
	if err := g.audits.Save(ctx, rec); err != nil {
		g.logger.Error("grader.audit.failed", "path", rec.SourcePath, "error", err)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
