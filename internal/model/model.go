// Package model loads the persisted quality classifier and exposes a typed
// predict operation over the five composition features. The artifact is an
// enhancement: callers must keep grading through the rule-based path when it
// is absent or broken.
package model

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/navodyayashodani/oilgrade/constants"
	"github.com/navodyayashodani/oilgrade/internal/common"
	"github.com/navodyayashodani/oilgrade/internal/features"
)

const (
	// ArtifactFile is the classifier file expected inside the model dir.
	ArtifactFile = "cinnamon_model.json"
	// LabelsFile is the optional class-index -> grade decoder.
	LabelsFile = "labels.json"

	// fixedConfidence is reported when the artifact exposes no probability
	// output: a present but untrusted signal.
	fixedConfidence = 0.95
)

// Artifact is the serialized classifier: a multinomial linear scorer over
// the fixed feature order, one coefficient row and intercept per class.
type Artifact struct {
	Version       string      `json:"version"`
	ModelType     string      `json:"model_type"`
	FeatureNames  []string    `json:"feature_names"`
	Classes       []int       `json:"classes"`
	Coefficients  [][]float64 `json:"coefficients"`
	Intercepts    []float64   `json:"intercepts"`
	Probabilities bool        `json:"probabilities"`
}

// Model is a loaded classifier plus its optional label decoder. Loaded once
// and read-only afterwards, so it is safe for concurrent callers.
type Model struct {
	artifact Artifact
	labels   map[string]string
	logger   *slog.Logger
}

// Load reads and validates the classifier artifact from dir. A missing or
// malformed artifact is an error; the caller decides whether to continue
// without a model. A missing decoder is not an error.
func Load(dir string, logger *slog.Logger) (*Model, error) {
	if logger == nil {
		logger = slog.Default()
	}

	path := filepath.Join(dir, ArtifactFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", common.ErrModelUnavailable, path, err)
	}
	if err := validateArtifactJSON(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrModelUnavailable, err)
	}

	var art Artifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, fmt.Errorf("%w: decode artifact: %v", common.ErrModelUnavailable, err)
	}
	if err := checkDimensions(art); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrModelUnavailable, err)
	}

	m := &Model{artifact: art, logger: logger}
	m.labels = loadLabels(filepath.Join(dir, LabelsFile), logger)

	logger.Info("model.loaded",
		"path", path,
		"version", art.Version,
		"type", art.ModelType,
		"classes", len(art.Classes),
		"decoder", m.labels != nil,
	)
	return m, nil
}

func checkDimensions(art Artifact) error {
	want := len(constants.FeatureNames)
	if len(art.FeatureNames) != want {
		return fmt.Errorf("artifact declares %d features, want %d", len(art.FeatureNames), want)
	}
	for i, name := range constants.FeatureNames {
		if art.FeatureNames[i] != name {
			return fmt.Errorf("feature %d is %q, want %q", i, art.FeatureNames[i], name)
		}
	}
	if len(art.Classes) == 0 {
		return fmt.Errorf("artifact declares no classes")
	}
	if len(art.Coefficients) != len(art.Classes) || len(art.Intercepts) != len(art.Classes) {
		return fmt.Errorf("coefficient/intercept rows do not match %d classes", len(art.Classes))
	}
	for i, row := range art.Coefficients {
		if len(row) != want {
			return fmt.Errorf("coefficient row %d has %d values, want %d", i, len(row), want)
		}
	}
	return nil
}

// loadLabels reads the optional decoder. Absence and corruption both leave
// the model usable; raw class values are stringified instead.
func loadLabels(path string, logger *slog.Logger) map[string]string {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("model.labels.read_failed", "path", path, "error", err)
		}
		return nil
	}
	var labels map[string]string
	if err := json.Unmarshal(raw, &labels); err != nil {
		logger.Warn("model.labels.decode_failed", "path", path, "error", err)
		return nil
	}
	return labels
}

// Predict scores the feature set and returns the decoded grade with a
// confidence in 0..1. Inference failures are returned, not swallowed; the
// orchestrator owns the fallback.
func (m *Model) Predict(fs features.FeatureSet) (string, float64, error) {
	x := fs.Vector()
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", 0, fmt.Errorf("feature %s is not finite", constants.FeatureNames[i])
		}
	}

	scores := make([]float64, len(m.artifact.Classes))
	for c, row := range m.artifact.Coefficients {
		s := m.artifact.Intercepts[c]
		for i, w := range row {
			s += w * x[i]
		}
		scores[c] = s
	}

	probs := softmax(scores)
	best := 0
	for c := range probs {
		if probs[c] > probs[best] {
			best = c
		}
	}
	if math.IsNaN(probs[best]) {
		return "", 0, fmt.Errorf("inference produced NaN probabilities")
	}

	confidence := fixedConfidence
	if m.artifact.Probabilities {
		confidence = probs[best]
	}
	return m.decode(m.artifact.Classes[best]), confidence, nil
}

// decode maps a raw class value through the label decoder when one was
// loaded, otherwise stringifies it directly.
func (m *Model) decode(class int) string {
	if m.labels != nil {
		if grade, ok := m.labels[strconv.Itoa(class)]; ok {
			return grade
		}
	}
	return strconv.Itoa(class)
}

func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
