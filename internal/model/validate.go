package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// artifactSchema is the structural contract for cinnamon_model.json.
// Dimension consistency (rows vs classes) is checked separately after
// decoding.
var artifactSchema = map[string]any{
	"type":     "object",
	"required": []any{"model_type", "feature_names", "classes", "coefficients", "intercepts"},
	"properties": map[string]any{
		"version":    map[string]any{"type": "string"},
		"model_type": map[string]any{"type": "string"},
		"feature_names": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"classes": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]any{"type": "integer"},
		},
		"coefficients": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "number"},
			},
		},
		"intercepts": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "number"},
		},
		"probabilities": map[string]any{"type": "boolean"},
	},
}

// validateArtifactJSON validates raw artifact bytes against artifactSchema.
func validateArtifactJSON(raw []byte) error {
	b, err := json.Marshal(artifactSchema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("artifact.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("artifact.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("artifact is not valid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("artifact does not match schema: %w", err)
	}
	return nil
}
