package feedback

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/jayainhufs/coding-sam/internal/domain"
)

var stepEnum = []any{"understand", "decompose", "pattern", "abstract", "pseudocode"}

func scoresSchema() map[string]any {
	props := make(map[string]any, len(stepEnum))
	for _, s := range stepEnum {
		props[s.(string)] = map[string]any{"type": "number", "minimum": 0, "maximum": 100}
	}
	return map[string]any{"type": "object", "properties": props}
}

func stepArraySchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"enum": stepEnum},
	}
}

// evaluateSchema describes a submit-evaluation request
var evaluateSchema = map[string]any{
	"type":     "object",
	"required": []any{"summary"},
	"properties": map[string]any{
		"summary": map[string]any{
			"type":     "object",
			"required": []any{"avg", "attempts", "solvedCount", "weakest", "strength"},
			"properties": map[string]any{
				"avg":         scoresSchema(),
				"attempts":    map[string]any{"type": "integer", "minimum": 0},
				"solvedCount": map[string]any{"type": "integer", "minimum": 0},
				"weakest":     stepArraySchema(),
				"strength":    stepArraySchema(),
			},
		},
		"recent": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "attempts"},
				"properties": map[string]any{
					"id":       map[string]any{"type": "string"},
					"scores":   scoresSchema(),
					"attempts": map[string]any{"type": "integer", "minimum": 0},
				},
			},
		},
		"aiRequestCount":  map[string]any{"type": "integer", "minimum": 0},
		"hintCount":       map[string]any{"type": "integer", "minimum": 0},
		"solvedThreshold": map[string]any{"type": "number", "minimum": 1, "maximum": 100},
	},
}

// stepSchema describes a per-step feedback request
var stepSchema = map[string]any{
	"type":     "object",
	"required": []any{"step", "problem"},
	"properties": map[string]any{
		"step": map[string]any{"enum": stepEnum},
		"problem": map[string]any{
			"type":     "object",
			"required": []any{"id", "title"},
			"properties": map[string]any{
				"id":          map[string]any{"type": "string"},
				"title":       map[string]any{"type": "string"},
				"description": map[string]any{"type": "string"},
			},
		},
	},
}

// Validator checks raw request bodies against the request schemas
type Validator struct {
	once     sync.Once
	err      error
	evaluate *jsonschema.Schema
	step     *jsonschema.Schema
}

// NewValidator creates a validator. Schemas compile on first use.
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) compile() error {
	v.once.Do(func() {
		c := jsonschema.NewCompiler()
		if err := addResource(c, "schema://evaluate.json", evaluateSchema); err != nil {
			v.err = err
			return
		}
		if err := addResource(c, "schema://step.json", stepSchema); err != nil {
			v.err = err
			return
		}
		if v.evaluate, v.err = c.Compile("schema://evaluate.json"); v.err != nil {
			return
		}
		v.step, v.err = c.Compile("schema://step.json")
	})
	return v.err
}

// addResource round-trips def through JSON since the compiler expects
// decoded JSON values
func addResource(c *jsonschema.Compiler, url string, def map[string]any) error {
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal schema %s: %w", url, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse schema %s: %w", url, err)
	}
	if err := c.AddResource(url, doc); err != nil {
		return fmt.Errorf("add schema %s: %w", url, err)
	}
	return nil
}

// ValidateEvaluate validates a submit-evaluation request body
func (v *Validator) ValidateEvaluate(raw []byte) error {
	if err := v.compile(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	return validate(v.evaluate, raw)
}

// ValidateStep validates a step feedback request body
func (v *Validator) ValidateStep(raw []byte) error {
	if err := v.compile(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	return validate(v.step, raw)
}

func validate(schema *jsonschema.Schema, raw []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", domain.ErrInvalidRequest, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return nil
}
