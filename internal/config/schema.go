package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compositionConfigSchemaJSON catches a pack's malformed composition
// config section (e.g. an unknown composition_mode, or a negative
// dedupe_shingle_size) before it reaches composition.StrategyFor, which
// only checks composition_mode and would otherwise let a bad shingle
// size through to silently degrade dedupe quality.
const compositionConfigSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "enable_sections": {"type": "boolean"},
    "enable_dedupe": {"type": "boolean"},
    "dedupe_shingle_size": {"type": "integer", "minimum": 1},
    "enable_template_processing": {"type": "boolean"},
    "composition_mode": {"enum": ["", "section", "concatenate", "yaml_merge"]},
    "exclude_globs": {"type": "array", "items": {"type": "string"}},
    "allow_section_override": {"type": "boolean"}
  }
}`

var (
	compositionSchemaOnce sync.Once
	compositionSchema     *jsonschema.Schema
	compositionSchemaErr  error
)

func loadCompositionSchema() (*jsonschema.Schema, error) {
	compositionSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(compositionConfigSchemaJSON))
		if err != nil {
			compositionSchemaErr = fmt.Errorf("config: invalid embedded composition schema: %w", err)
			return
		}
		if err := c.AddResource("composition_config.json", doc); err != nil {
			compositionSchemaErr = fmt.Errorf("config: add composition schema resource: %w", err)
			return
		}
		sch, err := c.Compile("composition_config.json")
		if err != nil {
			compositionSchemaErr = fmt.Errorf("config: compile composition schema: %w", err)
			return
		}
		compositionSchema = sch
	})
	return compositionSchema, compositionSchemaErr
}

// ValidateCompositionConfig checks raw (the merged, pre-unmarshal map for
// a composition config section) against the declared shape, returning a
// ParseError naming the offending field on mismatch.
func ValidateCompositionConfig(raw map[string]any) error {
	schema, err := loadCompositionSchema()
	if err != nil {
		return err
	}

	jsonBytes, err := json.Marshal(raw)
	if err != nil {
		return &ParseError{Err: err}
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonBytes))
	if err != nil {
		return &ParseError{Err: err}
	}
	if err := schema.Validate(instance); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}

// UnmarshalComposition decodes the dotted key's merged value into a
// CompositionConfig, validating its shape first so a pack author's typo
// (e.g. composition_mode: "sections") fails at load time with a pointed
// message instead of surfacing as an UnknownModeError deep in Compose.
func (r *Resolver) UnmarshalComposition(key string) (CompositionConfig, error) {
	merged, err := r.Load()
	if err != nil {
		return CompositionConfig{}, err
	}

	raw := merged
	if key != "" {
		var ok bool
		raw, ok = asStringMap(lookupDotted(merged, splitDotted(key)))
		if !ok {
			raw = map[string]any{}
		}
	}

	if err := ValidateCompositionConfig(raw); err != nil {
		return CompositionConfig{}, fmt.Errorf("config: composition section %q failed schema validation: %w", key, err)
	}

	var cfg CompositionConfig
	if err := r.Unmarshal(key, &cfg); err != nil {
		return CompositionConfig{}, err
	}
	return cfg, nil
}

func lookupDotted(m map[string]any, parts []string) any {
	var cur any = m
	for _, p := range parts {
		mm, ok := asStringMap(cur)
		if !ok {
			return nil
		}
		cur, ok = mm[p]
		if !ok {
			return nil
		}
	}
	return cur
}
