package statemachine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// specSchemaJSON shapes a MachineSpec document before it's trusted enough
// to unmarshal into Go types: entity_kind and states are required, every
// state's allowed_transitions must each name a "to", and conditions may
// nest only through "or". Catching a malformed pack's state_machine.yml
// here produces a pointed error instead of a zero-value MachineSpec that
// fails confusingly deep inside Runtime construction.
const specSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["entity_kind", "states"],
  "properties": {
    "entity_kind": {"type": "string", "minLength": 1},
    "states": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "object",
        "properties": {
          "initial": {"type": "boolean"},
          "final": {"type": "boolean"},
          "allowed_transitions": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["to"],
              "properties": {
                "to": {"type": "string", "minLength": 1},
                "guard": {"type": "string"},
                "actions": {"type": "array", "items": {"type": "string"}},
                "conditions": {"type": "array", "items": {"$ref": "#/$defs/condition"}}
              }
            }
          }
        }
      }
    }
  },
  "$defs": {
    "condition": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "error": {"type": "string"},
        "or": {"type": "array", "items": {"$ref": "#/$defs/condition"}}
      }
    }
  }
}`

var specSchema = mustCompileSpecSchema()

func mustCompileSpecSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(specSchemaJSON))
	if err != nil {
		panic(fmt.Sprintf("statemachine: invalid embedded spec schema: %v", err))
	}
	if err := c.AddResource("state_machine_spec.json", doc); err != nil {
		panic(fmt.Sprintf("statemachine: add spec schema resource: %v", err))
	}
	sch, err := c.Compile("state_machine_spec.json")
	if err != nil {
		panic(fmt.Sprintf("statemachine: compile spec schema: %v", err))
	}
	return sch
}

// validateSpecShape re-encodes yamlData as JSON (yaml.v3 already decodes
// mappings as map[string]any, so the round-trip is a straight re-encode)
// and validates it against specSchema before the caller unmarshals into
// MachineSpec proper.
func validateSpecShape(yamlData []byte) error {
	var node any
	if err := yaml.Unmarshal(yamlData, &node); err != nil {
		return fmt.Errorf("statemachine: parse spec for schema check: %w", err)
	}

	jsonBytes, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("statemachine: re-encode spec for schema check: %w", err)
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonBytes))
	if err != nil {
		return fmt.Errorf("statemachine: decode spec instance: %w", err)
	}
	if err := specSchema.Validate(instance); err != nil {
		return &SpecError{EntityKind: "unknown", Problem: err.Error()}
	}
	return nil
}
