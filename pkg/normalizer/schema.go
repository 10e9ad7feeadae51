package normalizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// strategySchema is the strategy.v1 contract every persisted record must
// satisfy. Kept in code so the validator cannot drift from the binary.
const strategySchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "Strategy v1",
  "type": "object",
  "required": [
    "schema_version", "signature", "name", "description", "universe",
    "timeframe", "indicators", "entry_rules", "exit_rules", "sources",
    "confidence"
  ],
  "properties": {
    "schema_version": { "const": "strategy.v1" },
    "signature": { "type": "string", "minLength": 64, "maxLength": 64 },
    "name": { "type": "string", "minLength": 1 },
    "description": { "type": "string" },
    "universe": { "type": "array", "items": { "type": "string" }, "minItems": 1 },
    "timeframe": { "type": "string", "minLength": 1 },
    "indicators": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "params"],
        "properties": {
          "name": { "type": "string", "minLength": 1 },
          "params": { "type": "object" },
          "unknown": { "type": "boolean" }
        }
      }
    },
    "entry_rules": { "type": "array", "items": { "type": "string" }, "minItems": 1 },
    "exit_rules": { "type": "array", "items": { "type": "string" } },
    "position_sizing": { "type": ["object", "null"] },
    "defaults": { "type": ["object", "null"] },
    "backtest_hints": { "type": ["object", "null"] },
    "sources": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["url"],
        "properties": {
          "url": { "type": "string", "minLength": 1 },
          "doi": { "type": "string" },
          "license": { "type": "string" }
        }
      }
    },
    "evidence": { "type": "array" },
    "confidence": { "type": "number", "minimum": 0, "maximum": 1 }
  },
  "additionalProperties": true
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("strategy_v1.json", strings.NewReader(strategySchema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("strategy_v1.json")
}

// SchemaValidationError reports the first failing field of a record that
// does not satisfy its declared schema version. The record is not persisted;
// the caller decides whether to repair and retry.
type SchemaValidationError struct {
	Field   string
	Message string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("strategy failed %s validation at %s: %s", "strategy.v1", e.Field, e.Message)
}

func validateAgainstSchema(v any) error {
	err := compiledSchema.Validate(v)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		leaf := ve
		for len(leaf.Causes) > 0 {
			leaf = leaf.Causes[0]
		}
		field := strings.TrimPrefix(leaf.InstanceLocation, "/")
		field = strings.ReplaceAll(field, "/", ".")
		if field == "" {
			field = "(root)"
		}
		return &SchemaValidationError{Field: field, Message: leaf.Message}
	}
	return &SchemaValidationError{Field: "(root)", Message: err.Error()}
}
