package config

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"
	"gopkg.in/yaml.v3"
)

// manifestSchema describes a component manifest: a list of components,
// each with a unique name and the payload files it ships.
const manifestSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["name"],
    "additionalProperties": false,
    "properties": {
      "name":         {"type": "string", "minLength": 1},
      "display_name": {"type": "string"},
      "description":  {"type": "string"},
      "version":      {"type": "string"},
      "default":      {"type": "boolean"},
      "files":        {"type": "array", "items": {"type": "string", "minLength": 1}},
      "licenses": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["name"],
          "additionalProperties": false,
          "properties": {
            "name": {"type": "string", "minLength": 1},
            "file": {"type": "string"},
            "text": {"type": "string"}
          }
        }
      }
    }
  }
}`

// validateManifest checks raw manifest YAML against manifestSchema before
// it is decoded into ComponentConfig values.
func validateManifest(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	// Round-trip through JSON so the validator sees JSON types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile([]byte(manifestSchema))
	if err != nil {
		return fmt.Errorf("invalid manifest schema: %w", err)
	}
	result := schema.Validate(v)
	if !result.IsValid() {
		return fmt.Errorf("%s", result.Error())
	}
	return nil
}
