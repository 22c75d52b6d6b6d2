package spec

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/trawl-tools/trawl/pkg/util"
)

//go:embed spec.schema.json
var schemaJSON []byte

var (
	specSchema  *jsonschema.Schema
	compileOnce sync.Once
	compileErr  error
)

// SchemaJSON returns a copy of the embedded JSON Schema document that
// describes the spec file format. This is what `trawl schema` writes out.
func SchemaJSON() []byte {
	out := make([]byte, len(schemaJSON))
	copy(out, schemaJSON)
	return out
}

// compileSchema compiles the embedded schema once.
func compileSchema() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()

		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal spec schema: %w", err)
			return
		}

		if err := compiler.AddResource("spec.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("add spec schema resource: %w", err)
			return
		}

		specSchema, err = compiler.Compile("spec.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile spec schema: %w", err)
		}
	})

	return compileErr
}

// validateDocument checks raw YAML spec data against the embedded schema.
// The document is round-tripped through JSON so the validator sees
// JSON-native types, and its error carries the offending instance paths.
func validateDocument(data []byte) error {
	if err := compileSchema(); err != nil {
		return err
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing spec: %w", err)
	}
	if raw == nil {
		return util.NewValidationError("spec file is empty")
	}

	jsonData, err := json.Marshal(toJSONValue(raw))
	if err != nil {
		return fmt.Errorf("converting spec to JSON: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("reading spec document: %w", err)
	}

	if err := specSchema.Validate(inst); err != nil {
		return fmt.Errorf("spec validation failed: %w", err)
	}

	return nil
}

// toJSONValue rewrites YAML-decoded values into shapes encoding/json
// accepts. yaml.v3 produces map[string]any for string-keyed mappings but
// can fall back to map[any]any for exotic keys.
func toJSONValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[k] = toJSONValue(item)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[fmt.Sprint(k)] = toJSONValue(item)
		}
		return m
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = toJSONValue(item)
		}
		return out
	default:
		return v
	}
}
