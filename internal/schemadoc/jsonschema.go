package schemadoc

import (
	"bytes"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// detectJSONKind reports KindJSONSchema when value looks like a JSON Schema
// and compiles as one. Anything else is treated as a sample instance.
func detectJSONKind(value any) Kind {
	obj, ok := value.(map[string]any)
	if !ok {
		return KindJSONSample
	}
	_, hasSchema := obj["$schema"]
	_, hasType := obj["type"]
	_, hasProps := obj["properties"]
	if !hasSchema && !(hasType && hasProps) {
		return KindJSONSample
	}
	if err := compileSchema(obj); err != nil {
		return KindJSONSample
	}
	return KindJSONSchema
}

func compileSchema(obj map[string]any) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
		return err
	}
	_, err = compiler.Compile("schema.json")
	return err
}
