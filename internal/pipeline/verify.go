package pipeline

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/schemasync/internal/foundation/errors"
)

// Compile loads a serialized schema and resolves every $ref in it.
func Compile(data []byte) (*jsonschema.Resolved, error) {
	var js jsonschema.Schema
	if err := json.Unmarshal(data, &js); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "generated schema is not valid JSON Schema").
			Fatal().
			Build()
	}
	resolved, err := js.Resolve(nil)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "generated schema failed self-check").
			Fatal().
			Build()
	}
	return resolved, nil
}

// ValidateDocument validates a YAML (or JSON) document against a compiled
// schema.
func ValidateDocument(resolved *jsonschema.Resolved, doc []byte) error {
	instance, err := decodeInstance(doc)
	if err != nil {
		return err
	}
	if err := resolved.Validate(instance); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "document does not match schema").Build()
	}
	return nil
}

// decodeInstance decodes YAML and normalizes it to the value types
// encoding/json produces, which is what the validator expects.
func decodeInstance(doc []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(doc, &raw); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "decode YAML document").Build()
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "document cannot be represented as JSON").Build()
	}
	var instance any
	if err := json.Unmarshal(encoded, &instance); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "re-decode document").Build()
	}
	return instance, nil
}
