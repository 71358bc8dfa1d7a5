// Package validator compiles the optional json-schema attached to a
// mapping's input hooks and validates transformed request data against it.
package validator

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"restfront-gateway/internal/gateway/mapping"
)

// Schema is a compiled input schema.
type Schema struct {
	compiled *gojsonschema.Schema
}

// Compile builds a validator from the raw schema value of a mapping. A nil
// or empty schema compiles to nil, meaning "no validation".
func Compile(raw interface{}) (*Schema, error) {
	if raw == nil {
		return nil, nil
	}
	if fields, ok := raw.(map[string]interface{}); ok && len(fields) == 0 {
		return nil, nil
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile input schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// Validate checks data against the schema and reports the outcome as a
// verdict, listing every violation.
func (s *Schema) Validate(data interface{}) *mapping.Verdict {
	if s == nil {
		return &mapping.Verdict{Valid: true}
	}
	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return &mapping.Verdict{
			Valid:  false,
			Errors: []string{err.Error()},
		}
	}
	if result.Valid() {
		return &mapping.Verdict{Valid: true}
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return &mapping.Verdict{Valid: false, Errors: violations}
}

// CheckBundles compiles every schema in the sanitized bundles, failing fast
// on the first invalid one. Run at startup so a malformed schema never
// reaches request time.
func CheckBundles(bundles map[string]*mapping.Bundle) error {
	for name, bundle := range bundles {
		for _, m := range bundle.APIMaps {
			if _, err := Compile(m.Input.Schema); err != nil {
				return fmt.Errorf("bundle %q mapping %s: %w", name, m.Path.One(), err)
			}
		}
	}
	return nil
}
