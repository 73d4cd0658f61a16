// internal/common/validation/document.go
package validation

import (
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// DocumentValidator checks assembled documents against per-type JSON schemas.
type DocumentValidator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewDocumentValidator compiles one schema per document type.
func NewDocumentValidator(schemas map[string][]byte) (*DocumentValidator, error) {
	dv := &DocumentValidator{schemas: make(map[string]*gojsonschema.Schema, len(schemas))}
	for docType, raw := range schemas {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", docType, err)
		}
		dv.schemas[docType] = compiled
	}
	return dv, nil
}

// Validate returns the schema violations of doc, sorted. Types without a
// registered schema pass.
func (dv *DocumentValidator) Validate(docType string, doc map[string]interface{}) ([]string, error) {
	schema, ok := dv.schemas[docType]
	if !ok {
		return nil, nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	problems := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		problems[i] = desc.String()
	}
	sort.Strings(problems)
	return problems, nil
}
