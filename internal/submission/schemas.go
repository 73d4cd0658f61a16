// internal/submission/schemas.go
package submission

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"equimarket/internal/common/validation"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// NewDocumentValidator compiles the embedded schema of every listing type.
func NewDocumentValidator() (*validation.DocumentValidator, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read schemas: %w", err)
	}
	raw := make(map[string][]byte, len(entries))
	for _, e := range entries {
		b, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", e.Name(), err)
		}
		raw[strings.TrimSuffix(e.Name(), path.Ext(e.Name()))] = b
	}
	return validation.NewDocumentValidator(raw)
}
