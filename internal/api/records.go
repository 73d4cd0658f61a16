// internal/api/records.go
package api

import (
	"encoding/json"
	"fmt"

	"equimarket/internal/cms"
	"equimarket/internal/models"
)

// recordFromDocument loads the scalar and subrecord fields of doc into a
// fresh record. Asset fields stay empty; the user uploads them again. The
// tier field keeps its default since the tier is recomputed on submit.
func recordFromDocument(entity models.Entity, doc cms.Document) (models.Record, error) {
	rec := entity.New()
	schema, err := models.SchemaOf(rec)
	if err != nil {
		return nil, err
	}

	for _, f := range schema.Fields {
		if f.Kind.IsAsset() || f.Name == entity.TierField {
			continue
		}
		v, ok := doc[f.Name]
		if !ok || v == nil {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		if err := models.SetField(rec, f.Name, raw); err != nil {
			return nil, err
		}
	}
	return rec, nil
}
