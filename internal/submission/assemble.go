// internal/submission/assemble.go
package submission

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"equimarket/internal/cms"
	"equimarket/internal/common/validation"
	"equimarket/internal/models"
)

// uploads maps asset fields to the ids the CMS returned for them.
type uploads struct {
	files  map[string]string
	images map[string][]string
	order  []string
}

func newUploads() *uploads {
	return &uploads{files: map[string]string{}, images: map[string][]string{}}
}

func (u *uploads) addFile(field, id string) {
	u.files[field] = id
	u.order = append(u.order, id)
}

func (u *uploads) addImage(field, id string) {
	u.images[field] = append(u.images[field], id)
	u.order = append(u.order, id)
}

// ids returns every uploaded asset id in upload order.
func (u *uploads) ids() []string {
	return append([]string(nil), u.order...)
}

// assembleDocument builds the CMS document for rec. It returns the keys of
// exclusive-choice members left empty, which are omitted from the document.
func assembleDocument(rec models.Record, entity models.Entity, userID string, up *uploads, newKey func() string) (cms.Document, []string, error) {
	schema, err := models.SchemaOf(rec)
	if err != nil {
		return nil, nil, err
	}

	doc := cms.Document{"_type": entity.Type}
	var omitted []string

	for _, f := range schema.Fields {
		v := schema.Value(rec, f)

		switch f.Kind {
		case models.KindFile:
			id, ok := up.files[f.Name]
			if !ok {
				omitted = append(omitted, f.Name)
				continue
			}
			doc[f.Name] = assetRef(cms.AssetFile, id, "")

		case models.KindImages:
			ids := up.images[f.Name]
			refs := make([]interface{}, 0, len(ids))
			for _, id := range ids {
				refs = append(refs, assetRef(cms.AssetImage, id, newKey()))
			}
			doc[f.Name] = refs

		case models.KindNumber:
			doc[f.Name] = coerceNumber(v)

		case models.KindSubrecords:
			items, err := keyedItems(v, newKey)
			if err != nil {
				return nil, nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			doc[f.Name] = items

		default:
			if f.OneOf != "" && v.Kind() == reflect.String && strings.TrimSpace(v.String()) == "" {
				omitted = append(omitted, f.Name)
				continue
			}
			if v.Kind() == reflect.Slice && v.IsNil() {
				doc[f.Name] = []interface{}{}
				continue
			}
			doc[f.Name] = v.Interface()
		}
	}

	if entity.OwnerField != "" {
		doc[entity.OwnerField] = cms.Reference(userID)
	}
	return doc, omitted, nil
}

func assetRef(kind cms.AssetKind, id, key string) map[string]interface{} {
	ref := map[string]interface{}{
		"_type": string(kind),
		"asset": cms.Reference(id),
	}
	if key != "" {
		ref["_key"] = key
	}
	return ref
}

// coerceNumber turns number input text into a float; text that does not
// parse becomes 0.
func coerceNumber(v reflect.Value) interface{} {
	switch v.Kind() {
	case reflect.String:
		n, ok := validation.ParseNumber(v.String())
		if !ok {
			return float64(0)
		}
		return n
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return float64(0)
}

// keyedItems converts a slice of structs to objects, each with a fresh _key.
func keyedItems(v reflect.Value, newKey func() string) ([]interface{}, error) {
	out := make([]interface{}, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		raw, err := json.Marshal(v.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		item := map[string]interface{}{}
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}
		item["_key"] = newKey()
		out = append(out, item)
	}
	return out, nil
}
