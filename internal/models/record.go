// internal/models/record.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Record is a form-backed entity draft.
type Record interface {
	EntityType() string
}

// Upload is a file picked by the user but not yet sent to the asset store.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// MarshalJSON reports the upload without its content.
func (u *Upload) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"filename":    u.Filename,
		"contentType": u.ContentType,
		"size":        len(u.Data),
	})
}

// Entity describes a registered form entity.
type Entity struct {
	Type string
	// OwnerField names the relationship pointing at the submitting user.
	OwnerField string
	// TierField is set for entities tagged with their completion tier.
	TierField string
	New       func() Record
}

// Tiered reports whether submissions carry a completion tier.
func (e Entity) Tiered() bool { return e.TierField != "" }

var entities = map[string]Entity{}

func register(e Entity) {
	MustSchemaOf(e.New())
	entities[e.Type] = e
}

// LookupEntity returns the registered entity for a document type.
func LookupEntity(entityType string) (Entity, bool) {
	e, ok := entities[entityType]
	return e, ok
}

// EntityTypes lists registered entity types in sorted order.
func EntityTypes() []string {
	out := make([]string, 0, len(entities))
	for t := range entities {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Reset restores rec to the defaults of its entity.
func Reset(rec Record) {
	e, ok := LookupEntity(rec.EntityType())
	if !ok {
		v := reflect.ValueOf(rec).Elem()
		v.Set(reflect.Zero(v.Type()))
		return
	}
	reflect.ValueOf(rec).Elem().Set(reflect.ValueOf(e.New()).Elem())
}

// ResetField restores one field of rec to its entity default.
func ResetField(rec Record, name string) error {
	e, ok := LookupEntity(rec.EntityType())
	if !ok {
		return fmt.Errorf("unknown entity %q", rec.EntityType())
	}
	s, err := SchemaOf(rec)
	if err != nil {
		return err
	}
	f, ok := s.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	s.Value(rec, f).Set(s.Value(e.New(), f))
	return nil
}

// SetField decodes raw JSON into the named field. Asset fields only accept
// null, which clears them; content arrives through AttachUpload.
func SetField(rec Record, name string, raw json.RawMessage) error {
	s, err := SchemaOf(rec)
	if err != nil {
		return err
	}
	f, ok := s.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	v := s.Value(rec, f)

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		v.Set(reflect.Zero(v.Type()))
		return nil
	}
	if f.Kind.IsAsset() {
		return fmt.Errorf("field %s only accepts uploads", name)
	}

	// number inputs are held as typed text; accept bare JSON numbers too
	if f.Kind == KindNumber && v.Kind() == reflect.String && trimmed[0] != '"' {
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		v.SetString(n.String())
		return nil
	}

	target := reflect.New(v.Type())
	if err := json.Unmarshal(trimmed, target.Interface()); err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}
	v.Set(target.Elem())
	return nil
}

// AttachUpload sets a file field or appends to an images field.
func AttachUpload(rec Record, name string, u *Upload) error {
	s, err := SchemaOf(rec)
	if err != nil {
		return err
	}
	f, ok := s.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	v := s.Value(rec, f)

	switch f.Kind {
	case KindFile:
		v.Set(reflect.ValueOf(u))
	case KindImages:
		v.Set(reflect.Append(v, reflect.ValueOf(u)))
	default:
		return fmt.Errorf("field %s does not accept uploads", name)
	}
	return nil
}
