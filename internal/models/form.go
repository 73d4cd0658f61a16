// internal/models/form.go
package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

var (
	ErrMissingKind  = errors.New("form field has no kind")
	ErrUnknownKind  = errors.New("form field has unknown kind")
	ErrUnknownField = errors.New("unknown form field")
	ErrNotAStruct   = errors.New("form record must be a pointer to a struct")
)

// Kind is the declared input kind of a form field.
type Kind string

const (
	KindText        Kind = "text"
	KindTextarea    Kind = "textarea"
	KindNumber      Kind = "number"
	KindDate        Kind = "date"
	KindEnum        Kind = "enum"
	KindMultiSelect Kind = "multiselect"
	KindFile        Kind = "file"
	KindURL         Kind = "url"
	KindImages      Kind = "images"
	KindSubrecords  Kind = "subrecords"
)

var knownKinds = map[Kind]bool{
	KindText: true, KindTextarea: true, KindNumber: true, KindDate: true,
	KindEnum: true, KindMultiSelect: true, KindFile: true, KindURL: true,
	KindImages: true, KindSubrecords: true,
}

// IsCollection reports whether the kind holds a list of values.
func (k Kind) IsCollection() bool {
	return k == KindImages || k == KindSubrecords || k == KindMultiSelect
}

// IsAsset reports whether the kind carries uploaded binary content.
func (k Kind) IsAsset() bool {
	return k == KindFile || k == KindImages
}

// FieldSpec describes one form field, parsed from a struct tag of the shape
//
//	form:"<name>,kind=<kind>[,unset=<v>][,oneof=<group>][,options=a|b|c]"
type FieldSpec struct {
	Name    string
	Kind    Kind
	Unset   string
	OneOf   string
	Options []string
	index   []int
}

// Schema is the ordered field list of one record type.
type Schema struct {
	Fields []FieldSpec
	byName map[string]int
}

// Total is the number of declared form fields.
func (s *Schema) Total() int { return len(s.Fields) }

// Field looks a field up by its form name.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	i, ok := s.byName[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.Fields[i], true
}

// Group returns the fields that share a oneof group, in declaration order.
func (s *Schema) Group(group string) []FieldSpec {
	var out []FieldSpec
	for _, f := range s.Fields {
		if f.OneOf == group {
			out = append(out, f)
		}
	}
	return out
}

// Value returns the reflected value of a field on rec.
func (s *Schema) Value(rec Record, f FieldSpec) reflect.Value {
	return reflect.ValueOf(rec).Elem().FieldByIndex(f.index)
}

// Interface returns the field value as an interface, nil for nil pointers and slices.
func (s *Schema) Interface(rec Record, name string) (interface{}, error) {
	f, ok := s.Field(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	v := s.Value(rec, f)
	switch v.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
	}
	return v.Interface(), nil
}

var schemaCache sync.Map // map[reflect.Type]*Schema

// SchemaOf derives the schema of rec from its form tags. The result is cached
// per concrete type.
func SchemaOf(rec Record) (*Schema, error) {
	t := reflect.TypeOf(rec)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		return nil, ErrNotAStruct
	}
	t = t.Elem()

	if cached, ok := schemaCache.Load(t); ok {
		return cached.(*Schema), nil
	}

	schema, err := buildSchema(t)
	if err != nil {
		return nil, err
	}
	actual, _ := schemaCache.LoadOrStore(t, schema)
	return actual.(*Schema), nil
}

// MustSchemaOf is SchemaOf for records declared in this package.
func MustSchemaOf(rec Record) *Schema {
	s, err := SchemaOf(rec)
	if err != nil {
		panic(err)
	}
	return s
}

func buildSchema(t reflect.Type) (*Schema, error) {
	s := &Schema{byName: make(map[string]int)}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup("form")
		if !ok || tag == "-" || !sf.IsExported() {
			continue
		}
		spec, err := parseFormTag(tag)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name(), sf.Name, err)
		}
		spec.index = sf.Index
		if _, dup := s.byName[spec.Name]; dup {
			return nil, fmt.Errorf("%s.%s: duplicate form field %q", t.Name(), sf.Name, spec.Name)
		}
		s.byName[spec.Name] = len(s.Fields)
		s.Fields = append(s.Fields, spec)
	}
	return s, nil
}

func parseFormTag(tag string) (FieldSpec, error) {
	parts := strings.Split(tag, ",")
	spec := FieldSpec{Name: strings.TrimSpace(parts[0])}
	if spec.Name == "" {
		return spec, fmt.Errorf("empty form field name in %q", tag)
	}

	for _, p := range parts[1:] {
		key, val, _ := strings.Cut(strings.TrimSpace(p), "=")
		switch key {
		case "kind":
			spec.Kind = Kind(val)
		case "unset":
			spec.Unset = val
		case "oneof":
			spec.OneOf = val
		case "options":
			spec.Options = strings.Split(val, "|")
		default:
			return spec, fmt.Errorf("unknown form tag option %q", key)
		}
	}

	if spec.Kind == "" {
		return spec, fmt.Errorf("%w: %s", ErrMissingKind, spec.Name)
	}
	if !knownKinds[spec.Kind] {
		return spec, fmt.Errorf("%w: %s (%s)", ErrUnknownKind, spec.Name, spec.Kind)
	}
	return spec, nil
}
