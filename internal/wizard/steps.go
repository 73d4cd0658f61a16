// internal/wizard/steps.go
package wizard

import (
	"fmt"
	"reflect"
	"strings"

	"equimarket/internal/common/validation"
	"equimarket/internal/models"
)

// Validator checks the required fields of one step.
type Validator func(rec models.Record, step StepDefinition) validation.ValidationResult

// StepDefinition is one page of a wizard. Indices are 1-based and contiguous.
type StepDefinition struct {
	Index     int
	Key       string
	Required  []string
	Validator Validator
}

var stepsByEntity = map[string][]StepDefinition{
	models.EntityBook: {
		{Index: 1, Key: "basic_info", Required: []string{"title", "description", "category"}, Validator: ValidateFields},
		{Index: 2, Key: "media_pricing", Required: []string{"images", "file", "accessLink", "price"}, Validator: ValidateFields},
		{Index: 3, Key: "details", Required: []string{"language"}, Validator: ValidateFields},
	},
	models.EntityHorse: {
		{Index: 1, Key: "basic_info", Required: []string{"name", "breed", "birthDate", "gender"}, Validator: ValidateFields},
		{Index: 2, Key: "media", Required: []string{"images"}, Validator: ValidateFields},
		{Index: 3, Key: "details", Required: []string{"activities"}, Validator: ValidateFields},
	},
}

// StepsFor returns the step definitions of an entity.
func StepsFor(entityType string) ([]StepDefinition, bool) {
	steps, ok := stepsByEntity[entityType]
	return steps, ok
}

// ValidateStep runs the step's validator. Every required field appears in
// the result; "" marks it valid.
func ValidateStep(rec models.Record, step StepDefinition) validation.ValidationResult {
	v := step.Validator
	if v == nil {
		v = ValidateFields
	}
	return v(rec, step)
}

// ValidateAll merges the results of every step.
func ValidateAll(rec models.Record, steps []StepDefinition) validation.ValidationResult {
	out := validation.ValidationResult{}
	for _, step := range steps {
		out.Merge(ValidateStep(rec, step))
	}
	return out
}

// ValidateFields applies the kind rules to each required field. Members of a
// oneof group are judged together.
func ValidateFields(rec models.Record, step StepDefinition) validation.ValidationResult {
	schema := models.MustSchemaOf(rec)
	out := validation.ValidationResult{}
	groups := map[string]bool{}

	for _, name := range step.Required {
		f, ok := schema.Field(name)
		if !ok {
			out[name] = validation.MsgRequired
			continue
		}
		if f.OneOf != "" {
			groups[f.OneOf] = true
			continue
		}
		out[name] = checkField(f, schema.Value(rec, f), true)
	}

	for group := range groups {
		members := schema.Group(group)
		present := make(map[string]bool, len(members))
		for _, m := range members {
			present[m.Name] = isPresent(schema.Value(rec, m))
		}
		groupResult := validation.OneOf(present)
		for _, m := range members {
			if groupResult[m.Name] == "" && present[m.Name] {
				groupResult[m.Name] = checkField(m, schema.Value(rec, m), false)
			}
		}
		out.Merge(groupResult)
	}

	return out
}

func checkField(f models.FieldSpec, v reflect.Value, required bool) string {
	switch f.Kind {
	case models.KindText, models.KindTextarea:
		return validation.RequireText(stringOf(v))
	case models.KindNumber:
		if v.Kind() != reflect.String {
			return ""
		}
		return validation.RequireNumber(v.String())
	case models.KindDate:
		return validation.RequireDate(stringOf(v))
	case models.KindEnum:
		return validation.RequireOption(stringOf(v), f.Options)
	case models.KindURL:
		s := stringOf(v)
		if required && strings.TrimSpace(s) == "" {
			return validation.MsgRequired
		}
		return validation.ValidateURL(s)
	case models.KindFile:
		if !isPresent(v) {
			return validation.MsgRequired
		}
		return ""
	case models.KindImages, models.KindSubrecords, models.KindMultiSelect:
		return validation.RequireCollection(v.Len())
	}
	return ""
}

func stringOf(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}
	return fmt.Sprint(v.Interface())
}

// isPresent is the exclusive-choice notion of "set": a non-nil pointer or
// a non-blank string.
func isPresent(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return !v.IsNil()
	case reflect.String:
		return strings.TrimSpace(v.String()) != ""
	case reflect.Slice, reflect.Map:
		return v.Len() > 0
	}
	return !v.IsZero()
}
