// Package completion scores how much of a form record is filled in.
package completion

import (
	"math"
	"reflect"

	"equimarket/internal/common/validation"
	"equimarket/internal/models"
)

// Tier is the profile level derived from a completion percentage.
type Tier string

const (
	TierBasic  Tier = "basic"
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

// Result is the score of one record.
type Result struct {
	Filled     int  `json:"filled"`
	Total      int  `json:"total"`
	Percentage int  `json:"percentage"`
	Tier       Tier `json:"tier"`
}

// TierFor maps a percentage to a tier. Thresholds are strict: exactly 50
// is basic, exactly 75 bronze, exactly 90 silver.
func TierFor(percentage float64) Tier {
	switch {
	case percentage > 90:
		return TierGold
	case percentage > 75:
		return TierSilver
	case percentage > 50:
		return TierBronze
	default:
		return TierBasic
	}
}

// Score counts filled fields over every declared form field.
//
// A numeric zero, a number input parsing to zero and a value equal to the
// field's unset marker all count as unfilled.
func Score(rec models.Record) Result {
	schema := models.MustSchemaOf(rec)
	total := schema.Total()
	if total == 0 {
		return Result{Tier: TierBasic}
	}

	filled := 0
	for _, f := range schema.Fields {
		if isFilled(f, schema.Value(rec, f)) {
			filled++
		}
	}

	pct := int(math.Floor(100 * float64(filled) / float64(total)))
	return Result{
		Filled:     filled,
		Total:      total,
		Percentage: pct,
		Tier:       TierFor(float64(pct)),
	}
}

func isFilled(f models.FieldSpec, v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() > 0
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return false
		}
		return isFilled(f, v.Elem())
	case reflect.String:
		s := v.String()
		if s == "" {
			return false
		}
		if f.Unset != "" && s == f.Unset {
			return false
		}
		if f.Kind == models.KindNumber {
			if n, ok := validation.ParseNumber(s); ok && n == 0 {
				return false
			}
		}
		return true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return v.Float() != 0
	case reflect.Bool:
		return true
	}
	return !v.IsZero()
}
