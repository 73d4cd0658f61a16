// internal/common/validation/rules.go
package validation

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Message keys. The UI localizes them; an empty string means valid.
const (
	MsgRequired          = "required"
	MsgOneRequired       = "one_required"
	MsgMutuallyExclusive = "mutually_exclusive"
	MsgInvalidNumber     = "invalid_number"
	MsgInvalidURL        = "invalid_url"
	MsgInvalidDate       = "invalid_date"
	MsgInvalidOption     = "invalid_option"
	MsgEmptyCollection   = "empty_collection"
)

// DateLayout is the wire format of date inputs.
const DateLayout = "2006-01-02"

// ValidationResult maps field name to message key.
type ValidationResult map[string]string

// Valid reports whether every field maps to "".
func (vr ValidationResult) Valid() bool {
	for _, msg := range vr {
		if msg != "" {
			return false
		}
	}
	return true
}

// Failed returns only the fields carrying a message.
func (vr ValidationResult) Failed() map[string]string {
	out := make(map[string]string)
	for field, msg := range vr {
		if msg != "" {
			out[field] = msg
		}
	}
	return out
}

// Merge copies other into vr. A message already recorded for a field wins.
func (vr ValidationResult) Merge(other ValidationResult) {
	for field, msg := range other {
		if existing, ok := vr[field]; ok && existing != "" {
			continue
		}
		vr[field] = msg
	}
}

// RequireText checks a trimmed non-empty string.
func RequireText(s string) string {
	if strings.TrimSpace(s) == "" {
		return MsgRequired
	}
	return ""
}

// ParseNumber parses a number input. Only finite floats are accepted.
func ParseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// RequireNumber checks that a number input is present and parses.
func RequireNumber(s string) string {
	if strings.TrimSpace(s) == "" {
		return MsgRequired
	}
	if _, ok := ParseNumber(s); !ok {
		return MsgInvalidNumber
	}
	return ""
}

// ValidateURL accepts an empty value or an absolute http(s) URL.
func ValidateURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !IsHTTPURL(s) {
		return MsgInvalidURL
	}
	return ""
}

// IsHTTPURL reports whether s is an absolute http or https URL with a host.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// RequireDate checks a present date in DateLayout.
func RequireDate(s string) string {
	if strings.TrimSpace(s) == "" {
		return MsgRequired
	}
	if _, err := time.Parse(DateLayout, strings.TrimSpace(s)); err != nil {
		return MsgInvalidDate
	}
	return ""
}

// RequireOption checks a present value drawn from options. An empty option
// list accepts any non-empty value.
func RequireOption(s string, options []string) string {
	if strings.TrimSpace(s) == "" {
		return MsgRequired
	}
	if len(options) == 0 {
		return ""
	}
	for _, o := range options {
		if s == o {
			return ""
		}
	}
	return MsgInvalidOption
}

// RequireCollection checks a non-empty list.
func RequireCollection(n int) string {
	if n == 0 {
		return MsgEmptyCollection
	}
	return ""
}

// OneOf applies the exclusive-choice rule to the members of a group: none
// set marks every member one_required, more than one marks every member
// mutually_exclusive.
func OneOf(present map[string]bool) ValidationResult {
	count := 0
	for _, p := range present {
		if p {
			count++
		}
	}

	msg := ""
	switch {
	case count == 0:
		msg = MsgOneRequired
	case count > 1:
		msg = MsgMutuallyExclusive
	}

	out := make(ValidationResult, len(present))
	for field := range present {
		out[field] = msg
	}
	return out
}
