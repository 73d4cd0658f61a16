package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireNumber(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"10", ""},
		{" 12.50 ", ""},
		{"0", ""},
		{"-3e2", ""},
		{"", MsgRequired},
		{"   ", MsgRequired},
		{"not-a-number", MsgInvalidNumber},
		{"NaN", MsgInvalidNumber},
		{"Inf", MsgInvalidNumber},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, RequireNumber(tt.input))
		})
	}
}

func TestValidateURL(t *testing.T) {
	assert.Equal(t, "", ValidateURL(""))
	assert.Equal(t, "", ValidateURL("https://x.com"))
	assert.Equal(t, "", ValidateURL("http://books.example.com/read?id=1"))
	assert.Equal(t, MsgInvalidURL, ValidateURL("x.com"))
	assert.Equal(t, MsgInvalidURL, ValidateURL("ftp://x.com/file"))
	assert.Equal(t, MsgInvalidURL, ValidateURL("https://"))
}

func TestOneOf(t *testing.T) {
	both := OneOf(map[string]bool{"file": true, "accessLink": true})
	assert.Equal(t, ValidationResult{"file": MsgMutuallyExclusive, "accessLink": MsgMutuallyExclusive}, both)

	neither := OneOf(map[string]bool{"file": false, "accessLink": false})
	assert.Equal(t, ValidationResult{"file": MsgOneRequired, "accessLink": MsgOneRequired}, neither)

	one := OneOf(map[string]bool{"file": false, "accessLink": true})
	assert.True(t, one.Valid())
}

func TestRequireTextDateOption(t *testing.T) {
	assert.Equal(t, MsgRequired, RequireText(" \t"))
	assert.Equal(t, "", RequireText("مهر"))

	assert.Equal(t, "", RequireDate("2019-04-01"))
	assert.Equal(t, MsgInvalidDate, RequireDate("01/04/2019"))

	assert.Equal(t, "", RequireOption("mare", []string{"stallion", "mare"}))
	assert.Equal(t, MsgInvalidOption, RequireOption("pony", []string{"stallion", "mare"}))
	assert.Equal(t, "", RequireOption("anything", nil))

	assert.Equal(t, MsgEmptyCollection, RequireCollection(0))
	assert.Equal(t, "", RequireCollection(2))
}

func TestValidationResult_MergeAndFailed(t *testing.T) {
	vr := ValidationResult{"title": "", "price": MsgInvalidNumber}
	vr.Merge(ValidationResult{"price": "", "images": MsgEmptyCollection})

	assert.False(t, vr.Valid())
	assert.Equal(t, map[string]string{"price": MsgInvalidNumber, "images": MsgEmptyCollection}, vr.Failed())
}

func TestDocumentValidator(t *testing.T) {
	dv, err := NewDocumentValidator(map[string][]byte{
		"book": []byte(`{
			"type": "object",
			"required": ["_type", "price"],
			"properties": {"price": {"type": "number", "minimum": 0}}
		}`),
	})
	require.NoError(t, err)

	problems, err := dv.Validate("book", map[string]interface{}{"_type": "book", "price": 10.0})
	require.NoError(t, err)
	assert.Empty(t, problems)

	problems, err = dv.Validate("book", map[string]interface{}{"_type": "book", "price": -1.0})
	require.NoError(t, err)
	assert.Len(t, problems, 1)

	problems, err = dv.Validate("stable", map[string]interface{}{})
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestNewDocumentValidator_RejectsBadSchema(t *testing.T) {
	_, err := NewDocumentValidator(map[string][]byte{"book": []byte(`{"type": 12}`)})
	assert.Error(t, err)
}
