package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equimarket/internal/common/validation"
	"equimarket/internal/models"
)

func bookStep(t *testing.T, index int) StepDefinition {
	t.Helper()
	steps, ok := StepsFor(models.EntityBook)
	require.True(t, ok)
	return steps[index-1]
}

func createTestBook() *models.Book {
	b := models.NewBook()
	b.Title = "A"
	b.Description = "B"
	b.Category = "other"
	b.Images = []*models.Upload{{Filename: "img1.jpg", ContentType: "image/jpeg", Data: []byte{0xff}}}
	b.AccessLink = "https://x.com"
	b.Price = "10"
	b.Language = "en"
	return b
}

func TestStepDefinitions_ContiguousIndices(t *testing.T) {
	for _, entity := range models.EntityTypes() {
		steps, ok := StepsFor(entity)
		require.True(t, ok, entity)
		for i, s := range steps {
			assert.Equal(t, i+1, s.Index, "%s step %s", entity, s.Key)
		}
	}
}

func TestValidateStep_BookSourceGroup(t *testing.T) {
	tests := []struct {
		name       string
		file       *models.Upload
		accessLink string
		want       validation.ValidationResult
	}{
		{
			name:       "both set",
			file:       &models.Upload{Filename: "book.pdf"},
			accessLink: "https://x.com",
			want: validation.ValidationResult{
				"images": "", "file": validation.MsgMutuallyExclusive, "accessLink": validation.MsgMutuallyExclusive, "price": "",
			},
		},
		{
			name: "neither set",
			want: validation.ValidationResult{
				"images": "", "file": validation.MsgOneRequired, "accessLink": validation.MsgOneRequired, "price": "",
			},
		},
		{
			name: "file only",
			file: &models.Upload{Filename: "book.pdf"},
			want: validation.ValidationResult{"images": "", "file": "", "accessLink": "", "price": ""},
		},
		{
			name:       "bad link",
			accessLink: "x.com/book",
			want:       validation.ValidationResult{"images": "", "file": "", "accessLink": validation.MsgInvalidURL, "price": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := createTestBook()
			b.File = tt.file
			b.AccessLink = tt.accessLink

			assert.Equal(t, tt.want, ValidateStep(b, bookStep(t, 2)))
		})
	}
}

func TestValidateStep_PriceOnMediaStep(t *testing.T) {
	b := createTestBook()
	step := bookStep(t, 2)

	b.Price = "not-a-number"
	assert.Equal(t, validation.MsgInvalidNumber, ValidateStep(b, step)["price"])
	assert.Equal(t, map[string]string{"price": validation.MsgInvalidNumber}, ValidateStep(b, step).Failed())

	b.Price = ""
	assert.Equal(t, validation.MsgRequired, ValidateStep(b, step)["price"])

	b.Price = "10"
	assert.True(t, ValidateStep(b, step).Valid())
}

func TestValidateStep_BookDetails(t *testing.T) {
	b := createTestBook()
	b.Language = ""
	assert.Equal(t, validation.ValidationResult{"language": validation.MsgRequired}, ValidateStep(b, bookStep(t, 3)))

	b.Language = "fr"
	assert.Equal(t, validation.ValidationResult{"language": validation.MsgInvalidOption}, ValidateStep(b, bookStep(t, 3)))
}

func TestValidateStep_BasicInfo(t *testing.T) {
	b := createTestBook()
	b.Title = "   "
	b.Category = "cookery"

	got := ValidateStep(b, bookStep(t, 1))

	assert.Equal(t, validation.MsgRequired, got["title"])
	assert.Equal(t, "", got["description"])
	assert.Equal(t, validation.MsgInvalidOption, got["category"])
}

func TestValidateStep_HorseSteps(t *testing.T) {
	steps, _ := StepsFor(models.EntityHorse)
	h := models.NewHorse()

	first := ValidateStep(h, steps[0])
	assert.Equal(t, validation.ValidationResult{
		"name": validation.MsgRequired, "breed": validation.MsgRequired,
		"birthDate": validation.MsgRequired, "gender": validation.MsgRequired,
	}, first)

	assert.Equal(t, validation.MsgEmptyCollection, ValidateStep(h, steps[1])["images"])
	assert.Equal(t, validation.MsgEmptyCollection, ValidateStep(h, steps[2])["activities"])

	h.Name, h.Breed, h.BirthDate, h.Gender = "Najm", "arabian", "2018-03-14", "stallion"
	assert.True(t, ValidateStep(h, steps[0]).Valid())
}

func TestValidateAll_ReportsEveryStep(t *testing.T) {
	steps, _ := StepsFor(models.EntityBook)
	b := createTestBook()
	assert.True(t, ValidateAll(b, steps).Valid())

	b.Title = ""
	b.Price = "abc"
	failed := ValidateAll(b, steps).Failed()
	assert.Equal(t, map[string]string{"title": validation.MsgRequired, "price": validation.MsgInvalidNumber}, failed)
}

func TestValidateStep_IsPure(t *testing.T) {
	b := createTestBook()
	step := bookStep(t, 2)

	first := ValidateStep(b, step)
	second := ValidateStep(b, step)

	assert.Equal(t, first, second)
	assert.Equal(t, "https://x.com", b.AccessLink)
}
