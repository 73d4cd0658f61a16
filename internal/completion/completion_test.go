package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"equimarket/internal/models"
)

func TestTierFor_Boundaries(t *testing.T) {
	tests := []struct {
		pct  float64
		want Tier
	}{
		{0, TierBasic},
		{50, TierBasic},
		{50.5, TierBronze},
		{51, TierBronze},
		{75, TierBronze},
		{76, TierSilver},
		{90, TierSilver},
		{91, TierGold},
		{100, TierGold},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.pct), "pct=%v", tt.pct)
	}
}

func TestTierFor_Deterministic(t *testing.T) {
	for p := 0; p <= 100; p++ {
		assert.Equal(t, TierFor(float64(p)), TierFor(float64(p)))
	}
}

func TestScore_EmptyHorseIsBasic(t *testing.T) {
	r := Score(models.NewHorse())

	assert.Equal(t, 13, r.Total)
	assert.Equal(t, 0, r.Filled)
	assert.Equal(t, 0, r.Percentage)
	assert.Equal(t, TierBasic, r.Tier)
}

func TestScore_UnsetMarkerAndZeroCountAsUnfilled(t *testing.T) {
	h := models.NewHorse()
	h.Name = "Najm"
	h.Height = "0"
	h.MarketValue = "0.0"
	h.ProfileLevel = "basic"

	r := Score(h)
	assert.Equal(t, 1, r.Filled)
	assert.Equal(t, 7, r.Percentage)

	h.ProfileLevel = "silver"
	h.Height = "152"
	assert.Equal(t, 3, Score(h).Filled)
}

func TestScore_FullHorseIsGold(t *testing.T) {
	h := &models.Horse{
		Name:         "Najm",
		Breed:        "arabian",
		BirthDate:    "2018-03-14",
		Gender:       "stallion",
		Color:        "grey",
		Height:       "152",
		Bio:          "Endurance champion",
		Activities:   []models.Activity{{Activity: "endurance", Level: "national"}},
		Images:       []*models.Upload{{Filename: "najm.jpg"}},
		PedigreeLink: "https://pedigree.example.com/najm",
		MarketValue:  "85000",
		Location:     "Riyadh",
		ProfileLevel: "gold",
	}

	r := Score(h)
	assert.Equal(t, 100, r.Percentage)
	assert.Equal(t, TierGold, r.Tier)
}

func TestScore_FloorsPercentage(t *testing.T) {
	b := models.NewBook()
	b.Title = "A"
	b.Description = "B"
	b.Images = []*models.Upload{{Filename: "img1.jpg"}}

	// 3 of 8 fields
	r := Score(b)
	assert.Equal(t, 3, r.Filled)
	assert.Equal(t, 37, r.Percentage)
	assert.Equal(t, TierBasic, r.Tier)
}

func TestScore_Bounds(t *testing.T) {
	records := []models.Record{models.NewBook(), models.NewHorse(), &models.Book{Title: "x", Price: "abc"}}
	for _, rec := range records {
		r := Score(rec)
		assert.GreaterOrEqual(t, r.Percentage, 0)
		assert.LessOrEqual(t, r.Percentage, 100)
	}
}
