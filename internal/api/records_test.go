package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equimarket/internal/cms"
	"equimarket/internal/completion"
	"equimarket/internal/models"
)

func TestRecordFromDocument_TierNotLoaded(t *testing.T) {
	entity, ok := models.LookupEntity(models.EntityHorse)
	require.True(t, ok)

	doc := cms.Document{
		"_id":          "horse-1",
		"_type":        "horse",
		"name":         "Najm",
		"breed":        "arabian",
		"birthDate":    "2019-04-12",
		"gender":       "mare",
		"color":        "grey",
		"bio":          "Endurance mare",
		"location":     "Riyadh",
		"height":       float64(152),
		"activities":   []interface{}{map[string]interface{}{"_key": "k1", "activity": "endurance", "level": "national"}},
		"images":       []interface{}{map[string]interface{}{"_type": "image", "asset": cms.Reference("image-1")}},
		"profileLevel": "bronze",
		"owner":        cms.Reference("u1"),
	}

	rec, err := recordFromDocument(entity, doc)
	require.NoError(t, err)

	h := rec.(*models.Horse)
	assert.Equal(t, "basic", h.ProfileLevel)
	assert.Equal(t, "152", h.Height)
	assert.Empty(t, h.Images)
	require.Len(t, h.Activities, 1)
	assert.Equal(t, "endurance", h.Activities[0].Activity)

	// 9 data fields; the stored tier does not count
	score := completion.Score(rec)
	assert.Equal(t, 9, score.Filled)
	assert.Equal(t, completion.TierBronze, score.Tier)
}
