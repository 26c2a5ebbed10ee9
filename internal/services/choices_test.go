package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/flashplay/internal/models"
	"github.com/vytor/flashplay/internal/services"
)

func noShuffle(int, func(i, j int)) {}

func TestBuildChoices(t *testing.T) {
	cards := []models.Flashcard{
		{ID: 1, BackText: "kedi"},
		{ID: 2, BackText: "köpek"},
		{ID: 3, BackText: "Kedi "},
		{ID: 4, BackText: "kuş"},
		{ID: 5, BackText: "balık"},
		{ID: 6, BackText: "at"},
	}
	choices := services.BuildChoices(cards, noShuffle)
	require.Len(t, choices, 6)

	opts := choices[1]
	require.Len(t, opts, 1+services.MaxDistractors)
	assert.Equal(t, models.ChoiceOption{Text: "kedi", IsCorrect: true}, opts[0])
	texts := []string{}
	correct := 0
	for _, o := range opts {
		texts = append(texts, o.Text)
		if o.IsCorrect {
			correct++
		}
	}
	assert.Equal(t, 1, correct)
	assert.NotContains(t, texts, "Kedi ")
	assert.Equal(t, []string{"kedi", "köpek", "kuş", "balık"}, texts)
}

func TestBuildChoices_SmallDeck(t *testing.T) {
	choices := services.BuildChoices([]models.Flashcard{{ID: 1, BackText: "kedi"}}, noShuffle)
	assert.Len(t, choices[1], 1)

	choices = services.BuildChoices([]models.Flashcard{{ID: 1, BackText: "kedi"}, {ID: 2, BackText: "köpek"}}, noShuffle)
	assert.Len(t, choices[2], 2)
}
