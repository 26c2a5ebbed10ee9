package services

import (
	"strings"

	"github.com/vytor/flashplay/internal/models"
)

// MaxDistractors is the number of wrong options offered next to the answer.
const MaxDistractors = 3

// BuildChoices builds a multiple-choice option set per card: the card's back
// text plus up to MaxDistractors back texts of other cards in the pool.
// Texts that differ only in case or surrounding space count as one option.
func BuildChoices(cards []models.Flashcard, shuffle func(n int, swap func(i, j int))) map[int64][]models.ChoiceOption {
	out := make(map[int64][]models.ChoiceOption, len(cards))
	for i, card := range cards {
		seen := map[string]bool{choiceKey(card.BackText): true}
		candidates := make([]string, 0, len(cards)-1)
		for j, other := range cards {
			if j == i {
				continue
			}
			key := choiceKey(other.BackText)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			candidates = append(candidates, other.BackText)
		}
		shuffle(len(candidates), func(a, b int) {
			candidates[a], candidates[b] = candidates[b], candidates[a]
		})
		if len(candidates) > MaxDistractors {
			candidates = candidates[:MaxDistractors]
		}

		opts := make([]models.ChoiceOption, 0, len(candidates)+1)
		opts = append(opts, models.ChoiceOption{Text: card.BackText, IsCorrect: true})
		for _, text := range candidates {
			opts = append(opts, models.ChoiceOption{Text: text})
		}
		shuffle(len(opts), func(a, b int) {
			opts[a], opts[b] = opts[b], opts[a]
		})
		out[card.ID] = opts
	}
	return out
}

func choiceKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
