package game

import (
	"fmt"
	"math/rand"

	"github.com/vytor/flashplay/internal/models"
)

type inputKind int

const (
	inputSelfGrade inputKind = iota
	inputWritten
	inputChoice
	inputTile
)

// deal is the per-mode material a session starts with.
type deal struct {
	cards   []models.Flashcard
	choices map[int64][]models.ChoiceOption
	tiles   []Tile
}

// modeRules is the per-mode half of the engine. Every Mode has exactly one
// implementation, resolved once in rulesFor.
type modeRules interface {
	input() inputKind
	prepare(pool Pool, tuning Tuning, rng *rand.Rand) deal
	// revealAnswer reports whether the card answer may be shown before grading.
	revealAnswer() bool
}

func rulesFor(m Mode) (modeRules, error) {
	switch m {
	case ModeStandard:
		return standardRules{}, nil
	case ModeWrite:
		return writeRules{}, nil
	case ModeChoice:
		return choiceRules{}, nil
	case ModeMatch:
		return matchRules{}, nil
	}
	return nil, fmt.Errorf("unsupported mode %v", m)
}

type standardRules struct{}

func (standardRules) input() inputKind   { return inputSelfGrade }
func (standardRules) revealAnswer() bool { return true }
func (standardRules) prepare(pool Pool, _ Tuning, _ *rand.Rand) deal {
	return deal{cards: cloneCards(pool.Cards)}
}

type writeRules struct{}

func (writeRules) input() inputKind   { return inputWritten }
func (writeRules) revealAnswer() bool { return false }
func (writeRules) prepare(pool Pool, _ Tuning, _ *rand.Rand) deal {
	return deal{cards: cloneCards(pool.Cards)}
}

type choiceRules struct{}

func (choiceRules) input() inputKind   { return inputChoice }
func (choiceRules) revealAnswer() bool { return false }

// prepare drops cards without a usable option set: at least two options
// and at least one of them marked correct.
func (choiceRules) prepare(pool Pool, _ Tuning, _ *rand.Rand) deal {
	d := deal{choices: make(map[int64][]models.ChoiceOption)}
	for _, c := range pool.Cards {
		opts := pool.Choices[c.ID]
		if len(opts) < 2 || !hasCorrect(opts) {
			continue
		}
		d.cards = append(d.cards, c)
		d.choices[c.ID] = append([]models.ChoiceOption(nil), opts...)
	}
	return d
}

type matchRules struct{}

func (matchRules) input() inputKind   { return inputTile }
func (matchRules) revealAnswer() bool { return false }
func (matchRules) prepare(pool Pool, t Tuning, rng *rand.Rand) deal {
	cards := samplePairs(pool.Cards, t.MatchPairs)
	return deal{cards: cards, tiles: BuildTiles(cards, rng)}
}

func cloneCards(cards []models.Flashcard) []models.Flashcard {
	return append([]models.Flashcard(nil), cards...)
}

func hasCorrect(opts []models.ChoiceOption) bool {
	for _, o := range opts {
		if o.IsCorrect {
			return true
		}
	}
	return false
}
