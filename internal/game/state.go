package game

import (
	"math"

	"github.com/vytor/flashplay/internal/models"
)

// CardView is the current card as the player sees it. Answer is only set
// in modes where the answer is part of the card face.
type CardView struct {
	ID     int64  `json:"id"`
	Prompt string `json:"prompt"`
	Answer string `json:"answer,omitempty"`
}

type TileView struct {
	ID      string `json:"id"`
	Side    Side   `json:"side"`
	Text    string `json:"text,omitempty"` // hidden while face down
	Flipped bool   `json:"flipped"`
	Matched bool   `json:"matched"`
}

// Feedback describes the last graded answer while it is on screen.
type Feedback struct {
	CardID         int64   `json:"card_id"`
	Outcome        Outcome `json:"outcome"`
	Similarity     float64 `json:"similarity,omitempty"`
	Given          string  `json:"given,omitempty"`
	CorrectText    string  `json:"correct_text"`
	SelectedOption *int    `json:"selected_option,omitempty"`
}

type Summary struct {
	DeckID          int64                `json:"deck_id"`
	Mode            Mode                 `json:"mode"`
	Challenge       Challenge            `json:"challenge"`
	Reason          EndReason            `json:"reason"`
	CardsStudied    int                  `json:"cards_studied"`
	Correct         int                  `json:"correct"`
	Wrong           int                  `json:"wrong"`
	Accuracy        int                  `json:"accuracy"`
	DurationSeconds int                  `json:"duration_seconds"`
	Attempts        int                  `json:"attempts,omitempty"`
	PairsMatched    int                  `json:"pairs_matched,omitempty"`
	LivesRemaining  int                  `json:"lives_remaining,omitempty"`
	Achievements    []models.Achievement `json:"achievements"`
}

func (s Summary) report() SessionReport {
	return SessionReport{
		DeckID:          s.DeckID,
		Mode:            s.Mode,
		Challenge:       s.Challenge,
		CardsStudied:    s.CardsStudied,
		Correct:         s.Correct,
		Wrong:           s.Wrong,
		DurationSeconds: s.DurationSeconds,
	}
}

// State is an immutable snapshot of a session.
type State struct {
	DeckID         int64      `json:"deck_id"`
	Mode           Mode       `json:"mode"`
	Challenge      Challenge  `json:"challenge"`
	Direction      Direction  `json:"direction"`
	Phase          Phase      `json:"phase"`
	Index          int        `json:"index"`
	Total          int        `json:"total"`
	Card           *CardView  `json:"card,omitempty"`
	Options        []string   `json:"options,omitempty"`
	Correct        int        `json:"correct"`
	Wrong          int        `json:"wrong"`
	LivesRemaining *int       `json:"lives_remaining,omitempty"`
	TimeRemaining  *int       `json:"time_remaining_seconds,omitempty"`
	AnswerInFlight bool       `json:"answer_in_flight"`
	Finishing      bool       `json:"finishing"`
	Feedback       *Feedback  `json:"feedback,omitempty"`
	Tiles          []TileView `json:"tiles,omitempty"`
	Attempts       int        `json:"attempts"`
	PairsMatched   int        `json:"pairs_matched"`
	TotalPairs     int        `json:"total_pairs"`
	Summary        *Summary   `json:"summary,omitempty"`
}

// Accuracy is the rounded percentage of correct graded answers.
func Accuracy(correct, wrong int) int {
	total := correct + wrong
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
