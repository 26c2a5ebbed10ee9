package models

import "time"

type Deck struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	CardCount int       `json:"card_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Flashcard is read-only for the duration of a play session.
type Flashcard struct {
	ID        int64     `json:"id"`
	DeckID    int64     `json:"deck_id"`
	FrontText string    `json:"front_text"`
	BackText  string    `json:"back_text"`
	CreatedAt time.Time `json:"created_at"`
}

// ChoiceOption is one answer of a multiple-choice question. Correctness is
// decided by whoever builds the option set, never by the player's client.
type ChoiceOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type CardFilter struct {
	DeckID   int64
	UserID   string
	HardOnly bool
	Limit    int
}
