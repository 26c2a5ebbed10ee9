package models

import "time"

// SessionRecord is a finished play session as stored by the scoring side.
type SessionRecord struct {
	ID              int64     `json:"id"`
	UserID          string    `json:"user_id"`
	DeckID          int64     `json:"deck_id"`
	Mode            string    `json:"mode"`
	Challenge       string    `json:"challenge"`
	CardsStudied    int       `json:"cards_studied"`
	Correct         int       `json:"correct"`
	Wrong           int       `json:"wrong"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

type Achievement struct {
	Code        string     `json:"code"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	EarnedAt    *time.Time `json:"earned_at,omitempty"`
}

// DeckSettings are the per-user play preferences remembered for a deck.
type DeckSettings struct {
	DeckID           int64     `json:"deck_id"`
	UserID           string    `json:"user_id"`
	Direction        string    `json:"direction"` // "normal" or "reverse"
	HardMode         bool      `json:"hard_mode"`
	TimeLimitSeconds int       `json:"time_limit_seconds"`
	InitialLives     int       `json:"initial_lives"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type UserTotals struct {
	Sessions     int `json:"sessions"`
	CardsStudied int `json:"cards_studied"`
}
