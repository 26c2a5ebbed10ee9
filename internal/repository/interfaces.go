package repository

import (
	"context"
	"time"

	"github.com/vytor/flashplay/internal/models"
)

// DeckRepository handles deck data access
type DeckRepository interface {
	Insert(ctx context.Context, deck models.Deck) (int64, error)
	Get(ctx context.Context, id int64) (*models.Deck, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Deck, error)
}

// CardRepository handles flashcard data access and per-user answer tallies
type CardRepository interface {
	Insert(ctx context.Context, card models.Flashcard) (int64, error)
	InsertBatch(ctx context.Context, cards []models.Flashcard) ([]int64, error)
	List(ctx context.Context, filter models.CardFilter) ([]models.Flashcard, error)
	RecordOutcome(ctx context.Context, cardID int64, userID string, correct bool, at time.Time) error
}

// SessionRepository stores finished play sessions
type SessionRepository interface {
	Insert(ctx context.Context, rec models.SessionRecord) (int64, error)
	Totals(ctx context.Context, userID string) (models.UserTotals, error)
}

// AchievementRepository tracks which achievements a user holds
type AchievementRepository interface {
	// Award stores the achievement and reports whether it was newly earned.
	Award(ctx context.Context, userID, code string, at time.Time) (bool, error)
	Earned(ctx context.Context, userID string) (map[string]time.Time, error)
}

// SettingsRepository stores per-user deck settings
type SettingsRepository interface {
	// Get returns nil without error when nothing was saved yet.
	Get(ctx context.Context, deckID int64, userID string) (*models.DeckSettings, error)
	Upsert(ctx context.Context, settings models.DeckSettings) error
}

// StatsRepository aggregates deck statistics
type StatsRepository interface {
	DeckStats(ctx context.Context, deckID int64, userID string) (*models.DeckStats, error)
}
