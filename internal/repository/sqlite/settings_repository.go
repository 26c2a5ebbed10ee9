package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vytor/flashplay/internal/logger"
	"github.com/vytor/flashplay/internal/models"
	"github.com/vytor/flashplay/internal/repository"
)

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new SettingsRepository implementation
func NewSettingsRepository(db *sql.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, deckID int64, userID string) (*models.DeckSettings, error) {
	log := logger.FromContext(ctx).WithPrefix("settings_repo")

	s := models.DeckSettings{DeckID: deckID, UserID: userID}
	var hard int
	err := r.db.QueryRowContext(ctx, `
SELECT direction, hard_mode, time_limit_seconds, initial_lives, updated_at
FROM deck_settings
WHERE deck_id = ? AND user_id = ?
`, deckID, userID).Scan(&s.Direction, &hard, &s.TimeLimitSeconds, &s.InitialLives, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get deck settings: %v", err)
		return nil, err
	}
	s.HardMode = hard != 0
	return &s, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, s models.DeckSettings) error {
	log := logger.FromContext(ctx).WithPrefix("settings_repo")
	log.Debug("saving deck settings: deck_id=%d, user_id=%s", s.DeckID, s.UserID)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO deck_settings (deck_id, user_id, direction, hard_mode, time_limit_seconds, initial_lives, updated_at)
VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(deck_id, user_id) DO UPDATE SET
    direction = excluded.direction,
    hard_mode = excluded.hard_mode,
    time_limit_seconds = excluded.time_limit_seconds,
    initial_lives = excluded.initial_lives,
    updated_at = CURRENT_TIMESTAMP
`, s.DeckID, s.UserID, s.Direction, boolToInt(s.HardMode), s.TimeLimitSeconds, s.InitialLives)
	if err != nil {
		log.Error("failed to save deck settings: %v", err)
	}
	return err
}
