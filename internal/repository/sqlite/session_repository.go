package sqlite

import (
	"context"
	"database/sql"

	"github.com/vytor/flashplay/internal/logger"
	"github.com/vytor/flashplay/internal/models"
	"github.com/vytor/flashplay/internal/repository"
)

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository implementation
func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Insert(ctx context.Context, rec models.SessionRecord) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("inserting session: user_id=%s, deck_id=%d, mode=%s", rec.UserID, rec.DeckID, rec.Mode)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO sessions (user_id, deck_id, mode, challenge, cards_studied, correct, wrong, duration_seconds)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, rec.UserID, rec.DeckID, rec.Mode, rec.Challenge, rec.CardsStudied, rec.Correct, rec.Wrong, rec.DurationSeconds)
	if err != nil {
		log.Error("failed to insert session: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *sessionRepository) Totals(ctx context.Context, userID string) (models.UserTotals, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")

	var t models.UserTotals
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(SUM(cards_studied), 0)
FROM sessions
WHERE user_id = ?
`, userID).Scan(&t.Sessions, &t.CardsStudied)
	if err != nil {
		log.Error("failed to load session totals: %v", err)
	}
	return t, err
}
