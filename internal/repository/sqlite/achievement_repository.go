package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/vytor/flashplay/internal/logger"
	"github.com/vytor/flashplay/internal/repository"
)

type achievementRepository struct {
	db *sql.DB
}

// NewAchievementRepository creates a new AchievementRepository implementation
func NewAchievementRepository(db *sql.DB) repository.AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) Award(ctx context.Context, userID, code string, at time.Time) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("achievement_repo")

	res, err := r.db.ExecContext(ctx, `
INSERT INTO achievements (user_id, code, earned_at)
VALUES (?, ?, ?)
ON CONFLICT(user_id, code) DO NOTHING
`, userID, code, at.UTC())
	if err != nil {
		log.Error("failed to award achievement %s: %v", code, err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		log.Info("achievement earned: user_id=%s, code=%s", userID, code)
	}
	return n > 0, nil
}

func (r *achievementRepository) Earned(ctx context.Context, userID string) (map[string]time.Time, error) {
	log := logger.FromContext(ctx).WithPrefix("achievement_repo")

	rows, err := r.db.QueryContext(ctx, `SELECT code, earned_at FROM achievements WHERE user_id = ?`, userID)
	if err != nil {
		log.Error("failed to list achievements: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var code string
		var at time.Time
		if err := rows.Scan(&code, &at); err != nil {
			return nil, err
		}
		out[code] = at
	}
	return out, rows.Err()
}
