package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/flashplay/internal/logger"
	"github.com/vytor/flashplay/internal/models"
	"github.com/vytor/flashplay/internal/repository"
)

type statsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new StatsRepository implementation
func NewStatsRepository(db *sql.DB) repository.StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) DeckStats(ctx context.Context, deckID int64, userID string) (*models.DeckStats, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("computing deck stats: deck_id=%d, user_id=%s", deckID, userID)

	st := models.DeckStats{DeckID: deckID}

	cards := filtered(sqlBuilder.Select("COUNT(*)", "COALESCE(SUM(CASE WHEN "+hardCondition+" THEN 1 ELSE 0 END), 0)"),
		models.CardFilter{DeckID: deckID, UserID: userID})
	if err := r.scan(ctx, cards, &st.TotalCards, &st.HardCards); err != nil {
		log.Error("failed to count deck cards: %v", err)
		return nil, err
	}

	sessions := sqlBuilder.Select(
		"COUNT(*)",
		"COALESCE(SUM(cards_studied), 0)",
		"COALESCE(SUM(correct), 0)",
		"COALESCE(SUM(wrong), 0)",
		"COALESCE(AVG(duration_seconds), 0)",
	).From("sessions").Where(squirrel.Eq{"deck_id": deckID, "user_id": userID})
	if err := r.scan(ctx, sessions, &st.Sessions, &st.CardsStudied, &st.TotalCorrect, &st.TotalWrong, &st.AvgDuration); err != nil {
		log.Error("failed to aggregate deck sessions: %v", err)
		return nil, err
	}

	if graded := st.TotalCorrect + st.TotalWrong; graded > 0 {
		st.Accuracy = float64(st.TotalCorrect) / float64(graded) * 100
	}
	return &st, nil
}

func (r *statsRepository) scan(ctx context.Context, query squirrel.SelectBuilder, dest ...any) error {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, sqlStr, args...).Scan(dest...)
}
