package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/flashplay/internal/logger"
	"github.com/vytor/flashplay/internal/models"
	"github.com/vytor/flashplay/internal/repository"
)

type cardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a new CardRepository implementation
func NewCardRepository(db *sql.DB) repository.CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Insert(ctx context.Context, c models.Flashcard) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("inserting card: deck_id=%d", c.DeckID)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO cards (deck_id, front_text, back_text)
VALUES (?, ?, ?)
`, c.DeckID, c.FrontText, c.BackText)
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get card id: %v", err)
		return 0, err
	}
	log.Debug("card inserted: id=%d", id)
	return id, nil
}

func (r *cardRepository) InsertBatch(ctx context.Context, cards []models.Flashcard) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	if len(cards) == 0 {
		return []int64{}, nil
	}
	log.Debug("batch inserting %d cards", len(cards))

	ids := make([]int64, 0, len(cards))
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO cards (deck_id, front_text, back_text) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range cards {
			res, err := stmt.ExecContext(ctx, c.DeckID, c.FrontText, c.BackText)
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to batch insert cards: %v", err)
		return nil, err
	}
	log.Debug("batch inserted %d cards", len(ids))
	return ids, nil
}

// filtered applies a CardFilter to a query over cards joined as c with the
// user's tallies joined as s.
func filtered(query squirrel.SelectBuilder, filter models.CardFilter) squirrel.SelectBuilder {
	query = query.From("cards c").
		LeftJoin("card_stats s ON s.card_id = c.id AND s.user_id = ?", filter.UserID)
	if filter.DeckID != 0 {
		query = query.Where(squirrel.Eq{"c.deck_id": filter.DeckID})
	}
	if filter.HardOnly {
		query = query.Where(hardCondition)
	}
	return query
}

func (r *cardRepository) List(ctx context.Context, filter models.CardFilter) ([]models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("listing cards: deck_id=%d, user_id=%s, hard_only=%v, limit=%d",
		filter.DeckID, filter.UserID, filter.HardOnly, filter.Limit)

	query := filtered(sqlBuilder.Select("c.id", "c.deck_id", "c.front_text", "c.back_text", "c.created_at"), filter).
		OrderBy("c.id ASC")
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, err
	}
	defer rows.Close()

	cards := []models.Flashcard{}
	for rows.Next() {
		var c models.Flashcard
		if err := rows.Scan(&c.ID, &c.DeckID, &c.FrontText, &c.BackText, &c.CreatedAt); err != nil {
			log.Error("failed to scan card row: %v", err)
			return nil, err
		}
		cards = append(cards, c)
	}
	log.Debug("found %d cards", len(cards))
	return cards, rows.Err()
}

func (r *cardRepository) RecordOutcome(ctx context.Context, cardID int64, userID string, correct bool, at time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("recording outcome: card_id=%d, user_id=%s, correct=%v", cardID, userID, correct)

	right := boolToInt(correct)
	_, err := r.db.ExecContext(ctx, `
INSERT INTO card_stats (card_id, user_id, times_correct, times_wrong, last_seen_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(card_id, user_id) DO UPDATE SET
    times_correct = times_correct + excluded.times_correct,
    times_wrong = times_wrong + excluded.times_wrong,
    last_seen_at = excluded.last_seen_at
`, cardID, userID, right, 1-right, at.UTC())
	if err != nil {
		log.Error("failed to record outcome: %v", err)
	}
	return err
}
