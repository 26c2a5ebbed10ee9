package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vytor/flashplay/internal/logger"
	"github.com/vytor/flashplay/internal/models"
	"github.com/vytor/flashplay/internal/repository"
)

type deckRepository struct {
	db *sql.DB
}

// NewDeckRepository creates a new DeckRepository implementation
func NewDeckRepository(db *sql.DB) repository.DeckRepository {
	return &deckRepository{db: db}
}

func (r *deckRepository) Insert(ctx context.Context, d models.Deck) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("inserting deck: owner_id=%s, title=%s", d.OwnerID, d.Title)

	res, err := r.db.ExecContext(ctx, `INSERT INTO decks (owner_id, title) VALUES (?, ?)`, d.OwnerID, d.Title)
	if err != nil {
		log.Error("failed to insert deck: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get deck id: %v", err)
		return 0, err
	}
	log.Debug("deck inserted: id=%d", id)
	return id, nil
}

func (r *deckRepository) Get(ctx context.Context, id int64) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("getting deck: id=%d", id)

	var d models.Deck
	err := r.db.QueryRowContext(ctx, `
SELECT d.id, d.owner_id, d.title, d.created_at,
       (SELECT COUNT(*) FROM cards c WHERE c.deck_id = d.id) AS card_count
FROM decks d
WHERE d.id = ?
`, id).Scan(&d.ID, &d.OwnerID, &d.Title, &d.CreatedAt, &d.CardCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("deck not found: id=%d", id)
		} else {
			log.Error("failed to get deck: %v", err)
		}
		return nil, err
	}
	return &d, nil
}

func (r *deckRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("listing decks: owner_id=%s", ownerID)

	rows, err := r.db.QueryContext(ctx, `
SELECT d.id, d.owner_id, d.title, d.created_at,
       (SELECT COUNT(*) FROM cards c WHERE c.deck_id = d.id) AS card_count
FROM decks d
WHERE d.owner_id = ?
ORDER BY d.created_at DESC, d.id DESC
`, ownerID)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, err
	}
	defer rows.Close()

	decks := []models.Deck{}
	for rows.Next() {
		var d models.Deck
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Title, &d.CreatedAt, &d.CardCount); err != nil {
			log.Error("failed to scan deck row: %v", err)
			return nil, err
		}
		decks = append(decks, d)
	}
	log.Debug("found %d decks", len(decks))
	return decks, rows.Err()
}
