package services

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/vytor/flashplay/internal/errors"
	"github.com/vytor/flashplay/internal/game"
	"github.com/vytor/flashplay/internal/logger"
	"github.com/vytor/flashplay/internal/models"
	"github.com/vytor/flashplay/internal/repository"
)

const (
	MinTimeLimitSeconds = 10
	MaxTimeLimitSeconds = 600
	MaxInitialLives     = 10
	maxTitleLength      = 200
	maxCardsPerRequest  = 500
)

// CardInput is one card to add to a deck.
type CardInput struct {
	FrontText string `json:"front_text"`
	BackText  string `json:"back_text"`
}

// SettingsDefaults fill in deck settings nobody has saved yet.
type SettingsDefaults struct {
	TimeLimit    time.Duration
	InitialLives int
}

// DeckService handles decks, cards, deck statistics and per-deck settings
type DeckService interface {
	CreateDeck(ctx context.Context, ownerID, title string) (*models.Deck, error)
	ListDecks(ctx context.Context, ownerID string) ([]models.Deck, error)
	GetDeck(ctx context.Context, ownerID string, deckID int64) (*models.Deck, error)
	AddCards(ctx context.Context, ownerID string, deckID int64, cards []CardInput) ([]models.Flashcard, error)
	DeckStats(ctx context.Context, ownerID string, deckID int64) (*models.DeckStats, error)
	GetSettings(ctx context.Context, userID string, deckID int64) (models.DeckSettings, error)
	SaveSettings(ctx context.Context, settings models.DeckSettings) (models.DeckSettings, error)
}

type deckService struct {
	decks    repository.DeckRepository
	cards    repository.CardRepository
	stats    repository.StatsRepository
	settings repository.SettingsRepository
	defaults SettingsDefaults
}

// NewDeckService creates a new DeckService
func NewDeckService(
	decks repository.DeckRepository,
	cards repository.CardRepository,
	stats repository.StatsRepository,
	settings repository.SettingsRepository,
	defaults SettingsDefaults,
) DeckService {
	if defaults.TimeLimit < time.Second {
		defaults.TimeLimit = game.DefaultTimeLimit
	}
	if defaults.InitialLives < 1 {
		defaults.InitialLives = game.DefaultInitialLives
	}
	return &deckService{decks: decks, cards: cards, stats: stats, settings: settings, defaults: defaults}
}

func (s *deckService) CreateDeck(ctx context.Context, ownerID, title string) (*models.Deck, error) {
	log := logger.FromContext(ctx)
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.NewValidationError("title", "cannot be empty")
	}
	if len(title) > maxTitleLength {
		return nil, errors.NewValidationError("title", "is too long")
	}

	id, err := s.decks.Insert(ctx, models.Deck{OwnerID: ownerID, Title: title})
	if err != nil {
		log.Error("failed to create deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Info("deck created: id=%d, owner=%s", id, ownerID)
	return s.GetDeck(ctx, ownerID, id)
}

func (s *deckService) ListDecks(ctx context.Context, ownerID string) ([]models.Deck, error) {
	decks, err := s.decks.ListByOwner(ctx, ownerID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list decks: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return decks, nil
}

// GetDeck loads a deck the caller owns. Other users' decks are NOT_FOUND.
func (s *deckService) GetDeck(ctx context.Context, ownerID string, deckID int64) (*models.Deck, error) {
	deck, err := s.decks.Get(ctx, deckID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("deck", deckID)
		}
		logger.FromContext(ctx).Error("failed to get deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if deck.OwnerID != ownerID {
		return nil, errors.NewNotFoundError("deck", deckID)
	}
	return deck, nil
}

func (s *deckService) AddCards(ctx context.Context, ownerID string, deckID int64, inputs []CardInput) ([]models.Flashcard, error) {
	log := logger.FromContext(ctx)
	if len(inputs) == 0 {
		return nil, errors.NewValidationError("cards", "at least one card is required")
	}
	if len(inputs) > maxCardsPerRequest {
		return nil, errors.NewValidationError("cards", "too many cards in one request")
	}
	if _, err := s.GetDeck(ctx, ownerID, deckID); err != nil {
		return nil, err
	}

	cards := make([]models.Flashcard, 0, len(inputs))
	for _, in := range inputs {
		front, back := strings.TrimSpace(in.FrontText), strings.TrimSpace(in.BackText)
		if front == "" || back == "" {
			return nil, errors.NewValidationError("cards", "front_text and back_text are required")
		}
		cards = append(cards, models.Flashcard{DeckID: deckID, FrontText: front, BackText: back})
	}

	ids, err := s.cards.InsertBatch(ctx, cards)
	if err != nil {
		log.Error("failed to insert cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	for i := range cards {
		cards[i].ID = ids[i]
	}
	log.Info("added %d cards to deck %d", len(cards), deckID)
	return cards, nil
}

func (s *deckService) DeckStats(ctx context.Context, ownerID string, deckID int64) (*models.DeckStats, error) {
	if _, err := s.GetDeck(ctx, ownerID, deckID); err != nil {
		return nil, err
	}
	st, err := s.stats.DeckStats(ctx, deckID, ownerID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to compute deck stats: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return st, nil
}

// GetSettings returns the saved settings or the defaults. Decks may live on
// the remote backend, so no ownership check happens here.
func (s *deckService) GetSettings(ctx context.Context, userID string, deckID int64) (models.DeckSettings, error) {
	saved, err := s.settings.Get(ctx, deckID, userID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load deck settings: %v", err)
		return models.DeckSettings{}, errors.NewInternalError(err)
	}
	if saved != nil {
		return *saved, nil
	}
	return models.DeckSettings{
		DeckID:           deckID,
		UserID:           userID,
		Direction:        string(game.DirectionNormal),
		TimeLimitSeconds: int(s.defaults.TimeLimit / time.Second),
		InitialLives:     s.defaults.InitialLives,
	}, nil
}

func (s *deckService) SaveSettings(ctx context.Context, ds models.DeckSettings) (models.DeckSettings, error) {
	if err := ValidateSettings(ds); err != nil {
		return models.DeckSettings{}, err
	}
	dir, _ := game.ParseDirection(ds.Direction)
	ds.Direction = string(dir)
	if err := s.settings.Upsert(ctx, ds); err != nil {
		logger.FromContext(ctx).Error("failed to save deck settings: %v", err)
		return models.DeckSettings{}, errors.NewInternalError(err)
	}
	return s.GetSettings(ctx, ds.UserID, ds.DeckID)
}

func ValidateSettings(ds models.DeckSettings) error {
	if _, err := game.ParseDirection(ds.Direction); err != nil {
		return errors.NewValidationError("direction", "must be normal or reverse")
	}
	if ds.TimeLimitSeconds < MinTimeLimitSeconds || ds.TimeLimitSeconds > MaxTimeLimitSeconds {
		return errors.NewValidationError("time_limit_seconds", "must be between 10 and 600")
	}
	if ds.InitialLives < 1 || ds.InitialLives > MaxInitialLives {
		return errors.NewValidationError("initial_lives", "must be between 1 and 10")
	}
	return nil
}
