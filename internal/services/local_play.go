package services

import (
	"context"
	"database/sql"
	stderrors "errors"
	"math/rand"
	"time"

	"github.com/vytor/flashplay/internal/achievements"
	"github.com/vytor/flashplay/internal/errors"
	"github.com/vytor/flashplay/internal/game"
	"github.com/vytor/flashplay/internal/logger"
	"github.com/vytor/flashplay/internal/models"
	"github.com/vytor/flashplay/internal/repository"
	"github.com/vytor/flashplay/internal/similarity"
)

// LocalCardSource serves cards for one user from the SQLite store. Only
// decks the user owns can be played.
type LocalCardSource struct {
	decks   repository.DeckRepository
	cards   repository.CardRepository
	userID  string
	shuffle func(n int, swap func(i, j int))
}

func NewLocalCardSource(decks repository.DeckRepository, cards repository.CardRepository, userID string) *LocalCardSource {
	return &LocalCardSource{decks: decks, cards: cards, userID: userID, shuffle: rand.Shuffle}
}

func (s *LocalCardSource) FetchCards(ctx context.Context, deckID int64, mode game.Mode, hardMode bool) (game.Pool, error) {
	log := logger.FromContext(ctx).WithPrefix("local_source")
	log.Debug("fetching cards: deck_id=%d, mode=%s, hard=%v", deckID, mode, hardMode)

	deck, err := s.decks.Get(ctx, deckID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return game.Pool{}, errors.NewNotFoundError("deck", deckID)
		}
		log.Error("failed to get deck: %v", err)
		return game.Pool{}, errors.NewInternalError(err)
	}
	if deck.OwnerID != s.userID {
		log.Warn("deck not owned by user: deck_id=%d, user_id=%s", deckID, s.userID)
		return game.Pool{}, errors.NewNotFoundError("deck", deckID)
	}

	cards, err := s.cards.List(ctx, models.CardFilter{DeckID: deckID, UserID: s.userID, HardOnly: hardMode})
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return game.Pool{}, errors.NewInternalError(err)
	}
	s.shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })

	pool := game.Pool{Cards: cards}
	if mode == game.ModeChoice {
		pool.Choices = BuildChoices(cards, s.shuffle)
	}
	log.Debug("fetched %d cards", len(cards))
	return pool, nil
}

// LocalScoring keeps statistics and achievements for one user in SQLite.
// Written answers are scored with the local similarity scorer.
type LocalScoring struct {
	cards        repository.CardRepository
	sessions     repository.SessionRepository
	achievements repository.AchievementRepository
	userID       string
	now          func() time.Time
}

func NewLocalScoring(cards repository.CardRepository, sessions repository.SessionRepository, achievementRepo repository.AchievementRepository, userID string) *LocalScoring {
	return &LocalScoring{
		cards:        cards,
		sessions:     sessions,
		achievements: achievementRepo,
		userID:       userID,
		now:          time.Now,
	}
}

func (s *LocalScoring) ValidateWrittenAnswer(_ context.Context, _ int64, userText, correctText string) (game.Validation, error) {
	correct, ratio := similarity.Score(userText, correctText)
	return game.Validation{IsCorrect: correct, Similarity: ratio}, nil
}

func (s *LocalScoring) RecordCardOutcome(ctx context.Context, cardID int64, correct bool) error {
	return s.cards.RecordOutcome(ctx, cardID, s.userID, correct, s.now())
}

func (s *LocalScoring) RecordSessionSummary(ctx context.Context, r game.SessionReport) error {
	_, err := s.sessions.Insert(ctx, models.SessionRecord{
		UserID:          s.userID,
		DeckID:          r.DeckID,
		Mode:            r.Mode.String(),
		Challenge:       r.Challenge.String(),
		CardsStudied:    r.CardsStudied,
		Correct:         r.Correct,
		Wrong:           r.Wrong,
		DurationSeconds: r.DurationSeconds,
	})
	return err
}

// EvaluateAchievements awards every satisfied rule and returns only the
// ones earned for the first time.
func (s *LocalScoring) EvaluateAchievements(ctx context.Context, q game.AchievementQuery) ([]models.Achievement, error) {
	log := logger.FromContext(ctx).WithPrefix("local_scoring")

	totals, err := s.sessions.Totals(ctx, s.userID)
	if err != nil {
		return nil, err
	}
	facts := achievements.Facts{Accuracy: q.Accuracy, CardsStudied: q.CardsStudied, Totals: totals}

	earned := []models.Achievement{}
	now := s.now()
	for _, rule := range achievements.Evaluate(facts) {
		fresh, err := s.achievements.Award(ctx, s.userID, rule.Code, now)
		if err != nil {
			return nil, err
		}
		if !fresh {
			continue
		}
		a := rule.Model()
		at := now
		a.EarnedAt = &at
		earned = append(earned, a)
	}
	log.Debug("achievements evaluated: user_id=%s, new=%d", s.userID, len(earned))
	return earned, nil
}

var (
	_ game.CardSource     = (*LocalCardSource)(nil)
	_ game.ScoringService = (*LocalScoring)(nil)
)
