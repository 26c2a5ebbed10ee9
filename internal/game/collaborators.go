package game

import (
	"context"
	"fmt"

	"github.com/vytor/flashplay/internal/models"
	"github.com/vytor/flashplay/internal/worker"
)

// Pool is the card material for one session, already shuffled by the source.
type Pool struct {
	Cards   []models.Flashcard
	Choices map[int64][]models.ChoiceOption // multiple choice only, keyed by card id
}

// CardSource supplies the shuffled cards of a deck for a mode.
type CardSource interface {
	FetchCards(ctx context.Context, deckID int64, mode Mode, hardMode bool) (Pool, error)
}

type Validation struct {
	IsCorrect  bool    `json:"is_correct"`
	Similarity float64 `json:"similarity"`
}

type SessionReport struct {
	DeckID          int64     `json:"deck_id"`
	Mode            Mode      `json:"mode"`
	Challenge       Challenge `json:"challenge"`
	CardsStudied    int       `json:"cards_studied"`
	Correct         int       `json:"correct"`
	Wrong           int       `json:"wrong"`
	DurationSeconds int       `json:"duration_seconds"`
}

type AchievementQuery struct {
	Accuracy     int `json:"accuracy"`
	CardsStudied int `json:"cards_studied"`
}

// ScoringService validates written answers and keeps statistics. Every
// method may be a network call; the engine never retries them.
type ScoringService interface {
	ValidateWrittenAnswer(ctx context.Context, cardID int64, userText, correctText string) (Validation, error)
	RecordCardOutcome(ctx context.Context, cardID int64, correct bool) error
	RecordSessionSummary(ctx context.Context, report SessionReport) error
	EvaluateAchievements(ctx context.Context, query AchievementQuery) ([]models.Achievement, error)
}

// Dispatcher runs fire-and-forget jobs. *worker.Pool satisfies it.
type Dispatcher interface {
	Submit(job worker.Job) error
}

// outcomeJob reports one graded card.
type outcomeJob struct {
	scoring ScoringService
	cardID  int64
	correct bool
}

func (j *outcomeJob) Name() string {
	return fmt.Sprintf("record_card_outcome:%d", j.cardID)
}

func (j *outcomeJob) Run(ctx context.Context) error {
	return j.scoring.RecordCardOutcome(ctx, j.cardID, j.correct)
}
