package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/flashplay/internal/game"
	"github.com/vytor/flashplay/internal/models"
)

// MockCardSource is a mock implementation of game.CardSource
type MockCardSource struct {
	mock.Mock
}

func (m *MockCardSource) FetchCards(ctx context.Context, deckID int64, mode game.Mode, hardMode bool) (game.Pool, error) {
	args := m.Called(ctx, deckID, mode, hardMode)
	return args.Get(0).(game.Pool), args.Error(1)
}

// MockScoringService is a mock implementation of game.ScoringService
type MockScoringService struct {
	mock.Mock
}

func (m *MockScoringService) ValidateWrittenAnswer(ctx context.Context, cardID int64, userText, correctText string) (game.Validation, error) {
	args := m.Called(ctx, cardID, userText, correctText)
	return args.Get(0).(game.Validation), args.Error(1)
}

func (m *MockScoringService) RecordCardOutcome(ctx context.Context, cardID int64, correct bool) error {
	args := m.Called(ctx, cardID, correct)
	return args.Error(0)
}

func (m *MockScoringService) RecordSessionSummary(ctx context.Context, report game.SessionReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockScoringService) EvaluateAchievements(ctx context.Context, query game.AchievementQuery) ([]models.Achievement, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Achievement), args.Error(1)
}
