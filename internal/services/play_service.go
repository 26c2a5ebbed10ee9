package services

import (
	"context"
	"time"

	"github.com/vytor/flashplay/internal/auth"
	"github.com/vytor/flashplay/internal/errors"
	"github.com/vytor/flashplay/internal/game"
	"github.com/vytor/flashplay/internal/logger"
	"github.com/vytor/flashplay/internal/models"
	"github.com/vytor/flashplay/internal/repository"
	"github.com/vytor/flashplay/internal/session"
)

// Collaborators are the card source and scoring service bound to one user.
type Collaborators struct {
	Source  game.CardSource
	Scoring game.ScoringService
}

// Provider hands out per-user collaborators. Outcome reports run after the
// request that caused them has returned, so identity is bound up front.
type Provider interface {
	ForUser(p auth.Principal) Collaborators
}

// SourceDecorator wraps the card source of a new session, e.g. with a cache.
type SourceDecorator func(src game.CardSource, p auth.Principal) game.CardSource

// LocalProvider serves every user from the SQLite store.
type LocalProvider struct {
	Decks        repository.DeckRepository
	Cards        repository.CardRepository
	Sessions     repository.SessionRepository
	Achievements repository.AchievementRepository
}

func (p *LocalProvider) ForUser(principal auth.Principal) Collaborators {
	return Collaborators{
		Source:  NewLocalCardSource(p.Decks, p.Cards, principal.UserID),
		Scoring: NewLocalScoring(p.Cards, p.Sessions, p.Achievements, principal.UserID),
	}
}

// StartRequest picks a mode and challenge for a deck. Nil overrides fall
// back to the user's saved deck settings.
type StartRequest struct {
	DeckID           int64
	Mode             game.Mode
	Challenge        game.Challenge
	Direction        *string
	HardMode         *bool
	TimeLimitSeconds *int
	InitialLives     *int
}

type PlayOptions struct {
	Tuning     game.Tuning
	Dispatcher game.Dispatcher
	Decorate   SourceDecorator
	Clock      game.Clock
}

// PlayService starts game sessions and keeps them in the live registry.
type PlayService struct {
	provider Provider
	decks    DeckService
	registry *session.Registry[*game.Engine]
	opts     PlayOptions
}

func NewPlayService(provider Provider, decks DeckService, registry *session.Registry[*game.Engine], opts PlayOptions) *PlayService {
	return &PlayService{provider: provider, decks: decks, registry: registry, opts: opts}
}

// Start loads the deck and registers a new engine. It returns the session id
// and the first state.
func (s *PlayService) Start(ctx context.Context, p auth.Principal, req StartRequest) (string, game.State, error) {
	log := logger.FromContext(ctx)

	settings, err := s.resolveSettings(ctx, p, req)
	if err != nil {
		return "", game.State{}, err
	}

	collab := s.provider.ForUser(p)
	src := collab.Source
	if s.opts.Decorate != nil {
		src = s.opts.Decorate(src, p)
	}

	opts := []game.Option{
		game.WithTuning(s.opts.Tuning),
		game.WithLogger(log.WithPrefix("game").WithField("user_id", p.UserID)),
	}
	if s.opts.Dispatcher != nil {
		opts = append(opts, game.WithDispatcher(s.opts.Dispatcher))
	}
	if s.opts.Clock != nil {
		opts = append(opts, game.WithClock(s.opts.Clock))
	}
	eng := game.New(src, collab.Scoring, opts...)

	cfg := game.SessionConfig{DeckID: req.DeckID, Mode: req.Mode, Challenge: req.Challenge, Settings: settings}
	if err := eng.Load(ctx, cfg); err != nil {
		eng.Close()
		return "", game.State{}, err
	}

	id := s.registry.Add(p.UserID, eng)
	log.Info("session started: id=%s, deck_id=%d, mode=%s, challenge=%s", id, req.DeckID, req.Mode, req.Challenge)
	return id, eng.State(), nil
}

// Engine returns the caller's live engine.
func (s *PlayService) Engine(p auth.Principal, id string) (*game.Engine, error) {
	return s.registry.Get(p.UserID, id)
}

// Touch keeps the caller's session from expiring while it is being watched.
func (s *PlayService) Touch(p auth.Principal, id string) error {
	return s.registry.Touch(p.UserID, id)
}

// LiveSessions reports how many sessions are registered across all users.
func (s *PlayService) LiveSessions() int {
	return s.registry.Len()
}

// Stop closes and forgets the caller's session.
func (s *PlayService) Stop(p auth.Principal, id string) error {
	return s.registry.Remove(p.UserID, id)
}

func (s *PlayService) resolveSettings(ctx context.Context, p auth.Principal, req StartRequest) (game.Settings, error) {
	saved, err := s.decks.GetSettings(ctx, p.UserID, req.DeckID)
	if err != nil {
		logger.FromContext(ctx).Warn("using default settings: %v", err)
		saved = models.DeckSettings{Direction: string(game.DirectionNormal)}
	}
	if req.Direction != nil {
		saved.Direction = *req.Direction
	}
	if req.HardMode != nil {
		saved.HardMode = *req.HardMode
	}
	if req.TimeLimitSeconds != nil {
		saved.TimeLimitSeconds = *req.TimeLimitSeconds
	}
	if req.InitialLives != nil {
		saved.InitialLives = *req.InitialLives
	}

	dir, err := game.ParseDirection(saved.Direction)
	if err != nil {
		return game.Settings{}, errors.NewValidationError("direction", "must be normal or reverse")
	}
	if req.TimeLimitSeconds != nil && (*req.TimeLimitSeconds < MinTimeLimitSeconds || *req.TimeLimitSeconds > MaxTimeLimitSeconds) {
		return game.Settings{}, errors.NewValidationError("time_limit_seconds", "must be between 10 and 600")
	}
	if req.InitialLives != nil && (*req.InitialLives < 1 || *req.InitialLives > MaxInitialLives) {
		return game.Settings{}, errors.NewValidationError("initial_lives", "must be between 1 and 10")
	}
	return game.Settings{
		Direction:    dir,
		HardMode:     saved.HardMode,
		TimeLimit:    time.Duration(saved.TimeLimitSeconds) * time.Second,
		InitialLives: saved.InitialLives,
	}, nil
}
