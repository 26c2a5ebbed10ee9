package game

import "time"

const (
	DefaultTimeLimit    = 60 * time.Second
	DefaultInitialLives = 3
)

// Settings are the player's per-session preferences.
type Settings struct {
	Direction    Direction
	HardMode     bool
	TimeLimit    time.Duration // Timed only
	InitialLives int           // Survival only
}

func (s Settings) normalized() Settings {
	if s.Direction == "" {
		s.Direction = DirectionNormal
	}
	if s.TimeLimit < time.Second {
		s.TimeLimit = DefaultTimeLimit
	}
	if s.InitialLives < 1 {
		s.InitialLives = DefaultInitialLives
	}
	return s
}

// Tuning holds the product constants of the engine: input debounce,
// feedback display delays, the Write-mode "almost" threshold and the
// number of pairs dealt in Match.
type Tuning struct {
	AnswerDebounce     time.Duration
	WriteAdvanceDelay  time.Duration
	ChoiceAdvanceDelay time.Duration
	MatchHitDelay      time.Duration
	MatchMissDelay     time.Duration
	AlmostThreshold    float64
	MatchPairs         int
}

func DefaultTuning() Tuning {
	return Tuning{
		AnswerDebounce:     400 * time.Millisecond,
		WriteAdvanceDelay:  1500 * time.Millisecond,
		ChoiceAdvanceDelay: time.Second,
		MatchHitDelay:      500 * time.Millisecond,
		MatchMissDelay:     time.Second,
		AlmostThreshold:    0.7,
		MatchPairs:         6,
	}
}

// SessionConfig is everything chosen on the mode-select screen.
type SessionConfig struct {
	DeckID    int64
	Mode      Mode
	Challenge Challenge
	Settings  Settings
}
