package game

import (
	"fmt"
	"strings"
)

// Mode is the base game played over a deck. It is fixed for a session.
type Mode int

const (
	ModeStandard Mode = iota
	ModeWrite
	ModeChoice
	ModeMatch
)

var modeNames = map[Mode]string{
	ModeStandard: "standard",
	ModeWrite:    "write",
	ModeChoice:   "multiple_choice",
	ModeMatch:    "match",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode accepts the wire names plus a few aliases used by older clients.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "flip", "":
		return ModeStandard, nil
	case "write":
		return ModeWrite, nil
	case "multiple_choice", "multiple-choice", "choice", "quiz":
		return ModeChoice, nil
	case "match", "memory":
		return ModeMatch, nil
	}
	return 0, fmt.Errorf("unknown game mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// graded reports whether answers in this mode move the correct/wrong counters.
// Match is a memory game and tracks pairs and attempts instead.
func (m Mode) graded() bool {
	return m != ModeMatch
}

// Challenge is an optional modifier layered over a Mode.
type Challenge int

const (
	ChallengeNone Challenge = iota
	ChallengeTimed
	ChallengeSurvival
)

func (c Challenge) String() string {
	switch c {
	case ChallengeNone:
		return "none"
	case ChallengeTimed:
		return "timed"
	case ChallengeSurvival:
		return "survival"
	}
	return fmt.Sprintf("challenge(%d)", int(c))
}

func ParseChallenge(s string) (Challenge, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return ChallengeNone, nil
	case "timed", "time":
		return ChallengeTimed, nil
	case "survival", "lives":
		return ChallengeSurvival, nil
	}
	return 0, fmt.Errorf("unknown challenge %q", s)
}

func (c Challenge) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Challenge) UnmarshalText(b []byte) error {
	v, err := ParseChallenge(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// wraps reports whether running out of cards reshuffles instead of ending.
func (c Challenge) wraps() bool {
	return c == ChallengeTimed || c == ChallengeSurvival
}

// Phase is the top-level position of a session.
type Phase int

const (
	PhaseModeSelect Phase = iota
	PhasePlaying
	PhaseSummary
)

func (p Phase) String() string {
	switch p {
	case PhaseModeSelect:
		return "mode_select"
	case PhasePlaying:
		return "playing"
	case PhaseSummary:
		return "summary"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Outcome classifies one graded answer.
type Outcome int

const (
	OutcomeCorrect Outcome = iota
	OutcomeAlmost
	OutcomeWrong
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeAlmost:
		return "almost"
	default:
		return "wrong"
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// EndReason records which path closed a session.
type EndReason string

const (
	EndCompleted  EndReason = "completed"
	EndTimeout    EndReason = "timeout"
	EndOutOfLives EndReason = "out_of_lives"
	EndManual     EndReason = "manual"
)

// Direction selects which side of a card is shown as the prompt.
type Direction string

const (
	DirectionNormal  Direction = "normal"
	DirectionReverse Direction = "reverse"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case DirectionNormal, "":
		return DirectionNormal, nil
	case DirectionReverse:
		return DirectionReverse, nil
	}
	return "", fmt.Errorf("unknown card direction %q", s)
}
