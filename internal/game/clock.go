package game

import "github.com/jonboulle/clockwork"

// Clock is the engine's only source of time, so tests can drive the
// debounce window, feedback delays and the countdown by hand.
type Clock = clockwork.Clock

// Timer is a pending callback scheduled on a Clock.
type Timer = clockwork.Timer
