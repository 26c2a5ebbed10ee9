package game

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/vytor/flashplay/internal/errors"
	"github.com/vytor/flashplay/internal/logger"
	"github.com/vytor/flashplay/internal/models"
	"github.com/vytor/flashplay/internal/similarity"
)

// Option configures an Engine.
type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithDispatcher routes card outcome reports through d instead of bare goroutines.
func WithDispatcher(d Dispatcher) Option {
	return func(e *Engine) { e.dispatch = d }
}

func WithTuning(t Tuning) Option {
	return func(e *Engine) { e.tuning = t }
}

func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine drives one play session at a time: card sequencing, per-mode answer
// handling, challenge rules and the end-of-session summary. All methods are
// safe for concurrent use; inputs that race with each other or with the
// session end are dropped rather than reported as errors.
type Engine struct {
	mu       sync.Mutex
	source   CardSource
	scoring  ScoringService
	dispatch Dispatcher
	clock    Clock
	tuning   Tuning
	rng      *rand.Rand
	log      *logger.Logger

	cfg    SessionConfig
	rules  modeRules
	st     session
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	tickTimer    Timer
	advanceTimer Timer
	matchTimer   Timer

	subs    map[int]func(State)
	nextSub int
}

// session is the mutable state of one play-through. It is replaced wholesale
// on every start and restart.
type session struct {
	phase    Phase
	cards    []models.Flashcard
	choices  map[int64][]models.ChoiceOption
	index    int
	correct  int
	wrong    int
	lives    int
	timeLeft int

	inFlight        bool
	ended           bool
	finishing       bool
	lastCardHandled bool
	lastAccepted    time.Time
	startedAt       time.Time
	feedback        *Feedback

	tiles        []Tile
	flipped      []int
	matched      map[int64]bool
	attempts     int
	pairsMatched int
	checking     bool

	summary *Summary
}

// pendingEnd carries a computed summary out of the lock so the remote
// reporting can run without blocking other callers.
type pendingEnd struct {
	gen     uint64
	ctx     context.Context
	summary Summary
}

func New(source CardSource, scoring ScoringService, opts ...Option) *Engine {
	e := &Engine{
		source:  source,
		scoring: scoring,
		clock:   clockwork.NewRealClock(),
		tuning:  DefaultTuning(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		log:     logger.Default().WithPrefix("game"),
		ctx:     context.Background(),
		subs:    make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(e)
	}
	defaults := DefaultTuning()
	if e.tuning.MatchPairs < 1 {
		e.tuning.MatchPairs = defaults.MatchPairs
	}
	if e.tuning.AlmostThreshold <= 0 || e.tuning.AlmostThreshold > 1 {
		e.tuning.AlmostThreshold = defaults.AlmostThreshold
	}
	return e
}

// Load fetches a fresh card pool for cfg and starts a session with it.
func (e *Engine) Load(ctx context.Context, cfg SessionConfig) error {
	log := logger.FromContext(ctx).WithPrefix("game")
	pool, err := e.source.FetchCards(ctx, cfg.DeckID, cfg.Mode, cfg.Settings.HardMode)
	if err != nil {
		log.Warn("failed to fetch cards: deck_id=%d, mode=%s: %v", cfg.DeckID, cfg.Mode, err)
		if _, ok := errors.As(err); ok {
			return err
		}
		return errors.NewUpstreamError("fetch cards", err)
	}
	return e.Start(ctx, cfg, pool)
}

// Start resets the engine into a new session over pool. Survival cannot be
// combined with Match, and a pool with nothing playable for the mode yields
// an EMPTY_DECK error without leaving the current phase.
func (e *Engine) Start(ctx context.Context, cfg SessionConfig, pool Pool) error {
	rules, err := rulesFor(cfg.Mode)
	if err != nil {
		return errors.NewValidationError("mode", err.Error())
	}
	switch cfg.Challenge {
	case ChallengeNone, ChallengeTimed, ChallengeSurvival:
	default:
		return errors.NewValidationError("challenge", "unknown challenge")
	}
	if cfg.Challenge == ChallengeSurvival && cfg.Mode == ModeMatch {
		return errors.NewValidationError("challenge", "survival cannot be combined with match")
	}
	cfg.Settings = cfg.Settings.normalized()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errors.NewConflictError("session is closed")
	}
	if e.st.finishing {
		e.mu.Unlock()
		return errors.NewConflictError("session summary is still being recorded")
	}
	d := rules.prepare(pool, e.tuning, e.rng)
	if len(d.cards) == 0 {
		e.mu.Unlock()
		return errors.NewEmptyDeckError(cfg.DeckID)
	}
	e.resetLocked(ctx, cfg, rules, d)
	total := len(e.st.cards)
	e.mu.Unlock()

	e.log.Info("session started: deck_id=%d, mode=%s, challenge=%s, cards=%d", cfg.DeckID, cfg.Mode, cfg.Challenge, total)
	e.emit()
	return nil
}

// Restart replays the last configuration with a freshly fetched pool.
func (e *Engine) Restart(ctx context.Context) error {
	e.mu.Lock()
	switch {
	case e.closed:
		e.mu.Unlock()
		return errors.NewConflictError("session is closed")
	case e.st.finishing:
		e.mu.Unlock()
		return errors.NewConflictError("session summary is still being recorded")
	case e.rules == nil:
		e.mu.Unlock()
		return errors.NewValidationError("session", "no game has been started")
	}
	cfg := e.cfg
	e.mu.Unlock()

	return e.Load(ctx, cfg)
}

func (e *Engine) resetLocked(ctx context.Context, cfg SessionConfig, rules modeRules, d deal) {
	e.stopTimersLocked()
	if e.cancel != nil {
		e.cancel()
	}
	// Reporting outlives the request that started the session.
	e.ctx, e.cancel = context.WithCancel(context.WithoutCancel(ctx))
	e.gen++
	e.cfg = cfg
	e.rules = rules
	e.st = session{
		phase:     PhasePlaying,
		cards:     d.cards,
		choices:   d.choices,
		tiles:     d.tiles,
		matched:   make(map[int64]bool),
		startedAt: e.clock.Now(),
	}
	switch cfg.Challenge {
	case ChallengeSurvival:
		e.st.lives = cfg.Settings.InitialLives
	case ChallengeTimed:
		e.st.timeLeft = int(cfg.Settings.TimeLimit / time.Second)
		e.scheduleTickLocked()
	}
}

// SubmitAnswer grades the current card in Standard mode. It reports whether
// the answer was accepted.
func (e *Engine) SubmitAnswer(correct bool) bool {
	e.mu.Lock()
	if !e.acceptingLocked() || e.rules.input() != inputSelfGrade || e.st.inFlight || e.st.lastCardHandled {
		e.mu.Unlock()
		return false
	}
	now := e.clock.Now()
	if !e.st.lastAccepted.IsZero() && now.Sub(e.st.lastAccepted) < e.tuning.AnswerDebounce {
		e.mu.Unlock()
		e.log.Debug("answer dropped within debounce window")
		return false
	}
	e.st.lastAccepted = now

	card := e.st.cards[e.st.index]
	if e.st.index == len(e.st.cards)-1 && !e.cfg.Challenge.wraps() {
		e.st.lastCardHandled = true
	}

	var p *pendingEnd
	if e.gradeLocked(card, correct) {
		p = e.endLocked(EndOutOfLives)
	} else {
		p = e.advanceLocked()
	}
	e.mu.Unlock()

	e.finish(p)
	e.emit()
	return true
}

// SubmitWrittenAnswer validates text against the current card in Write mode.
// The validation call is awaited; the card advances after the feedback delay.
func (e *Engine) SubmitWrittenAnswer(ctx context.Context, text string) (Feedback, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Feedback{}, false
	}

	e.mu.Lock()
	if !e.acceptingLocked() || e.rules.input() != inputWritten || e.st.inFlight {
		e.mu.Unlock()
		return Feedback{}, false
	}
	e.st.inFlight = true
	gen := e.gen
	card := e.st.cards[e.st.index]
	_, expected := e.sidesLocked(card)
	e.mu.Unlock()
	e.emit()

	v, err := e.scoring.ValidateWrittenAnswer(ctx, card.ID, text, expected)
	if err != nil {
		e.log.Warn("answer validation failed, scoring locally: card_id=%d: %v", card.ID, err)
		correct, ratio := similarity.Score(text, expected)
		v = Validation{IsCorrect: correct, Similarity: ratio}
	}

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return Feedback{}, false
	}
	if !e.acceptingLocked() {
		e.st.inFlight = false
		e.mu.Unlock()
		return Feedback{}, false
	}

	fb := Feedback{
		CardID:      card.ID,
		Outcome:     e.classify(v),
		Similarity:  v.Similarity,
		Given:       text,
		CorrectText: expected,
	}
	e.st.feedback = &fb

	var p *pendingEnd
	if e.gradeLocked(card, fb.Outcome == OutcomeCorrect) {
		p = e.endLocked(EndOutOfLives)
	} else {
		e.afterLocked(&e.advanceTimer, e.tuning.WriteAdvanceDelay, e.advanceAfterFeedbackLocked)
	}
	e.mu.Unlock()

	e.finish(p)
	e.emit()
	return fb, true
}

func (e *Engine) classify(v Validation) Outcome {
	switch {
	case v.IsCorrect:
		return OutcomeCorrect
	case v.Similarity >= e.tuning.AlmostThreshold:
		return OutcomeAlmost
	default:
		return OutcomeWrong
	}
}

// SelectChoice answers the current multiple-choice card with option index.
// Correctness comes from the option set, never recomputed here.
func (e *Engine) SelectChoice(index int) bool {
	e.mu.Lock()
	if !e.acceptingLocked() || e.rules.input() != inputChoice || e.st.inFlight {
		e.mu.Unlock()
		return false
	}
	card := e.st.cards[e.st.index]
	opts := e.st.choices[card.ID]
	if index < 0 || index >= len(opts) {
		e.mu.Unlock()
		return false
	}
	e.st.inFlight = true

	outcome := OutcomeWrong
	if opts[index].IsCorrect {
		outcome = OutcomeCorrect
	}
	selected := index
	e.st.feedback = &Feedback{
		CardID:         card.ID,
		Outcome:        outcome,
		CorrectText:    correctOption(opts),
		SelectedOption: &selected,
	}

	var p *pendingEnd
	if e.gradeLocked(card, outcome == OutcomeCorrect) {
		p = e.endLocked(EndOutOfLives)
	} else {
		e.afterLocked(&e.advanceTimer, e.tuning.ChoiceAdvanceDelay, e.advanceAfterFeedbackLocked)
	}
	e.mu.Unlock()

	e.finish(p)
	e.emit()
	return true
}

// SelectTile flips a Match tile. The second flip of a turn starts a check
// that resolves after the hit or miss display delay.
func (e *Engine) SelectTile(index int) bool {
	e.mu.Lock()
	if !e.acceptingLocked() || e.rules.input() != inputTile || e.st.checking {
		e.mu.Unlock()
		return false
	}
	if index < 0 || index >= len(e.st.tiles) {
		e.mu.Unlock()
		return false
	}
	tile := e.st.tiles[index]
	if e.st.matched[tile.PairID] || e.flippedLocked(index) {
		e.mu.Unlock()
		return false
	}

	e.st.flipped = append(e.st.flipped, index)
	if len(e.st.flipped) == 2 {
		e.st.attempts++
		e.st.checking = true
		first := e.st.tiles[e.st.flipped[0]]
		if IsMatch(first, tile) {
			e.afterLocked(&e.matchTimer, e.tuning.MatchHitDelay, func() *pendingEnd {
				return e.resolveMatchLocked(first.PairID)
			})
		} else {
			e.afterLocked(&e.matchTimer, e.tuning.MatchMissDelay, e.resolveMissLocked)
		}
	}
	e.mu.Unlock()

	e.emit()
	return true
}

func (e *Engine) resolveMatchLocked(pairID int64) *pendingEnd {
	if !e.acceptingLocked() {
		return nil
	}
	e.st.matched[pairID] = true
	e.st.pairsMatched++
	e.st.flipped = nil
	e.st.checking = false
	if e.st.pairsMatched == len(e.st.tiles)/2 {
		return e.endLocked(EndCompleted)
	}
	return nil
}

func (e *Engine) resolveMissLocked() *pendingEnd {
	if !e.acceptingLocked() {
		return nil
	}
	e.st.flipped = nil
	e.st.checking = false
	return nil
}

// Tick counts the Timed countdown down by one second. Start schedules ticks
// on the engine clock, so callers only need Tick when driving time by hand.
func (e *Engine) Tick() {
	e.mu.Lock()
	p := e.tickLocked()
	e.mu.Unlock()

	e.finish(p)
	e.emit()
}

func (e *Engine) tickLocked() *pendingEnd {
	if !e.acceptingLocked() || e.cfg.Challenge != ChallengeTimed {
		return nil
	}
	if e.st.timeLeft > 0 {
		e.st.timeLeft--
	}
	if e.st.timeLeft == 0 {
		return e.endLocked(EndTimeout)
	}
	return nil
}

func (e *Engine) scheduleTickLocked() {
	e.afterLocked(&e.tickTimer, time.Second, func() *pendingEnd {
		p := e.tickLocked()
		if p == nil && e.acceptingLocked() {
			e.scheduleTickLocked()
		}
		return p
	})
}

// EndSession closes the running session. Only the first of any number of
// concurrent end triggers computes and reports a summary.
func (e *Engine) EndSession() bool {
	e.mu.Lock()
	p := e.endLocked(EndManual)
	e.mu.Unlock()

	e.finish(p)
	e.emit()
	return p != nil
}

// Close tears the engine down. Timers stop, in-flight remote results are
// discarded and subscribers are dropped.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.gen++
	e.stopTimersLocked()
	if e.cancel != nil {
		e.cancel()
	}
	e.subs = make(map[int]func(State))
}

// Subscribe registers fn to receive a snapshot after every state change.
func (e *Engine) Subscribe(fn func(State)) (cancel func()) {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Summary returns the result of the last finished session, or nil.
func (e *Engine) Summary() *Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.st.summary == nil {
		return nil
	}
	s := *e.st.summary
	return &s
}

func (e *Engine) acceptingLocked() bool {
	return !e.closed && e.st.phase == PhasePlaying && !e.st.ended
}

// gradeLocked counts one graded answer, queues its outcome report and
// reports whether a Survival session just ran out of lives.
func (e *Engine) gradeLocked(card models.Flashcard, correct bool) bool {
	if correct {
		e.st.correct++
	} else {
		e.st.wrong++
		if e.cfg.Challenge == ChallengeSurvival && e.st.lives > 0 {
			e.st.lives--
		}
	}
	e.reportOutcomeLocked(card.ID, correct)
	return e.cfg.Challenge == ChallengeSurvival && e.st.lives == 0
}

func (e *Engine) reportOutcomeLocked(cardID int64, correct bool) {
	job := &outcomeJob{scoring: e.scoring, cardID: cardID, correct: correct}
	if e.dispatch != nil {
		if err := e.dispatch.Submit(job); err != nil {
			e.log.Warn("card outcome not queued: card_id=%d: %v", cardID, err)
		}
		return
	}
	ctx, log := e.ctx, e.log
	go func() {
		if err := job.Run(ctx); err != nil {
			log.Warn("failed to record card outcome: card_id=%d: %v", cardID, err)
		}
	}()
}

func (e *Engine) advanceAfterFeedbackLocked() *pendingEnd {
	if !e.acceptingLocked() {
		return nil
	}
	return e.advanceLocked()
}

// advanceLocked moves to the next card, reshuffling under Timed and
// Survival, and ends an unconstrained session after its last card.
func (e *Engine) advanceLocked() *pendingEnd {
	e.st.feedback = nil
	e.st.inFlight = false
	if e.st.index+1 < len(e.st.cards) {
		e.st.index++
		return nil
	}
	if e.cfg.Challenge.wraps() {
		e.rng.Shuffle(len(e.st.cards), func(i, j int) {
			e.st.cards[i], e.st.cards[j] = e.st.cards[j], e.st.cards[i]
		})
		e.st.index = 0
		e.st.lastCardHandled = false
		return nil
	}
	return e.endLocked(EndCompleted)
}

func (e *Engine) endLocked(reason EndReason) *pendingEnd {
	if e.st.phase != PhasePlaying || e.st.ended {
		return nil
	}
	e.st.ended = true
	e.st.finishing = true
	e.stopTimersLocked()

	studied := e.st.correct + e.st.wrong
	accuracy := Accuracy(e.st.correct, e.st.wrong)
	if !e.cfg.Mode.graded() {
		studied = len(e.st.matched)
		accuracy = 0
	}
	sum := Summary{
		DeckID:          e.cfg.DeckID,
		Mode:            e.cfg.Mode,
		Challenge:       e.cfg.Challenge,
		Reason:          reason,
		CardsStudied:    studied,
		Correct:         e.st.correct,
		Wrong:           e.st.wrong,
		Accuracy:        accuracy,
		DurationSeconds: int(e.clock.Now().Sub(e.st.startedAt) / time.Second),
		Attempts:        e.st.attempts,
		PairsMatched:    e.st.pairsMatched,
	}
	if e.cfg.Challenge == ChallengeSurvival {
		sum.LivesRemaining = e.st.lives
	}
	return &pendingEnd{gen: e.gen, ctx: e.ctx, summary: sum}
}

// finish reports a computed summary and moves the session to Summary.
// Remote failures are logged; the local result is always shown.
func (e *Engine) finish(p *pendingEnd) {
	if p == nil {
		return
	}
	sum := p.summary

	if err := e.scoring.RecordSessionSummary(p.ctx, sum.report()); err != nil {
		e.log.Warn("failed to record session summary: deck_id=%d: %v", sum.DeckID, err)
	}
	earned, err := e.scoring.EvaluateAchievements(p.ctx, AchievementQuery{
		Accuracy:     sum.Accuracy,
		CardsStudied: sum.CardsStudied,
	})
	if err != nil {
		e.log.Warn("failed to evaluate achievements: %v", err)
		earned = nil
	}
	if earned == nil {
		earned = []models.Achievement{}
	}
	sum.Achievements = earned

	e.mu.Lock()
	if p.gen == e.gen {
		e.st.summary = &sum
		e.st.phase = PhaseSummary
		e.st.finishing = false
	}
	e.mu.Unlock()

	e.log.Info("session ended: reason=%s, studied=%d, accuracy=%d, achievements=%d",
		sum.Reason, sum.CardsStudied, sum.Accuracy, len(earned))
}

// afterLocked schedules fn on the engine clock. fn runs under the lock and
// only if no restart or close happened in between.
func (e *Engine) afterLocked(slot *Timer, d time.Duration, fn func() *pendingEnd) {
	gen := e.gen
	if *slot != nil {
		(*slot).Stop()
	}
	*slot = e.clock.AfterFunc(d, func() {
		e.mu.Lock()
		if gen != e.gen || e.closed {
			e.mu.Unlock()
			return
		}
		p := fn()
		e.mu.Unlock()

		e.finish(p)
		e.emit()
	})
}

func (e *Engine) stopTimersLocked() {
	for _, t := range []*Timer{&e.tickTimer, &e.advanceTimer, &e.matchTimer} {
		if *t != nil {
			(*t).Stop()
			*t = nil
		}
	}
}

// sidesLocked returns prompt and answer text for card under the session
// direction. Option sets are built from back texts, so multiple choice
// always prompts with the front.
func (e *Engine) sidesLocked(card models.Flashcard) (prompt, answer string) {
	if e.cfg.Settings.Direction == DirectionReverse && e.rules.input() != inputChoice {
		return card.BackText, card.FrontText
	}
	return card.FrontText, card.BackText
}

func (e *Engine) flippedLocked(index int) bool {
	for _, i := range e.st.flipped {
		if i == index {
			return true
		}
	}
	return false
}

func (e *Engine) snapshotLocked() State {
	s := State{
		DeckID:         e.cfg.DeckID,
		Mode:           e.cfg.Mode,
		Challenge:      e.cfg.Challenge,
		Direction:      e.cfg.Settings.Direction,
		Phase:          e.st.phase,
		Index:          e.st.index,
		Total:          len(e.st.cards),
		Correct:        e.st.correct,
		Wrong:          e.st.wrong,
		AnswerInFlight: e.st.inFlight,
		Finishing:      e.st.finishing,
		Attempts:       e.st.attempts,
		PairsMatched:   e.st.pairsMatched,
		TotalPairs:     len(e.st.tiles) / 2,
	}
	switch e.cfg.Challenge {
	case ChallengeSurvival:
		lives := e.st.lives
		s.LivesRemaining = &lives
	case ChallengeTimed:
		left := e.st.timeLeft
		s.TimeRemaining = &left
	}
	if e.st.feedback != nil {
		fb := *e.st.feedback
		s.Feedback = &fb
	}
	if e.st.phase == PhasePlaying && e.rules != nil && e.rules.input() != inputTile && len(e.st.cards) > 0 {
		card := e.st.cards[e.st.index]
		prompt, answer := e.sidesLocked(card)
		view := &CardView{ID: card.ID, Prompt: prompt}
		if e.rules.revealAnswer() {
			view.Answer = answer
		}
		s.Card = view
		for _, o := range e.st.choices[card.ID] {
			s.Options = append(s.Options, o.Text)
		}
	}
	for i, t := range e.st.tiles {
		v := TileView{ID: t.ID, Side: t.Side, Flipped: e.flippedLocked(i), Matched: e.st.matched[t.PairID]}
		if v.Flipped || v.Matched {
			v.Text = t.Text
		}
		s.Tiles = append(s.Tiles, v)
	}
	if e.st.summary != nil {
		sum := *e.st.summary
		s.Summary = &sum
	}
	return s
}

// emit delivers a snapshot to subscribers outside the lock.
func (e *Engine) emit() {
	e.mu.Lock()
	if len(e.subs) == 0 {
		e.mu.Unlock()
		return
	}
	s := e.snapshotLocked()
	fns := make([]func(State), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

func correctOption(opts []models.ChoiceOption) string {
	for _, o := range opts {
		if o.IsCorrect {
			return o.Text
		}
	}
	return ""
}
