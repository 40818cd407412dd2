package pattern

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/keypulse/internal/key"
	"github.com/dshills/keypulse/internal/logging"
	"github.com/dshills/keypulse/internal/timeutil"
)

// Matcher defaults.
const (
	// DefaultSequenceTimeout bounds the gap-free life of the sequence
	// buffer and is the default per-pattern sequence window.
	DefaultSequenceTimeout = 1000 * time.Millisecond

	// DefaultHoldThreshold is the default minimum hold duration.
	DefaultHoldThreshold = 500 * time.Millisecond

	// DefaultChordWindow is the default chord accumulation window.
	DefaultChordWindow = 100 * time.Millisecond

	// DefaultProgressInterval is the hold progress refinement tick.
	DefaultProgressInterval = 16 * time.Millisecond

	// recentMatchCap bounds the diagnostics ring of recent matches.
	recentMatchCap = 10

	// minSequenceBuffer is the floor for the rolling buffer length.
	minSequenceBuffer = 10
)

// Config configures a Matcher.
type Config struct {
	// SequenceTimeout replaces DefaultSequenceTimeout when positive.
	SequenceTimeout time.Duration

	// HoldThreshold replaces DefaultHoldThreshold when positive.
	HoldThreshold time.Duration

	// ChordWindow replaces DefaultChordWindow when positive.
	ChordWindow time.Duration

	// ProgressInterval replaces DefaultProgressInterval when positive.
	ProgressInterval time.Duration

	// Scheduler provides hold timers and the progress tick. Defaults to
	// the system scheduler.
	Scheduler timeutil.Scheduler

	// Logger receives debug output. Defaults to the package default.
	Logger *logging.Logger

	// OnMatch, when set, receives every match, including hold matches
	// that complete from timer callbacks between events.
	OnMatch func(Match)
}

// seqEntry is one press in the rolling sequence buffer.
type seqEntry struct {
	key  string
	mods key.Modifier
	at   time.Time
}

// chordKey records the modifier snapshot at a chord-candidate press.
type chordKey struct {
	mods key.Modifier
	at   time.Time
}

// holdState pairs an in-flight hold with its completion timer.
type holdState struct {
	progress HoldProgress
	timer    timeutil.Timer
}

// Matcher consumes normalized key events and reports pattern matches.
// One instance per engine session.
type Matcher struct {
	mu    sync.Mutex
	cfg   Config
	sched timeutil.Scheduler
	log   *logging.Logger

	defs  map[string]*Definition
	order []string

	// Sequence substate.
	seq         []seqEntry
	seqStart    time.Time
	lastKeyTime time.Time
	maxSeqLen   int

	// Chord substate.
	potential    map[string]chordKey
	chordStart   time.Time
	chordMatched map[string]bool

	// Hold substate.
	held    map[string]chordKey
	holds   map[string]*holdState
	tracker timeutil.Ticker

	// Diagnostics ring, capacity recentMatchCap.
	recent []Match
}

// New creates a Matcher.
func New(cfg Config) *Matcher {
	if cfg.SequenceTimeout <= 0 {
		cfg.SequenceTimeout = DefaultSequenceTimeout
	}
	if cfg.HoldThreshold <= 0 {
		cfg.HoldThreshold = DefaultHoldThreshold
	}
	if cfg.ChordWindow <= 0 {
		cfg.ChordWindow = DefaultChordWindow
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = DefaultProgressInterval
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = timeutil.NewSystem()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	return &Matcher{
		cfg:          cfg,
		sched:        cfg.Scheduler,
		log:          cfg.Logger,
		defs:         make(map[string]*Definition),
		potential:    make(map[string]chordKey),
		chordMatched: make(map[string]bool),
		held:         make(map[string]chordKey),
		holds:        make(map[string]*holdState),
		maxSeqLen:    minSequenceBuffer,
	}
}

// Add registers a pattern definition. The ID must be unused.
func (m *Matcher) Add(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.defs[def.ID]; ok {
		return ErrDuplicated
	}
	m.defs[def.ID] = &def
	m.order = append(m.order, def.ID)
	m.recomputeSeqLen()
	return nil
}

// Remove unregisters a pattern and drops any in-flight state for it.
func (m *Matcher) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.defs[id]; !ok {
		return ErrNotFound
	}
	delete(m.defs, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	delete(m.chordMatched, id)
	m.dropHold(id)
	m.recomputeSeqLen()
	return nil
}

// Clear unregisters all patterns and resets recent matches and active
// holds. Runtime buffers for removed patterns cannot resurrect them.
func (m *Matcher) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.defs = make(map[string]*Definition)
	m.order = nil
	m.chordMatched = make(map[string]bool)
	m.recent = nil
	for id := range m.holds {
		m.dropHold(id)
	}
	m.recomputeSeqLen()
}

// Patterns returns the registered definitions in registration order.
func (m *Matcher) Patterns() []Definition {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Definition, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.defs[id])
	}
	return out
}

// recomputeSeqLen sizes the rolling buffer to the longest sequence
// definition, floored at minSequenceBuffer. Caller holds the lock.
func (m *Matcher) recomputeSeqLen() {
	max := minSequenceBuffer
	for _, def := range m.defs {
		if def.Type == TypeSequence && len(def.Keys) > max {
			max = len(def.Keys)
		}
	}
	m.maxSeqLen = max
}

// HandleEvent processes one emitted normalized event and returns any
// matches it completes synchronously. Hold matches that complete later
// arrive through Config.OnMatch.
func (m *Matcher) HandleEvent(ev key.Event) []Match {
	m.mu.Lock()

	var matches []Match
	switch {
	case ev.Repeat:
		// Auto-repeat transitions never advance pattern state.
	case ev.Kind == key.KeyDown:
		matches = m.handlePress(ev)
	default:
		m.handleRelease(ev)
	}

	m.mu.Unlock()

	for _, match := range matches {
		m.notify(match)
	}
	return matches
}

// handlePress runs the press path of all three disciplines.
// Caller holds the lock.
func (m *Matcher) handlePress(ev key.Event) []Match {
	m.held[ev.Key] = chordKey{mods: ev.Modifiers, at: ev.Timestamp}

	var matches []Match
	matches = append(matches, m.chordPress(ev)...)
	m.holdPress(ev)
	matches = append(matches, m.sequencePress(ev)...)

	for i := range matches {
		m.remember(matches[i])
	}
	return matches
}

// handleRelease runs the release path. Caller holds the lock.
func (m *Matcher) handleRelease(ev key.Event) {
	delete(m.held, ev.Key)
	m.chordRelease(ev)
	m.holdRelease(ev)
}

// notify delivers a match to the configured callback, outside the lock.
func (m *Matcher) notify(match Match) {
	if m.cfg.OnMatch != nil {
		m.cfg.OnMatch(match)
	}
}

// remember appends to the bounded recent-match ring. Caller holds the lock.
func (m *Matcher) remember(match Match) {
	if len(m.recent) == recentMatchCap {
		copy(m.recent, m.recent[1:])
		m.recent[recentMatchCap-1] = match
		return
	}
	m.recent = append(m.recent, match)
}

// RecentMatches returns a copy of the diagnostics ring, oldest first.
func (m *Matcher) RecentMatches() []Match {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Match, len(m.recent))
	copy(out, m.recent)
	return out
}

// Reset clears all runtime substates without altering the pattern list.
// All pending hold timers are cancelled before Reset returns.
func (m *Matcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq = nil
	m.seqStart = time.Time{}
	m.lastKeyTime = time.Time{}
	m.potential = make(map[string]chordKey)
	m.chordStart = time.Time{}
	m.chordMatched = make(map[string]bool)
	m.held = make(map[string]chordKey)
	for id := range m.holds {
		m.dropHold(id)
	}
}

// newMatch builds a Match record. Caller holds the lock.
func (m *Matcher) newMatch(def *Definition, keys []string, at time.Time, dur time.Duration) Match {
	return Match{
		ID:        uuid.NewString(),
		PatternID: def.ID,
		Type:      def.Type,
		Keys:      keys,
		MatchedAt: at,
		Duration:  dur,
	}
}

// keysEqual compares a pressed key against a spec key, honoring case
// sensitivity.
func keysEqual(pressed, spec string, caseSensitive bool) bool {
	if caseSensitive {
		return pressed == spec
	}
	return strings.EqualFold(pressed, spec)
}

// modsSatisfy reports whether pressed modifiers satisfy a required subset.
func modsSatisfy(pressed, required key.Modifier) bool {
	required = required.Chorded()
	return pressed.Chorded()&required == required
}
