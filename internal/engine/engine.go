package engine

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/dshills/keypulse/internal/key"
	"github.com/dshills/keypulse/internal/logging"
	"github.com/dshills/keypulse/internal/pattern"
	"github.com/dshills/keypulse/internal/quirk"
	"github.com/dshills/keypulse/internal/timeutil"
)

const (
	// eventChannelSize bounds the emitted-event channel. Overflow drops
	// the newest event rather than blocking the host callback.
	eventChannelSize = 128

	// matchChannelSize bounds the match delivery channel.
	matchChannelSize = 64

	// historyCap bounds the retained match history.
	historyCap = 1000
)

// Result reports what ProcessRaw did with one raw event.
type Result struct {
	// Action is the quirk filter's classification.
	Action quirk.Action

	// Events holds the normalized events emitted by this call. Empty when
	// the event was buffered, suppressed, or rejected by tracking.
	Events []key.Event

	// Matches holds pattern matches completed by this call.
	Matches []pattern.Match

	// PreventDefault asks the host to swallow the default action.
	PreventDefault bool

	// Validation is the consistency check outcome for the raw event.
	Validation quirk.Validation
}

// keyState is the per-key tracking record.
type keyState struct {
	down      bool
	lastKind  key.Kind
	at        time.Time
	pressTime time.Time
}

// Engine is the full input pipeline for one session: normalization, quirk
// filtering, press/release tracking, tap/hold annotation, prevent-default
// policy, and pattern matching.
type Engine struct {
	cfg     Config
	sched   timeutil.Scheduler
	log     *logging.Logger
	metrics *Metrics
	combos  []key.Combo

	mu       sync.Mutex
	filter   *quirk.Filter
	matcher  *pattern.Matcher
	tracking map[string]*keyState
	closed   bool

	histMu   sync.Mutex
	history  []pattern.Match
	matches  chan pattern.Match
	chClosed bool

	events chan key.Event
}

// New creates an Engine from the configuration. Initial patterns are
// validated; the first invalid definition fails construction.
func New(cfg Config) (*Engine, error) {
	def := DefaultConfig()
	if cfg.TapHoldThreshold <= 0 {
		cfg.TapHoldThreshold = def.TapHoldThreshold
	}
	if cfg.SequenceTimeout <= 0 {
		cfg.SequenceTimeout = def.SequenceTimeout
	}
	if cfg.HoldThreshold <= 0 {
		cfg.HoldThreshold = def.HoldThreshold
	}
	if cfg.ChordWindow <= 0 {
		cfg.ChordWindow = def.ChordWindow
	}
	if cfg.Platform == quirk.PlatformUnknown {
		cfg.Platform = quirk.Detect()
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = timeutil.NewSystem()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	combos, err := key.ParseCombos(cfg.PreventCombos)
	if err != nil {
		return nil, fmt.Errorf("prevent combos: %w", err)
	}

	e := &Engine{
		cfg:      cfg,
		sched:    cfg.Scheduler,
		log:      cfg.Logger.WithComponent("engine"),
		metrics:  NewMetrics(),
		combos:   combos,
		tracking: make(map[string]*keyState),
		events:   make(chan key.Event, eventChannelSize),
		matches:  make(chan pattern.Match, matchChannelSize),
	}

	e.filter = quirk.New(quirk.Config{
		Platform:       cfg.Platform,
		Scheduler:      cfg.Scheduler,
		Logger:         cfg.Logger,
		Flush:          e.emitFlushed,
		ForceClearMeta: e.forceClearMeta,
	})

	e.matcher = pattern.New(pattern.Config{
		SequenceTimeout: cfg.SequenceTimeout,
		HoldThreshold:   cfg.HoldThreshold,
		ChordWindow:     cfg.ChordWindow,
		Scheduler:       cfg.Scheduler,
		Logger:          cfg.Logger,
		OnMatch:         e.onMatch,
	})

	for _, d := range cfg.Patterns {
		if err := e.matcher.Add(d); err != nil {
			return nil, fmt.Errorf("pattern %q: %w", d.ID, err)
		}
	}

	return e, nil
}

// ProcessRaw runs one raw host event through the pipeline and returns a
// synchronous Result so the adapter can honor prevent-default immediately.
func (e *Engine) ProcessRaw(raw key.RawEvent) Result {
	start := time.Now()
	defer func() { e.metrics.RecordEvent(time.Since(start)) }()

	res := Result{Validation: quirk.Validate(raw)}

	e.mu.Lock()
	if e.closed || !e.cfg.Enabled {
		e.mu.Unlock()
		res.Action = quirk.ActionSuppress
		return res
	}

	if !res.Validation.Valid || len(res.Validation.Warnings) > 0 {
		e.metrics.RecordValidationWarning()
		e.log.Warn("inconsistent raw event",
			"key", raw.Key, "kind", raw.Kind.String(),
			"corrections", res.Validation.Corrections,
			"warnings", res.Validation.Warnings)
	}

	// Repairs. A release never auto-repeats; an empty key label is
	// recovered from the physical code, falling back to the code itself
	// as a best-effort label. Only a fully anonymous event is dropped.
	if raw.Kind == key.KeyUp && raw.Repeat {
		raw.Repeat = false
	}
	if raw.Key == "" {
		raw.Key = labelFromCode(raw.Code)
		if raw.Key == "" {
			e.mu.Unlock()
			e.metrics.RecordSuppressed()
			res.Action = quirk.ActionSuppress
			return res
		}
	}

	ev := key.Normalize(raw)
	res.Action = e.filter.Classify(ev)

	switch res.Action {
	case quirk.ActionBuffer:
		e.mu.Unlock()
		e.metrics.RecordBuffered()
		return res
	case quirk.ActionSuppress:
		e.mu.Unlock()
		e.metrics.RecordSuppressed()
		return res
	}

	out, matches, ok := e.deliverLocked(ev)
	e.mu.Unlock()

	if !ok {
		res.Action = quirk.ActionSuppress
		return res
	}
	res.Events = append(res.Events, out)
	res.Matches = matches
	res.PreventDefault = out.PreventedDefault
	return res
}

// deliverLocked runs tracking, tap/hold annotation, prevent-default, event
// delivery, and matching for one emitted event. Caller holds e.mu. The
// second return is false when tracking rejected the event.
func (e *Engine) deliverLocked(ev key.Event) (key.Event, []pattern.Match, bool) {
	st := e.tracking[ev.Key]

	switch ev.Kind {
	case key.KeyDown:
		if st != nil && st.down && !ev.Repeat {
			e.metrics.RecordTrackingReject()
			if e.cfg.DebugLogging {
				e.log.Debug("duplicate keydown rejected", "key", ev.Key)
			}
			return key.Event{}, nil, false
		}
		if st == nil {
			st = &keyState{}
			e.tracking[ev.Key] = st
		}
		if !st.down {
			st.pressTime = ev.Timestamp
		}
		st.down = true
		st.lastKind = key.KeyDown
		st.at = ev.Timestamp

	case key.KeyUp:
		if st == nil || !st.down {
			e.metrics.RecordTrackingReject()
			if e.cfg.DebugLogging {
				e.log.Debug("orphan keyup rejected", "key", ev.Key)
			}
			return key.Event{}, nil, false
		}
		ev.Duration = ev.Timestamp.Sub(st.pressTime)
		if ev.Duration < 0 {
			ev.Duration = 0
		}
		ev.IsHold = ev.Duration >= e.cfg.TapHoldThreshold
		ev.IsTap = !ev.IsHold
		st.down = false
		st.lastKind = key.KeyUp
		st.at = ev.Timestamp
	}

	ev.PreventedDefault = e.preventDefault(ev)

	e.metrics.RecordEmitted()
	if e.cfg.DebugLogging {
		e.log.Debug("emit", "event", ev.String(),
			"prevented", ev.PreventedDefault, "replayed", ev.Replayed)
	}

	select {
	case e.events <- ev:
	default:
		e.metrics.RecordDroppedEvent()
		e.log.Warn("event channel full, dropping event", "key", ev.Key)
	}

	matches := e.matcher.HandleEvent(ev)
	return ev, matches, true
}

// preventDefault applies the configured policy to one event.
func (e *Engine) preventDefault(ev key.Event) bool {
	switch e.cfg.PreventMode {
	case PreventAll:
		return true
	case PreventList:
		for _, c := range e.combos {
			if c.Matches(ev) {
				return true
			}
		}
	}
	return false
}

// emitFlushed delivers a buffered release whose confirmation window expired.
// Runs on the scheduler's timer goroutine.
func (e *Engine) emitFlushed(ev key.Event) {
	e.metrics.RecordFlushed()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.deliverLocked(ev)
	e.mu.Unlock()
}

// forceClearMeta resets the Meta tracking record when the stuck-Meta
// watchdog fires.
func (e *Engine) forceClearMeta() {
	e.mu.Lock()
	if st := e.tracking[key.KeyMeta]; st != nil && st.down {
		st.down = false
		st.lastKind = key.KeyUp
		e.log.Warn("force-cleared stuck Meta")
	}
	e.mu.Unlock()
}

// onMatch receives every completed match, including timer-driven hold
// completions.
func (e *Engine) onMatch(m pattern.Match) {
	e.metrics.RecordMatch(m.Type)

	e.histMu.Lock()
	defer e.histMu.Unlock()
	if e.chClosed {
		return
	}
	e.history = append(e.history, m)
	if len(e.history) > historyCap {
		e.history = e.history[len(e.history)-historyCap:]
	}
	select {
	case e.matches <- m:
	default:
		e.metrics.RecordDroppedEvent()
		e.log.Warn("match channel full, dropping match", "pattern", m.PatternID)
	}
}

// Events returns the emitted-event channel. Closed by Close.
func (e *Engine) Events() <-chan key.Event {
	return e.events
}

// Matches returns the match delivery channel. Closed by Close.
func (e *Engine) Matches() <-chan pattern.Match {
	return e.matches
}

// MatchHistory returns a copy of the retained match history, oldest first.
func (e *Engine) MatchHistory() []pattern.Match {
	e.histMu.Lock()
	defer e.histMu.Unlock()
	out := make([]pattern.Match, len(e.history))
	copy(out, e.history)
	return out
}

// AddPattern registers a pattern at runtime.
func (e *Engine) AddPattern(def pattern.Definition) error {
	return e.matcher.Add(def)
}

// RemovePattern unregisters a pattern and cancels its in-flight state.
func (e *Engine) RemovePattern(id string) error {
	return e.matcher.Remove(id)
}

// ClearPatterns unregisters every pattern.
func (e *Engine) ClearPatterns() {
	e.matcher.Clear()
}

// Patterns returns the registered definitions in insertion order.
func (e *Engine) Patterns() []pattern.Definition {
	return e.matcher.Patterns()
}

// ActiveHolds returns advisory progress for in-flight holds.
func (e *Engine) ActiveHolds() map[string]pattern.HoldProgress {
	return e.matcher.ActiveHolds()
}

// RecentMatches returns the matcher's bounded recent-match list.
func (e *Engine) RecentMatches() []pattern.Match {
	return e.matcher.RecentMatches()
}

// FocusLost resets all runtime state. Patterns stay registered. Call this
// when the host loses input focus; key releases delivered elsewhere never
// arrive, so tracked state is no longer trustworthy.
func (e *Engine) FocusLost() {
	e.ResetRuntimeState()
}

// ResetRuntimeState clears quirk filter state, matcher progress, and key
// tracking. Registered patterns and the match history survive.
func (e *Engine) ResetRuntimeState() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.filter.Reset()
	e.matcher.Reset()
	e.tracking = make(map[string]*keyState)
}

// SetEnabled toggles processing at runtime. A disabled engine suppresses
// every event without touching state.
func (e *Engine) SetEnabled(enabled bool) {
	e.mu.Lock()
	e.cfg.Enabled = enabled
	e.mu.Unlock()
}

// Enabled reports whether the engine is processing events.
func (e *Engine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Enabled
}

// Config returns a copy of the effective configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Metrics returns the engine's metrics tracker.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Close shuts the engine down, cancels pending timers, and closes both
// delivery channels. Idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.filter.Reset()
	e.matcher.Reset()
	close(e.events)
	e.mu.Unlock()

	e.histMu.Lock()
	e.chClosed = true
	close(e.matches)
	e.histMu.Unlock()
}

// labelFromCode recovers a key label from a physical code, for raw events
// that arrive with an empty key field. Codes without a known mapping are
// used verbatim so the event still reaches tracking and matching.
func labelFromCode(code string) string {
	switch {
	case len(code) == 4 && strings.HasPrefix(code, "Key"):
		return string(unicode.ToLower(rune(code[3])))
	case len(code) == 6 && strings.HasPrefix(code, "Digit"):
		return code[5:]
	}
	return code
}
