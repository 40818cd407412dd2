package quirk

import (
	"sync"
	"time"

	"github.com/dshills/keypulse/internal/key"
	"github.com/dshills/keypulse/internal/logging"
	"github.com/dshills/keypulse/internal/timeutil"
)

// Action is the filter's classification of an event.
type Action int

const (
	// ActionEmit forwards the event immediately.
	ActionEmit Action = iota

	// ActionBuffer withholds the event; it is either flushed later or
	// cancelled as a confirmed phantom.
	ActionBuffer

	// ActionSuppress drops the event permanently.
	ActionSuppress
)

// String returns "emit", "buffer", or "suppress".
func (a Action) String() string {
	switch a {
	case ActionBuffer:
		return "buffer"
	case ActionSuppress:
		return "suppress"
	default:
		return "emit"
	}
}

// Timing windows for the platform quirk protocols.
const (
	// ShiftBufferWindow is how long a Shift release is withheld while
	// waiting for numpad activity to confirm it as a phantom.
	ShiftBufferWindow = 10 * time.Millisecond

	// MetaWatchdogTimeout is how long Meta may stay reported-active with
	// no activity before the force-clear callback fires.
	MetaWatchdogTimeout = 1000 * time.Millisecond

	// recentLogSize bounds the diagnostic ring of classified events.
	recentLogSize = 32
)

// bufferState is the Shift-release buffer's tagged state.
type bufferState int

const (
	bufferIdle bufferState = iota
	bufferArmed
)

// Config configures a Filter.
type Config struct {
	// Platform selects which quirk protocol, if any, is active.
	Platform Platform

	// Scheduler provides cancellable timers. Defaults to the system
	// scheduler.
	Scheduler timeutil.Scheduler

	// Logger receives debug classifications. Defaults to the package
	// default logger.
	Logger *logging.Logger

	// Flush receives a buffered release whose confirmation window
	// expired without numpad activity. Required on Windows.
	Flush func(key.Event)

	// ForceClearMeta is invoked when the macOS watchdog decides Meta is
	// stuck. Optional.
	ForceClearMeta func()
}

// Classified is one entry of the diagnostic ring.
type Classified struct {
	Key    string
	Kind   key.Kind
	Action Action
	At     time.Time
}

// Filter is a session-scoped platform quirk filter. One instance per
// engine session; all methods are safe for interleaved timer callbacks.
type Filter struct {
	mu    sync.Mutex
	cfg   Config
	sched timeutil.Scheduler
	log   *logging.Logger

	// Windows substate.
	shiftDown    bool
	numpadUpTime time.Time
	buffer       bufferState
	bufferedEv   key.Event
	bufferTimer  timeutil.Timer

	// macOS substate.
	metaTimer   timeutil.Timer
	armedSeq    uint64
	activitySeq uint64

	// Diagnostic ring of recent classifications.
	recent []Classified
}

// New creates a Filter for the given configuration.
func New(cfg Config) *Filter {
	if cfg.Scheduler == nil {
		cfg.Scheduler = timeutil.NewSystem()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Filter{
		cfg:    cfg,
		sched:  cfg.Scheduler,
		log:    cfg.Logger,
		recent: make([]Classified, 0, recentLogSize),
	}
}

// Classify decides what to do with a normalized event. Buffered events are
// delivered later through the Flush callback unless cancelled.
func (f *Filter) Classify(ev key.Event) Action {
	f.mu.Lock()
	defer f.mu.Unlock()

	var action Action
	switch f.cfg.Platform {
	case PlatformWindows:
		action = f.classifyWindows(ev)
	case PlatformMacOS:
		f.observeMacOS(ev)
		action = ActionEmit
	default:
		action = ActionEmit
	}

	f.record(ev, action)
	return action
}

// classifyWindows implements the Shift+Numpad phantom protocol.
// Caller holds the lock.
func (f *Filter) classifyWindows(ev key.Event) Action {
	// A replayed release already served its confirmation window.
	if ev.Replayed {
		return ActionEmit
	}

	if ev.Numpad != nil {
		return f.observeNumpad(ev)
	}

	if ev.Key != key.KeyShift {
		return ActionEmit
	}

	switch ev.Kind {
	case key.KeyDown:
		return f.shiftPress(ev)
	default:
		return f.shiftRelease(ev)
	}
}

// shiftPress suppresses the phantom Shift press that follows numpad
// activity while Shift is already physically down. Caller holds the lock.
func (f *Filter) shiftPress(ev key.Event) Action {
	if f.shiftDown && !f.numpadUpTime.IsZero() &&
		ev.Timestamp.Sub(f.numpadUpTime) <= ShiftBufferWindow {
		f.log.Debug("suppressing phantom shift press",
			"gap", ev.Timestamp.Sub(f.numpadUpTime))
		return ActionSuppress
	}
	f.shiftDown = true
	return ActionEmit
}

// shiftRelease never emits immediately: the release is buffered behind a
// short timer. A second release replaces the buffered one and restarts
// the timer rather than stacking. Caller holds the lock.
func (f *Filter) shiftRelease(ev key.Event) Action {
	if f.buffer == bufferArmed && f.bufferTimer != nil {
		f.bufferTimer.Stop()
	}
	f.buffer = bufferArmed
	f.bufferedEv = ev
	f.bufferTimer = f.sched.AfterFunc(ShiftBufferWindow, f.onBufferTimeout)
	return ActionBuffer
}

// observeNumpad confirms a pending buffered Shift release as a phantom
// when numpad activity lands inside the window, and records release time
// for the phantom-press check. Caller holds the lock.
func (f *Filter) observeNumpad(ev key.Event) Action {
	if f.buffer == bufferArmed &&
		ev.Timestamp.Sub(f.bufferedEv.Timestamp) <= ShiftBufferWindow {
		f.log.Debug("phantom shift release confirmed by numpad activity",
			"numpad", ev.Key)
		f.clearBuffer()
	}
	if ev.Kind == key.KeyUp {
		f.numpadUpTime = ev.Timestamp
	}
	return ActionEmit
}

// onBufferTimeout flushes an unconfirmed buffered Shift release.
func (f *Filter) onBufferTimeout() {
	f.mu.Lock()
	if f.buffer != bufferArmed {
		f.mu.Unlock()
		return
	}
	ev := f.bufferedEv
	ev.Replayed = true
	f.clearBuffer()
	f.shiftDown = false
	flush := f.cfg.Flush
	f.mu.Unlock()

	if flush != nil {
		flush(ev)
	}
}

// clearBuffer returns the buffer to idle. Caller holds the lock.
func (f *Filter) clearBuffer() {
	if f.bufferTimer != nil {
		f.bufferTimer.Stop()
		f.bufferTimer = nil
	}
	f.buffer = bufferIdle
	f.bufferedEv = key.Event{}
}

// observeMacOS maintains the stuck-Meta watchdog. Caller holds the lock.
func (f *Filter) observeMacOS(ev key.Event) {
	f.activitySeq++

	metaActive := ev.Modifiers.HasMeta() || (ev.Key == key.KeyMeta && ev.Kind == key.KeyDown)

	if metaActive {
		if f.metaTimer != nil {
			f.metaTimer.Stop()
		}
		f.armedSeq = f.activitySeq
		f.metaTimer = f.sched.AfterFunc(MetaWatchdogTimeout, f.onMetaTimeout)
		return
	}

	// Fast path: a non-Meta keyup with Meta reported inactive means Meta
	// is demonstrably not stuck.
	if ev.Kind == key.KeyUp && ev.Key != key.KeyMeta && f.metaTimer != nil {
		f.metaTimer.Stop()
		f.metaTimer = nil
	}
}

// onMetaTimeout fires the force-clear callback if nothing refreshed the
// watchdog since it was armed.
func (f *Filter) onMetaTimeout() {
	f.mu.Lock()
	stale := f.activitySeq == f.armedSeq
	f.metaTimer = nil
	clear := f.cfg.ForceClearMeta
	f.mu.Unlock()

	if stale && clear != nil {
		f.log.Warn("meta watchdog expired, forcing modifier clear")
		clear()
	}
}

// record appends to the diagnostic ring. Caller holds the lock.
func (f *Filter) record(ev key.Event, action Action) {
	c := Classified{Key: ev.Key, Kind: ev.Kind, Action: action, At: ev.Timestamp}
	if len(f.recent) == recentLogSize {
		copy(f.recent, f.recent[1:])
		f.recent[recentLogSize-1] = c
		return
	}
	f.recent = append(f.recent, c)
}

// Recent returns a copy of the diagnostic ring, oldest first.
func (f *Filter) Recent() []Classified {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Classified, len(f.recent))
	copy(out, f.recent)
	return out
}

// Pending reports whether a buffered release is awaiting confirmation.
func (f *Filter) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buffer == bufferArmed
}

// Reset cancels all timers and clears all buffers and flags. Idempotent;
// must run on session teardown and focus-loss recovery.
func (f *Filter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.clearBuffer()
	if f.metaTimer != nil {
		f.metaTimer.Stop()
		f.metaTimer = nil
	}
	f.shiftDown = false
	f.numpadUpTime = time.Time{}
	f.recent = f.recent[:0]
}
