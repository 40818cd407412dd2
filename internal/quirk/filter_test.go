package quirk

import (
	"io"
	"testing"
	"time"

	"github.com/dshills/keypulse/internal/key"
	"github.com/dshills/keypulse/internal/logging"
	"github.com/dshills/keypulse/internal/timeutil"
)

var start = time.Unix(5000, 0)

type harness struct {
	filter  *Filter
	sched   *timeutil.Virtual
	flushed []key.Event
	cleared int
	now     time.Time
}

func newHarness(t *testing.T, p Platform) *harness {
	t.Helper()
	h := &harness{
		sched: timeutil.NewVirtual(start),
		now:   start,
	}
	h.filter = New(Config{
		Platform:       p,
		Scheduler:      h.sched,
		Logger:         logging.New(&logging.Config{Level: logging.LevelError, Output: io.Discard}),
		Flush:          func(ev key.Event) { h.flushed = append(h.flushed, ev) },
		ForceClearMeta: func() { h.cleared++ },
	})
	return h
}

// step advances both event time and the scheduler.
func (h *harness) step(d time.Duration) {
	h.now = h.now.Add(d)
	h.sched.Advance(d)
}

func (h *harness) event(k, code string, kind key.Kind, mods key.Modifier) key.Event {
	return key.Normalize(key.RawEvent{
		Key:       k,
		Code:      code,
		Modifiers: mods,
		Timestamp: h.now,
		Kind:      kind,
	})
}

func (h *harness) shift(kind key.Kind) key.Event {
	mods := key.ModNone
	if kind == key.KeyDown {
		mods = key.ModShift
	}
	return h.event("Shift", "ShiftLeft", kind, mods)
}

func (h *harness) numpad(kind key.Kind) key.Event {
	return h.event("End", "Numpad1", kind, key.ModShift)
}

func TestShiftReleaseIsBuffered(t *testing.T) {
	h := newHarness(t, PlatformWindows)

	if got := h.filter.Classify(h.shift(key.KeyDown)); got != ActionEmit {
		t.Fatalf("shift press = %v, want emit", got)
	}
	h.step(5 * time.Millisecond)
	if got := h.filter.Classify(h.shift(key.KeyUp)); got != ActionBuffer {
		t.Fatalf("shift release = %v, want buffer", got)
	}
	if !h.filter.Pending() {
		t.Fatal("release should be pending")
	}

	// Unconfirmed: the release is flushed at window expiry, marked replayed.
	h.step(ShiftBufferWindow)
	if len(h.flushed) != 1 {
		t.Fatalf("flushed = %d events, want 1", len(h.flushed))
	}
	if !h.flushed[0].Replayed {
		t.Error("flushed release should be marked replayed")
	}
	if h.filter.Pending() {
		t.Error("buffer should be idle after flush")
	}
}

func TestReplayedReleaseNotRebuffered(t *testing.T) {
	h := newHarness(t, PlatformWindows)

	ev := h.shift(key.KeyUp)
	ev.Replayed = true
	if got := h.filter.Classify(ev); got != ActionEmit {
		t.Errorf("replayed release = %v, want emit", got)
	}
}

func TestPhantomShiftPairSuppressed(t *testing.T) {
	h := newHarness(t, PlatformWindows)

	// Physical Shift goes down.
	h.filter.Classify(h.shift(key.KeyDown))
	h.step(2 * time.Millisecond)

	// OS-synthesized release bracketing numpad activity: buffered...
	if got := h.filter.Classify(h.shift(key.KeyUp)); got != ActionBuffer {
		t.Fatalf("phantom release = %v, want buffer", got)
	}

	// ...and confirmed by the numpad press inside the window.
	h.step(3 * time.Millisecond)
	if got := h.filter.Classify(h.numpad(key.KeyDown)); got != ActionEmit {
		t.Fatalf("numpad press = %v, want emit", got)
	}
	if h.filter.Pending() {
		t.Fatal("confirmed phantom should clear the buffer")
	}

	h.step(2 * time.Millisecond)
	h.filter.Classify(h.numpad(key.KeyUp))

	// The phantom re-press right after the numpad release is suppressed:
	// Shift is still tracked down.
	h.step(2 * time.Millisecond)
	if got := h.filter.Classify(h.shift(key.KeyDown)); got != ActionSuppress {
		t.Fatalf("phantom press = %v, want suppress", got)
	}

	// Nothing was flushed: no phantom transition reached downstream.
	h.step(50 * time.Millisecond)
	if len(h.flushed) != 0 {
		t.Errorf("flushed = %d events, want 0", len(h.flushed))
	}
}

func TestFullPhantomScenario(t *testing.T) {
	// [Shift down, Shift up, Numpad1 down, Numpad1 up, Shift down, Shift up]
	// with all gaps within the window: exactly one Shift down and one
	// (deferred) Shift up survive.
	h := newHarness(t, PlatformWindows)
	var emitted []key.Event

	classify := func(ev key.Event) {
		if h.filter.Classify(ev) == ActionEmit {
			emitted = append(emitted, ev)
		}
	}

	classify(h.shift(key.KeyDown))
	h.step(2 * time.Millisecond)
	classify(h.shift(key.KeyUp)) // phantom, buffered
	h.step(2 * time.Millisecond)
	classify(h.numpad(key.KeyDown)) // confirms phantom
	h.step(2 * time.Millisecond)
	classify(h.numpad(key.KeyUp))
	h.step(2 * time.Millisecond)
	classify(h.shift(key.KeyDown)) // phantom re-press, suppressed
	h.step(2 * time.Millisecond)
	classify(h.shift(key.KeyUp)) // real release, buffered then flushed

	h.step(ShiftBufferWindow + time.Millisecond)
	emitted = append(emitted, h.flushed...)

	downs, ups := 0, 0
	for _, ev := range emitted {
		if ev.Key == key.KeyShift {
			if ev.Kind == key.KeyDown {
				downs++
			} else {
				ups++
			}
		}
	}
	if downs != 1 || ups != 1 {
		t.Errorf("shift transitions = %d down / %d up, want 1/1", downs, ups)
	}
}

func TestSecondReleaseReplacesBuffer(t *testing.T) {
	h := newHarness(t, PlatformWindows)

	h.filter.Classify(h.shift(key.KeyDown))
	h.filter.Classify(h.shift(key.KeyUp))
	h.step(5 * time.Millisecond)
	h.filter.Classify(h.shift(key.KeyUp)) // replaces, restarts timer

	// 5ms later the original timer would have fired; the replacement is
	// still pending.
	h.step(6 * time.Millisecond)
	if len(h.flushed) != 0 {
		t.Fatalf("flushed too early: %d events", len(h.flushed))
	}

	h.step(5 * time.Millisecond)
	if len(h.flushed) != 1 {
		t.Fatalf("flushed = %d events, want exactly 1", len(h.flushed))
	}
}

func TestNonWindowsPassThrough(t *testing.T) {
	h := newHarness(t, PlatformLinux)

	if got := h.filter.Classify(h.shift(key.KeyUp)); got != ActionEmit {
		t.Errorf("linux shift release = %v, want emit", got)
	}
}

func TestMetaWatchdogFires(t *testing.T) {
	h := newHarness(t, PlatformMacOS)

	h.filter.Classify(h.event("Meta", "MetaLeft", key.KeyDown, key.ModMeta))

	h.step(MetaWatchdogTimeout + time.Millisecond)
	if h.cleared != 1 {
		t.Errorf("force-clear fired %d times, want 1", h.cleared)
	}
}

func TestMetaWatchdogRefreshedByActivity(t *testing.T) {
	h := newHarness(t, PlatformMacOS)

	h.filter.Classify(h.event("Meta", "MetaLeft", key.KeyDown, key.ModMeta))
	h.step(500 * time.Millisecond)
	// Meta-active activity re-arms the watchdog.
	h.filter.Classify(h.event("a", "KeyA", key.KeyDown, key.ModMeta))

	h.step(700 * time.Millisecond)
	if h.cleared != 0 {
		t.Errorf("watchdog fired despite refresh, cleared = %d", h.cleared)
	}
}

func TestMetaWatchdogFastPathCancel(t *testing.T) {
	h := newHarness(t, PlatformMacOS)

	h.filter.Classify(h.event("Meta", "MetaLeft", key.KeyDown, key.ModMeta))
	h.step(100 * time.Millisecond)
	// Non-Meta keyup with Meta inactive cancels the watchdog outright.
	h.filter.Classify(h.event("a", "KeyA", key.KeyUp, key.ModNone))

	h.step(2 * MetaWatchdogTimeout)
	if h.cleared != 0 {
		t.Errorf("watchdog fired after fast-path cancel, cleared = %d", h.cleared)
	}
}

func TestResetCancelsEverything(t *testing.T) {
	h := newHarness(t, PlatformWindows)

	h.filter.Classify(h.shift(key.KeyDown))
	h.filter.Classify(h.shift(key.KeyUp))
	h.filter.Reset()
	h.filter.Reset() // idempotent

	h.step(time.Second)
	if len(h.flushed) != 0 {
		t.Errorf("reset filter flushed %d events", len(h.flushed))
	}
	if h.sched.PendingCount() != 0 {
		t.Errorf("pending timers after reset = %d, want 0", h.sched.PendingCount())
	}
}

func TestRecentRingBounded(t *testing.T) {
	h := newHarness(t, PlatformLinux)

	for i := 0; i < 50; i++ {
		h.filter.Classify(h.event("a", "KeyA", key.KeyDown, key.ModNone))
	}
	if got := len(h.filter.Recent()); got != 32 {
		t.Errorf("recent ring = %d entries, want 32", got)
	}
}
