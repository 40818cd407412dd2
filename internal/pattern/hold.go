package pattern

import (
	"github.com/dshills/keypulse/internal/key"
)

// holdPress creates hold progress entries for every hold definition the
// press qualifies for and arms their completion timers. Caller holds the
// lock.
func (m *Matcher) holdPress(ev key.Event) {
	for _, id := range m.order {
		def := m.defs[id]
		if def.Type != TypeHold {
			continue
		}
		if _, active := m.holds[id]; active {
			continue
		}

		ks, ok := holdSpecFor(def, ev)
		if !ok {
			continue
		}

		minHold := ks.MinHoldTime
		if minHold <= 0 {
			minHold = def.HoldThreshold
		}
		if minHold <= 0 {
			minHold = m.cfg.HoldThreshold
		}

		patternID := id
		m.holds[id] = &holdState{
			progress: HoldProgress{
				PatternID:   id,
				Key:         ev.Key,
				StartTime:   ev.Timestamp,
				MinHoldTime: minHold,
				Remaining:   minHold,
			},
			timer: m.sched.AfterFunc(minHold, func() { m.completeHold(patternID) }),
		}
		m.startTracker()
	}
}

// holdSpecFor returns the key spec a press satisfies within a hold
// definition.
func holdSpecFor(def *Definition, ev key.Event) (KeySpec, bool) {
	for _, ks := range def.Keys {
		if keysEqual(ev.Key, ks.Key, def.CaseSensitive) &&
			modsSatisfy(ev.Modifiers, ks.Modifiers) {
			return ks, true
		}
	}
	return KeySpec{}, false
}

// holdRelease cancels the hold for a released key. Releasing before the
// threshold removes the entry with no match; releasing after completion
// retires the frozen entry. Modifier state at release is deliberately not
// consulted: the press qualified the hold, the release always clears it.
// Caller holds the lock.
func (m *Matcher) holdRelease(ev key.Event) {
	for id, hs := range m.holds {
		def, ok := m.defs[id]
		if !ok {
			m.dropHold(id)
			continue
		}
		if !keysEqual(ev.Key, hs.progress.Key, def.CaseSensitive) {
			continue
		}
		m.dropHold(id)
	}
}

// completeHold fires when a hold timer expires. If the key is still down
// the hold matches and its progress freezes at 100%.
func (m *Matcher) completeHold(id string) {
	m.mu.Lock()

	hs, ok := m.holds[id]
	def, defOK := m.defs[id]
	if !ok || !defOK {
		m.mu.Unlock()
		return
	}

	if _, name := m.heldEntry(hs.progress.Key, def.CaseSensitive); name == "" {
		// Raced with a release; the release path owns cleanup.
		m.mu.Unlock()
		return
	}

	hs.progress.Complete = true
	hs.progress.Progress = 1
	hs.progress.Elapsed = hs.progress.MinHoldTime
	hs.progress.Remaining = 0
	hs.timer = nil

	match := m.newMatch(def, []string{hs.progress.Key}, m.sched.Now(), hs.progress.MinHoldTime)
	m.remember(match)
	m.mu.Unlock()

	m.notify(match)
}

// dropHold cancels a hold's timer and removes its entry, stopping the
// progress tracker when no holds remain. Caller holds the lock.
func (m *Matcher) dropHold(id string) {
	hs, ok := m.holds[id]
	if !ok {
		return
	}
	if hs.timer != nil {
		hs.timer.Stop()
	}
	delete(m.holds, id)
	if len(m.holds) == 0 {
		m.stopTracker()
	}
}

// ActiveHolds returns a snapshot of in-flight hold progress keyed by
// pattern ID.
func (m *Matcher) ActiveHolds() map[string]HoldProgress {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]HoldProgress, len(m.holds))
	for id, hs := range m.holds {
		out[id] = hs.progress
	}
	return out
}

// startTracker begins the periodic progress refinement. It runs only
// while at least one hold is active. Caller holds the lock.
func (m *Matcher) startTracker() {
	if m.tracker != nil {
		return
	}
	m.tracker = m.sched.TickFunc(m.cfg.ProgressInterval, m.refreshHolds)
}

// stopTracker halts the periodic refinement. Caller holds the lock.
func (m *Matcher) stopTracker() {
	if m.tracker == nil {
		return
	}
	m.tracker.Stop()
	m.tracker = nil
}

// refreshHolds recomputes advisory progress for every non-complete hold.
// Actual match emission is driven by the per-hold timer; this loop only
// refines the numbers for display.
func (m *Matcher) refreshHolds() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.sched.Now()
	for _, hs := range m.holds {
		p := &hs.progress
		if p.Complete {
			continue
		}
		p.Elapsed = now.Sub(p.StartTime)
		if p.Elapsed < 0 {
			p.Elapsed = 0
		}
		ratio := float64(p.Elapsed) / float64(p.MinHoldTime)
		if ratio > 1 {
			ratio = 1
		}
		p.Progress = ratio
		p.Remaining = p.MinHoldTime - p.Elapsed
		if p.Remaining < 0 {
			p.Remaining = 0
		}
		if p.Progress >= 1 {
			p.Complete = true
		}
	}
}
