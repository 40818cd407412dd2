package pattern

import (
	"time"

	"github.com/dshills/keypulse/internal/key"
)

// chordPress accumulates a press into the chord candidate and confirms
// any chord whose keys are all simultaneously down within the window.
// Caller holds the lock.
func (m *Matcher) chordPress(ev key.Event) []Match {
	if len(m.potential) == 0 || ev.Timestamp.Sub(m.chordStart) > m.cfg.ChordWindow {
		// Window expired: start a fresh candidate at this press.
		m.potential = make(map[string]chordKey)
		m.chordStart = ev.Timestamp
	}
	m.potential[ev.Key] = chordKey{mods: ev.Modifiers, at: ev.Timestamp}

	var matches []Match
	for _, id := range m.order {
		def := m.defs[id]
		if def.Type != TypeChord || m.chordMatched[id] {
			continue
		}
		if m.chordSatisfied(def, ev.Timestamp) {
			m.chordMatched[id] = true
			matches = append(matches, m.newMatch(def, def.keyNames(), ev.Timestamp,
				ev.Timestamp.Sub(m.chordStart)))
		}
	}
	return matches
}

// chordSatisfied reports whether every required key is simultaneously
// down within the chord window with exactly the required modifiers.
// A modifier mismatch on any key aborts the candidate with no partial
// credit. Caller holds the lock.
func (m *Matcher) chordSatisfied(def *Definition, now time.Time) bool {
	window := def.Timeout
	if window <= 0 {
		window = m.cfg.ChordWindow
	}

	for _, ks := range def.Keys {
		down, name := m.heldEntry(ks.Key, def.CaseSensitive)
		if name == "" {
			return false
		}
		if now.Sub(down.at) > window {
			return false
		}
		// Chords require the modifier snapshot at the key's press to
		// exactly equal the requirement when one is specified.
		if ks.Modifiers != key.ModNone && down.mods.Chorded() != ks.Modifiers.Chorded() {
			return false
		}
	}
	return true
}

// heldEntry finds a held key by name, honoring case sensitivity.
// Caller holds the lock.
func (m *Matcher) heldEntry(name string, caseSensitive bool) (chordKey, string) {
	if entry, ok := m.held[name]; ok {
		return entry, name
	}
	if caseSensitive {
		return chordKey{}, ""
	}
	for k, entry := range m.held {
		if keysEqual(k, name, false) {
			return entry, k
		}
	}
	return chordKey{}, ""
}

// chordRelease clears the candidate entry for a released key and re-arms
// reporting for any chord the key belongs to. Caller holds the lock.
func (m *Matcher) chordRelease(ev key.Event) {
	delete(m.potential, ev.Key)

	for id, matched := range m.chordMatched {
		if !matched {
			continue
		}
		def, ok := m.defs[id]
		if !ok {
			continue
		}
		for _, ks := range def.Keys {
			if keysEqual(ev.Key, ks.Key, def.CaseSensitive) {
				delete(m.chordMatched, id)
				break
			}
		}
	}
}
