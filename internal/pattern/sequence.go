package pattern

import (
	"time"

	"github.com/dshills/keypulse/internal/key"
)

// sequencePress appends a qualifying press to the rolling buffer and
// checks every sequence definition against the trailing window.
// Caller holds the lock.
func (m *Matcher) sequencePress(ev key.Event) []Match {
	// A stale buffer resets before the new key is processed. Staleness
	// is the gap since the previous key, not the age of the whole run:
	// entries may outlive the default timeout when every gap stays
	// fresh, because a definition with a longer Timeout can still
	// consume them. matchSequence enforces each definition's own window
	// over the presses it actually matches.
	if len(m.seq) > 0 && ev.Timestamp.Sub(m.lastKeyTime) > m.cfg.SequenceTimeout {
		m.clearSequence()
	}

	if len(m.seq) == 0 {
		m.seqStart = ev.Timestamp
	}
	m.seq = append(m.seq, seqEntry{key: ev.Key, mods: ev.Modifiers, at: ev.Timestamp})
	if len(m.seq) > m.maxSeqLen {
		m.seq = m.seq[len(m.seq)-m.maxSeqLen:]
	}
	m.lastKeyTime = ev.Timestamp

	var matches []Match
	reset := false
	for _, id := range m.order {
		def := m.defs[id]
		if def.Type != TypeSequence {
			continue
		}
		if match, ok := m.matchSequence(def, ev.Timestamp); ok {
			matches = append(matches, match)
			if def.resetAfterMatch() {
				reset = true
			}
		}
	}

	// Clearing after a match prevents double-counting on overlapping
	// presses.
	if reset {
		m.clearSequence()
	}
	return matches
}

// matchSequence compares the trailing buffer window against a sequence
// definition. With AllowOtherKeys, non-matching interstitial keys are
// skipped instead of invalidating the match. Caller holds the lock.
func (m *Matcher) matchSequence(def *Definition, now time.Time) (Match, bool) {
	want := def.Keys
	if len(m.seq) < len(want) {
		return Match{}, false
	}

	// Walk backwards from the newest entry, consuming spec keys from the
	// end. The final spec key must be the newest press.
	si := len(want) - 1
	first := -1
	for bi := len(m.seq) - 1; bi >= 0 && si >= 0; bi-- {
		entry := m.seq[bi]
		if keysEqual(entry.key, want[si].Key, def.CaseSensitive) &&
			modsSatisfy(entry.mods, want[si].Modifiers) {
			first = bi
			si--
			continue
		}
		if !def.AllowOtherKeys || si == len(want)-1 {
			// Without tolerance any mismatch breaks the run; the trailing
			// key must always match.
			return Match{}, false
		}
	}
	if si >= 0 {
		return Match{}, false
	}

	// The matched window must fit inside the pattern's timeout.
	timeout := def.Timeout
	if timeout <= 0 {
		timeout = m.cfg.SequenceTimeout
	}
	elapsed := now.Sub(m.seq[first].at)
	if elapsed > timeout {
		return Match{}, false
	}

	return m.newMatch(def, def.keyNames(), now, elapsed), true
}

// clearSequence empties the rolling buffer. Caller holds the lock.
func (m *Matcher) clearSequence() {
	m.seq = m.seq[:0]
	m.seqStart = time.Time{}
}
