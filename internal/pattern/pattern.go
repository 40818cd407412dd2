package pattern

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/keypulse/internal/key"
)

// Type identifies the matching discipline for a pattern.
type Type int

const (
	// TypeSequence requires keys in order, optionally within a timeout.
	TypeSequence Type = iota

	// TypeChord requires all keys simultaneously down within a window.
	TypeChord

	// TypeHold requires one key held continuously for a minimum duration.
	TypeHold
)

// String returns "sequence", "chord", or "hold".
func (t Type) String() string {
	switch t {
	case TypeChord:
		return "chord"
	case TypeHold:
		return "hold"
	default:
		return "sequence"
	}
}

// ParseType maps a type name to a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "sequence":
		return TypeSequence, nil
	case "chord":
		return TypeChord, nil
	case "hold":
		return TypeHold, nil
	default:
		return TypeSequence, fmt.Errorf("unknown pattern type %q", s)
	}
}

// KeySpec is one key requirement within a pattern.
type KeySpec struct {
	// Key is the canonical key to match.
	Key string

	// Modifiers, when non-zero, are required at the key's press. Chords
	// demand an exact chording-modifier match; sequences and holds treat
	// them as a required subset.
	Modifiers key.Modifier

	// MinHoldTime overrides the hold threshold for this key. Hold
	// patterns only.
	MinHoldTime time.Duration
}

// Definition is a caller-owned pattern configuration.
type Definition struct {
	// ID uniquely identifies the pattern.
	ID string

	// Name is an optional display name.
	Name string

	// Type selects the matching discipline.
	Type Type

	// Keys are the required keys, ordered for sequences.
	Keys []KeySpec

	// Timeout bounds the whole pattern: the sequence window, or the
	// chord accumulation window. Zero selects the matcher default.
	Timeout time.Duration

	// CaseSensitive compares keys without case folding.
	CaseSensitive bool

	// AllowOtherKeys tolerates interleaved non-matching keys in a
	// sequence instead of invalidating the match.
	AllowOtherKeys bool

	// ResetOnMismatch controls whether a completed match clears the
	// sequence buffer. Nil means true; only an explicit false keeps the
	// buffer for overlapping matches.
	ResetOnMismatch *bool

	// HoldThreshold overrides the matcher's default minimum hold time.
	// Hold patterns only.
	HoldThreshold time.Duration
}

// Definition validation errors.
var (
	ErrEmptyID    = errors.New("pattern id must not be empty")
	ErrNoKeys     = errors.New("pattern requires at least one key")
	ErrChordKeys  = errors.New("chord pattern requires at least two keys")
	ErrDuplicated = errors.New("pattern id already registered")
	ErrNotFound   = errors.New("pattern not found")
)

// Validate checks a definition for structural problems.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return ErrEmptyID
	}
	if len(d.Keys) == 0 {
		return fmt.Errorf("pattern %q: %w", d.ID, ErrNoKeys)
	}
	if d.Type == TypeChord && len(d.Keys) < 2 {
		return fmt.Errorf("pattern %q: %w", d.ID, ErrChordKeys)
	}
	for _, ks := range d.Keys {
		if ks.Key == "" {
			return fmt.Errorf("pattern %q: %w", d.ID, ErrNoKeys)
		}
	}
	return nil
}

// resetAfterMatch reports whether a completed sequence match clears the
// runtime buffer. True unless ResetOnMismatch is explicitly false.
func (d *Definition) resetAfterMatch() bool {
	return d.ResetOnMismatch == nil || *d.ResetOnMismatch
}

// keyNames returns the plain key names of the definition, for match reports.
func (d *Definition) keyNames() []string {
	names := make([]string, len(d.Keys))
	for i, ks := range d.Keys {
		names[i] = ks.Key
	}
	return names
}

// Match reports one detected pattern occurrence.
type Match struct {
	// ID uniquely identifies this occurrence.
	ID string

	// PatternID names the matched definition.
	PatternID string

	// Type is the matched pattern's type.
	Type Type

	// Keys are the keys that satisfied the pattern.
	Keys []string

	// MatchedAt is when the match completed.
	MatchedAt time.Time

	// Duration spans from the first contributing press to completion.
	Duration time.Duration
}

// HoldProgress is the advisory completion state of an in-flight hold.
type HoldProgress struct {
	// PatternID names the hold definition.
	PatternID string

	// Key is the held key.
	Key string

	// StartTime is the qualifying press time.
	StartTime time.Time

	// MinHoldTime is the required hold duration.
	MinHoldTime time.Duration

	// Progress is completion in [0, 1].
	Progress float64

	// Elapsed is time held so far.
	Elapsed time.Duration

	// Remaining is time left until completion, zero once reached.
	Remaining time.Duration

	// Complete is true once the hold matched; progress freezes at 1.
	Complete bool
}
