package key

import (
	"fmt"
	"time"
)

// Kind identifies the direction of a key transition.
type Kind int

const (
	// KeyDown is a press.
	KeyDown Kind = iota

	// KeyUp is a release.
	KeyUp
)

// String returns "down" or "up".
func (k Kind) String() string {
	if k == KeyUp {
		return "up"
	}
	return "down"
}

// RawEvent is a key transition as delivered by the host adapter,
// before any normalization.
type RawEvent struct {
	// Key is the logical key label reported by the host.
	Key string

	// Code is the physical key code, such as "KeyA" or "Numpad1".
	Code string

	// Modifiers holds the seven host modifier flags.
	Modifiers Modifier

	// Repeat is true for auto-repeat transitions.
	Repeat bool

	// NumpadLocation is true when the host locates the key on the
	// numeric pad.
	NumpadLocation bool

	// Timestamp is the host's monotonic event time.
	Timestamp time.Time

	// Kind is press or release.
	Kind Kind
}

// Event is a normalized key event, the unit the quirk filter and pattern
// matcher operate on.
type Event struct {
	// Key is the canonical key identifier.
	Key string

	// OrigKey preserves the raw key label before normalization.
	OrigKey string

	// Code is the canonical physical key code.
	Code string

	// Kind is press or release.
	Kind Kind

	// Modifiers is the modifier snapshot at event time.
	Modifiers Modifier

	// IsModifier is true when the key itself is a modifier.
	IsModifier bool

	// Numpad carries numeric-pad resolution details, or nil for
	// non-numpad keys.
	Numpad *NumpadInfo

	// Repeat is true for auto-repeat transitions.
	Repeat bool

	// Timestamp is the host's monotonic event time.
	Timestamp time.Time

	// Duration is how long the key was held. Set on release only.
	Duration time.Duration

	// IsTap is true for a release quicker than the tap/hold threshold.
	// Set on release only.
	IsTap bool

	// IsHold is true for a release at or beyond the tap/hold threshold.
	// Set on release only.
	IsHold bool

	// PreventedDefault is true when the configured policy asked the host
	// to swallow the default action for this event.
	PreventedDefault bool

	// Replayed marks a buffered release emitted after its confirmation
	// window expired. The quirk filter never re-buffers a replayed event.
	Replayed bool
}

// Normalize converts a raw host event into a normalized Event.
func Normalize(raw RawEvent) Event {
	ev := Event{
		Key:       NormalizeKey(raw),
		OrigKey:   raw.Key,
		Code:      NormalizeCode(raw),
		Kind:      raw.Kind,
		Modifiers: raw.Modifiers,
		Repeat:    raw.Repeat,
		Timestamp: raw.Timestamp,
	}
	ev.IsModifier = IsModifierKey(ev.Key)
	if IsNumpad(raw) {
		info := NumpadInfoOf(raw)
		ev.Numpad = &info
	}
	return ev
}

// String returns a compact representation like "Ctrl+s (down)".
func (e Event) String() string {
	if mods := e.Modifiers.Chorded().String(); mods != "" && !e.IsModifier {
		return fmt.Sprintf("%s+%s (%s)", mods, e.Key, e.Kind)
	}
	return fmt.Sprintf("%s (%s)", e.Key, e.Kind)
}
