package quirk

import (
	"strings"

	"github.com/dshills/keypulse/internal/key"
)

// Validation is the outcome of a stateless per-event consistency check.
type Validation struct {
	// Valid is false when any correction or hard warning applies.
	Valid bool

	// Corrections name defects the pipeline repairs before forwarding.
	Corrections []string

	// Warnings name oddities observed on the event.
	Warnings []string
}

// Validate checks a raw host event for internal consistency.
//
// An empty key label is a correction (invalid). A release flagged as
// auto-repeat is a warning (invalid; releases do not auto-repeat). A
// numpad-coded event lacking the numpad location flag is a non-fatal
// warning only.
func Validate(raw key.RawEvent) Validation {
	v := Validation{Valid: true}

	if raw.Key == "" {
		v.Valid = false
		v.Corrections = append(v.Corrections, "empty key label")
	}

	if raw.Kind == key.KeyUp && raw.Repeat {
		v.Valid = false
		v.Warnings = append(v.Warnings, "release flagged as auto-repeat")
	}

	if strings.HasPrefix(raw.Code, "Numpad") && !raw.NumpadLocation {
		v.Warnings = append(v.Warnings, "numpad code without numpad location flag")
	}

	return v
}
