package key

import "strings"

// Modifier represents keyboard modifier state as a bitmask.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift indicates the Shift key.
	ModShift Modifier = 1 << iota

	// ModCtrl indicates the Control key.
	ModCtrl

	// ModAlt indicates the Alt key (Option on macOS).
	ModAlt

	// ModMeta indicates the Meta key (Cmd on macOS, Win on Windows).
	ModMeta

	// ModCapsLock indicates CapsLock is engaged.
	ModCapsLock

	// ModNumLock indicates NumLock is engaged.
	ModNumLock

	// ModScrollLock indicates ScrollLock is engaged.
	ModScrollLock
)

// ModLocks is the mask of the three lock-state modifiers.
const ModLocks = ModCapsLock | ModNumLock | ModScrollLock

// NewModifiers builds a Modifier from individual host flags.
func NewModifiers(shift, ctrl, alt, meta, capsLock, numLock, scrollLock bool) Modifier {
	var m Modifier
	if shift {
		m |= ModShift
	}
	if ctrl {
		m |= ModCtrl
	}
	if alt {
		m |= ModAlt
	}
	if meta {
		m |= ModMeta
	}
	if capsLock {
		m |= ModCapsLock
	}
	if numLock {
		m |= ModNumLock
	}
	if scrollLock {
		m |= ModScrollLock
	}
	return m
}

// Has returns true if m contains the specified modifier.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// HasShift returns true if Shift is pressed.
func (m Modifier) HasShift() bool {
	return m.Has(ModShift)
}

// HasCtrl returns true if Control is pressed.
func (m Modifier) HasCtrl() bool {
	return m.Has(ModCtrl)
}

// HasAlt returns true if Alt is pressed.
func (m Modifier) HasAlt() bool {
	return m.Has(ModAlt)
}

// HasMeta returns true if Meta is pressed.
func (m Modifier) HasMeta() bool {
	return m.Has(ModMeta)
}

// HasNumLock returns true if NumLock is engaged.
func (m Modifier) HasNumLock() bool {
	return m.Has(ModNumLock)
}

// With returns a new Modifier with the specified modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new Modifier with the specified modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// IsEmpty returns true if no modifiers are set.
func (m Modifier) IsEmpty() bool {
	return m == ModNone
}

// Chorded returns only the chording modifiers, with lock states stripped.
// Pattern matching compares chording state; lock keys are layout state,
// not something a user holds as part of a combination.
func (m Modifier) Chorded() Modifier {
	return m &^ ModLocks
}

// String returns a human-readable representation like "Ctrl+Shift".
func (m Modifier) String() string {
	if m == ModNone {
		return ""
	}

	var parts []string
	if m.HasCtrl() {
		parts = append(parts, "Ctrl")
	}
	if m.HasAlt() {
		parts = append(parts, "Alt")
	}
	if m.HasShift() {
		parts = append(parts, "Shift")
	}
	if m.HasMeta() {
		parts = append(parts, "Meta")
	}
	if m.Has(ModCapsLock) {
		parts = append(parts, "CapsLock")
	}
	if m.Has(ModNumLock) {
		parts = append(parts, "NumLock")
	}
	if m.Has(ModScrollLock) {
		parts = append(parts, "ScrollLock")
	}
	return strings.Join(parts, "+")
}

// modifierNameMap maps modifier names (lowercase) to Modifier values.
var modifierNameMap = map[string]Modifier{
	"ctrl":       ModCtrl,
	"control":    ModCtrl,
	"c":          ModCtrl,
	"alt":        ModAlt,
	"a":          ModAlt,
	"option":     ModAlt,
	"opt":        ModAlt,
	"shift":      ModShift,
	"s":          ModShift,
	"meta":       ModMeta,
	"m":          ModMeta,
	"cmd":        ModMeta,
	"command":    ModMeta,
	"win":        ModMeta,
	"super":      ModMeta,
	"capslock":   ModCapsLock,
	"numlock":    ModNumLock,
	"scrolllock": ModScrollLock,
}

// ModifierFromName returns the Modifier for a given name (case-insensitive).
// Returns ModNone if the name is not recognized.
func ModifierFromName(name string) Modifier {
	if m, ok := modifierNameMap[strings.ToLower(strings.TrimSpace(name))]; ok {
		return m
	}
	return ModNone
}
