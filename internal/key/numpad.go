package key

import "strings"

// NumpadMode identifies which value a numeric-pad key produces.
type NumpadMode int

const (
	// NumpadDigit means NumLock is on and the key produces a digit or operator.
	NumpadDigit NumpadMode = iota

	// NumpadNavigation means NumLock is off and the key produces a
	// navigation action (arrows, Home, End, and so on).
	NumpadNavigation
)

// String returns "digit" or "navigation".
func (m NumpadMode) String() string {
	if m == NumpadNavigation {
		return "navigation"
	}
	return "digit"
}

// NumpadInfo describes a numeric-pad key in both modes.
type NumpadInfo struct {
	// Digit is the value produced with NumLock on.
	Digit string

	// Navigation is the value produced with NumLock off, or "" when the
	// key has no navigation mapping.
	Navigation string

	// Mode is the mode selected by the reported NumLock state.
	Mode NumpadMode

	// NumLock is the reported NumLock state itself.
	NumLock bool
}

// Active returns the value chosen by the active mode. Keys with no
// navigation mapping fall back to the digit table.
func (i NumpadInfo) Active() string {
	if i.Mode == NumpadNavigation && i.Navigation != "" {
		return i.Navigation
	}
	return i.Digit
}

// numpadDigits maps numeric-pad codes to their NumLock-on values.
var numpadDigits = map[string]string{
	"Numpad0":        "0",
	"Numpad1":        "1",
	"Numpad2":        "2",
	"Numpad3":        "3",
	"Numpad4":        "4",
	"Numpad5":        "5",
	"Numpad6":        "6",
	"Numpad7":        "7",
	"Numpad8":        "8",
	"Numpad9":        "9",
	"NumpadAdd":      "+",
	"NumpadSubtract": "-",
	"NumpadMultiply": "*",
	"NumpadDivide":   "/",
	"NumpadDecimal":  ".",
	"NumpadEqual":    "=",
	"NumpadComma":    ",",
	"NumpadEnter":    KeyEnter,
}

// numpadNavigation maps numeric-pad codes to their NumLock-off values.
// Operator keys have no navigation mapping and fall back to the digit table.
var numpadNavigation = map[string]string{
	"Numpad0":       "Insert",
	"Numpad1":       "End",
	"Numpad2":       KeyArrowDown,
	"Numpad3":       "PageDown",
	"Numpad4":       KeyArrowLeft,
	"Numpad5":       "Clear",
	"Numpad6":       KeyArrowRight,
	"Numpad7":       "Home",
	"Numpad8":       KeyArrowUp,
	"Numpad9":       "PageUp",
	"NumpadDecimal": "Delete",
}

// IsNumpad reports whether the raw event originates from the numeric pad,
// either by code prefix or by the host's location flag.
func IsNumpad(raw RawEvent) bool {
	return strings.HasPrefix(raw.Code, "Numpad") || raw.NumpadLocation
}

// NumpadInfoOf resolves the digit and navigation values for a numeric-pad
// event and selects the active mode from the reported NumLock state.
// Events without a table entry fall back to the raw key label.
func NumpadInfoOf(raw RawEvent) NumpadInfo {
	info := NumpadInfo{NumLock: raw.Modifiers.HasNumLock()}
	if !info.NumLock {
		info.Mode = NumpadNavigation
	}

	if digit, ok := numpadDigits[raw.Code]; ok {
		info.Digit = digit
	} else {
		info.Digit = raw.Key
	}
	info.Navigation = numpadNavigation[raw.Code]
	return info
}
