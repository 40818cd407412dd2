package key

// Canonical names for the modifier and special keys this package emits.
const (
	KeyShift      = "Shift"
	KeyControl    = "Control"
	KeyAlt        = "Alt"
	KeyMeta       = "Meta"
	KeyCapsLock   = "CapsLock"
	KeyNumLock    = "NumLock"
	KeyScrollLock = "ScrollLock"
	KeySpace      = "Space"
	KeyEscape     = "Escape"
	KeyEnter      = "Enter"
	KeyTab        = "Tab"
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyBackspace  = "Backspace"
	KeyDelete     = "Delete"
	KeyInsert     = "Insert"
	KeyHome       = "Home"
	KeyEnd        = "End"
	KeyPageUp     = "PageUp"
	KeyPageDown   = "PageDown"
)

// shiftedSymbols maps shifted US-layout symbols to their base characters.
// Covers the digit row and the common punctuation pairs.
var shiftedSymbols = map[string]string{
	"!": "1",
	"@": "2",
	"#": "3",
	"$": "4",
	"%": "5",
	"^": "6",
	"&": "7",
	"*": "8",
	"(": "9",
	")": "0",
	"_": "-",
	"+": "=",
	"{": "[",
	"}": "]",
	"|": "\\",
	":": ";",
	"\"": "'",
	"<": ",",
	">": ".",
	"?": "/",
	"~": "`",
}

// legacyAliases maps legacy or vendor key labels to canonical names.
var legacyAliases = map[string]string{
	" ":      KeySpace,
	"Esc":    KeyEscape,
	"Ctrl":   KeyControl,
	"Cmd":    KeyMeta,
	"Win":    KeyMeta,
	"Super":  KeyMeta,
	"Return": KeyEnter,
	"Up":     KeyArrowUp,
	"Down":   KeyArrowDown,
	"Left":   KeyArrowLeft,
	"Right":  KeyArrowRight,
}

// modifierKeys holds the canonical names of the modifier keys.
var modifierKeys = map[string]bool{
	KeyShift:      true,
	KeyControl:    true,
	KeyAlt:        true,
	KeyMeta:       true,
	KeyCapsLock:   true,
	KeyNumLock:    true,
	KeyScrollLock: true,
}

// IsModifierKey returns true if the canonical key is itself a modifier.
func IsModifierKey(key string) bool {
	return modifierKeys[key]
}

// ShiftedBase returns the base character for a shifted symbol, or the
// input unchanged when the symbol has no base mapping.
func ShiftedBase(key string) string {
	if base, ok := shiftedSymbols[key]; ok {
		return base
	}
	return key
}
