package key

import "unicode"

// NormalizeKey resolves a raw event to its canonical key identifier.
//
// Resolution order:
//  1. numeric-pad keys resolve through the digit or navigation table
//     depending on the reported NumLock state
//  2. shifted symbols resolve to their base character
//  3. legacy aliases collapse to canonical names
//  4. single uppercase ASCII letters fold to lowercase
//  5. everything else passes through unchanged
func NormalizeKey(raw RawEvent) string {
	if IsNumpad(raw) {
		return NumpadInfoOf(raw).Active()
	}

	key := raw.Key
	if base, ok := shiftedSymbols[key]; ok {
		return base
	}
	if alias, ok := legacyAliases[key]; ok {
		return alias
	}
	if r := singleRune(key); r != 0 && r >= 'A' && r <= 'Z' {
		return string(unicode.ToLower(r))
	}
	return key
}

// NormalizeCode returns the canonical physical key code. The hardware code
// wins when present; otherwise a code is synthesized from the key label.
func NormalizeCode(raw RawEvent) string {
	if raw.Code != "" {
		return raw.Code
	}

	r := singleRune(raw.Key)
	switch {
	case r >= 'a' && r <= 'z':
		return "Key" + string(unicode.ToUpper(r))
	case r >= 'A' && r <= 'Z':
		return "Key" + string(r)
	case r >= '0' && r <= '9':
		return "Digit" + string(r)
	}
	return raw.Key
}

// singleRune returns the sole rune of a one-rune string, or 0.
func singleRune(s string) rune {
	runes := []rune(s)
	if len(runes) != 1 {
		return 0
	}
	return runes[0]
}
