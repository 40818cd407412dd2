package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Combo parse errors.
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// Combo is a parsed key-plus-modifiers specification, used by the
// prevent-default policy list.
type Combo struct {
	// Key is the canonical key.
	Key string

	// Modifiers are the required chording modifiers.
	Modifiers Modifier
}

// ParseCombo parses a specification like "Ctrl+S", "Meta+Shift+P", or a
// bare key name ("Escape", "a") into a Combo. The key part is normalized
// to its canonical form.
func ParseCombo(spec string) (Combo, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Combo{}, ErrEmptySpec
	}

	parts := strings.Split(spec, "+")
	var mods Modifier

	// All but the last part are modifiers.
	for _, p := range parts[:len(parts)-1] {
		mod := ModifierFromName(p)
		if mod == ModNone {
			return Combo{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
		mods = mods.With(mod)
	}

	keyPart := strings.TrimSpace(parts[len(parts)-1])
	if keyPart == "" {
		return Combo{}, ErrInvalidSpec
	}

	return Combo{Key: canonicalSpecKey(keyPart), Modifiers: mods.Chorded()}, nil
}

// Matches reports whether an event triggers this combo. Lock-state
// modifiers are ignored; the chording modifiers must match exactly.
func (c Combo) Matches(ev Event) bool {
	return strings.EqualFold(ev.Key, c.Key) && ev.Modifiers.Chorded() == c.Modifiers
}

// String returns the canonical spec form, such as "Ctrl+s".
func (c Combo) String() string {
	if c.Modifiers == ModNone {
		return c.Key
	}
	return c.Modifiers.String() + "+" + c.Key
}

// canonicalSpecKey normalizes the key part of a combo spec.
func canonicalSpecKey(keyPart string) string {
	if alias, ok := legacyAliases[keyPart]; ok {
		return alias
	}
	if r := singleRune(keyPart); r != 0 {
		return string(unicode.ToLower(r))
	}
	return keyPart
}

// MustParseCombo parses a combo spec and panics on error.
// Use only for known-valid specs in initialization code.
func MustParseCombo(spec string) Combo {
	c, err := ParseCombo(spec)
	if err != nil {
		panic("invalid key specification: " + spec + ": " + err.Error())
	}
	return c
}

// ParseCombos parses a list of combo specs, collecting the first error.
func ParseCombos(specs []string) ([]Combo, error) {
	combos := make([]Combo, 0, len(specs))
	for _, s := range specs {
		c, err := ParseCombo(s)
		if err != nil {
			return nil, fmt.Errorf("parsing combo %q: %w", s, err)
		}
		combos = append(combos, c)
	}
	return combos, nil
}
