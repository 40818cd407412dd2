package key

import (
	"errors"
	"testing"
	"time"
)

func TestParseCombo(t *testing.T) {
	tests := []struct {
		spec     string
		wantKey  string
		wantMods Modifier
	}{
		{"a", "a", ModNone},
		{"S", "s", ModNone},
		{"Escape", "Escape", ModNone},
		{"Ctrl+S", "s", ModCtrl},
		{"Meta+Shift+P", "p", ModMeta | ModShift},
		{"Alt+ArrowLeft", "ArrowLeft", ModAlt},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			c, err := ParseCombo(tt.spec)
			if err != nil {
				t.Fatalf("ParseCombo(%q) error: %v", tt.spec, err)
			}
			if c.Key != tt.wantKey {
				t.Errorf("Key = %q, want %q", c.Key, tt.wantKey)
			}
			if c.Modifiers != tt.wantMods {
				t.Errorf("Modifiers = %s, want %s", c.Modifiers, tt.wantMods)
			}
		})
	}
}

func TestParseComboErrors(t *testing.T) {
	if _, err := ParseCombo(""); !errors.Is(err, ErrEmptySpec) {
		t.Errorf("empty spec error = %v, want ErrEmptySpec", err)
	}
	if _, err := ParseCombo("Bogus+x"); !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("unknown modifier error = %v, want ErrInvalidSpec", err)
	}
}

func TestComboMatches(t *testing.T) {
	c := MustParseCombo("Ctrl+S")

	ev := Event{Key: "s", Modifiers: ModCtrl, Kind: KeyDown, Timestamp: time.Unix(0, 0)}
	if !c.Matches(ev) {
		t.Error("Ctrl+s should match Ctrl+S combo")
	}

	// Lock states are ignored.
	ev.Modifiers = ModCtrl | ModNumLock
	if !c.Matches(ev) {
		t.Error("NumLock must not defeat a combo match")
	}

	// Extra chording modifiers defeat the match.
	ev.Modifiers = ModCtrl | ModShift
	if c.Matches(ev) {
		t.Error("Ctrl+Shift+s should not match Ctrl+S combo")
	}
}

func TestParseCombos(t *testing.T) {
	combos, err := ParseCombos([]string{"Ctrl+S", "Meta+K"})
	if err != nil {
		t.Fatalf("ParseCombos error: %v", err)
	}
	if len(combos) != 2 {
		t.Fatalf("len = %d, want 2", len(combos))
	}

	if _, err := ParseCombos([]string{"Ctrl+S", "Nope+x"}); err == nil {
		t.Error("ParseCombos should surface the parse error")
	}
}
