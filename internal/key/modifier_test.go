package key

import "testing"

func TestNewModifiers(t *testing.T) {
	m := NewModifiers(true, false, true, false, false, true, false)
	if !m.HasShift() || !m.HasAlt() || !m.HasNumLock() {
		t.Errorf("NewModifiers missing expected flags: %s", m)
	}
	if m.HasCtrl() || m.HasMeta() {
		t.Errorf("NewModifiers has unexpected flags: %s", m)
	}
}

func TestModifierWithWithout(t *testing.T) {
	m := ModNone.With(ModCtrl).With(ModShift)
	if !m.HasCtrl() || !m.HasShift() {
		t.Error("With should add modifiers")
	}

	m = m.Without(ModCtrl)
	if m.HasCtrl() {
		t.Error("Without should remove the modifier")
	}
	if !m.HasShift() {
		t.Error("Without should not disturb other modifiers")
	}
}

func TestModifierChorded(t *testing.T) {
	m := ModCtrl | ModNumLock | ModCapsLock
	if got := m.Chorded(); got != ModCtrl {
		t.Errorf("Chorded() = %s, want Ctrl only", got)
	}
}

func TestModifierString(t *testing.T) {
	tests := []struct {
		m    Modifier
		want string
	}{
		{ModNone, ""},
		{ModCtrl, "Ctrl"},
		{ModCtrl | ModShift, "Ctrl+Shift"},
		{ModMeta | ModNumLock, "Meta+NumLock"},
	}

	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("Modifier.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestModifierFromName(t *testing.T) {
	tests := []struct {
		name string
		want Modifier
	}{
		{"ctrl", ModCtrl},
		{"Control", ModCtrl},
		{"cmd", ModMeta},
		{"super", ModMeta},
		{"option", ModAlt},
		{"numlock", ModNumLock},
		{"bogus", ModNone},
	}

	for _, tt := range tests {
		if got := ModifierFromName(tt.name); got != tt.want {
			t.Errorf("ModifierFromName(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}
