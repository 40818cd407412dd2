package quirk

import (
	"testing"
	"time"

	"github.com/dshills/keypulse/internal/key"
)

func TestValidate(t *testing.T) {
	now := time.Unix(0, 0)

	tests := []struct {
		name            string
		raw             key.RawEvent
		wantValid       bool
		wantCorrections int
		wantWarnings    int
	}{
		{
			name:      "clean press",
			raw:       key.RawEvent{Key: "a", Code: "KeyA", Timestamp: now, Kind: key.KeyDown},
			wantValid: true,
		},
		{
			name:            "empty key label",
			raw:             key.RawEvent{Code: "KeyA", Timestamp: now, Kind: key.KeyDown},
			wantValid:       false,
			wantCorrections: 1,
		},
		{
			name:         "repeat on release",
			raw:          key.RawEvent{Key: "a", Code: "KeyA", Repeat: true, Timestamp: now, Kind: key.KeyUp},
			wantValid:    false,
			wantWarnings: 1,
		},
		{
			name:         "numpad code without location flag",
			raw:          key.RawEvent{Key: "1", Code: "Numpad1", Timestamp: now, Kind: key.KeyDown},
			wantValid:    true,
			wantWarnings: 1,
		},
		{
			name:      "numpad code with location flag",
			raw:       key.RawEvent{Key: "1", Code: "Numpad1", NumpadLocation: true, Timestamp: now, Kind: key.KeyDown},
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Validate(tt.raw)
			if v.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", v.Valid, tt.wantValid)
			}
			if len(v.Corrections) != tt.wantCorrections {
				t.Errorf("Corrections = %v, want %d", v.Corrections, tt.wantCorrections)
			}
			if len(v.Warnings) != tt.wantWarnings {
				t.Errorf("Warnings = %v, want %d", v.Warnings, tt.wantWarnings)
			}
		})
	}
}

func TestPlatformParsing(t *testing.T) {
	tests := []struct {
		in   string
		want Platform
	}{
		{"windows", PlatformWindows},
		{"darwin", PlatformMacOS},
		{"macos", PlatformMacOS},
		{"linux", PlatformLinux},
		{"plan9", PlatformUnknown},
	}

	for _, tt := range tests {
		if got := ParsePlatform(tt.in); got != tt.want {
			t.Errorf("ParsePlatform(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
