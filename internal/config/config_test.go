package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keypulse/internal/engine"
	"github.com/dshills/keypulse/internal/key"
	"github.com/dshills/keypulse/internal/logging"
	"github.com/dshills/keypulse/internal/pattern"
	"github.com/dshills/keypulse/internal/quirk"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullTOML(t *testing.T) {
	path := writeFile(t, "keypulse.toml", `
[engine]
enabled = true
debug_logging = true
tap_hold_threshold = "250ms"
prevent_mode = "list"
prevent_combos = ["Ctrl+s", "Meta+Shift+p"]
sequence_timeout = "2s"
hold_threshold = "750ms"
chord_window = "80ms"
platform = "windows"

[logging]
level = "debug"
format = "json"

[[patterns]]
id = "save"
type = "chord"
keys = ["Ctrl", "s"]

[[patterns]]
id = "hold-space"
type = "hold"
keys = ["Space"]
hold_threshold = "300ms"
`)

	res, err := LoadFile(path)
	require.NoError(t, err)

	assert.True(t, res.Engine.Enabled)
	assert.True(t, res.Engine.DebugLogging)
	assert.Equal(t, 250*time.Millisecond, res.Engine.TapHoldThreshold)
	assert.Equal(t, engine.PreventList, res.Engine.PreventMode)
	assert.Equal(t, []string{"Ctrl+s", "Meta+Shift+p"}, res.Engine.PreventCombos)
	assert.Equal(t, 2*time.Second, res.Engine.SequenceTimeout)
	assert.Equal(t, 750*time.Millisecond, res.Engine.HoldThreshold)
	assert.Equal(t, 80*time.Millisecond, res.Engine.ChordWindow)
	assert.Equal(t, quirk.PlatformWindows, res.Engine.Platform)
	assert.Equal(t, logging.LevelDebug, res.LogLevel)
	assert.Equal(t, logging.FormatJSON, res.LogFormat)

	require.Len(t, res.Engine.Patterns, 2)
	assert.Equal(t, pattern.TypeChord, res.Engine.Patterns[0].Type)
	assert.Equal(t, "Control", res.Engine.Patterns[0].Keys[0].Key)
	assert.Equal(t, 300*time.Millisecond, res.Engine.Patterns[1].HoldThreshold)
}

func TestLoadReader(t *testing.T) {
	res, err := LoadReader(strings.NewReader("[engine]\nchord_window = \"120ms\"\n"))
	require.NoError(t, err)
	assert.Equal(t, 120*time.Millisecond, res.Engine.ChordWindow)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	def := engine.DefaultConfig()
	assert.Equal(t, def.TapHoldThreshold, res.Engine.TapHoldThreshold)
	assert.Equal(t, def.SequenceTimeout, res.Engine.SequenceTimeout)
	assert.True(t, res.Engine.Enabled)
	assert.Equal(t, logging.LevelInfo, res.LogLevel)
}

func TestLoadUnknownKeysIgnored(t *testing.T) {
	path := writeFile(t, "keypulse.toml", `
[engine]
enabled = true
no_such_setting = "whatever"

[extra_section]
x = 1
`)
	_, err := LoadFile(path)
	assert.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"bad toml", `[engine` + "\n"},
		{"bad duration", "[engine]\ntap_hold_threshold = \"fast\"\n"},
		{"bad platform", "[engine]\nplatform = \"beos\"\n"},
		{"bad prevent mode", "[engine]\nprevent_mode = \"some\"\n"},
		{"bad log level", "[logging]\nlevel = \"loud\"\n"},
		{"bad pattern type", "[[patterns]]\nid = \"x\"\ntype = \"swipe\"\nkeys = [\"a\"]\n"},
		{"chord with one key", "[[patterns]]\nid = \"x\"\ntype = \"chord\"\nkeys = [\"a\"]\n"},
		{"bad combo key", "[[patterns]]\nid = \"x\"\ntype = \"sequence\"\nkeys = [\"Wat+a\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "keypulse.toml", tt.toml)
			_, err := LoadFile(path)
			assert.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeFile(t, "keypulse.toml", `
[engine]
enabled = true
tap_hold_threshold = "250ms"

[logging]
level = "info"
`)

	t.Setenv("KEYPULSE_ENABLED", "false")
	t.Setenv("KEYPULSE_TAP_HOLD_THRESHOLD", "100ms")
	t.Setenv("KEYPULSE_LOG_LEVEL", "error")
	t.Setenv("KEYPULSE_PLATFORM", "macos")

	res, err := LoadFile(path)
	require.NoError(t, err)

	assert.False(t, res.Engine.Enabled)
	assert.Equal(t, 100*time.Millisecond, res.Engine.TapHoldThreshold)
	assert.Equal(t, logging.LevelError, res.LogLevel)
	assert.Equal(t, quirk.PlatformMacOS, res.Engine.Platform)
}

func TestPatternFileMerged(t *testing.T) {
	dir := t.TempDir()
	patterns := filepath.Join(dir, "patterns.json")
	require.NoError(t, os.WriteFile(patterns, []byte(`[
		{"id": "ab", "type": "sequence", "keys": ["a", "b"]}
	]`), 0o644))

	path := filepath.Join(dir, "keypulse.toml")
	require.NoError(t, os.WriteFile(path, []byte(
		"pattern_files = [\""+patterns+"\"]\n"), 0o644))

	res, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, res.Engine.Patterns, 1)
	assert.Equal(t, "ab", res.Engine.Patterns[0].ID)
}

func TestParsePatterns(t *testing.T) {
	defs, err := ParsePatterns([]byte(`[
		{
			"id": "konami",
			"name": "Konami Code",
			"type": "sequence",
			"keys": ["ArrowUp", "ArrowUp", "ArrowDown", "ArrowDown",
			         "ArrowLeft", "ArrowRight", "ArrowLeft", "ArrowRight",
			         "b", "a"],
			"timeout_ms": 5000,
			"allow_other_keys": true
		},
		{
			"id": "push-to-talk",
			"type": "hold",
			"keys": [{"key": "Space", "modifiers": ["Ctrl"], "min_hold_ms": 150}]
		}
	]`))
	require.NoError(t, err)
	require.Len(t, defs, 2)

	konami := defs[0]
	assert.Equal(t, pattern.TypeSequence, konami.Type)
	assert.Len(t, konami.Keys, 10)
	assert.Equal(t, 5*time.Second, konami.Timeout)
	assert.True(t, konami.AllowOtherKeys)
	assert.Equal(t, "ArrowUp", konami.Keys[0].Key)

	ptt := defs[1]
	assert.Equal(t, pattern.TypeHold, ptt.Type)
	require.Len(t, ptt.Keys, 1)
	assert.Equal(t, "Space", ptt.Keys[0].Key)
	assert.Equal(t, key.ModCtrl, ptt.Keys[0].Modifiers)
	assert.Equal(t, 150*time.Millisecond, ptt.Keys[0].MinHoldTime)
}

func TestParsePatternsErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not json", "this is not json"},
		{"not array", `{"id": "x"}`},
		{"missing id", `[{"type": "sequence", "keys": ["a"]}]`},
		{"no keys", `[{"id": "x", "type": "sequence", "keys": []}]`},
		{"key object without key", `[{"id": "x", "type": "hold", "keys": [{"min_hold_ms": 5}]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePatterns([]byte(tt.json))
			assert.Error(t, err)
		})
	}
}
