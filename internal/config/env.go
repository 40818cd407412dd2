package config

import (
	"os"
	"strings"
)

// Environment variable overrides. Applied after the TOML file, so the
// environment wins.
//
//	KEYPULSE_ENABLED            engine.enabled
//	KEYPULSE_DEBUG              engine.debug_logging
//	KEYPULSE_PLATFORM           engine.platform
//	KEYPULSE_PREVENT_MODE       engine.prevent_mode
//	KEYPULSE_TAP_HOLD_THRESHOLD engine.tap_hold_threshold
//	KEYPULSE_SEQUENCE_TIMEOUT   engine.sequence_timeout
//	KEYPULSE_HOLD_THRESHOLD     engine.hold_threshold
//	KEYPULSE_CHORD_WINDOW       engine.chord_window
//	KEYPULSE_LOG_LEVEL          logging.level
//	KEYPULSE_LOG_FORMAT         logging.format
func applyEnv(f *File) {
	if v, ok := lookup("ENABLED"); ok {
		b := parseBool(v)
		f.Engine.Enabled = &b
	}
	if v, ok := lookup("DEBUG"); ok {
		f.Engine.DebugLogging = parseBool(v)
	}
	if v, ok := lookup("PLATFORM"); ok {
		f.Engine.Platform = v
	}
	if v, ok := lookup("PREVENT_MODE"); ok {
		f.Engine.PreventMode = v
	}
	if v, ok := lookup("TAP_HOLD_THRESHOLD"); ok {
		f.Engine.TapHoldThreshold = v
	}
	if v, ok := lookup("SEQUENCE_TIMEOUT"); ok {
		f.Engine.SequenceTimeout = v
	}
	if v, ok := lookup("HOLD_THRESHOLD"); ok {
		f.Engine.HoldThreshold = v
	}
	if v, ok := lookup("CHORD_WINDOW"); ok {
		f.Engine.ChordWindow = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		f.Logging.Level = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		f.Logging.Format = v
	}
}

func lookup(name string) (string, bool) {
	return os.LookupEnv(EnvPrefix + name)
}

// parseBool accepts the common truthy spellings; anything else is false.
func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true
	}
	return false
}
