// Package config loads keypulse configuration from TOML files, JSON
// pattern files, and KEYPULSE_* environment variables.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/keypulse/internal/engine"
	"github.com/dshills/keypulse/internal/logging"
	"github.com/dshills/keypulse/internal/pattern"
	"github.com/dshills/keypulse/internal/quirk"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "KEYPULSE_"

// File is the on-disk TOML shape. Durations are strings in Go duration
// syntax ("200ms", "1s"). Unknown keys are ignored.
type File struct {
	Engine       EngineSection    `toml:"engine"`
	Logging      LoggingSection   `toml:"logging"`
	Patterns     []PatternSection `toml:"patterns"`
	PatternFiles []string         `toml:"pattern_files"`
}

// EngineSection configures the pipeline.
type EngineSection struct {
	Enabled                    *bool    `toml:"enabled"`
	DebugLogging               bool     `toml:"debug_logging"`
	ExcludeFocusableTextInputs bool     `toml:"exclude_focusable_text_inputs"`
	TapHoldThreshold           string   `toml:"tap_hold_threshold"`
	PreventMode                string   `toml:"prevent_mode"`
	PreventCombos              []string `toml:"prevent_combos"`
	SequenceTimeout            string   `toml:"sequence_timeout"`
	HoldThreshold              string   `toml:"hold_threshold"`
	ChordWindow                string   `toml:"chord_window"`
	Platform                   string   `toml:"platform"`
}

// LoggingSection configures structured logging.
type LoggingSection struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// PatternSection is one inline pattern definition. Keys use the combo
// spec form, such as "Ctrl+s" or "ArrowUp".
type PatternSection struct {
	ID              string   `toml:"id"`
	Name            string   `toml:"name"`
	Type            string   `toml:"type"`
	Keys            []string `toml:"keys"`
	Timeout         string   `toml:"timeout"`
	HoldThreshold   string   `toml:"hold_threshold"`
	CaseSensitive   bool     `toml:"case_sensitive"`
	AllowOtherKeys  bool     `toml:"allow_other_keys"`
	ResetOnMismatch *bool    `toml:"reset_on_mismatch"`
}

// Result is the fully resolved configuration.
type Result struct {
	Engine    engine.Config
	LogLevel  logging.Level
	LogFormat logging.Format
}

// LoadFile reads the TOML file at path, merges JSON pattern files and
// environment overrides, and resolves everything to a Result. A missing
// file is not an error; defaults plus environment overrides apply.
func LoadFile(path string) (*Result, error) {
	var f File
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Fall through to defaults.
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &f); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}
	return Resolve(&f)
}

// LoadReader reads TOML configuration from r and resolves it the same
// way LoadFile does.
func LoadReader(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return Resolve(&f)
}

// Resolve applies environment overrides to f and builds the Result.
func Resolve(f *File) (*Result, error) {
	applyEnv(f)

	res := &Result{
		Engine:    engine.DefaultConfig(),
		LogLevel:  logging.LevelInfo,
		LogFormat: logging.FormatText,
	}

	if err := resolveEngine(&f.Engine, &res.Engine); err != nil {
		return nil, err
	}
	if err := resolveLogging(&f.Logging, res); err != nil {
		return nil, err
	}

	for i := range f.Patterns {
		def, err := f.Patterns[i].definition()
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
		res.Engine.Patterns = append(res.Engine.Patterns, def)
	}

	for _, pf := range f.PatternFiles {
		defs, err := LoadPatternFile(pf)
		if err != nil {
			return nil, fmt.Errorf("pattern file %s: %w", pf, err)
		}
		res.Engine.Patterns = append(res.Engine.Patterns, defs...)
	}

	return res, nil
}

func resolveEngine(s *EngineSection, cfg *engine.Config) error {
	if s.Enabled != nil {
		cfg.Enabled = *s.Enabled
	}
	cfg.DebugLogging = s.DebugLogging
	cfg.ExcludeFocusableTextInputs = s.ExcludeFocusableTextInputs
	cfg.PreventCombos = s.PreventCombos

	if s.PreventMode != "" {
		mode, err := parsePreventMode(s.PreventMode)
		if err != nil {
			return err
		}
		cfg.PreventMode = mode
	}

	if s.Platform != "" {
		p := quirk.ParsePlatform(s.Platform)
		if p == quirk.PlatformUnknown {
			return fmt.Errorf("unknown platform %q", s.Platform)
		}
		cfg.Platform = p
	}

	for _, d := range []struct {
		raw  string
		name string
		dst  *time.Duration
	}{
		{s.TapHoldThreshold, "tap_hold_threshold", &cfg.TapHoldThreshold},
		{s.SequenceTimeout, "sequence_timeout", &cfg.SequenceTimeout},
		{s.HoldThreshold, "hold_threshold", &cfg.HoldThreshold},
		{s.ChordWindow, "chord_window", &cfg.ChordWindow},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}

	return nil
}

func resolveLogging(s *LoggingSection, res *Result) error {
	if s.Level != "" {
		lvl, err := logging.ParseLevel(s.Level)
		if err != nil {
			return fmt.Errorf("logging level: %w", err)
		}
		res.LogLevel = lvl
	}
	if s.Format != "" {
		f, err := logging.ParseFormat(s.Format)
		if err != nil {
			return fmt.Errorf("logging format: %w", err)
		}
		res.LogFormat = f
	}
	return nil
}

func parsePreventMode(s string) (engine.PreventMode, error) {
	switch s {
	case "none":
		return engine.PreventNone, nil
	case "all":
		return engine.PreventAll, nil
	case "list", "combos":
		return engine.PreventList, nil
	}
	return engine.PreventNone, fmt.Errorf("unknown prevent mode %q", s)
}

// definition converts a TOML pattern section to a validated Definition.
func (s *PatternSection) definition() (pattern.Definition, error) {
	def := pattern.Definition{
		ID:              s.ID,
		Name:            s.Name,
		CaseSensitive:   s.CaseSensitive,
		AllowOtherKeys:  s.AllowOtherKeys,
		ResetOnMismatch: s.ResetOnMismatch,
	}

	t, err := pattern.ParseType(s.Type)
	if err != nil {
		return def, err
	}
	def.Type = t

	specs, err := parseKeySpecs(s.Keys)
	if err != nil {
		return def, err
	}
	def.Keys = specs

	if s.Timeout != "" {
		v, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return def, fmt.Errorf("timeout: %w", err)
		}
		def.Timeout = v
	}
	if s.HoldThreshold != "" {
		v, err := time.ParseDuration(s.HoldThreshold)
		if err != nil {
			return def, fmt.Errorf("hold_threshold: %w", err)
		}
		def.HoldThreshold = v
	}

	if err := def.Validate(); err != nil {
		return def, err
	}
	return def, nil
}
