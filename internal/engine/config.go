package engine

import (
	"time"

	"github.com/dshills/keypulse/internal/logging"
	"github.com/dshills/keypulse/internal/pattern"
	"github.com/dshills/keypulse/internal/quirk"
	"github.com/dshills/keypulse/internal/timeutil"
)

// PreventMode selects the prevent-default policy.
type PreventMode int

const (
	// PreventNone never asks the host to swallow default actions.
	PreventNone PreventMode = iota

	// PreventAll asks the host to swallow every emitted event's default.
	PreventAll

	// PreventList swallows defaults only for the configured combos.
	PreventList
)

// String returns "none", "all", or "list".
func (p PreventMode) String() string {
	switch p {
	case PreventAll:
		return "all"
	case PreventList:
		return "list"
	default:
		return "none"
	}
}

// Config configures an Engine.
type Config struct {
	// Enabled gates all processing. A disabled engine drops everything.
	Enabled bool

	// DebugLogging raises per-event logging to debug level detail.
	DebugLogging bool

	// ExcludeFocusableTextInputs tells the host adapter not to forward
	// events originating in focusable text inputs. The engine records
	// the setting; enforcement belongs to the adapter.
	ExcludeFocusableTextInputs bool

	// TapHoldThreshold splits releases into taps and holds.
	// Default: 200ms.
	TapHoldThreshold time.Duration

	// PreventMode selects the prevent-default policy.
	PreventMode PreventMode

	// PreventCombos lists key combinations for PreventList, in
	// "Ctrl+S" spec form.
	PreventCombos []string

	// SequenceTimeout is the default sequence window. Default: 1000ms.
	SequenceTimeout time.Duration

	// HoldThreshold is the default minimum hold time. Default: 500ms.
	HoldThreshold time.Duration

	// ChordWindow is the default chord accumulation window.
	// Default: 100ms.
	ChordWindow time.Duration

	// Patterns is the initial pattern list.
	Patterns []pattern.Definition

	// Platform selects the active quirk protocol. Defaults to the
	// detected host platform.
	Platform quirk.Platform

	// Scheduler provides all timers. Defaults to the system scheduler.
	Scheduler timeutil.Scheduler

	// Logger receives engine logging. Defaults to the package default.
	Logger *logging.Logger
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		TapHoldThreshold: 200 * time.Millisecond,
		SequenceTimeout:  pattern.DefaultSequenceTimeout,
		HoldThreshold:    pattern.DefaultHoldThreshold,
		ChordWindow:      pattern.DefaultChordWindow,
		Platform:         quirk.Detect(),
	}
}
