package config

import (
	"fmt"
	"os"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dshills/keypulse/internal/key"
	"github.com/dshills/keypulse/internal/pattern"
)

// parseKeySpecs converts combo spec strings ("Ctrl+s", "ArrowUp") into
// pattern key requirements.
func parseKeySpecs(specs []string) ([]pattern.KeySpec, error) {
	combos, err := key.ParseCombos(specs)
	if err != nil {
		return nil, err
	}
	out := make([]pattern.KeySpec, len(combos))
	for i, c := range combos {
		out[i] = pattern.KeySpec{Key: c.Key, Modifiers: c.Modifiers}
	}
	return out, nil
}

// LoadPatternFile reads a JSON pattern file and returns validated
// definitions. The file holds an array of pattern objects; keys may be
// combo spec strings or objects with "key", "modifiers", and
// "min_hold_ms" fields.
func LoadPatternFile(path string) ([]pattern.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pattern file: %w", err)
	}
	return ParsePatterns(data)
}

// ParsePatterns parses a JSON array of pattern definitions.
func ParsePatterns(data []byte) ([]pattern.Definition, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid pattern JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("pattern JSON must be an array")
	}

	var defs []pattern.Definition
	var firstErr error
	root.ForEach(func(_, item gjson.Result) bool {
		def, err := parsePatternJSON(item)
		if err != nil {
			firstErr = fmt.Errorf("pattern %d: %w", len(defs), err)
			return false
		}
		defs = append(defs, def)
		return true
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return defs, nil
}

func parsePatternJSON(item gjson.Result) (pattern.Definition, error) {
	def := pattern.Definition{
		ID:             item.Get("id").String(),
		Name:           item.Get("name").String(),
		CaseSensitive:  item.Get("case_sensitive").Bool(),
		AllowOtherKeys: item.Get("allow_other_keys").Bool(),
	}

	t, err := pattern.ParseType(item.Get("type").String())
	if err != nil {
		return def, err
	}
	def.Type = t

	if v := item.Get("reset_on_mismatch"); v.Exists() {
		b := v.Bool()
		def.ResetOnMismatch = &b
	}
	if v := item.Get("timeout_ms"); v.Exists() {
		def.Timeout = time.Duration(v.Int()) * time.Millisecond
	}
	if v := item.Get("hold_threshold_ms"); v.Exists() {
		def.HoldThreshold = time.Duration(v.Int()) * time.Millisecond
	}

	keys := item.Get("keys")
	if !keys.IsArray() {
		return def, fmt.Errorf("keys must be an array")
	}
	keys.ForEach(func(_, k gjson.Result) bool {
		spec, kerr := parseKeyJSON(k)
		if kerr != nil {
			err = kerr
			return false
		}
		def.Keys = append(def.Keys, spec)
		return true
	})
	if err != nil {
		return def, err
	}

	if err := def.Validate(); err != nil {
		return def, err
	}
	return def, nil
}

func parseKeyJSON(k gjson.Result) (pattern.KeySpec, error) {
	if k.Type == gjson.String {
		combo, err := key.ParseCombo(k.String())
		if err != nil {
			return pattern.KeySpec{}, err
		}
		return pattern.KeySpec{Key: combo.Key, Modifiers: combo.Modifiers}, nil
	}

	if !k.IsObject() {
		return pattern.KeySpec{}, fmt.Errorf("key must be a string or object")
	}

	spec := pattern.KeySpec{Key: k.Get("key").String()}
	if spec.Key == "" {
		return spec, fmt.Errorf("key object missing key field")
	}
	k.Get("modifiers").ForEach(func(_, m gjson.Result) bool {
		spec.Modifiers = spec.Modifiers.With(key.ModifierFromName(m.String()))
		return true
	})
	if v := k.Get("min_hold_ms"); v.Exists() {
		spec.MinHoldTime = time.Duration(v.Int()) * time.Millisecond
	}
	return spec, nil
}
