// Package main is the keypulse command line driver: it feeds recorded or
// live terminal key events through the input pipeline and reports what
// the engine emits and matches.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/keypulse/internal/config"
	"github.com/dshills/keypulse/internal/engine"
	"github.com/dshills/keypulse/internal/logging"
	"github.com/dshills/keypulse/internal/quirk"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "keypulse",
		Short: "Keypulse - keyboard input pipeline driver",
		Long: `Keypulse normalizes raw key events, filters platform quirks, and
detects key patterns (sequences, chords, holds).

The replay command runs recorded events through the pipeline with
deterministic timing; interactive attaches the pipeline to the current
terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "Path to TOML configuration file")
	root.PersistentFlags().String("platform", "", "Override quirk platform (windows, macos, linux)")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	root.AddCommand(newReplayCommand())
	root.AddCommand(newInteractiveCommand())
	root.AddCommand(newVersionCommand())

	return root
}

// loadConfig resolves the effective configuration from the config file,
// environment, and command line flags, highest priority last.
func loadConfig(cmd *cobra.Command) (*config.Result, error) {
	path, _ := cmd.Flags().GetString("config")
	res, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}

	if name, _ := cmd.Flags().GetString("platform"); name != "" {
		p := quirk.ParsePlatform(name)
		if p == quirk.PlatformUnknown {
			return nil, fmt.Errorf("unknown platform %q", name)
		}
		res.Engine.Platform = p
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		parsed, err := logging.ParseLevel(lvl)
		if err != nil {
			return nil, err
		}
		res.LogLevel = parsed
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		res.Engine.DebugLogging = true
		res.LogLevel = logging.LevelDebug
	}

	return res, nil
}

// buildLogger constructs the process logger from a resolved configuration.
func buildLogger(res *config.Result) *logging.Logger {
	return logging.New(&logging.Config{
		Level:     res.LogLevel,
		Format:    res.LogFormat,
		Output:    os.Stderr,
		Component: "keypulse",
	})
}

// newEngine builds an engine from a resolved configuration.
func newEngine(res *config.Result, log *logging.Logger) (*engine.Engine, error) {
	res.Engine.Logger = log
	return engine.New(res.Engine)
}
