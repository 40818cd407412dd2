package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/dshills/keypulse/internal/engine"
	"github.com/dshills/keypulse/internal/key"
	"github.com/dshills/keypulse/internal/quirk"
	"github.com/dshills/keypulse/internal/timeutil"
)

// replayScannerMaxBuf bounds a single recorded event line.
const replayScannerMaxBuf = 1024 * 1024

func newReplayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <events.jsonl>",
		Short: "Replay recorded key events through the pipeline",
		Long: `Replay reads one JSON object per line and feeds it through the
engine on a virtual clock, so recorded timing replays deterministically.

Each line holds: key, code, kind ("down"/"up"), modifiers (array of
names), repeat, numpad_location, and time_ms (offset from the first
event).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runReplay,
	}
	cmd.Flags().Bool("dump", false, "Print the engine state dump after the replay")
	return cmd
}

func runReplay(cmd *cobra.Command, args []string) error {
	res, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := buildLogger(res)

	base := time.Unix(0, 0)
	sched := timeutil.NewVirtual(base)
	res.Engine.Scheduler = sched

	eng, err := newEngine(res, log)
	if err != nil {
		return err
	}
	defer eng.Close()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening events file: %w", err)
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	now := base
	lineNo := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), replayScannerMaxBuf)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		raw, at, err := parseRecordedEvent(line, base)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}

		// Advance the virtual clock to the event time so buffered
		// flushes and hold completions fire in between.
		if at.After(now) {
			sched.Advance(at.Sub(now))
			now = at
		}

		result := eng.ProcessRaw(raw)
		summary := ""
		if result.PreventDefault {
			summary = " [prevent-default]"
		}
		fmt.Fprintf(out, "%-8s %s (%s)%s\n", result.Action, raw.Key, raw.Kind, summary)
		drainDeliveries(out, eng)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading events file: %w", err)
	}

	// Let trailing buffered releases and in-flight holds settle.
	sched.Advance(quirk.MetaWatchdogTimeout)
	drainDeliveries(out, eng)

	snap := eng.Metrics().Snapshot()
	fmt.Fprintf(out, "\n%d events: %d emitted, %d suppressed, %d buffered, %d flushed\n",
		snap.EventsTotal, snap.Emitted, snap.Suppressed, snap.Buffered, snap.Flushed)
	fmt.Fprintf(out, "matches: %d sequence, %d chord, %d hold\n",
		snap.SequenceMatches, snap.ChordMatches, snap.HoldMatches)

	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		fmt.Fprintf(out, "\n%s\n", eng.DumpState())
	}
	return nil
}

// parseRecordedEvent decodes one JSONL line into a raw event and its
// absolute virtual time.
func parseRecordedEvent(line string, base time.Time) (key.RawEvent, time.Time, error) {
	if !gjson.Valid(line) {
		return key.RawEvent{}, time.Time{}, fmt.Errorf("invalid JSON")
	}
	rec := gjson.Parse(line)

	kind := key.KeyDown
	switch rec.Get("kind").String() {
	case "down", "":
	case "up":
		kind = key.KeyUp
	default:
		return key.RawEvent{}, time.Time{}, fmt.Errorf("unknown kind %q", rec.Get("kind").String())
	}

	var mods key.Modifier
	rec.Get("modifiers").ForEach(func(_, m gjson.Result) bool {
		mods = mods.With(key.ModifierFromName(m.String()))
		return true
	})

	at := base.Add(time.Duration(rec.Get("time_ms").Int()) * time.Millisecond)
	raw := key.RawEvent{
		Key:            rec.Get("key").String(),
		Code:           rec.Get("code").String(),
		Modifiers:      mods,
		Repeat:         rec.Get("repeat").Bool(),
		NumpadLocation: rec.Get("numpad_location").Bool(),
		Timestamp:      at,
		Kind:           kind,
	}
	return raw, at, nil
}

// drainDeliveries prints completed matches, including ones that fired on
// timers rather than on a processed event, such as hold completions. The
// event channel is drained silently; the per-line output already covers it.
func drainDeliveries(out io.Writer, eng *engine.Engine) {
	for {
		select {
		case _, ok := <-eng.Events():
			if !ok {
				return
			}
		case m, ok := <-eng.Matches():
			if !ok {
				return
			}
			fmt.Fprintf(out, "match: %s (%s)\n", m.PatternID, m.Type)
		default:
			return
		}
	}
}
