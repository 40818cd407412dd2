package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/keypulse/internal/engine"
	"github.com/dshills/keypulse/internal/key"
	"github.com/dshills/keypulse/internal/logging"
)

const (
	// interactiveLogLines bounds the on-screen activity log.
	interactiveLogLines = 64

	// synthReleaseDelay is the synthetic keyup gap. Terminals report
	// presses only, so every key is replayed as a quick tap; hold
	// patterns cannot trigger from an interactive terminal session.
	synthReleaseDelay = time.Millisecond
)

func newInteractiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Attach the pipeline to the current terminal",
		Long: `Interactive translates terminal key events into raw pipeline events
and shows what the engine emits and matches.

Terminals deliver key presses only, so a release is synthesized right
after each press: every key is a quick tap and hold patterns cannot
trigger. Use replay with recorded down/up events to exercise holds.

Press Ctrl+Q to quit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runInteractive,
	}
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	res, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The screen owns the terminal; route logs to a file or drop them.
	logOut := io.Writer(io.Discard)
	if res.Engine.DebugLogging {
		f, ferr := os.Create("keypulse.log")
		if ferr != nil {
			return fmt.Errorf("creating log file: %w", ferr)
		}
		defer f.Close()
		logOut = f
	}
	log := logging.New(&logging.Config{
		Level:     res.LogLevel,
		Format:    res.LogFormat,
		Output:    logOut,
		Component: "keypulse",
	})

	eng, err := newEngine(res, log)
	if err != nil {
		return err
	}
	defer eng.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableFocus()

	ui := &interactiveUI{screen: screen, eng: eng}
	ui.draw()

	for {
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlQ {
				return nil
			}
			ui.handleKey(ev)

		case *tcell.EventResize:
			screen.Sync()

		case *tcell.EventFocus:
			if !ev.Focused {
				eng.FocusLost()
				ui.append("focus lost, runtime state reset")
			}

		case nil:
			return nil
		}
		ui.collect()
		ui.draw()
	}
}

// interactiveUI renders a scrolling activity log plus live engine state.
type interactiveUI struct {
	screen tcell.Screen
	eng    *engine.Engine
	lines  []string
}

func (ui *interactiveUI) handleKey(ev *tcell.EventKey) {
	raw, ok := convertTcellKey(ev)
	if !ok {
		return
	}

	result := ui.eng.ProcessRaw(raw)
	for _, e := range result.Events {
		note := ""
		if e.PreventedDefault {
			note = " [prevent-default]"
		}
		ui.append(fmt.Sprintf("%-8s %s%s", result.Action, e.String(), note))
	}

	// Terminals never report the release; synthesize a quick tap.
	release := raw
	release.Kind = key.KeyUp
	release.Timestamp = raw.Timestamp.Add(synthReleaseDelay)
	ui.eng.ProcessRaw(release)
}

// collect pulls pending deliveries off the channels.
func (ui *interactiveUI) collect() {
	for {
		select {
		case _, ok := <-ui.eng.Events():
			if !ok {
				return
			}
		case m, ok := <-ui.eng.Matches():
			if !ok {
				return
			}
			ui.append(fmt.Sprintf("MATCH %s (%s) keys=%v", m.PatternID, m.Type, m.Keys))
		default:
			return
		}
	}
}

func (ui *interactiveUI) append(line string) {
	ui.lines = append(ui.lines, line)
	if len(ui.lines) > interactiveLogLines {
		ui.lines = ui.lines[len(ui.lines)-interactiveLogLines:]
	}
}

func (ui *interactiveUI) draw() {
	ui.screen.Clear()
	_, height := ui.screen.Size()

	drawText(ui.screen, 0, 0, tcell.StyleDefault.Bold(true),
		"keypulse interactive - Ctrl+Q to quit")

	snap := ui.eng.Metrics().Snapshot()
	drawText(ui.screen, 0, 1, tcell.StyleDefault,
		fmt.Sprintf("events=%d emitted=%d suppressed=%d matches=%d/%d/%d",
			snap.EventsTotal, snap.Emitted, snap.Suppressed,
			snap.SequenceMatches, snap.ChordMatches, snap.HoldMatches))

	visible := height - 3
	if visible < 0 {
		visible = 0
	}
	start := 0
	if len(ui.lines) > visible {
		start = len(ui.lines) - visible
	}
	for i, line := range ui.lines[start:] {
		drawText(ui.screen, 0, 3+i, tcell.StyleDefault, line)
	}

	ui.screen.Show()
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}

// convertTcellKey translates a terminal key event into a raw pipeline
// event. Returns false for keys with no useful mapping.
func convertTcellKey(ev *tcell.EventKey) (key.RawEvent, bool) {
	raw := key.RawEvent{
		Modifiers: convertTcellMods(ev.Modifiers()),
		Timestamp: ev.When(),
		Kind:      key.KeyDown,
	}

	k := ev.Key()
	switch {
	case k == tcell.KeyRune:
		raw.Key = string(ev.Rune())
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		raw.Key = string(rune('a' + k - tcell.KeyCtrlA))
		raw.Modifiers = raw.Modifiers.With(key.ModCtrl)
	default:
		name, ok := tcellKeyNames[k]
		if !ok {
			return raw, false
		}
		raw.Key = name
	}
	return raw, true
}

var tcellKeyNames = map[tcell.Key]string{
	tcell.KeyEscape:     key.KeyEscape,
	tcell.KeyEnter:      key.KeyEnter,
	tcell.KeyTab:        key.KeyTab,
	tcell.KeyBackspace:  key.KeyBackspace,
	tcell.KeyBackspace2: key.KeyBackspace,
	tcell.KeyDelete:     key.KeyDelete,
	tcell.KeyInsert:     key.KeyInsert,
	tcell.KeyHome:       key.KeyHome,
	tcell.KeyEnd:        key.KeyEnd,
	tcell.KeyPgUp:       key.KeyPageUp,
	tcell.KeyPgDn:       key.KeyPageDown,
	tcell.KeyUp:         key.KeyArrowUp,
	tcell.KeyDown:       key.KeyArrowDown,
	tcell.KeyLeft:       key.KeyArrowLeft,
	tcell.KeyRight:      key.KeyArrowRight,
	tcell.KeyF1:         "F1",
	tcell.KeyF2:         "F2",
	tcell.KeyF3:         "F3",
	tcell.KeyF4:         "F4",
	tcell.KeyF5:         "F5",
	tcell.KeyF6:         "F6",
	tcell.KeyF7:         "F7",
	tcell.KeyF8:         "F8",
	tcell.KeyF9:         "F9",
	tcell.KeyF10:        "F10",
	tcell.KeyF11:        "F11",
	tcell.KeyF12:        "F12",
}

func convertTcellMods(m tcell.ModMask) key.Modifier {
	var out key.Modifier
	if m&tcell.ModShift != 0 {
		out = out.With(key.ModShift)
	}
	if m&tcell.ModCtrl != 0 {
		out = out.With(key.ModCtrl)
	}
	if m&tcell.ModAlt != 0 {
		out = out.With(key.ModAlt)
	}
	if m&tcell.ModMeta != 0 {
		out = out.With(key.ModMeta)
	}
	return out
}
