package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/tidwall/sjson"
)

// DumpState builds a JSON snapshot of the engine's runtime state for
// debugging. Best effort; never returns an error to the caller.
func (e *Engine) DumpState() []byte {
	e.mu.Lock()
	enabled := e.cfg.Enabled
	closed := e.closed
	platform := e.cfg.Platform.String()
	preventMode := e.cfg.PreventMode.String()

	keys := make([]string, 0, len(e.tracking))
	for k, st := range e.tracking {
		if st.down {
			keys = append(keys, k)
		}
	}
	e.mu.Unlock()
	sort.Strings(keys)

	out := "{}"
	out, _ = sjson.Set(out, "enabled", enabled)
	out, _ = sjson.Set(out, "closed", closed)
	out, _ = sjson.Set(out, "platform", platform)
	out, _ = sjson.Set(out, "preventMode", preventMode)
	out, _ = sjson.Set(out, "keysDown", keys)

	for i, def := range e.matcher.Patterns() {
		base := fmt.Sprintf("patterns.%d", i)
		out, _ = sjson.Set(out, base+".id", def.ID)
		out, _ = sjson.Set(out, base+".type", def.Type.String())
		out, _ = sjson.Set(out, base+".keys", len(def.Keys))
	}

	holds := e.matcher.ActiveHolds()
	ids := make([]string, 0, len(holds))
	for id := range holds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for i, id := range ids {
		h := holds[id]
		base := fmt.Sprintf("activeHolds.%d", i)
		out, _ = sjson.Set(out, base+".pattern", h.PatternID)
		out, _ = sjson.Set(out, base+".key", h.Key)
		out, _ = sjson.Set(out, base+".progress", h.Progress)
		out, _ = sjson.Set(out, base+".complete", h.Complete)
	}

	snap := e.metrics.Snapshot()
	out, _ = sjson.Set(out, "metrics.eventsTotal", snap.EventsTotal)
	out, _ = sjson.Set(out, "metrics.emitted", snap.Emitted)
	out, _ = sjson.Set(out, "metrics.suppressed", snap.Suppressed)
	out, _ = sjson.Set(out, "metrics.buffered", snap.Buffered)
	out, _ = sjson.Set(out, "metrics.flushed", snap.Flushed)
	out, _ = sjson.Set(out, "metrics.trackingRejects", snap.TrackingRejects)
	out, _ = sjson.Set(out, "metrics.droppedEvents", snap.DroppedEvents)
	out, _ = sjson.Set(out, "metrics.matches.sequence", snap.SequenceMatches)
	out, _ = sjson.Set(out, "metrics.matches.chord", snap.ChordMatches)
	out, _ = sjson.Set(out, "metrics.matches.hold", snap.HoldMatches)
	out, _ = sjson.Set(out, "metrics.uptimeMs", snap.Uptime.Milliseconds())

	health := e.metrics.HealthCheck(100 * time.Millisecond)
	out, _ = sjson.Set(out, "health.healthy", health.Healthy)
	out, _ = sjson.Set(out, "health.message", health.Message)

	return []byte(out)
}
