// Package pattern detects key sequences, chords, and holds in a stream of
// normalized key events.
//
// A Matcher owns the runtime state for one engine session: a rolling
// sequence buffer, a chord candidate, the held-key map, and the active
// hold timers. Patterns are added and removed at runtime; matches are
// reported both from HandleEvent and, for holds, from timer callbacks
// through the configured match callback.
package pattern
