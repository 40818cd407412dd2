// Package engine wires the keypulse pipeline together: raw host events
// are normalized, filtered for platform quirks, checked for press/release
// consistency, annotated with tap/hold timing and prevent-default policy,
// and finally fed to the pattern matcher.
//
// One Engine instance is exclusively owned by its session. Emitted events
// and matches are delivered on buffered channels; ProcessRaw returns a
// synchronous Disposition so the host adapter can honor prevent-default
// decisions immediately.
package engine
