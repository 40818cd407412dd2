// Package quirk filters platform-specific phantom key events out of the
// normalized event stream.
//
// Operating systems occasionally synthesize key transitions the user never
// made. Windows brackets numeric-pad activity with spurious Shift
// transitions while Shift is physically held with NumLock off; macOS can
// leave the Meta modifier stuck after app switches. The filter classifies
// each event as emit, buffer, or suppress, using short cancellable timers
// to disambiguate: a Shift release is withheld for 10ms, and either
// confirmed as a phantom by adjacent numpad activity or flushed unchanged.
package quirk
