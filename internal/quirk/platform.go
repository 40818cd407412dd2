package quirk

import "runtime"

// Platform identifies the host operating system for quirk selection.
type Platform int

const (
	// PlatformUnknown disables all platform quirk handling.
	PlatformUnknown Platform = iota

	// PlatformWindows enables Shift+Numpad phantom suppression.
	PlatformWindows

	// PlatformMacOS enables stuck-Meta recovery.
	PlatformMacOS

	// PlatformLinux has no known quirks; events pass through.
	PlatformLinux
)

// String returns the lowercase platform name.
func (p Platform) String() string {
	switch p {
	case PlatformWindows:
		return "windows"
	case PlatformMacOS:
		return "macos"
	case PlatformLinux:
		return "linux"
	default:
		return "unknown"
	}
}

// Detect returns the platform of the running process.
func Detect() Platform {
	return FromGOOS(runtime.GOOS)
}

// FromGOOS maps a GOOS value to a Platform.
func FromGOOS(goos string) Platform {
	switch goos {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformMacOS
	case "linux":
		return PlatformLinux
	default:
		return PlatformUnknown
	}
}

// ParsePlatform maps a platform name to a Platform. Accepts GOOS names
// and the common aliases.
func ParsePlatform(name string) Platform {
	switch name {
	case "windows", "win":
		return PlatformWindows
	case "macos", "darwin", "mac":
		return PlatformMacOS
	case "linux":
		return PlatformLinux
	default:
		return PlatformUnknown
	}
}
