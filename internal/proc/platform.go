package proc

import (
	"runtime"
	"strings"
)

// Platform selects which family of OS commands is used for discovery and
// process control. It is resolved once at startup.
type Platform int

const (
	PlatformUnix Platform = iota
	PlatformWindows
)

func (p Platform) String() string {
	if p == PlatformWindows {
		return "windows"
	}
	return "unix"
}

func (p Platform) Windows() bool { return p == PlatformWindows }

// DetectPlatform maps an OS identifier to a platform. macOS and anything
// unrecognised use the lsof/ps toolset; only Windows gets netstat/tasklist.
func DetectPlatform(osName string) Platform {
	name := strings.ToLower(osName)
	switch {
	case strings.Contains(name, "mac"), strings.Contains(name, "darwin"):
		return PlatformUnix
	case strings.Contains(name, "win"):
		return PlatformWindows
	default:
		return PlatformUnix
	}
}

// Current returns the platform for the running binary.
func Current() Platform {
	return DetectPlatform(runtime.GOOS)
}

// OSType returns a display label for an OS identifier.
func OSType(osName string) string {
	name := strings.ToLower(osName)
	switch {
	case strings.Contains(name, "mac"), strings.Contains(name, "darwin"):
		return "Mac"
	case strings.Contains(name, "win"):
		return "Windows"
	case strings.Contains(name, "nix"), strings.Contains(name, "nux"):
		return "Linux"
	}
	return "Unknown"
}
