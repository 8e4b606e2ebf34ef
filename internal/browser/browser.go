package browser

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Commander starts an external process
type Commander interface {
	Start(name string, args ...string) error
}

// RealCommander executes actual commands
type RealCommander struct{}

// Start launches the command without waiting for it
func (RealCommander) Start(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

var defaultCommander Commander = RealCommander{}

// LeaderboardPath is the page opened from the keyboard shortcut
const LeaderboardPath = "/api/rankings/current"

// LeaderboardURL joins base and the leaderboard path
func LeaderboardURL(base string) string {
	return strings.TrimRight(base, "/") + LeaderboardPath
}

// Open opens the specified URL in the default browser
func Open(url string) error {
	return OpenWithCommander(url, defaultCommander, runtime.GOOS)
}

// Command returns the launcher for goos
func Command(goos, url string) (string, []string, error) {
	switch goos {
	case "linux", "freebsd", "openbsd":
		return "xdg-open", []string{url}, nil
	case "darwin":
		return "open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// OpenWithCommander opens url through commander as if running on goos
func OpenWithCommander(url string, commander Commander, goos string) error {
	name, args, err := Command(goos, url)
	if err != nil {
		return err
	}
	if err := commander.Start(name, args...); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}
