// Package paths provides XDG-compliant path resolution for moonsync.
//
// Resolution order:
// 1. MOONSYNC_HOME (portable root) → $MOONSYNC_HOME/{config,state}
// 2. XDG env vars → $XDG_*_HOME/moonsync
// 3. Platform defaults → ~/.config/moonsync, ~/.local/state/moonsync
//
// Steam's own directories never honour MOONSYNC_HOME.
package paths

import (
	"os"
	"path/filepath"
)

const appName = "moonsync"

// HomeEnv relocates every moonsync directory under one root.
const HomeEnv = "MOONSYNC_HOME"

func xdgHome(envVar string, fallback ...string) string {
	if dir := os.Getenv(envVar); dir != "" {
		return dir
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(append([]string{homeDir}, fallback...)...)
	}
	return ""
}

// ConfigDir returns the moonsync configuration directory.
// Holds config.yml and moonsync.env.
func ConfigDir() string {
	if home := os.Getenv(HomeEnv); home != "" {
		return filepath.Join(home, "config")
	}
	base := xdgHome("XDG_CONFIG_HOME", ".config")
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// StateDir returns the moonsync state directory.
// Used for logs.
func StateDir() string {
	if home := os.Getenv(HomeEnv); home != "" {
		return filepath.Join(home, "state")
	}
	base := xdgHome("XDG_STATE_HOME", ".local", "state")
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// LogDir returns the directory for file log sinks.
func LogDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// SteamUserdataDir returns Steam's default userdata directory,
// $XDG_DATA_HOME/Steam/userdata.
func SteamUserdataDir() string {
	base := xdgHome("XDG_DATA_HOME", ".local", "share")
	if base == "" {
		return ""
	}
	return filepath.Join(base, "Steam", "userdata")
}

// EnsureDirs creates the moonsync directories if they don't exist.
func EnsureDirs() error {
	for _, dir := range []string{ConfigDir(), LogDir()} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
