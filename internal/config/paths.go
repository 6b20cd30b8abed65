package config

import (
	"os"
	"path/filepath"
)

// InboxdPath returns the root directory for inboxd data.
// It uses $INBOXD_PATH if set, otherwise defaults to ~/.inboxd.
func InboxdPath() string {
	if v := os.Getenv("INBOXD_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".inboxd")
	}
	return filepath.Join(home, ".inboxd")
}

// ConfigPath returns the path to the inboxd config file.
func ConfigPath() string {
	return filepath.Join(InboxdPath(), "config.jsonc")
}

// DotenvPath returns the path to the inboxd .env file.
func DotenvPath() string {
	return filepath.Join(InboxdPath(), ".env")
}

// HeartbeatPath returns the path to the gateway liveness file.
func HeartbeatPath() string {
	return filepath.Join(InboxdPath(), "heartbeat.json")
}
