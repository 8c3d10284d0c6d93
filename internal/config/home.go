package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnvVar overrides the attune home directory.
const HomeEnvVar = "ATTUNE_HOME"

// GetAttuneHome returns the attune home directory
// Priority order:
//  1. ATTUNE_HOME environment variable (if set)
//  2. .attune under the current working directory
//
// The directory is created if it doesn't exist
func GetAttuneHome() (string, error) {
	home := os.Getenv(HomeEnvVar)
	if home == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		home = filepath.Join(cwd, ".attune")
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create attune home directory: %w", err)
	}
	return home, nil
}

// ConfigPath is where Load looks for config.yaml inside home.
func ConfigPath(home string) string {
	return filepath.Join(home, "config.yaml")
}

// DefaultSQLitePath is the session database used when no URL is configured.
func DefaultSQLitePath(home string) string {
	return filepath.Join(home, "sessions.db")
}

// DefaultLogDir holds serve run logs.
func DefaultLogDir(home string) string {
	return filepath.Join(home, "logs")
}
