package wardcfg

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigDir returns the supervisor's configuration directory. Respects
// WARDEN_CONFIG_DIR override.
func ConfigDir() (string, error) {
	if dir := os.Getenv("WARDEN_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config dir: %w", err)
	}
	return filepath.Join(base, "warden"), nil
}

// ConfigFilePath returns the path to config.json.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// PIDFilePath returns the path to the supervisor's PID file.
func PIDFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "warden.pid"), nil
}

// LogDir returns the directory for supervisor log files.
func LogDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}
