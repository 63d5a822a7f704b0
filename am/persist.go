package am

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/gitpulse/errors"
)

// persistedConfig is the TOML shape written back to disk. Only settings the
// control surface may change are included; everything else stays hand-edited.
type persistedConfig struct {
	Schedule struct {
		IntervalSeconds int `toml:"interval_seconds"`
		JitterSeconds   int `toml:"jitter_seconds"`
	} `toml:"schedule"`
	Message struct {
		Theme     string `toml:"theme"`
		MaxLength int    `toml:"max_length"`
	} `toml:"message"`
	Push struct {
		Enabled bool `toml:"enabled"`
	} `toml:"push"`
}

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil // No file to backup
	}

	// Rotate backups: .back3 -> delete, .back2 -> .back3, .back1 -> .back2, current -> .back1
	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to delete oldest backup")
	}

	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(back1, content, 0644); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}

// UserConfigPath returns the path of the user config file (~/.gitpulse/gitpulse.toml)
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "gitpulse.toml"
	}
	return filepath.Join(home, ".gitpulse", "gitpulse.toml")
}

// SaveUserSettings writes control-surface-editable settings to the user config
// file, preserving rotating backups of the previous contents. Callers holding
// a ConfigWatcher should MarkOwnWrite first to avoid a reload loop.
func SaveUserSettings(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), DefaultDirPermissions); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to back up config")
	}

	var out persistedConfig
	out.Schedule.IntervalSeconds = cfg.Schedule.IntervalSeconds
	out.Schedule.JitterSeconds = cfg.Schedule.JitterSeconds
	out.Message.Theme = cfg.Message.Theme
	out.Message.MaxLength = cfg.Message.MaxLength
	out.Push.Enabled = cfg.Push.Enabled

	data, err := toml.Marshal(out)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config")
	}

	return nil
}
