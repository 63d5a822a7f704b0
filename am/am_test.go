package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsProduceValidConfig(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load()
	require.NoError(t, err)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 600, cfg.Schedule.IntervalSeconds)
	assert.Equal(t, 50, cfg.Schedule.JitterSeconds)
	assert.False(t, cfg.Schedule.TriggerWhilePaused)
	assert.False(t, cfg.Push.Enabled)
	assert.Equal(t, 3, cfg.Push.MaxRetries)
	assert.Equal(t, "origin", cfg.Repository.Remote)
	assert.Equal(t, DefaultServerPort, cfg.Server.EffectivePort())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gitpulse.toml")
	content := `
[repository]
path = "/srv/deploy"
branch = "main"

[schedule]
interval_seconds = 300
jitter_seconds = 30

[push]
enabled = true
max_retries = 5

[message]
theme = "pirate"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/deploy", cfg.Repository.Path)
	assert.Equal(t, "main", cfg.Repository.Branch)
	assert.Equal(t, 300, cfg.Schedule.IntervalSeconds)
	assert.Equal(t, 30, cfg.Schedule.JitterSeconds)
	assert.True(t, cfg.Push.Enabled)
	assert.Equal(t, 5, cfg.Push.MaxRetries)
	assert.Equal(t, "pirate", cfg.Message.Theme)

	// Values not in the file fall back to defaults
	assert.Equal(t, "origin", cfg.Repository.Remote)
	assert.Equal(t, 120, cfg.Message.MaxLength)
}

func TestValidateRejectsJitterAboveInterval(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Schedule.IntervalSeconds = 60
	cfg.Schedule.JitterSeconds = 60

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jitter_seconds")
}

func TestValidateRejectsZeroPort(t *testing.T) {
	cfg := validBaseConfig()
	zero := 0
	cfg.Server.Port = &zero

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidateRejectsEmptyAuthor(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Commit.AuthorEmail = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "author_email")
}

func TestValidateLocalInferenceOnlyWhenEnabled(t *testing.T) {
	cfg := validBaseConfig()
	cfg.LocalInference.Enabled = false
	cfg.LocalInference.BaseURL = ""

	// Disabled inference tolerates missing endpoint details
	require.NoError(t, cfg.Validate())

	cfg.LocalInference.Enabled = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestSaveUserSettingsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gitpulse.toml")

	cfg := validBaseConfig()
	cfg.Schedule.IntervalSeconds = 900
	cfg.Message.Theme = "haiku"
	require.NoError(t, SaveUserSettings(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 900, loaded.Schedule.IntervalSeconds)
	assert.Equal(t, "haiku", loaded.Message.Theme)

	// A second save rotates the previous file into .back1
	cfg.Message.Theme = "sonnet"
	require.NoError(t, SaveUserSettings(cfg, path))
	_, err = os.Stat(path + ".back1")
	assert.NoError(t, err)
}

func validBaseConfig() *Config {
	return &Config{
		Repository: RepositoryConfig{Path: ".", Remote: "origin"},
		Schedule:   ScheduleConfig{IntervalSeconds: 600, JitterSeconds: 50},
		Push:       PushConfig{MaxRetries: 3, BackoffBaseSeconds: 2, BackoffMaxSeconds: 60},
		Commit:     CommitConfig{AuthorName: "gitpulse", AuthorEmail: "gitpulse@localhost"},
		Message:    MessageConfig{MaxLength: 120},
		LocalInference: LocalInferenceConfig{
			Enabled:        true,
			BaseURL:        "http://localhost:11434",
			Model:          "llama3.2:3b",
			TimeoutSeconds: 30,
			MaxPromptBytes: 8192,
		},
		Database: DatabaseConfig{Path: "gitpulse.db"},
	}
}
