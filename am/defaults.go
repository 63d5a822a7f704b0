package am

import (
	"github.com/spf13/viper"
)

// Directory permission for ~/.gitpulse
const DefaultDirPermissions = 0755

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Repository defaults
	v.SetDefault("repository.path", ".")
	v.SetDefault("repository.remote", "origin")
	// repository.branch intentionally has no default: empty means "current branch"

	// Schedule defaults: 10 minutes ± 50s so the cadence is not metronomic
	v.SetDefault("schedule.interval_seconds", 600)
	v.SetDefault("schedule.jitter_seconds", 50)
	v.SetDefault("schedule.trigger_while_paused", false)

	// Push defaults: off until a remote is known to accept us
	v.SetDefault("push.enabled", false)
	v.SetDefault("push.max_retries", 3)
	v.SetDefault("push.backoff_base_seconds", 2)
	v.SetDefault("push.backoff_max_seconds", 60)

	// Commit author defaults
	v.SetDefault("commit.author_name", "gitpulse")
	v.SetDefault("commit.author_email", "gitpulse@localhost")

	// Message defaults
	v.SetDefault("message.max_length", 120)
	v.SetDefault("message.theme", "")

	// Local Inference (Ollama) defaults
	v.SetDefault("local_inference.enabled", true)
	v.SetDefault("local_inference.base_url", "http://localhost:11434")
	v.SetDefault("local_inference.model", "llama3.2:3b")
	v.SetDefault("local_inference.timeout_seconds", 30)
	v.SetDefault("local_inference.max_prompt_bytes", 8192)

	// Database defaults
	v.SetDefault("database.path", "gitpulse.db")

	// Server configuration defaults
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
	})
	v.SetDefault("server.control_rate_per_second", 2.0)
	v.SetDefault("server.control_burst", 5)
}
