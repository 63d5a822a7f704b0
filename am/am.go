package am

// Config represents the core gitpulse configuration
type Config struct {
	Repository     RepositoryConfig     `mapstructure:"repository"`
	Schedule       ScheduleConfig       `mapstructure:"schedule"`
	Push           PushConfig           `mapstructure:"push"`
	Commit         CommitConfig         `mapstructure:"commit"`
	Message        MessageConfig        `mapstructure:"message"`
	LocalInference LocalInferenceConfig `mapstructure:"local_inference"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Server         ServerConfig         `mapstructure:"server"`
}

// RepositoryConfig identifies the working tree the scheduler commits against
type RepositoryConfig struct {
	Path   string `mapstructure:"path"`   // Path to the git working tree
	Branch string `mapstructure:"branch"` // Branch to push (default: current branch)
	Remote string `mapstructure:"remote"` // Push remote (default: origin)
}

// ScheduleConfig configures the commit cadence
type ScheduleConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"` // Base interval between commits (default: 600)
	JitterSeconds   int `mapstructure:"jitter_seconds"`   // Uniform random offset applied to each interval (default: 50)

	// TriggerWhilePaused controls whether a manual trigger fires a one-off
	// commit while the scheduler is paused. Default false: pausing blocks
	// manual triggers too.
	TriggerWhilePaused bool `mapstructure:"trigger_while_paused"`
}

// PushConfig configures push-after-commit behavior
type PushConfig struct {
	Enabled            bool `mapstructure:"enabled"`              // Push after each commit (default: false)
	MaxRetries         int  `mapstructure:"max_retries"`          // Retries after the first failed attempt (default: 3)
	BackoffBaseSeconds int  `mapstructure:"backoff_base_seconds"` // First retry delay, doubling per attempt (default: 2)
	BackoffMaxSeconds  int  `mapstructure:"backoff_max_seconds"`  // Ceiling for the computed delay (default: 60)
}

// CommitConfig configures the commit author identity
type CommitConfig struct {
	AuthorName  string `mapstructure:"author_name"`
	AuthorEmail string `mapstructure:"author_email"`
}

// MessageConfig configures commit message generation
type MessageConfig struct {
	MaxLength int    `mapstructure:"max_length"` // Maximum message length (default: 120)
	Theme     string `mapstructure:"theme"`      // Optional style hint passed to the model
}

// LocalInferenceConfig configures local model inference (Ollama, LocalAI, etc.)
type LocalInferenceConfig struct {
	Enabled        bool   `mapstructure:"enabled"`          // Use the local model; when false only the template path runs
	BaseURL        string `mapstructure:"base_url"`         // e.g., "http://localhost:11434" for Ollama
	Model          string `mapstructure:"model"`            // e.g., "mistral", "qwen2.5-coder:7b"
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`  // Request timeout in seconds (default: 30)
	MaxPromptBytes int    `mapstructure:"max_prompt_bytes"` // Diff truncation bound for the prompt (default: 8192)
}

// DatabaseConfig configures the SQLite commit log
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig configures the gitpulse control API server
type ServerConfig struct {
	Port           *int     `mapstructure:"port"` // nil = default 8077, 0 is invalid (omit for default)
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// ControlRatePerSecond bounds POST /api/control submissions; bursts up to
	// ControlBurst are allowed (defaults: 2/s, burst 5).
	ControlRatePerSecond float64 `mapstructure:"control_rate_per_second"`
	ControlBurst         int     `mapstructure:"control_burst"`
}

// Server port constants
const (
	DefaultServerPort = 8077 // Above the privileged range, easy to remember
)

// Port returns the effective server port
func (sc *ServerConfig) EffectivePort() int {
	if sc.Port == nil || *sc.Port == 0 {
		return DefaultServerPort
	}
	return *sc.Port
}
