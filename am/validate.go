package am

import "github.com/teranos/gitpulse/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Repository.Path == "" {
		return errors.New("repository.path cannot be empty")
	}

	// Schedule: the next fire time must always land in the future, so the
	// jitter magnitude has to stay below the base interval.
	if c.Schedule.IntervalSeconds <= 0 {
		return errors.Newf("schedule.interval_seconds must be > 0, got %d", c.Schedule.IntervalSeconds)
	}
	if c.Schedule.JitterSeconds < 0 {
		return errors.Newf("schedule.jitter_seconds must be >= 0, got %d", c.Schedule.JitterSeconds)
	}
	if c.Schedule.JitterSeconds >= c.Schedule.IntervalSeconds {
		return errors.Newf("schedule.jitter_seconds (%d) must be smaller than schedule.interval_seconds (%d)",
			c.Schedule.JitterSeconds, c.Schedule.IntervalSeconds)
	}

	// Push retry policy: 0 retries = single attempt, negative = invalid
	if c.Push.MaxRetries < 0 {
		return errors.Newf("push.max_retries must be >= 0, got %d", c.Push.MaxRetries)
	}
	if c.Push.Enabled {
		if c.Push.BackoffBaseSeconds <= 0 {
			return errors.Newf("push.backoff_base_seconds must be > 0, got %d", c.Push.BackoffBaseSeconds)
		}
		if c.Push.BackoffMaxSeconds < c.Push.BackoffBaseSeconds {
			return errors.Newf("push.backoff_max_seconds (%d) must be >= push.backoff_base_seconds (%d)",
				c.Push.BackoffMaxSeconds, c.Push.BackoffBaseSeconds)
		}
	}

	// Commit author: both halves are required, git refuses empty identities
	if c.Commit.AuthorName == "" {
		return errors.New("commit.author_name cannot be empty")
	}
	if c.Commit.AuthorEmail == "" {
		return errors.New("commit.author_email cannot be empty")
	}

	if c.Message.MaxLength <= 0 {
		return errors.Newf("message.max_length must be > 0, got %d", c.Message.MaxLength)
	}

	// Validate local inference configuration only when enabled
	if c.LocalInference.Enabled {
		if c.LocalInference.BaseURL == "" {
			return errors.New("local_inference.base_url cannot be empty when enabled")
		}
		if c.LocalInference.Model == "" {
			return errors.New("local_inference.model cannot be empty when enabled")
		}
		if c.LocalInference.TimeoutSeconds <= 0 {
			return errors.Newf("local_inference.timeout_seconds must be > 0, got %d", c.LocalInference.TimeoutSeconds)
		}
		if c.LocalInference.MaxPromptBytes <= 0 {
			return errors.Newf("local_inference.max_prompt_bytes must be > 0, got %d", c.LocalInference.MaxPromptBytes)
		}
	}

	// Server port: 0 is invalid (omit for default), negative is invalid
	if c.Server.Port != nil && *c.Server.Port == 0 {
		return errors.Newf("server.port cannot be 0 (omit for default port %d)", DefaultServerPort)
	}
	if c.Server.Port != nil && *c.Server.Port < 0 {
		return errors.Newf("server.port must be positive, got %d", *c.Server.Port)
	}

	if c.Server.ControlRatePerSecond < 0 {
		return errors.Newf("server.control_rate_per_second must be >= 0, got %f", c.Server.ControlRatePerSecond)
	}
	if c.Server.ControlBurst < 0 {
		return errors.Newf("server.control_burst must be >= 0, got %d", c.Server.ControlBurst)
	}

	return nil
}
