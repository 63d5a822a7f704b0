package provider

import (
	"github.com/teranos/gitpulse/am"
	"github.com/teranos/gitpulse/errors"
)

// NewGenerator creates a Generator based on configuration.
// Currently the only backend is local inference; the factory exists so new
// providers slot in behind configuration, never behind call-site changes.
func NewGenerator(cfg *am.Config) (Generator, error) {
	if !cfg.LocalInference.Enabled {
		return nil, errors.Wrap(errors.ErrServiceUnavailable, "local inference disabled in config")
	}

	return NewLocalProvider(&cfg.LocalInference), nil
}
