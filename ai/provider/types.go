package provider

import (
	"context"
)

// Generator is the capability gitpulse needs from a language-model backend:
// one bounded text generation call plus a liveness probe. Concrete backends
// are interchangeable implementations selected by configuration.
type Generator interface {
	// GenerateText sends a system+user prompt pair and returns the model's
	// text response. The call is bounded by the provider's configured timeout
	// and by ctx, whichever fires first.
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// HealthCheck reports whether the backend is reachable. Used for status
	// display only; generation failures are handled by the caller's fallback.
	HealthCheck(ctx context.Context) bool

	// ModelName returns the configured model identifier.
	ModelName() string
}

// ProviderType represents the type of AI/LLM provider
type ProviderType string

const (
	// ProviderTypeLocal covers Ollama, LocalAI, or any OpenAI-compatible
	// local inference server.
	ProviderTypeLocal ProviderType = "local"
)
