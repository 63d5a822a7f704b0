package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/gitpulse/am"
)

func testConfig(baseURL string) *am.LocalInferenceConfig {
	return &am.LocalInferenceConfig{
		Enabled:        true,
		BaseURL:        baseURL,
		Model:          "llama3.2:3b",
		TimeoutSeconds: 2,
		MaxPromptBytes: 8192,
	}
}

func TestGenerateTextSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"feat: add deploy script"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	lp := NewLocalProvider(testConfig(srv.URL))

	text, err := lp.GenerateText(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "feat: add deploy script", text)
}

func TestGenerateTextNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	lp := NewLocalProvider(testConfig(srv.URL))

	_, err := lp.GenerateText(context.Background(), "system", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestGenerateTextEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	lp := NewLocalProvider(testConfig(srv.URL))

	_, err := lp.GenerateText(context.Background(), "system", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no completion choices")
}

func TestGenerateTextHonorsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"choices":[{"message":{"content":"too late"}}]}`))
	}))
	defer srv.Close()

	lp := NewLocalProvider(testConfig(srv.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := lp.GenerateText(ctx, "system", "user")
	require.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running"))
	}))
	defer srv.Close()

	lp := NewLocalProvider(testConfig(srv.URL))
	assert.True(t, lp.HealthCheck(context.Background()))

	srv.Close()
	assert.False(t, lp.HealthCheck(context.Background()))
}

func TestNewGeneratorDisabled(t *testing.T) {
	cfg := &am.Config{}
	cfg.LocalInference.Enabled = false

	_, err := NewGenerator(cfg)
	require.Error(t, err)
}
