package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerIsSafeBeforeInitialize(t *testing.T) {
	// The package-level no-op logger must absorb calls without panicking
	assert.NotPanics(t, func() {
		Info("before initialize")
		Infow("structured", "key", "value")
		Errorw("error path", "error", assert.AnError)
	})
}

func TestInitializeJSON(t *testing.T) {
	require.NoError(t, Initialize(true))
	assert.True(t, JSONOutput)
	assert.NotNil(t, Logger)
}

func TestInitializeConsole(t *testing.T) {
	require.NoError(t, Initialize(false))
	assert.False(t, JSONOutput)
	assert.NotNil(t, Logger)

	assert.NotPanics(t, func() {
		Infow("console output", "interval", "10m")
		Cleanup()
	})
}
