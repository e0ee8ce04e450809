package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithDefaults(t *testing.T) {
	logger, err := New(NewDefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(0)) // info
	assert.False(t, logger.Core().Enabled(-1))
}

func TestNewConsoleDebug(t *testing.T) {
	logger, err := New(Config{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "verbose", Format: "json"})
	assert.Error(t, err)
}
