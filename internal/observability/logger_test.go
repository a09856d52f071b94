package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("info", "json")
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(-1), "debug should be disabled at info level")

	logger, err = NewLogger("debug", "text")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger("verbose", "json")
	assert.Error(t, err)
}
