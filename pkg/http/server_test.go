package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "SentiPulse/pkg/logger"
)

func TestNewServerAppliesLoggerOption(t *testing.T) {
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	s := NewServer(nil, WithPort(9191), WithLogger(l))
	assert.Equal(t, 9191, s.config.Port)
	assert.Same(t, l, s.config.Logger)
}

func TestServerLoggingToleratesNilLogger(t *testing.T) {
	s := NewServer(nil)
	require.Nil(t, s.config.Logger)

	assert.NotPanics(t, func() {
		s.logInfo("listening")
		s.logError("failed")
	})
}
