package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewLevel(t *testing.T) {
	logger, err := New(Config{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNewDevelopment(t *testing.T) {
	logger, err := New(Config{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestForNamesComponent(t *testing.T) {
	logger, logs := NewObserved(zapcore.DebugLevel)

	logger.For("bridge").With(zap.String("feed", "proxySettings")).Info("Polled")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "bridge", entries[0].LoggerName)
	assert.Equal(t, "proxySettings", entries[0].ContextMap()["feed"])
}

func TestForOnNilLogger(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() { logger.For("views").Info("dropped") })
}
