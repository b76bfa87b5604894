package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":    zapcore.DebugLevel,
		" WARN ":   zapcore.WarnLevel,
		"warning":  zapcore.WarnLevel,
		"error":    zapcore.ErrorLevel,
		"info":     zapcore.InfoLevel,
		"":         zapcore.InfoLevel,
		"verbose?": zapcore.InfoLevel,
	}
	for input, expected := range tests {
		assert.Equal(t, expected, ParseLevel(input), "input %q", input)
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		logger, err := New("warn", format)
		require.NoError(t, err)

		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
	}
}
