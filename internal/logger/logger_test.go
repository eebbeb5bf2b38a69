package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"  trace  ", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.raw), "raw=%q", tt.raw)
	}
}

func TestInitLogger_LevelFromEnv(t *testing.T) {
	t.Setenv("DOCCHAT_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")

	require.NoError(t, InitLogger())
	require.NotNil(t, Logger)
	assert.True(t, Logger.Core().Enabled(zapcore.DebugLevel))
}

func TestInitLogger_DefaultLevelInfo(t *testing.T) {
	t.Setenv("DOCCHAT_ENV", "production")
	t.Setenv("LOG_LEVEL", "")

	require.NoError(t, InitLogger())
	assert.False(t, Logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, Logger.Core().Enabled(zapcore.InfoLevel))
}
