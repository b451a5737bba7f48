package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyHandlerPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}).WithoutColor()
	log := slog.New(h).With("request_id", "r1").WithGroup("auth")

	log.Info("login succeeded", "user_id", "u1")
	log.Debug("hidden")

	out := buf.String()
	require.Contains(t, out, "INFO  login succeeded")
	assert.Contains(t, out, " request_id=r1")
	assert.Contains(t, out, " auth.user_id=u1")
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "\033[")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
