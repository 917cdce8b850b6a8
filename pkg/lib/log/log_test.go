package log

import (
	"bytes"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLazyLogger_FollowsDefault(t *testing.T) {
	defer SetOutputWithLevel(os.Stderr, slog.LevelInfo)

	l := Logger("test/component")

	var buf bytes.Buffer
	SetOutputWithLevel(&buf, slog.LevelDebug)
	l.Debug("hello", "k", "v")

	out := buf.String()
	assert.Contains(t, out, "component=test/component")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "k=v")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc", TruncateID("abc", 8))
	assert.Equal(t, "abcdefgh", TruncateID("abcdefghijk", 8))
}

func TestFxLogger(t *testing.T) {
	assert.NotNil(t, FxLogger(false))
	assert.NotNil(t, FxLogger(true))
}
