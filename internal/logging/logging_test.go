package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	h, closer := NewHandler(&console, Options{Level: slog.LevelInfo, Format: "json"})
	t.Cleanup(func() { _ = closer.Close() })

	slog.New(h).Info("hello")
	assert.Contains(t, console.String(), `"msg":"hello"`)
}

func TestNewHandler_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "deepresearch.log")
	var console bytes.Buffer
	h, closer := NewHandler(&console, Options{Level: slog.LevelInfo, File: path})

	logger := slog.New(h)
	logger.Debug("debug only")
	logger.Info("both")
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "debug only")
	assert.Contains(t, string(b), "both")
	assert.NotContains(t, console.String(), "debug only")
	assert.Contains(t, console.String(), "both")
}

func TestNewHandler_FileSinkKeepsAttrsAndGroups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deepresearch.log")
	var console bytes.Buffer
	h, closer := NewHandler(&console, Options{Level: slog.LevelInfo, File: path})

	logger := slog.New(h).With("session", "abc").WithGroup("call")
	logger.Debug("quiet", "n", 1)
	logger.Info("loud", "n", 2)
	require.NoError(t, closer.Close())

	assert.NotContains(t, console.String(), "quiet")
	assert.Contains(t, console.String(), "session=abc")
	assert.Contains(t, console.String(), "call.n=2")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "call.n=1")
	assert.Contains(t, string(b), "call.n=2")
}

func TestNewHandler_EnabledFollowsMostVerboseSink(t *testing.T) {
	h, closer := NewHandler(&bytes.Buffer{}, Options{Level: slog.LevelWarn})
	assert.False(t, h.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, h.Enabled(t.Context(), slog.LevelError))
	require.NoError(t, closer.Close())

	path := filepath.Join(t.TempDir(), "deepresearch.log")
	h, closer = NewHandler(&bytes.Buffer{}, Options{Level: slog.LevelWarn, File: path})
	t.Cleanup(func() { _ = closer.Close() })
	assert.True(t, h.Enabled(t.Context(), slog.LevelDebug))
}
