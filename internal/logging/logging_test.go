package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"":      slog.LevelInfo,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestSetup_WritesToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "gowi.log")
	logger, closer, err := Setup(Options{File: path, Level: "warn"})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("pipeline status not recognised", "status", "weird")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pipeline status not recognised")
	assert.Contains(t, string(data), "status=weird")
	assert.NotContains(t, string(data), "hidden")
}

func TestSetup_RejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, _, err := Setup(Options{File: filepath.Join(t.TempDir(), "x.log"), Level: "chatty"})

	require.Error(t, err)
}

func TestMultiHandler(t *testing.T) {
	t.Parallel()

	var debugBuf, infoBuf bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)
	logger := slog.New(h).With("loop", "watch-ci")

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))
	logger.Debug("change in job")
	logger.Info("CI status changed")

	assert.Contains(t, debugBuf.String(), "change in job")
	assert.Contains(t, debugBuf.String(), "loop=watch-ci")
	assert.NotContains(t, infoBuf.String(), "change in job")
	assert.Contains(t, infoBuf.String(), "CI status changed")
}
