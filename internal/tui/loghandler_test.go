package tui

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(ch <-chan LogLine) []LogLine {
	var out []LogLine
	for {
		select {
		case l := <-ch:
			out = append(out, l)
		default:
			return out
		}
	}
}

func TestLogHandler_LevelFiltering(t *testing.T) {
	t.Parallel()
	ch := make(chan LogLine, 8)
	logger := slog.New(NewLogHandler(ch, slog.LevelWarn))

	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")

	lines := drain(ch)
	require.Len(t, lines, 2)
	assert.Equal(t, slog.LevelWarn, lines[0].Level)
	assert.Equal(t, "w", lines[0].Message)
	assert.Equal(t, slog.LevelError, lines[1].Level)
	assert.False(t, lines[1].Time.IsZero())
}

func TestLogHandler_DynamicLevel(t *testing.T) {
	t.Parallel()
	ch := make(chan LogLine, 8)
	var lv slog.LevelVar
	lv.Set(slog.LevelError)
	logger := slog.New(NewLogHandler(ch, &lv))

	logger.Info("hidden")
	lv.Set(slog.LevelDebug)
	logger.Debug("shown")

	lines := drain(ch)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0].Message)
}

func TestLogHandler_AttrsIncludedInMessage(t *testing.T) {
	t.Parallel()
	ch := make(chan LogLine, 8)
	logger := slog.New(NewLogHandler(ch, slog.LevelInfo))

	logger.Warn("configure failed", "topic", "job", "error", "403 Forbidden")

	lines := drain(ch)
	require.Len(t, lines, 1)
	assert.Equal(t, `configure failed topic=job error="403 Forbidden"`, lines[0].Message)
}

func TestLogHandler_WithAttrsAndGroup(t *testing.T) {
	t.Parallel()
	ch := make(chan LogLine, 8)
	logger := slog.New(NewLogHandler(ch, slog.LevelInfo)).
		With("component", "gateway", "run", "p1 #42").
		WithGroup("req")

	logger.Info("sent", "status", 200)

	lines := drain(ch)
	require.Len(t, lines, 1)
	assert.Equal(t, `sent run="p1 #42" req.status=200`, lines[0].Message)
}

func TestLogHandler_NeverBlocks(t *testing.T) {
	t.Parallel()
	ch := make(chan LogLine, 1)
	logger := slog.New(NewLogHandler(ch, slog.LevelInfo))

	// No reader: the second and third records are dropped instead of blocking.
	logger.Info("one")
	logger.Info("two")
	logger.Info("three")

	lines := drain(ch)
	require.Len(t, lines, 1)
	assert.Equal(t, "one", lines[0].Message)
}
