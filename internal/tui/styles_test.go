package tui

import (
	"log/slog"
	"testing"
)

func TestLevelIcon(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, " "},
		{slog.LevelInfo, "·"},
		{slog.LevelWarn, "!"},
		{slog.LevelError, "✗"},
		{slog.LevelError + 4, "✗"},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			if got := levelIcon(tt.level); got != tt.want {
				t.Errorf("levelIcon(%v) = %q, want %q", tt.level, got, tt.want)
			}
		})
	}
}

func TestLevelStyle(t *testing.T) {
	// Verify all branches are reachable and return a usable style without panicking.
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		t.Run(level.String(), func(t *testing.T) {
			_ = levelStyle(level).Render("x")
		})
	}
}

func TestResultStyle(t *testing.T) {
	for _, result := range []string{"SUCCESS", "FAILURE", "UNSTABLE", "ABORTED", "NOT_BUILT", "", "UNKNOWN"} {
		t.Run(result, func(t *testing.T) {
			_ = resultStyle(result).Render("x")
		})
	}
}
