package tui

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/usain/internal/indicator"
	"github.com/LISSConsulting/usain/internal/run"
)

func TestNewTheme_Accent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  lipgloss.Color
	}{
		{"default", "", lipgloss.Color(defaultAccentColor)},
		{"custom", "#FF0000", lipgloss.Color("#FF0000")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := NewTheme(tt.input)
			if got := th.AccentHeaderStyle().GetBackground(); got != tt.want {
				t.Errorf("header background = %v, want %v", got, tt.want)
			}
			if got := th.PanelBorderStyle(true).GetBorderTopForeground(); got != tt.want {
				t.Errorf("selected border = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPanelBorderStyle_SelectedVsOther(t *testing.T) {
	th := NewTheme("")
	selected := th.PanelBorderStyle(true)
	other := th.PanelBorderStyle(false)
	if selected.GetBorderTopForeground() == other.GetBorderTopForeground() {
		t.Error("selected and unselected borders should use different colours")
	}
	if !other.GetBorderTop() {
		t.Error("unselected cards should still have a border")
	}
}

func TestRenderIndicator(t *testing.T) {
	th := NewTheme("")
	r := run.Run{Pipeline: "p1", ID: "42", State: run.StateRunning}

	tests := []struct {
		name     string
		state    indicator.DisplayState
		contains []string
		absent   []string
	}{
		{
			name:     "running",
			state:    indicator.DisplayState{RunState: run.StateRunning},
			contains: []string{"RUNNING", "p1 #42"},
			absent:   []string{"FINISHED"},
		},
		{
			name:     "finished with result",
			state:    indicator.DisplayState{RunState: run.StateFinished, Result: "FAILURE"},
			contains: []string{"FINISHED", "p1 #42", "FAILURE"},
			absent:   []string{"RUNNING"},
		},
		{
			name:     "finished without result",
			state:    indicator.DisplayState{RunState: run.StateFinished},
			contains: []string{"FINISHED", "p1 #42"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := th.RenderIndicator(r, tt.state)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("RenderIndicator() missing %q; got %q", want, got)
				}
			}
			for _, bad := range tt.absent {
				if strings.Contains(got, bad) {
					t.Errorf("RenderIndicator() should not contain %q; got %q", bad, got)
				}
			}
		})
	}
}

func TestRenderLogLine(t *testing.T) {
	th := NewTheme("")
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		line     LogLine
		contains []string
	}{
		{"info", LogLine{Time: now, Level: slog.LevelInfo, Message: "subscribed topic=job"}, []string{"[12:00:00]", "subscribed topic=job"}},
		{"warn", LogLine{Time: now, Level: slog.LevelWarn, Message: "stream ended"}, []string{"!", "stream ended"}},
		{"error", LogLine{Time: now, Level: slog.LevelError, Message: "boom"}, []string{"✗", "boom"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := th.RenderLogLine(tt.line, 120)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("RenderLogLine() missing %q; got %q", want, got)
				}
			}
		})
	}
}

func TestRenderLogLine_SingleRowAndTruncated(t *testing.T) {
	th := NewTheme("")
	line := LogLine{
		Time:    time.Now(),
		Level:   slog.LevelInfo,
		Message: "first\nsecond\tthird " + strings.Repeat("x", 200),
	}
	got := th.RenderLogLine(line, 80)
	if strings.Contains(got, "\n") {
		t.Errorf("RenderLogLine() should collapse newlines; got %q", got)
	}
	if !strings.Contains(got, "first second third") {
		t.Errorf("RenderLogLine() should join lines with spaces; got %q", got)
	}
	if !strings.Contains(got, "…") {
		t.Errorf("long messages should be truncated with …; got %q", got)
	}
}
