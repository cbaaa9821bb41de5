package panels

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestWindow(t *testing.T) {
	tests := []struct {
		name                     string
		total, selected, visible int
		wantStart, wantEnd       int
	}{
		{"all fit", 3, 2, 5, 0, 3},
		{"selected at top", 10, 0, 4, 0, 4},
		{"selected inside first page", 10, 3, 4, 0, 4},
		{"selected past first page", 10, 5, 4, 2, 6},
		{"selected last", 10, 9, 4, 6, 10},
		{"nothing visible", 10, 3, 0, 0, 0},
		{"empty", 0, 0, 4, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := Window(tt.total, tt.selected, tt.visible)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("Window = [%d,%d), want [%d,%d)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestRenderCards(t *testing.T) {
	border := lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	props := CardsProps{
		Bodies:   []string{"p1 #1  RUNNING", "p1 #2  FINISHED", "p2 #7  RUNNING"},
		Selected: 2,
		Visible:  2,
	}

	rendered := RenderCards(props, 40, border, border)

	if strings.Contains(rendered, "p1 #1") {
		t.Errorf("first card should be scrolled out; got %q", rendered)
	}
	for _, want := range []string{"p1 #2", "p2 #7"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("RenderCards() missing %q; got %q", want, rendered)
		}
	}
	if rows := strings.Count(rendered, "\n") + 1; rows != 6 {
		t.Errorf("two bordered cards should take 6 rows, got %d", rows)
	}
}

func TestRenderCards_Empty(t *testing.T) {
	rendered := RenderCards(CardsProps{Visible: 3}, 40, lipgloss.NewStyle(), lipgloss.NewStyle())
	if !strings.Contains(rendered, "no runs watched") {
		t.Errorf("expected empty notice; got %q", rendered)
	}
}

func TestRenderCards_LongBodyStaysOnOneRow(t *testing.T) {
	border := lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	props := CardsProps{Bodies: []string{strings.Repeat("x", 100)}, Visible: 1}
	rendered := RenderCards(props, 20, border, border)
	if rows := strings.Count(rendered, "\n") + 1; rows != 3 {
		t.Errorf("card should take 3 rows, got %d: %q", rows, rendered)
	}
}
