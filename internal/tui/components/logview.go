// Package components holds reusable bubbletea widgets for the usain TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultMaxLines bounds the number of lines a LogView retains.
const DefaultMaxLines = 2000

// LogView is a scrollable, bounded log panel that wraps bubbles/viewport.
// In follow mode (default), new lines cause the view to auto-scroll to the
// bottom. When follow is off, lines appended out of sight are counted so the
// footer can show how much is waiting below.
type LogView struct {
	vp       viewport.Model
	lines    []string // rendered (pre-styled) lines, oldest first
	maxLines int
	follow   bool
	newBelow int
	width    int
	height   int
}

// NewLogView creates a LogView with the given dimensions, initially in
// follow mode. maxLines <= 0 selects DefaultMaxLines.
func NewLogView(w, h, maxLines int) LogView {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return LogView{
		vp:       viewport.New(w, h),
		maxLines: maxLines,
		follow:   true,
		width:    w,
		height:   h,
	}
}

// AppendLine appends a pre-rendered (styled) line, dropping the oldest line
// once maxLines is reached.
func (v LogView) AppendLine(rendered string) LogView {
	v.lines = append(v.lines, rendered)
	if over := len(v.lines) - v.maxLines; over > 0 {
		v.lines = append([]string(nil), v.lines[over:]...)
	}
	v.vp.SetContent(strings.Join(v.lines, "\n"))
	if v.follow {
		v.vp.GotoBottom()
	} else {
		v.newBelow++
	}
	return v
}

// SetContent replaces all log lines with the given slice, keeping at most
// maxLines of its tail. It is used to re-render after a resize.
func (v LogView) SetContent(lines []string) LogView {
	if over := len(lines) - v.maxLines; over > 0 {
		lines = lines[over:]
	}
	v.lines = make([]string, len(lines))
	copy(v.lines, lines)
	v.vp.SetContent(strings.Join(v.lines, "\n"))
	if v.follow {
		v.vp.GotoBottom()
	}
	return v
}

// ToggleFollow switches follow mode on or off.
// When turned on, scrolls immediately to the bottom.
func (v LogView) ToggleFollow() LogView {
	v.follow = !v.follow
	if v.follow {
		v.vp.GotoBottom()
		v.newBelow = 0
	}
	return v
}

// SetSize resizes the log view to the given dimensions.
func (v LogView) SetSize(w, h int) LogView {
	v.width = w
	v.height = h
	v.vp.Width = w
	v.vp.Height = h
	if v.follow {
		v.vp.GotoBottom()
	}
	return v
}

// Following reports whether follow mode is currently active.
func (v LogView) Following() bool {
	return v.follow
}

// Len returns the number of retained lines.
func (v LogView) Len() int {
	return len(v.lines)
}

// ScrollOffset returns how many lines the view is scrolled up from the
// bottom.
func (v LogView) ScrollOffset() int {
	off := len(v.lines) - v.vp.Height - v.vp.YOffset
	if off < 0 {
		return 0
	}
	return off
}

// NewBelow returns how many lines arrived while follow mode was off.
func (v LogView) NewBelow() int {
	return v.newBelow
}

// Update handles bubbletea messages (scroll keys, mouse events).
func (v LogView) Update(msg tea.Msg) (LogView, tea.Cmd) {
	var cmd tea.Cmd
	v.vp, cmd = v.vp.Update(msg)
	switch msg.(type) {
	case tea.KeyMsg, tea.MouseMsg:
		// Scrolling away from the bottom leaves follow mode; scrolling back
		// to it clears the unseen counter.
		if v.follow && !v.vp.AtBottom() {
			v.follow = false
		}
		if v.vp.AtBottom() {
			v.newBelow = 0
		}
	}
	return v, cmd
}

// View renders the log view content.
func (v LogView) View() string {
	return v.vp.View()
}
