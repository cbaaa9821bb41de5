package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/usain/internal/gateway"
	"github.com/LISSConsulting/usain/internal/indicator"
	"github.com/LISSConsulting/usain/internal/tui/components"
	"github.com/LISSConsulting/usain/internal/tui/panels"
)

// Stream reports termination of the gateway event stream.
// *gateway.Client satisfies it.
type Stream interface {
	Done() <-chan struct{}
	Err() error
}

// Options configures a Model.
type Options struct {
	ProjectName string
	GatewayURL  string
	AccentColor string

	// Indicators are shown as cards in the given order. The model closes
	// an indicator when the user unwatches it; the caller closes the rest.
	Indicators []*indicator.Indicator

	Deliveries <-chan Delivery // from Handoff
	Logs       <-chan LogLine  // from LogHandler
	Stream     Stream          // may be nil
}

// Model is the root bubbletea model: header, indicator cards, event log and
// footer.
type Model struct {
	// Event sources
	deliveries <-chan Delivery
	logs       <-chan LogLine
	stream     Stream

	// Cards
	cards    []*indicator.Indicator
	selected int

	// Event log
	logview  components.LogView
	logLines []LogLine // kept for re-rendering at a new width

	spinner spinner.Model
	conn    ConnState

	// Layout
	layout Layout
	theme  Theme
	width  int
	height int

	// Identity
	projectName string
	gatewayURL  string

	// Time
	startedAt time.Time
	now       time.Time
}

// New creates the root Model.
func New(opts Options) Model {
	now := time.Now()
	cards := append([]*indicator.Indicator(nil), opts.Indicators...)
	layout := Calculate(80, 24, len(cards))
	logW, logH := innerDims(layout.Log)

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = runningStyle

	return Model{
		deliveries:  opts.Deliveries,
		logs:        opts.Logs,
		stream:      opts.Stream,
		cards:       cards,
		logview:     components.NewLogView(logW, logH, components.DefaultMaxLines),
		spinner:     sp,
		conn:        ConnLive,
		layout:      layout,
		theme:       NewTheme(opts.AccentColor),
		width:       80,
		height:      24,
		projectName: opts.ProjectName,
		gatewayURL:  opts.GatewayURL,
		startedAt:   now,
		now:         now,
	}
}

// Indicators returns the indicators still shown as cards.
func (m Model) Indicators() []*indicator.Indicator {
	return append([]*indicator.Indicator(nil), m.cards...)
}

// Init returns the initial commands: channel listeners, stream watcher,
// clock ticker and spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForDelivery(m.deliveries),
		waitForLog(m.logs),
		waitForStreamDone(m.stream),
		tickCmd(),
		m.spinner.Tick,
	)
}

// tickCmd schedules the next one-second clock tick.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForDelivery blocks on the delivery channel and returns the next
// message. A nil or closed channel stops listening.
func waitForDelivery(ch <-chan Delivery) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		d, ok := <-ch
		if !ok {
			return nil
		}
		return deliveryMsg(d)
	}
}

// waitForLog blocks on the log channel and returns the next message.
func waitForLog(ch <-chan LogLine) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		line, ok := <-ch
		if !ok {
			return nil
		}
		return logMsg(line)
	}
}

// waitForStreamDone blocks until the gateway stream terminates.
func waitForStreamDone(s Stream) tea.Cmd {
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		<-s.Done()
		return streamDoneMsg{err: s.Err()}
	}
}

// Update handles all incoming bubbletea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case deliveryMsg:
		return m.handleDelivery(msg)
	case logMsg:
		m = m.appendLog(LogLine(msg))
		return m, waitForLog(m.logs)
	case streamDoneMsg:
		return m.handleStreamDone(msg)
	case tickMsg:
		m.now = time.Time(msg)
		return m, tickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.logview, cmd = m.logview.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	return m.relayout(), nil
}

// relayout recomputes the layout for the current size and card count and
// re-renders the log at the new width.
func (m Model) relayout() Model {
	m.layout = Calculate(m.width, m.height, len(m.cards))
	if m.layout.TooSmall {
		return m
	}
	logW, logH := innerDims(m.layout.Log)
	m.logview = m.logview.SetSize(logW, logH)
	rendered := make([]string, len(m.logLines))
	for i, l := range m.logLines {
		rendered[i] = m.theme.RenderLogLine(l, logW)
	}
	m.logview = m.logview.SetContent(rendered)
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if !IsGlobalKey(key) {
		if IsLogKey(key) {
			var cmd tea.Cmd
			m.logview, cmd = m.logview.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "j", "down", "tab":
		if len(m.cards) > 0 {
			m.selected = (m.selected + 1) % len(m.cards)
		}
	case "k", "up", "shift+tab":
		if len(m.cards) > 0 {
			m.selected = (m.selected - 1 + len(m.cards)) % len(m.cards)
		}
	case "x":
		m = m.unwatchSelected()
	case "f":
		m.logview = m.logview.ToggleFollow()
	}
	return m, nil
}

// unwatchSelected tears down the selected indicator and removes its card.
func (m Model) unwatchSelected() Model {
	if len(m.cards) == 0 {
		return m
	}
	ind := m.cards[m.selected]
	ind.Close()

	cards := make([]*indicator.Indicator, 0, len(m.cards)-1)
	cards = append(cards, m.cards[:m.selected]...)
	m.cards = append(cards, m.cards[m.selected+1:]...)
	if m.selected >= len(m.cards) && m.selected > 0 {
		m.selected--
	}

	m = m.appendLog(LogLine{Time: m.now, Level: slog.LevelInfo, Message: "stopped watching " + ind.Run().String()})
	return m.relayout()
}

func (m Model) handleDelivery(msg deliveryMsg) (tea.Model, tea.Cmd) {
	for _, ind := range m.cards {
		r := ind.Run()
		if r.Pipeline != msg.Run.Pipeline || r.ID != msg.Run.ID {
			continue
		}
		if ind.OnEvent(msg.Event) {
			m = m.appendLog(LogLine{Time: m.now, Level: slog.LevelInfo, Message: finishedMessage(ind)})
		}
		break
	}
	return m, waitForDelivery(m.deliveries)
}

func finishedMessage(ind *indicator.Indicator) string {
	if res := ind.State().Result; res != "" {
		return fmt.Sprintf("%s finished: %s", ind.Run(), res)
	}
	return ind.Run().String() + " finished"
}

func (m Model) handleStreamDone(msg streamDoneMsg) (tea.Model, tea.Cmd) {
	next, line := streamOutcome(msg.err)
	if m.conn.CanTransitionTo(next) {
		m.conn = next
	}
	line.Time = m.now
	return m.appendLog(line), nil
}

// streamOutcome maps the stream's termination error onto a connection state
// and the log line announcing it.
func streamOutcome(err error) (ConnState, LogLine) {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return ConnClosed, LogLine{Level: slog.LevelInfo, Message: "event stream closed"}
	case errors.Is(err, gateway.ErrStreamEnded):
		return ConnClosed, LogLine{Level: slog.LevelWarn, Message: "gateway ended the event stream; runs no longer update"}
	default:
		return ConnFailed, LogLine{Level: slog.LevelError, Message: "event stream failed: " + err.Error()}
	}
}

func (m Model) appendLog(line LogLine) Model {
	if line.Time.IsZero() {
		line.Time = time.Now()
	}
	m.logLines = append(m.logLines, line)
	if over := len(m.logLines) - components.DefaultMaxLines; over > 0 {
		m.logLines = append([]LogLine(nil), m.logLines[over:]...)
	}
	logW, _ := innerDims(m.layout.Log)
	m.logview = m.logview.AppendLine(m.theme.RenderLogLine(line, logW))
	return m
}

func (m Model) finishedCount() int {
	n := 0
	for _, ind := range m.cards {
		if ind.State().Finished() {
			n++
		}
	}
	return n
}

// View renders the full TUI.
func (m Model) View() string {
	if m.layout.TooSmall {
		msg := fmt.Sprintf("Terminal too small (%dx%d).\nPlease resize to at least %dx%d.", m.width, m.height, MinWidth, MinHeight)
		return lipgloss.NewStyle().
			Width(m.width).
			Align(lipgloss.Center).
			Render(msg)
	}

	finished := m.finishedCount()
	spin := ""
	if m.conn == ConnLive {
		spin = m.spinner.View()
	}
	header := panels.RenderHeader(panels.HeaderProps{
		ProjectName: m.projectName,
		GatewayURL:  m.gatewayURL,
		Spinner:     spin,
		StateSymbol: m.conn.Symbol(),
		StateLabel:  m.conn.Label(),
		Watching:    len(m.cards),
		Finished:    finished,
		Elapsed:     m.now.Sub(m.startedAt),
		Clock:       m.now,
	}, m.layout.Header.Width, m.theme.AccentHeaderStyle())

	var selected string
	bodies := make([]string, len(m.cards))
	for i, ind := range m.cards {
		bodies[i] = ind.Render()
		if i == m.selected {
			selected = ind.Run().String()
		}
	}
	cards := panels.RenderCards(panels.CardsProps{
		Bodies:   bodies,
		Selected: m.selected,
		Visible:  m.layout.VisibleCards(),
	}, m.layout.Cards.Width, m.theme.PanelBorderStyle(true), m.theme.PanelBorderStyle(false))
	cards = lipgloss.NewStyle().Height(m.layout.Cards.Height).MaxHeight(m.layout.Cards.Height).Render(cards)

	logW, logH := innerDims(m.layout.Log)
	log := m.theme.PanelBorderStyle(true).
		Width(logW).Height(logH).
		Render(m.logview.View())

	footer := panels.RenderFooter(panels.FooterProps{
		Selected:     selected,
		Following:    m.logview.Following(),
		ScrollOffset: m.logview.ScrollOffset(),
		NewBelow:     m.logview.NewBelow(),
	}, m.layout.Footer.Width)

	return lipgloss.JoinVertical(lipgloss.Left, header, cards, log, footer)
}
