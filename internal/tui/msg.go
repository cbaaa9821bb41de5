package tui

import (
	"log/slog"
	"time"

	"github.com/LISSConsulting/usain/internal/gateway"
	"github.com/LISSConsulting/usain/internal/run"
)

// Delivery is a gateway event handed off to the UI goroutine for the
// indicator watching Run.
type Delivery struct {
	Run   run.Run
	Event gateway.Event
}

// LogLine is one entry in the event log panel.
type LogLine struct {
	Time    time.Time
	Level   slog.Level
	Message string
}

// Handoff returns an indicator.WithHandoff callback that pushes matching
// events for r onto ch without blocking the gateway reader. Events are
// dropped when ch is full; an indicator only needs the first match.
func Handoff(ch chan<- Delivery, r run.Run) gateway.Callback {
	return func(ev gateway.Event) {
		select {
		case ch <- Delivery{Run: r, Event: ev}:
		default:
		}
	}
}

// deliveryMsg wraps a Delivery read from the event channel.
type deliveryMsg Delivery

// logMsg wraps a LogLine read from the log channel.
type logMsg LogLine

// streamDoneMsg signals that the gateway stream terminated.
type streamDoneMsg struct{ err error }

// tickMsg is sent every second for the clock.
type tickMsg time.Time
