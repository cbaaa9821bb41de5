package tui

// ConnState is the state of the gateway event stream as shown in the header.
type ConnState int

const (
	ConnLive   ConnState = iota // stream open, events flowing
	ConnClosed                  // stream ended cleanly
	ConnFailed                  // stream ended with an error
)

// validTransitions defines the allowed ConnState transitions. The stream is
// never reopened, so both end states are terminal.
var validTransitions = map[ConnState][]ConnState{
	ConnLive: {ConnClosed, ConnFailed},
}

// CanTransitionTo reports whether transitioning from s to next is valid.
func (s ConnState) CanTransitionTo(next ConnState) bool {
	for _, valid := range validTransitions[s] {
		if valid == next {
			return true
		}
	}
	return false
}

// Label returns a short uppercase label for the state.
func (s ConnState) Label() string {
	switch s {
	case ConnLive:
		return "LIVE"
	case ConnClosed:
		return "CLOSED"
	case ConnFailed:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Symbol returns a single-character symbol representing the state.
func (s ConnState) Symbol() string {
	switch s {
	case ConnLive:
		return "●"
	case ConnClosed:
		return "○"
	case ConnFailed:
		return "✗"
	default:
		return "?"
	}
}
