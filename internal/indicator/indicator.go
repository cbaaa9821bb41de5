// Package indicator implements the run status indicator: a two-state
// machine (RUNNING, FINISHED) driven by job events from the gateway.
//
// An Indicator subscribes to the job channel when it is created and
// releases that subscription in Close. It is not safe for concurrent use;
// every method is meant to be called from the goroutine that owns the
// display (the Bubble Tea update loop in this repository). Use WithHandoff
// when the bus delivers callbacks on a different goroutine.
package indicator

import (
	"errors"
	"fmt"

	"github.com/LISSConsulting/usain/internal/gateway"
	"github.com/LISSConsulting/usain/internal/run"
)

// Bus is the subset of the gateway client an Indicator needs.
type Bus interface {
	Subscribe(topic string, cb gateway.Callback) (gateway.Handle, error)
	Unsubscribe(h gateway.Handle)
}

// DisplayState is the only input to Render.
type DisplayState struct {
	RunState run.State // run.StateRunning or run.StateFinished
	Result   string    // job_run_status from the ending event, if any
}

// Finished reports whether the display has reached its terminal state.
func (s DisplayState) Finished() bool {
	return s.RunState == run.StateFinished
}

// Renderer turns a run and its display state into markup. It must not have
// side effects.
type Renderer func(r run.Run, s DisplayState) string

// Observer is called after every state change, in place of a framework
// re-render.
type Observer func(r run.Run, s DisplayState)

// Indicator tracks whether a single run has finished.
type Indicator struct {
	bus      Bus
	run      run.Run
	state    DisplayState
	handle   gateway.Handle
	active   bool
	closed   bool
	observer Observer
	renderer Renderer
	handoff  gateway.Callback
}

// Option configures an Indicator.
type Option func(*Indicator)

// WithObserver registers fn to be called after each state change.
func WithObserver(fn Observer) Option {
	return func(i *Indicator) { i.observer = fn }
}

// WithRenderer replaces PlainRenderer.
func WithRenderer(fn Renderer) Option {
	return func(i *Indicator) {
		if fn != nil {
			i.renderer = fn
		}
	}
}

// WithHandoff makes the bus callback pass matching events to fn instead of
// applying them. The owner later applies them with OnEvent on its own
// goroutine. fn must not block.
func WithHandoff(fn gateway.Callback) Option {
	return func(i *Indicator) { i.handoff = fn }
}

// New validates r and subscribes to the job channel on bus. A subscription
// failure is returned as is (wrapped); no retry is attempted and no
// Indicator is produced.
func New(bus Bus, r run.Run, opts ...Option) (*Indicator, error) {
	if bus == nil {
		return nil, errors.New("indicator: nil bus")
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("indicator: %w", err)
	}
	r.State, _ = run.ParseState(string(r.State)) // canonical casing

	i := &Indicator{
		bus:      bus,
		run:      r,
		state:    initialState(r),
		renderer: PlainRenderer,
	}
	for _, opt := range opts {
		opt(i)
	}

	h, err := bus.Subscribe(gateway.ChannelJob, i.receive)
	if err != nil {
		return nil, fmt.Errorf("indicator: %s: %w", r, err)
	}
	i.handle = h
	i.active = true
	return i, nil
}

// initialState maps the run's Blue Ocean state onto the two display states.
func initialState(r run.Run) DisplayState {
	if r.State.Terminal() {
		return DisplayState{RunState: run.StateFinished, Result: r.Result}
	}
	return DisplayState{RunState: run.StateRunning}
}

// receive is the callback registered with the bus.
func (i *Indicator) receive(ev gateway.Event) {
	if !i.Matches(ev) {
		return
	}
	if i.handoff != nil {
		i.handoff(ev)
		return
	}
	i.OnEvent(ev)
}

// Matches reports whether ev announces the end of this indicator's run.
func (i *Indicator) Matches(ev gateway.Event) bool {
	return ev.Kind == gateway.KindJobRunEnded &&
		ev.PipelineName == i.run.Pipeline &&
		ev.ObjectID == i.run.ID
}

// OnEvent applies ev. It moves RUNNING to FINISHED when ev matches and
// reports whether the state changed. Events are ignored once the indicator
// is finished or closed.
func (i *Indicator) OnEvent(ev gateway.Event) bool {
	if i.closed || i.state.Finished() || !i.Matches(ev) {
		return false
	}
	i.state = DisplayState{RunState: run.StateFinished, Result: ev.RunStatus}
	if i.observer != nil {
		i.observer(i.run, i.state)
	}
	return true
}

// Close releases the subscription if one is held. It is safe to call on a
// nil Indicator and more than once.
func (i *Indicator) Close() {
	if i == nil {
		return
	}
	i.closed = true
	if !i.active {
		return
	}
	i.bus.Unsubscribe(i.handle)
	i.handle = 0
	i.active = false
}

// Active reports whether the indicator still holds a subscription.
func (i *Indicator) Active() bool { return i.active }

// Run returns the run this indicator was created for.
func (i *Indicator) Run() run.Run { return i.run }

// State returns the current display state.
func (i *Indicator) State() DisplayState { return i.state }

// Render returns the markup for the current display state.
func (i *Indicator) Render() string {
	return i.renderer(i.run, i.state)
}

// PlainRenderer renders a single uncoloured line, e.g. "p1 #42  RUNNING".
func PlainRenderer(r run.Run, s DisplayState) string {
	if s.Result != "" {
		return fmt.Sprintf("%s  %s (%s)", r, s.RunState, s.Result)
	}
	return fmt.Sprintf("%s  %s", r, s.RunState)
}
