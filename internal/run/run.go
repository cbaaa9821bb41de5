// Package run models a single pipeline run as reported by Jenkins Blue Ocean.
package run

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRun is returned when a Run fails validation.
var ErrInvalidRun = errors.New("run: invalid run")

// State is the Blue Ocean run state.
type State string

const (
	StateQueued   State = "QUEUED"
	StateRunning  State = "RUNNING"
	StatePaused   State = "PAUSED"
	StateSkipped  State = "SKIPPED"
	StateNotBuilt State = "NOT_BUILT"
	StateFinished State = "FINISHED"
)

var knownStates = []State{StateQueued, StateRunning, StatePaused, StateSkipped, StateNotBuilt, StateFinished}

// ParseState converts a Blue Ocean state string (case-insensitive) to a State.
func ParseState(s string) (State, error) {
	want := State(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range knownStates {
		if st == want {
			return st, nil
		}
	}
	return "", fmt.Errorf("run: unknown state %q", s)
}

// Terminal reports whether no further progress is expected for a run in s.
func (s State) Terminal() bool {
	switch s {
	case StateFinished, StateSkipped, StateNotBuilt:
		return true
	default:
		return false
	}
}

// Run identifies one execution of a pipeline. It is owned by the caller and
// treated as read-only once handed to an indicator.
type Run struct {
	Pipeline string
	ID       string
	State    State
	Result   string // SUCCESS, FAILURE, UNSTABLE, ABORTED, UNKNOWN; empty while running
}

// Validate checks that the run carries a usable identity and state.
func (r Run) Validate() error {
	var errs []error
	if strings.TrimSpace(r.Pipeline) == "" {
		errs = append(errs, fmt.Errorf("%w: pipeline name must not be empty", ErrInvalidRun))
	}
	if strings.TrimSpace(r.ID) == "" {
		errs = append(errs, fmt.Errorf("%w: id must not be empty", ErrInvalidRun))
	}
	if _, err := ParseState(string(r.State)); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidRun, err))
	}
	return errors.Join(errs...)
}

// String returns the "pipeline #id" form used in logs and headers.
func (r Run) String() string {
	return fmt.Sprintf("%s #%s", r.Pipeline, r.ID)
}

// Ref is a pipeline/run-id pair parsed from the command line.
type Ref struct {
	Pipeline string
	ID       string
}

// ParseRef parses "pipeline/id". The pipeline part may itself contain
// slashes (folders); the id is everything after the last slash.
func ParseRef(s string) (Ref, error) {
	i := strings.LastIndex(s, "/")
	if i <= 0 || i == len(s)-1 {
		return Ref{}, fmt.Errorf("run: invalid ref %q (want pipeline/id)", s)
	}
	return Ref{Pipeline: s[:i], ID: s[i+1:]}, nil
}

func (r Ref) String() string {
	return r.Pipeline + "/" + r.ID
}
