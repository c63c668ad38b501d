package jobs

import "fmt"

// State is a step in the lifecycle of one transformation request.
type State string

const (
	StateReceived    State = "received"
	StateValidated   State = "validated"
	StateStaged      State = "staged"
	StateTransformed State = "transformed"
	StateRecorded    State = "recorded"
	StateFailed      State = "failed"
)

// IsTerminal reports whether no further transition is possible from s.
func IsTerminal(s State) bool {
	return s == StateRecorded || s == StateFailed
}

var forward = map[State]State{
	StateReceived:    StateValidated,
	StateValidated:   StateStaged,
	StateStaged:      StateTransformed,
	StateTransformed: StateRecorded,
}

func allowed(from, to State) bool {
	if IsTerminal(from) {
		return false
	}
	return to == StateFailed || forward[from] == to
}

// tracker records the current state of one job.
type tracker struct {
	state State
	trail []State
}

func newTracker() *tracker {
	return &tracker{state: StateReceived, trail: []State{StateReceived}}
}

func (t *tracker) advance(to State) error {
	if !allowed(t.state, to) {
		return fmt.Errorf("jobs: disallowed transition %s -> %s", t.state, to)
	}
	t.state = to
	t.trail = append(t.trail, to)
	return nil
}
