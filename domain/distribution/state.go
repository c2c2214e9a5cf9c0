package distribution

import "fmt"

// State is a target's position in its create/share lifecycle
type State string

const (
	StatePending      State = "pending"
	StateCreating     State = "creating"
	StateCreated      State = "created"
	StateCreateFailed State = "create_failed"
	StateSharing      State = "sharing"
	StateShared       State = "shared"
	StateShareFailed  State = "share_failed"
)

var transitions = map[State][]State{
	StatePending:  {StateCreating, StateCreateFailed},
	StateCreating: {StateCreated, StateCreateFailed},
	StateCreated:  {StateSharing},
	StateSharing:  {StateShared, StateShareFailed},
}

// CanAdvance reports whether the state may move to next
func (s State) CanAdvance(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// Progress tracks one target through a run
type Progress struct {
	Target   Target
	State    State
	FileID   string
	FileName string
	URL      string
	Err      error
}

// NewProgress starts a target in the pending state
func NewProgress(t Target) *Progress {
	return &Progress{Target: t, State: StatePending}
}

// Advance moves the target to next, recording err for failed states
func (p *Progress) Advance(next State, err error) error {
	if !p.State.CanAdvance(next) {
		return fmt.Errorf("%w: %s -> %s for target %s", ErrInvalidTransition, p.State, next, p.Target.Key())
	}
	p.State = next
	if err != nil {
		p.Err = err
	}
	return nil
}

// Fail moves the target to the failed state that matches its current stage.
// Terminal targets are left unchanged.
func (p *Progress) Fail(err error) {
	switch p.State {
	case StatePending, StateCreating:
		p.State = StateCreateFailed
	case StateCreated, StateSharing:
		p.State = StateShareFailed
	default:
		return
	}
	p.Err = err
}

// Status returns "OK" for a shared target, otherwise the error detail or state name
func (p *Progress) Status() string {
	if p.State == StateShared {
		return StatusOK
	}
	if p.Err != nil {
		return p.Err.Error()
	}
	return string(p.State)
}
