package session

import "fmt"

// State is the session lifecycle phase
type State uint8

const (
	StateConnecting State = iota
	StateNegotiating
	StateRunning
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateNegotiating:
		return "negotiating"
	case StateRunning:
		return "running"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// transitions lists the legal successors of each state
var transitions = map[State][]State{
	StateConnecting:  {StateNegotiating, StateRunning, StateClosing},
	StateNegotiating: {StateRunning, StateClosing},
	StateRunning:     {StateClosing},
	StateClosing:     {StateClosed},
}

// CanTransition reports whether to may follow from
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// lifecycle tracks the current state and rejects illegal moves
type lifecycle struct {
	state State
}

func (l *lifecycle) to(next State) error {
	if !CanTransition(l.state, next) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, l.state, next)
	}
	l.state = next
	return nil
}
