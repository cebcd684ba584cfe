package activation

import (
	"fmt"
	"sync"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/errors"
)

type StateKind string

const (
	StateNotStarted StateKind = "not_started"
	StateInPhase    StateKind = "in_phase"
	StateCompleted  StateKind = "completed"
)

// State of a sequencer. Phase is 1-based and only set while in a phase.
type State struct {
	Kind      StateKind
	Phase     int
	PhaseName string
}

func (s State) String() string {
	if s.Kind == StateInPhase {
		return fmt.Sprintf("%s(%d: %s)", s.Kind, s.Phase, s.PhaseName)
	}
	return string(s.Kind)
}

// TransitionObserver sees every state change, in order
type TransitionObserver func(from, to State)

type stateMachine struct {
	mutex      sync.RWMutex
	state      State
	phaseCount int
	observer   TransitionObserver
}

func newStateMachine(phaseCount int, observer TransitionObserver) *stateMachine {
	return &stateMachine{
		state:      State{Kind: StateNotStarted},
		phaseCount: phaseCount,
		observer:   observer,
	}
}

func (m *stateMachine) get() State {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.state
}

func (m *stateMachine) transition(to State) error {
	m.mutex.Lock()
	from := m.state
	if !m.canTransition(from, to) {
		m.mutex.Unlock()
		return errors.NewInternalError(fmt.Sprintf("invalid activation transition %s -> %s", from, to), nil)
	}
	m.state = to
	m.mutex.Unlock()

	if m.observer != nil {
		m.observer(from, to)
	}
	return nil
}

// Transitions are unconditional on phase outcomes; only the order is enforced.
func (m *stateMachine) canTransition(from, to State) bool {
	switch from.Kind {
	case StateNotStarted:
		if m.phaseCount == 0 {
			return to.Kind == StateCompleted
		}
		return to.Kind == StateInPhase && to.Phase == 1
	case StateInPhase:
		if from.Phase == m.phaseCount {
			return to.Kind == StateCompleted
		}
		return to.Kind == StateInPhase && to.Phase == from.Phase+1
	default:
		return false
	}
}
