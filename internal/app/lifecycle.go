package app

import (
	"sync"

	"github.com/bft-labs/syncfiles/internal/domain"
	"github.com/bft-labs/syncfiles/internal/ports"
)

// State represents the batch state of the action handler.
type State int

const (
	StateIdle State = iota
	StateExporting
	StateSending
	StateConfirming
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateExporting:
		return "Exporting"
	case StateSending:
		return "Sending"
	case StateConfirming:
		return "Confirming"
	default:
		return "Unknown"
	}
}

// stateFor returns the working state of an action. Actions without side
// effects run in StateIdle.
func stateFor(action domain.Action) State {
	switch action {
	case domain.ActionExportBatch:
		return StateExporting
	case domain.ActionSendFiles:
		return StateSending
	case domain.ActionConfirmBatch:
		return StateConfirming
	case domain.ActionPendingFiles:
		return StateIdle
	default:
		return StateIdle
	}
}

// Lifecycle is the batch state machine: Idle -> Exporting|Sending|Confirming -> Idle.
// At most one working state is held at a time within the process.
type Lifecycle struct {
	mu           sync.RWMutex
	state        State
	logger       ports.Logger
	eventEmitter EventEmitter
}

// EventEmitter is called when the batch state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// NewLifecycle creates a state machine in StateIdle.
func NewLifecycle(logger ports.Logger, emitter EventEmitter) *Lifecycle {
	return &Lifecycle{
		state:        StateIdle,
		logger:       logger,
		eventEmitter: emitter,
	}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo attempts to transition to a new state.
// Returns domain.ErrBusy if the transition is not valid.
func (l *Lifecycle) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state

	switch oldState {
	case StateIdle:
		if newState == StateIdle {
			l.mu.Unlock()
			return nil
		}
	case StateExporting, StateSending, StateConfirming:
		if newState != StateIdle {
			l.mu.Unlock()
			return domain.ErrBusy
		}
	}

	l.state = newState
	l.mu.Unlock()

	// Emit event outside of lock
	if l.eventEmitter != nil {
		l.eventEmitter.OnStateChange(oldState, newState, reason)
	}

	l.logger.Debug("state transition",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)

	return nil
}
