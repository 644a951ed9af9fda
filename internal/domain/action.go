package domain

import (
	"encoding"
	"fmt"
)

// Action names one of the operations exposed by the action handler.
type Action int

const (
	ActionExportBatch Action = iota
	ActionSendFiles
	ActionConfirmBatch
	ActionPendingFiles
)

// Actions lists every action in declaration order.
var Actions = []Action{ActionExportBatch, ActionSendFiles, ActionConfirmBatch, ActionPendingFiles}

var (
	_ fmt.Stringer             = Action(0)
	_ encoding.TextMarshaler   = Action(0)
	_ encoding.TextUnmarshaler = (*Action)(nil)
)

// String returns the wire name of the action.
func (a Action) String() string {
	switch a {
	case ActionExportBatch:
		return "export_batch"
	case ActionSendFiles:
		return "send_files"
	case ActionConfirmBatch:
		return "confirm_batch"
	case ActionPendingFiles:
		return "pending_files"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Valid reports whether a is one of the declared actions.
func (a Action) Valid() bool {
	return a >= ActionExportBatch && a <= ActionPendingFiles
}

// ParseAction maps a wire name back to its Action.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAction, int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(b []byte) error {
	parsed, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
