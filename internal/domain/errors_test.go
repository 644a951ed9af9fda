package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestConnectionError_NamesHost(t *testing.T) {
	err := &ConnectionError{Host: "127.0.0.1", UnknownHost: true}
	if got, want := err.Error(), "server '127.0.0.1' not found in known_hosts"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	cause := errors.New("dial tcp: connection refused")
	err = &ConnectionError{Host: "sync.example.org", Err: cause}
	if !strings.Contains(err.Error(), "sync.example.org") {
		t.Errorf("Error() = %q, want host in message", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("ConnectionError does not unwrap to its cause")
	}
}

func TestTypedErrors_MatchSentinels(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"not found", &NotFoundError{Filename: "a.json"}, ErrNotFound},
		{"duplicate", &DuplicateError{Filename: "a.json"}, ErrDuplicate},
		{"nothing to confirm", &ConfirmationError{Err: ErrNothingToConfirm}, ErrNothingToConfirm},
		{"wrapped not found", fmt.Errorf("update: %w", &NotFoundError{Filename: "b.json"}), ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.target) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.target)
			}
		})
	}
}

func TestActionError_PreservesCauseChain(t *testing.T) {
	conn := &ConnectionError{Host: "10.0.0.5", UnknownHost: true}
	err := error(&ActionError{Action: ActionSendFiles, Err: &SendError{Err: conn}})

	var got *ConnectionError
	if !errors.As(err, &got) {
		t.Fatalf("errors.As did not find ConnectionError in %v", err)
	}
	if got.Host != "10.0.0.5" {
		t.Errorf("Host = %q, want 10.0.0.5", got.Host)
	}
	if !strings.HasPrefix(err.Error(), "send_files: ") {
		t.Errorf("Error() = %q, want action prefix", err.Error())
	}
}

func TestConfirmationError_Message(t *testing.T) {
	err := &ConfirmationError{Err: ErrNothingToConfirm}
	if got := err.Error(); got != "confirmation failed: nothing to confirm" {
		t.Errorf("Error() = %q", got)
	}
}
