package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match them through errors.Is where noted.
var (
	// ErrNotFound is matched by *NotFoundError.
	ErrNotFound = errors.New("syncfiles: not found")

	// ErrDuplicate is matched by *DuplicateError.
	ErrDuplicate = errors.New("syncfiles: duplicate")

	// ErrNothingToConfirm is returned when no sent entry awaits confirmation.
	ErrNothingToConfirm = errors.New("syncfiles: nothing to confirm")

	// ErrBusy is returned when an action is requested while another one runs.
	ErrBusy = errors.New("syncfiles: another action is in progress")

	// ErrInvalidAction is returned for actions outside the declared set.
	ErrInvalidAction = errors.New("syncfiles: invalid action")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("syncfiles: invalid configuration")
)

// ConnectionError reports that the remote host could not be reached or was not trusted.
type ConnectionError struct {
	Host string
	// UnknownHost is set when the trust policy rejected a host missing from known_hosts.
	UnknownHost bool
	Err         error
}

func (e *ConnectionError) Error() string {
	if e.UnknownHost {
		return fmt.Sprintf("server '%s' not found in known_hosts", e.Host)
	}
	if e.Err == nil {
		return fmt.Sprintf("connect to '%s' failed", e.Host)
	}
	return fmt.Sprintf("connect to '%s' failed: %v", e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthenticationError reports that the remote host rejected the credentials.
type AuthenticationError struct {
	Host     string
	Username string
	Err      error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed for %s@%s", e.Username, e.Host)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// TransferIntegrityError reports a size mismatch between the local source and
// the committed remote temp file. The file is never renamed in that case.
type TransferIntegrityError struct {
	Filename   string
	RemotePath string
	LocalSize  int64
	RemoteSize int64
}

func (e *TransferIntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed for %s: local %d bytes, remote %s has %d bytes",
		e.Filename, e.LocalSize, e.RemotePath, e.RemoteSize)
}

// TransferIOError wraps an I/O failure while reading the source or writing the destination.
type TransferIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *TransferIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *TransferIOError) Unwrap() error { return e.Err }

// FileNotFoundError reports that a file to archive is gone. It is recoverable.
type FileNotFoundError struct {
	Filename string
	Path     string
	Err      error
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file %s not found at %s", e.Filename, e.Path)
}

func (e *FileNotFoundError) Unwrap() error { return e.Err }

// NotFoundError reports a missing ledger entry.
type NotFoundError struct {
	Filename string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ledger entry %q does not exist", e.Filename)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateError reports an attempt to create a ledger entry that already exists.
type DuplicateError struct {
	Filename string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("ledger entry %q already exists", e.Filename)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// ConfirmationError reports that a confirmation could not be issued.
type ConfirmationError struct {
	Err error
}

func (e *ConfirmationError) Error() string {
	if errors.Is(e.Err, ErrNothingToConfirm) {
		return "confirmation failed: nothing to confirm"
	}
	return fmt.Sprintf("confirmation failed: %v", e.Err)
}

func (e *ConfirmationError) Unwrap() error { return e.Err }

// SendError aborts a send cycle. Filename is the file being processed, if any.
type SendError struct {
	Filename string
	Err      error
}

func (e *SendError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("send failed: %v", e.Err)
	}
	return fmt.Sprintf("send %s failed: %v", e.Filename, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// ActionError is the only error type returned by the action handler.
// The underlying failure is kept as the cause.
type ActionError struct {
	Action Action
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }
