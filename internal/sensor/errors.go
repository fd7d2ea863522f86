package sensor

import (
	"errors"
	"fmt"
)

// BindState represents the specific kind of bind state failure
type BindState string

const (
	NotBound     BindState = "not_bound"
	AlreadyBound BindState = "already_bound"
)

// BindError represents any bind-lifecycle problem
type BindError struct {
	State BindState
	Msg   string
}

// Error implements the error interface
func (e *BindError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.State)
	}
	return fmt.Sprintf("%s: %s", e.State, e.Msg)
}

// Is allows errors.Is to compare BindError values by State
func (e *BindError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*BindError)
	if !ok {
		return false
	}
	return e.State == t.State
}

// Predefined sentinel errors for bind states
var (
	ErrNotBound     = &BindError{State: NotBound}
	ErrAlreadyBound = &BindError{State: AlreadyBound}
)

// Operation errors
var (
	ErrTimeout = errors.New("timeout")
)

// TransportError indicates a remote call to a source could not complete.
// It is never fatal to the orchestration loop: the poller logs it, marks the
// slot stale for the tick and moves on.
type TransportError struct {
	Source string // source tag
	Op     string // "snapshot", "bind", ...
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failed", e.Source, e.Op)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Source, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a TransportError anywhere in its chain.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
