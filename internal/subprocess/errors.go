package subprocess

import (
	"fmt"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// InvocationError is returned when a command could not be started at all,
// usually because the binary is not installed.
type InvocationError struct {
	Name string
	Hint string
	Err  error
}

func (e *InvocationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("failed to invoke %s: %v (%s)", e.Name, e.Err, e.Hint)
	}
	return fmt.Sprintf("failed to invoke %s: %v", e.Name, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// ExitError is returned when a command exited on its own with a nonzero status.
type ExitError struct {
	Name string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Name, e.Code)
}

// SignalError is returned when a command was terminated by a signal.
type SignalError struct {
	Name   string
	Signal syscall.Signal
}

// SignalName returns the symbolic name of the signal (e.g. SIGKILL), or an
// empty string if the platform doesn't know it.
func (e *SignalError) SignalName() string {
	return unix.SignalName(e.Signal)
}

func (e *SignalError) Error() string {
	if name := e.SignalName(); name != "" {
		return fmt.Sprintf("%s died from signal %s", e.Name, name)
	}
	return fmt.Sprintf("%s died from unknown signal %d", e.Name, int(e.Signal))
}

// DeadlineError is returned when a command outlived its deadline and had to be
// killed. Err holds the classified exit status observed after the kill.
type DeadlineError struct {
	Name    string
	Timeout time.Duration
	Err     error
}

func (e *DeadlineError) Error() string {
	return fmt.Sprintf("%s timed out after %s: %v", e.Name, e.Timeout, e.Err)
}

func (e *DeadlineError) Unwrap() error { return e.Err }
