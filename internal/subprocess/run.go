// Package subprocess runs external commands with an optional deadline and
// classifies how they exited.
package subprocess

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

const waitDelay = time.Second

// Options controls a single command run.
type Options struct {
	// Timeout is the deadline for the command. Zero means no deadline.
	Timeout time.Duration

	// Hint is appended to invocation errors, e.g. "make sure adb is installed".
	Hint string
}

// Run starts cmd and waits for it to finish, the deadline to pass, or ctx to
// be cancelled. In the latter two cases the process is killed and reaped
// before Run returns, so no child outlives the call.
//
// A nil error means the command exited with status 0.
func Run(ctx context.Context, cmd *exec.Cmd, opts Options) error {
	name := commandName(cmd)
	if cmd.WaitDelay == 0 {
		// Grandchildren holding our pipes open must not stall the reap.
		cmd.WaitDelay = waitDelay
	}

	if err := cmd.Start(); err != nil {
		return &InvocationError{Name: name, Hint: opts.Hint, Err: err}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var deadline <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case err := <-done:
		return classify(name, err)

	case <-deadline:
		log.Warn().
			Str("command", name).
			Dur("timeout", opts.Timeout).
			Msg("Command timed out, killing it")

		status, err := kill(cmd, done)
		if err != nil {
			return err
		}
		if status == nil {
			// Exited cleanly between the deadline firing and the kill.
			return nil
		}
		return &DeadlineError{Name: name, Timeout: opts.Timeout, Err: status}

	case <-ctx.Done():
		if _, err := kill(cmd, done); err != nil {
			return err
		}
		return ctx.Err()
	}
}

// kill terminates the process and waits for it to be reaped. The first return
// value is the classified exit status; the second is a failure to kill.
func kill(cmd *exec.Cmd, done <-chan error) (status error, err error) {
	if err = cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		// The reaper goroutine still owns the child; it finishes on its own.
		return nil, fmt.Errorf("failed to kill %s: %w", commandName(cmd), err)
	}
	return classify(commandName(cmd), <-done), nil
}

func classify(name string, err error) error {
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("failed to wait for %s: %w", name, err)
	}

	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return &SignalError{Name: name, Signal: status.Signal()}
	}
	return &ExitError{Name: name, Code: exitErr.ExitCode()}
}

func commandName(cmd *exec.Cmd) string {
	if len(cmd.Args) > 0 {
		return filepath.Base(cmd.Args[0])
	}
	return filepath.Base(cmd.Path)
}
