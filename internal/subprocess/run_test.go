package subprocess

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestRun_Success(t *testing.T) {
	err := Run(context.Background(), exec.Command("sh", "-c", "exit 0"), Options{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
}

func TestRun_NoDeadline(t *testing.T) {
	err := Run(context.Background(), exec.Command("sh", "-c", "exit 0"), Options{})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
}

func TestRun_NonzeroExit(t *testing.T) {
	err := Run(context.Background(), exec.Command("sh", "-c", "exit 3"), Options{Timeout: 5 * time.Second})

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run() error = %v, want *ExitError", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("Code = %d, want 3", exitErr.Code)
	}
	if exitErr.Name != "sh" {
		t.Errorf("Name = %q, want %q", exitErr.Name, "sh")
	}
	if got, want := err.Error(), "sh exited with status 3"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestRun_KilledBySignal(t *testing.T) {
	err := Run(context.Background(), exec.Command("sh", "-c", "kill -TERM $$"), Options{Timeout: 5 * time.Second})

	var sigErr *SignalError
	if !errors.As(err, &sigErr) {
		t.Fatalf("Run() error = %v, want *SignalError", err)
	}
	if sigErr.Signal != syscall.SIGTERM {
		t.Errorf("Signal = %v, want SIGTERM", sigErr.Signal)
	}
	if got, want := err.Error(), "sh died from signal SIGTERM"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		t.Error("signal death should not be reported as a plain nonzero exit")
	}
}

func TestRun_DeadlineKillsProcess(t *testing.T) {
	start := time.Now()
	err := Run(context.Background(), exec.Command("sleep", "10"), Options{Timeout: 100 * time.Millisecond})
	elapsed := time.Since(start)

	if elapsed > 5*time.Second {
		t.Fatalf("Run() took %v, deadline was not enforced", elapsed)
	}

	var deadlineErr *DeadlineError
	if !errors.As(err, &deadlineErr) {
		t.Fatalf("Run() error = %v, want *DeadlineError", err)
	}
	if deadlineErr.Timeout != 100*time.Millisecond {
		t.Errorf("Timeout = %v, want 100ms", deadlineErr.Timeout)
	}

	// The killed process still has its exit status classified.
	var sigErr *SignalError
	if !errors.As(err, &sigErr) {
		t.Fatalf("DeadlineError should wrap *SignalError, got %v", deadlineErr.Err)
	}
	if sigErr.Signal != syscall.SIGKILL {
		t.Errorf("Signal = %v, want SIGKILL", sigErr.Signal)
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		t.Error("deadline kill should be distinct from a clean nonzero exit")
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := Run(ctx, exec.Command("sleep", "10"), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRun_MissingBinary(t *testing.T) {
	err := Run(context.Background(), exec.Command("tvpower-definitely-missing-binary"), Options{Hint: "Make sure it is installed"})

	var invErr *InvocationError
	if !errors.As(err, &invErr) {
		t.Fatalf("Run() error = %v, want *InvocationError", err)
	}
	if !strings.Contains(err.Error(), "Make sure it is installed") {
		t.Errorf("Error() = %q, want it to contain the hint", err.Error())
	}
}

func TestSignalError_UnknownSignal(t *testing.T) {
	err := &SignalError{Name: "adb", Signal: syscall.Signal(200)}
	if got, want := err.Error(), "adb died from unknown signal 200"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
