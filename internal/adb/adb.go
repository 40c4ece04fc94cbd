// Package adb drives an Android TV over the adb network protocol.
package adb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/netip"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/tvpower/internal/subprocess"
)

// Android key codes used by tv-power.
const (
	KeycodePower  = 26
	KeycodeWakeup = 224
)

const installHint = "make sure that adb is installed"

// ConnectError is returned when the adb connection handshake fails.
type ConnectError struct {
	Addr netip.AddrPort
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connecting to %s over adb failed: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// Client invokes the adb binary.
type Client struct {
	binary string

	// Output receives the stdout of shell commands. Nil discards it.
	Output io.Writer
}

// New creates a client that runs the given adb binary.
func New(binary string) *Client {
	if binary == "" {
		binary = "adb"
	}
	return &Client{binary: binary}
}

// Connect makes sure adb has a session with the device. A zero timeout
// means no deadline.
func (c *Client) Connect(ctx context.Context, addr netip.AddrPort, timeout time.Duration) error {
	var out bytes.Buffer
	cmd := exec.Command(c.binary, "connect", addr.String())
	cmd.Stdout = &out

	err := subprocess.Run(ctx, cmd, subprocess.Options{Timeout: timeout, Hint: installHint})
	if err != nil {
		return &ConnectError{Addr: addr, Err: err}
	}

	// adb exits 0 even when the handshake fails, so look at what it said.
	reply := strings.TrimSpace(out.String())
	if !strings.Contains(reply, "connected to") {
		return &ConnectError{Addr: addr, Err: fmt.Errorf("adb replied %q", reply)}
	}

	log.Debug().Str("addr", addr.String()).Str("reply", reply).Msg("adb connected")
	return nil
}

// Shell connects to the device and runs a shell command on it. The timeout
// covers both the handshake and the command.
func (c *Client) Shell(ctx context.Context, addr netip.AddrPort, timeout time.Duration, command ...string) error {
	start := time.Now()
	if err := c.Connect(ctx, addr, timeout); err != nil {
		return err
	}

	remaining := time.Duration(0)
	if timeout > 0 {
		remaining = timeout - time.Since(start)
		if remaining <= 0 {
			// Leave the command a sliver so it still reports as timed out.
			remaining = time.Millisecond
		}
	}

	args := append([]string{"-s", addr.String(), "shell"}, command...)
	cmd := exec.Command(c.binary, args...)
	cmd.Stdout = c.Output

	if err := subprocess.Run(ctx, cmd, subprocess.Options{Timeout: remaining, Hint: installHint}); err != nil {
		return fmt.Errorf("adb shell command failed: %w", err)
	}
	return nil
}

// SendKeycode presses a single key on the device.
func (c *Client) SendKeycode(ctx context.Context, addr netip.AddrPort, keycode int, timeout time.Duration) error {
	return c.Shell(ctx, addr, timeout, "input", "keyevent", strconv.Itoa(keycode))
}

// SendKeycodes presses several keys in order within one shell session.
func (c *Client) SendKeycodes(ctx context.Context, addr netip.AddrPort, keycodes []int, timeout time.Duration) error {
	if len(keycodes) == 0 {
		return nil
	}
	parts := make([]string, 0, len(keycodes))
	for _, k := range keycodes {
		parts = append(parts, "input keyevent "+strconv.Itoa(k))
	}
	return c.Shell(ctx, addr, timeout, strings.Join(parts, " && "))
}
