package power

import (
	"context"
	"errors"
	"net/netip"
	"os/exec"
	"strconv"
	"time"

	"github.com/dokzlo13/tvpower/internal/subprocess"
)

// pingNoReply is the exit status ping uses when no reply arrived.
const pingNoReply = 1

// Prober checks whether the TV answers on the network.
type Prober struct {
	binary  string
	timeout time.Duration
}

// NewProber creates a prober that runs the given ping binary with one probe
// and the given reply timeout.
func NewProber(binary string, timeout time.Duration) *Prober {
	if binary == "" {
		binary = "ping"
	}
	if timeout <= 0 {
		timeout = 200 * time.Millisecond
	}
	return &Prober{binary: binary, timeout: timeout}
}

// Reachable sends exactly one echo request. No reply is false; any other
// failure of ping is returned as an error.
func (p *Prober) Reachable(ctx context.Context, ip netip.Addr) (bool, error) {
	wait := strconv.FormatFloat(p.timeout.Seconds(), 'f', -1, 64)
	cmd := exec.Command(p.binary, "-c", "1", "-W", wait, ip.String())

	err := subprocess.Run(ctx, cmd, subprocess.Options{
		// ping enforces -W itself; this only guards against it hanging.
		Timeout: p.timeout + time.Second,
		Hint:    "make sure that ping is installed",
	})
	if err == nil {
		return true, nil
	}

	var exitErr *subprocess.ExitError
	if errors.As(err, &exitErr) && exitErr.Code == pingNoReply {
		return false, nil
	}
	return false, err
}
