// Package power turns the television on and off.
//
// Power-on prefers an adb wake keypress when the TV answers pings and falls
// back to Wake-on-LAN. Power-off always goes through adb. Neither call
// confirms the TV actually changed state; that is the reconciler's job.
package power

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/tvpower/internal/adb"
)

// ErrNoAddress is returned when an adb action is needed but the TV's
// address is not configured.
var ErrNoAddress = errors.New("TV address is not configured")

// ErrNoMAC is returned when Wake-on-LAN is needed but the MAC is not configured.
var ErrNoMAC = errors.New("TV MAC address is not configured")

// Remote presses keys on the TV.
type Remote interface {
	SendKeycode(ctx context.Context, addr netip.AddrPort, keycode int, timeout time.Duration) error
}

// Reachability answers whether the TV responds on the network.
type Reachability interface {
	Reachable(ctx context.Context, ip netip.Addr) (bool, error)
}

// Waker sends a Wake-on-LAN packet.
type Waker interface {
	Wake(ctx context.Context, mac net.HardwareAddr) error
}

// Options tunes the actuator.
type Options struct {
	// Timeout bounds each adb interaction. Zero means no deadline.
	Timeout      time.Duration
	WakeKeycode  int
	PowerKeycode int
}

// Actuator sends power commands to one TV.
type Actuator struct {
	id     Identity
	remote Remote
	prober Reachability
	waker  Waker
	opts   Options
}

// NewActuator creates an actuator for the given TV.
func NewActuator(id Identity, remote Remote, prober Reachability, waker Waker, opts Options) *Actuator {
	if opts.WakeKeycode == 0 {
		opts.WakeKeycode = adb.KeycodeWakeup
	}
	if opts.PowerKeycode == 0 {
		opts.PowerKeycode = adb.KeycodePower
	}
	return &Actuator{
		id:     id,
		remote: remote,
		prober: prober,
		waker:  waker,
		opts:   opts,
	}
}

// Identity returns the TV this actuator controls.
func (a *Actuator) Identity() Identity {
	return a.id
}

// TurnOn dispatches a power-on attempt.
func (a *Actuator) TurnOn(ctx context.Context) error {
	if a.id.Addr.IsValid() && a.tryRemoteWake(ctx) {
		return nil
	}

	if len(a.id.MAC) == 0 {
		return ErrNoMAC
	}

	log.Debug().Str("mac", a.id.MAC.String()).Msg("Sending Wake-on-LAN packet")
	return a.waker.Wake(ctx, a.id.MAC)
}

// tryRemoteWake presses the wake key over adb if the TV answers pings.
// It reports whether that worked.
func (a *Actuator) tryRemoteWake(ctx context.Context) bool {
	ip := a.id.Addr.Addr()

	reachable, err := a.prober.Reachable(ctx, ip)
	if err != nil {
		log.Warn().Err(err).Str("ip", ip.String()).Msg("Reachability probe failed")
		return false
	}
	if !reachable {
		log.Debug().Str("ip", ip.String()).Msg("TV is not reachable, using Wake-on-LAN")
		return false
	}

	if err := a.remote.SendKeycode(ctx, a.id.Addr, a.opts.WakeKeycode, a.opts.Timeout); err != nil {
		log.Warn().Err(err).Msg("Waking TV over adb failed, falling back to Wake-on-LAN")
		return false
	}

	log.Debug().Str("addr", a.id.Addr.String()).Msg("Woke TV over adb")
	return true
}

// TurnOff presses the power key over adb.
func (a *Actuator) TurnOff(ctx context.Context) error {
	if !a.id.Addr.IsValid() {
		return ErrNoAddress
	}
	return a.remote.SendKeycode(ctx, a.id.Addr, a.opts.PowerKeycode, a.opts.Timeout)
}
