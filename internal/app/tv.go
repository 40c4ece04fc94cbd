package app

import (
	"errors"
	"time"

	"github.com/dokzlo13/tvpower/internal/adb"
	"github.com/dokzlo13/tvpower/internal/config"
	"github.com/dokzlo13/tvpower/internal/power"
)

// Identity parses the configured TV identity. needMAC and needAddr name
// the halves the caller requires.
func Identity(cfg *config.Config, needMAC, needAddr bool) (power.Identity, error) {
	if needMAC && cfg.TV.MAC == "" {
		return power.Identity{}, &ConfigError{Err: errors.New("the TV's MAC address is required (tv.mac or MAC)")}
	}
	if needAddr && cfg.TV.Addr == "" {
		return power.Identity{}, &ConfigError{Err: errors.New("the TV's address is required (tv.addr or ADDR)")}
	}

	id, err := power.ParseIdentity(cfg.TV.MAC, cfg.TV.Addr)
	if err != nil {
		return power.Identity{}, &ConfigError{Err: err}
	}
	return id, nil
}

// NewADB creates the adb client for cfg.
func NewADB(cfg *config.Config) *adb.Client {
	return adb.New(cfg.ADB.Binary)
}

// NewActuator wires the adb client, reachability probe and Wake-on-LAN
// sender into an actuator. timeout bounds each adb interaction; zero
// means none.
func NewActuator(cfg *config.Config, id power.Identity, timeout time.Duration) *power.Actuator {
	return power.NewActuator(
		id,
		NewADB(cfg),
		power.NewProber(cfg.Probe.Binary, cfg.Probe.Timeout.Duration()),
		power.NewWakeOnLAN(cfg.WoL.Broadcast),
		power.Options{
			Timeout:      timeout,
			WakeKeycode:  cfg.ADB.WakeKeycode,
			PowerKeycode: cfg.ADB.PowerKeycode,
		},
	)
}
