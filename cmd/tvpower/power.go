package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dokzlo13/tvpower/internal/app"
)

func newOnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "on",
		Short: "Turn the TV on",
		Long: `Turn the TV on. With an address, an adb wake keypress is tried first
when the TV answers pings. Otherwise, or if that fails, a Wake-on-LAN packet
is sent to the MAC address. This does not wait for the TV to come up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bindTV(cmd)
			id, err := app.Identity(cfg, true, false)
			if err != nil {
				return err
			}
			actuator := app.NewActuator(cfg, id, cfg.ADB.Timeout.Duration())
			if err := actuator.TurnOn(cmd.Context()); err != nil {
				return fmt.Errorf("failed to turn TV on: %w", err)
			}
			log.Info().Msg("Sent power-on")
			return nil
		},
	}
	addMACFlag(cmd)
	addAddrFlag(cmd)
	return cmd
}

func newOffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "off",
		Short: "Turn the TV off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bindTV(cmd)
			id, err := app.Identity(cfg, false, true)
			if err != nil {
				return err
			}
			// No deadline here; the user can interrupt.
			actuator := app.NewActuator(cfg, id, 0)
			if err := actuator.TurnOff(cmd.Context()); err != nil {
				return fmt.Errorf("failed to turn TV off: %w", err)
			}
			log.Info().Msg("Sent power-off")
			return nil
		},
	}
	addAddrFlag(cmd)
	return cmd
}

func newKeycodesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keycodes KEYCODE...",
		Short: "Send key presses to the TV over adb",
		Example: `  tv-power keycodes 26        # power
  tv-power keycodes 3 66      # home, then enter`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bindTV(cmd)
			id, err := app.Identity(cfg, false, true)
			if err != nil {
				return err
			}

			keycodes, err := parseKeycodes(args)
			if err != nil {
				return err
			}

			client := app.NewADB(cfg)
			client.Output = os.Stdout
			return client.SendKeycodes(cmd.Context(), id.Addr, keycodes, 0)
		},
	}
	addAddrFlag(cmd)
	return cmd
}

func parseKeycodes(args []string) ([]int, error) {
	keycodes := make([]int, 0, len(args))
	for _, arg := range args {
		k, err := strconv.Atoi(arg)
		if err != nil || k < 0 {
			return nil, fmt.Errorf("invalid keycode %q", arg)
		}
		keycodes = append(keycodes, k)
	}
	return keycodes, nil
}
