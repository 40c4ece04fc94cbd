package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dokzlo13/tvpower/internal/app"
)

func newServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Run as a service, turning the TV off when the computer is idle",
		Long: `Run as a service. The TV follows the GNOME session presence status:
off when the session goes idle, on when it becomes active again. Each change
is retried until the TV's output confirms it, or a newer change replaces it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bindTV(cmd)

			application, err := app.New(cfg)
			if err != nil {
				return err
			}

			ctx := app.SignalContext()
			if err := application.Start(ctx); err != nil {
				application.Stop()
				return err
			}

			application.Wait()

			if err := application.Stop(); err != nil {
				log.Error().Err(err).Msg("Error during shutdown")
			}
			return application.Err()
		},
	}
	addMACFlag(cmd)
	addAddrFlag(cmd)
	cmd.Flags().StringP("output", "o", "", "graphics output to watch to see if the TV is on; see list-outputs (env OUTPUT)")
	return cmd
}
