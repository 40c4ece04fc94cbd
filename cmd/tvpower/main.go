package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	setupLogging("info", false)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("tv-power failed")
		os.Exit(getExitCode(err))
	}
}
