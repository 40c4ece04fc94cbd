package main

import (
	"errors"
	"io/fs"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dokzlo13/tvpower/internal/app"
	"github.com/dokzlo13/tvpower/internal/config"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (the TV or a tool failed).
	ExitCodeError = 1
	// ExitCodeConfig indicates invalid configuration (bad MAC, unknown output, ...).
	ExitCodeConfig = 2
)

var (
	configPath string
	logLevel   string

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tv-power",
	Short: "TV power manager",
	Long: `tv-power turns an Android TV on and off to follow the computer it is
plugged into: Wake-on-LAN or an adb keypress to wake it, an adb keypress to
put it to sleep, and the DRM output status to tell whether it worked.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/tv-power/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(
		newOnCmd(),
		newOffCmd(),
		newServiceCmd(),
		newListOutputsCmd(),
		newKeycodesCmd(),
		newHistoryCmd(),
	)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	path := configPath
	explicit := path != ""
	if !explicit {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return &app.ConfigError{Err: err}
		}
	}

	loaded, err := config.Load(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		loaded = config.Default()
	default:
		return &app.ConfigError{Err: err}
	}

	if logLevel != "" {
		loaded.Log.Level = logLevel
	}
	setupLogging(loaded.Log.Level, loaded.Log.Colors)

	if err == nil {
		log.Debug().Str("path", path).Msg("Loaded config file")
	} else {
		log.Debug().Str("path", path).Msg("Config file doesn't exist, using defaults")
	}

	if err := loaded.Validate(); err != nil {
		return &app.ConfigError{Err: err}
	}

	cfg = loaded
	return nil
}

// bindTV applies --mac, --addr and --output to cfg when they were given.
func bindTV(cmd *cobra.Command) {
	flags := cmd.Flags()
	for name, dst := range map[string]*string{
		"mac":    &cfg.TV.MAC,
		"addr":   &cfg.TV.Addr,
		"output": &cfg.TV.Output,
	} {
		if f := flags.Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
}

func addMACFlag(cmd *cobra.Command) {
	cmd.Flags().String("mac", "", "the TV's MAC address (env MAC)")
}

func addAddrFlag(cmd *cobra.Command) {
	cmd.Flags().String("addr", "", "the TV's IP address and adb port, usually 5555 (env ADDR)")
}

// getExitCode maps an error to a process exit code.
func getExitCode(err error) int {
	var cfgErr *app.ConfigError
	if errors.As(err, &cfgErr) {
		return ExitCodeConfig
	}
	return ExitCodeError
}
