package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// AppName names the config and state directories.
const AppName = "tv-power"

// Config represents the application configuration
type Config struct {
	TV              TVConfig         `yaml:"tv"`
	ADB             ADBConfig        `yaml:"adb"`
	Probe           ProbeConfig      `yaml:"probe"`
	WoL             WoLConfig        `yaml:"wol"`
	Reconciler      ReconcilerConfig `yaml:"reconciler"`
	Presence        PresenceConfig   `yaml:"presence"`
	Database        DatabaseConfig   `yaml:"database"`
	Log             LogConfig        `yaml:"log"`
	Outputs         OutputsConfig    `yaml:"outputs"`
	ShutdownTimeout Duration         `yaml:"shutdown_timeout"` // How long to wait for the worker on shutdown
}

// TVConfig identifies the television
type TVConfig struct {
	MAC    string `yaml:"mac"`    // For Wake-on-LAN
	Addr   string `yaml:"addr"`   // IP and adb port, e.g. 192.168.1.50:5555
	Output string `yaml:"output"` // DRM output the TV is plugged into (empty = the only connected one)
}

// ADBConfig contains adb invocation settings
type ADBConfig struct {
	Binary       string   `yaml:"binary"`
	Timeout      Duration `yaml:"timeout"`       // Deadline for connect+keyevent in service mode (default: 5s)
	WakeKeycode  int      `yaml:"wake_keycode"`  // Sent on power-on (default: 224, KEYCODE_WAKEUP)
	PowerKeycode int      `yaml:"power_keycode"` // Sent on power-off (default: 26, KEYCODE_POWER)
}

// ProbeConfig contains reachability probe settings
type ProbeConfig struct {
	Binary  string   `yaml:"binary"`
	Timeout Duration `yaml:"timeout"` // Per-ping reply timeout (default: 200ms)
}

// WoLConfig contains Wake-on-LAN settings
type WoLConfig struct {
	Broadcast string `yaml:"broadcast"` // UDP destination (default: 255.255.255.255:9)
}

// ReconcilerConfig contains reconciler settings
type ReconcilerConfig struct {
	Backoff Duration `yaml:"backoff"` // Pause between convergence attempts (default: 200ms)
}

// PresenceConfig contains DBus connection settings
type PresenceConfig struct {
	ConnectAttempts int      `yaml:"connect_attempts"`
	RetryBackoff    Duration `yaml:"retry_backoff"`
}

// DatabaseConfig contains transition history settings
type DatabaseConfig struct {
	Path          string `yaml:"path"`
	Enabled       *bool  `yaml:"enabled"` // default: true
	RetentionDays int    `yaml:"retention_days"`
}

// IsEnabled reports whether transition history is recorded
func (c *DatabaseConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Colors bool   `yaml:"colors"`
}

// OutputsConfig contains DRM output enumeration settings
type OutputsConfig struct {
	SysfsRoot string `yaml:"sysfs_root"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DefaultPath returns $XDG_CONFIG_HOME/tv-power/config.yaml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, "config.yaml"), nil
}

// Load reads and parses the configuration file. A missing file is
// reported with an error wrapping fs.ErrNotExist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration, then applies environment overrides
// and defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg
}

// applyEnv lets MAC, ADDR and OUTPUT override the file.
func (cfg *Config) applyEnv() {
	if v := os.Getenv("MAC"); v != "" {
		cfg.TV.MAC = v
	}
	if v := os.Getenv("ADDR"); v != "" {
		cfg.TV.Addr = v
	}
	if v := os.Getenv("OUTPUT"); v != "" {
		cfg.TV.Output = v
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	// ADB defaults
	if cfg.ADB.Binary == "" {
		cfg.ADB.Binary = "adb"
	}
	if cfg.ADB.Timeout == 0 {
		cfg.ADB.Timeout = Duration(5 * time.Second)
	}
	if cfg.ADB.WakeKeycode == 0 {
		cfg.ADB.WakeKeycode = 224
	}
	if cfg.ADB.PowerKeycode == 0 {
		cfg.ADB.PowerKeycode = 26
	}

	// Probe defaults
	if cfg.Probe.Binary == "" {
		cfg.Probe.Binary = "ping"
	}
	if cfg.Probe.Timeout == 0 {
		cfg.Probe.Timeout = Duration(200 * time.Millisecond)
	}

	if cfg.WoL.Broadcast == "" {
		cfg.WoL.Broadcast = "255.255.255.255:9"
	}

	if cfg.Reconciler.Backoff == 0 {
		cfg.Reconciler.Backoff = Duration(200 * time.Millisecond)
	}

	// Presence defaults
	if cfg.Presence.ConnectAttempts == 0 {
		cfg.Presence.ConnectAttempts = 30
	}
	if cfg.Presence.RetryBackoff == 0 {
		cfg.Presence.RetryBackoff = Duration(1 * time.Second)
	}

	// Database defaults
	if cfg.Database.Path == "" {
		cfg.Database.Path = defaultDatabasePath()
	}
	if cfg.Database.RetentionDays == 0 {
		cfg.Database.RetentionDays = 30
	}

	if cfg.Outputs.SysfsRoot == "" {
		cfg.Outputs.SysfsRoot = "/sys"
	}

	// General shutdown timeout
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}
}

// Validate checks values that defaults cannot fix.
func (cfg *Config) Validate() error {
	var errs []error
	if cfg.ADB.Timeout < 0 {
		errs = append(errs, errors.New("adb.timeout must not be negative"))
	}
	if cfg.Probe.Timeout <= 0 {
		errs = append(errs, errors.New("probe.timeout must be positive"))
	}
	if cfg.Reconciler.Backoff < 0 {
		errs = append(errs, errors.New("reconciler.backoff must not be negative"))
	}
	if cfg.ADB.WakeKeycode < 0 || cfg.ADB.PowerKeycode < 0 {
		errs = append(errs, errors.New("adb keycodes must not be negative"))
	}
	if cfg.Database.RetentionDays < 0 {
		errs = append(errs, errors.New("database.retention_days must not be negative"))
	}
	return errors.Join(errs...)
}

// defaultDatabasePath returns $XDG_STATE_HOME/tv-power/history.sqlite,
// falling back to ~/.local/state.
func defaultDatabasePath() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return AppName + ".sqlite"
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, AppName, "history.sqlite")
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
