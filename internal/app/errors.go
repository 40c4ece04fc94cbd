package app

// ConfigError marks a problem with the user's configuration rather than
// with the TV or the session.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }
