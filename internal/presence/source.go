package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
)

const (
	busName                       = "org.gnome.SessionManager"
	objectPath    dbus.ObjectPath = "/org/gnome/SessionManager/Presence"
	interfaceName                 = "org.gnome.SessionManager.Presence"
	statusSignal                  = "StatusChanged"
	statusProp                    = "status"
)

// ErrConnectionClosed is returned by Subscribe when the bus goes away.
var ErrConnectionClosed = errors.New("dbus connection closed")

// connectSessionBus is swapped in tests.
var connectSessionBus = func() (*dbus.Conn, error) {
	return dbus.ConnectSessionBus()
}

// Options configures how Connect reaches the session bus.
type Options struct {
	Attempts int           // Connection attempts before giving up (default: 30)
	Backoff  time.Duration // Pause between attempts (default: 1s)
}

// Source delivers presence status from the session bus.
type Source struct {
	conn *dbus.Conn
}

// Connect opens the session bus, retrying while the user session is
// still starting.
func Connect(ctx context.Context, opts Options) (*Source, error) {
	if opts.Attempts <= 0 {
		opts.Attempts = 30
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		conn, err := connectSessionBus()
		if err == nil {
			log.Debug().Int("attempt", attempt).Msg("Connected to DBus session bus")
			return &Source{conn: conn}, nil
		}
		lastErr = err

		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("attempts", opts.Attempts).
			Msg("Failed to connect to DBus")

		if attempt == opts.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.Backoff):
		}
	}

	return nil, fmt.Errorf("failed to connect to DBus after %d attempts: %w", opts.Attempts, lastErr)
}

// Status reads the current presence status.
func (s *Source) Status(ctx context.Context) (Status, error) {
	var v dbus.Variant
	err := s.conn.Object(busName, objectPath).
		CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0, interfaceName, statusProp).
		Store(&v)
	if err != nil {
		return 0, fmt.Errorf("failed to get presence status: %w", err)
	}
	return decode(v.Value())
}

// Subscribe calls fn for every StatusChanged signal, in order, until ctx
// is cancelled or the connection drops. Malformed values are logged and
// skipped.
func (s *Source) Subscribe(ctx context.Context, fn func(Status)) error {
	match := []dbus.MatchOption{
		dbus.WithMatchObjectPath(objectPath),
		dbus.WithMatchInterface(interfaceName),
		dbus.WithMatchMember(statusSignal),
	}
	if err := s.conn.AddMatchSignalContext(ctx, match...); err != nil {
		return fmt.Errorf("failed to subscribe to presence changes: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	s.conn.Signal(signals)
	defer s.conn.RemoveSignal(signals)

	log.Info().Msg("Listening for presence changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return ErrConnectionClosed
			}
			dispatch(sig, fn)
		}
	}
}

// Close releases the bus connection.
func (s *Source) Close() error {
	return s.conn.Close()
}

func dispatch(sig *dbus.Signal, fn func(Status)) {
	if sig.Path != objectPath || sig.Name != interfaceName+"."+statusSignal {
		return
	}
	if len(sig.Body) == 0 {
		log.Warn().Msg("Presence signal without a status")
		return
	}

	status, err := decode(sig.Body[0])
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse presence status")
		return
	}

	log.Debug().Stringer("status", status).Msg("Got presence status")
	fn(status)
}
