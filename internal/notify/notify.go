// Package notify reports service state to systemd.
package notify

import (
	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog/log"
)

// Notifier sends sd_notify messages. Without NOTIFY_SOCKET every call is
// a no-op.
type Notifier struct{}

// New creates a notifier.
func New() *Notifier {
	return &Notifier{}
}

// Ready tells the service manager that startup finished.
func (n *Notifier) Ready() {
	n.send(daemon.SdNotifyReady)
}

// Stopping tells the service manager that shutdown began.
func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(text string) {
	n.send("STATUS=" + text)
}

func (n *Notifier) send(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		log.Debug().Err(err).Str("state", state).Msg("Failed to notify systemd")
		return
	}
	if sent {
		log.Trace().Str("state", state).Msg("Notified systemd")
	}
}
