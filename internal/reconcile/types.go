// Package reconcile keeps the TV's actual power state in line with the
// desired one.
package reconcile

import "context"

// Actuator sends power commands. A nil error only means the attempt was
// dispatched, not that the TV changed state.
type Actuator interface {
	TurnOn(ctx context.Context) error
	TurnOff(ctx context.Context) error
}

// Sensor reports whether the TV is actually on right now.
type Sensor interface {
	IsOn(ctx context.Context) (bool, error)
}

// Notifier receives human-readable status updates.
type Notifier interface {
	Status(status string)
}

// EventType classifies what happened during a power transition.
type EventType string

const (
	EventRequested     EventType = "requested"
	EventAttemptFailed EventType = "attempt_failed"
	EventConverged     EventType = "converged"
	EventPreempted     EventType = "preempted"
)

// Event describes one step of a power transition. All events of one
// transition share a TransitionID.
type Event struct {
	TransitionID string
	Type         EventType
	Power        bool
	Attempt      int
	Err          error
}

// Recorder keeps a history of transitions.
type Recorder interface {
	Record(event Event)
}

type nopNotifier struct{}

func (nopNotifier) Status(string) {}

type nopRecorder struct{}

func (nopRecorder) Record(Event) {}

func onOff(power bool) string {
	if power {
		return "on"
	}
	return "off"
}
