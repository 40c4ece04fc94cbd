package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultBackoff is the pause between convergence attempts.
const DefaultBackoff = 200 * time.Millisecond

// ErrWorkerStopped is returned by RequestPower once the worker has exited.
var ErrWorkerStopped = errors.New("power reconciler worker has stopped")

// Options configures an Engine.
type Options struct {
	Backoff  time.Duration
	Notifier Notifier
	Recorder Recorder
}

// Engine drives the TV toward the most recently requested power state.
//
// All actuation happens on the single goroutine running Run, so power-on
// and power-off are never attempted at the same time. RequestPower may be
// called from any goroutine.
type Engine struct {
	actuator Actuator
	sensor   Sensor
	notifier Notifier
	recorder Recorder

	intents *mailbox
	pacer   *rate.Limiter
	backoff time.Duration

	// last is the most recently adopted desired state and settled says
	// whether the sensor confirmed it. Only Run touches them.
	last    bool
	settled bool

	done chan struct{}
}

// New creates an engine. initial is the power state implied by the
// presence status at startup; it is treated as already applied.
func New(actuator Actuator, sensor Sensor, initial bool, opts Options) *Engine {
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}

	return &Engine{
		actuator: actuator,
		sensor:   sensor,
		notifier: opts.Notifier,
		recorder: opts.Recorder,
		intents:  newMailbox(),
		pacer:    rate.NewLimiter(rate.Every(opts.Backoff), 1),
		backoff:  opts.Backoff,
		last:     initial,
		settled:  true,
		done:     make(chan struct{}),
	}
}

// RequestPower records the desired power state and returns immediately.
// It fails only if the worker is no longer running.
func (e *Engine) RequestPower(on bool) error {
	select {
	case <-e.done:
		return ErrWorkerStopped
	default:
	}

	e.intents.Put(on)
	return nil
}

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Run is the worker loop. It must be called exactly once and returns when
// ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	log.Info().
		Str("assumed", onOff(e.last)).
		Dur("backoff", e.backoff).
		Msg("Power reconciler started")

	for {
		power, dropped, ok := e.intents.Take(ctx)
		if !ok {
			log.Info().Msg("Power reconciler stopping")
			return nil
		}
		if dropped > 0 {
			log.Debug().Int("dropped", dropped).Str("power", onOff(power)).Msg("Coalesced power requests")
		}

		if e.settled && power == e.last {
			log.Debug().Str("power", onOff(power)).Msg("Power request matches last applied state, ignoring")
			continue
		}
		e.last = power

		e.settled = e.converge(ctx, power)
		if ctx.Err() != nil {
			log.Info().Msg("Power reconciler stopping")
			return nil
		}
		e.notifier.Status("Idle")
	}
}

// converge keeps actuating and checking until the sensor agrees, a newer
// different request arrives, or ctx ends. It reports whether the sensor
// confirmed power.
func (e *Engine) converge(ctx context.Context, power bool) bool {
	onoff := onOff(power)
	transition := uuid.NewString()
	logger := log.With().Str("transition", transition).Str("power", onoff).Logger()

	status := "Turning TV " + onoff
	logger.Info().Msg(status)
	e.notifier.Status(status)
	e.recorder.Record(Event{TransitionID: transition, Type: EventRequested, Power: power})

	for attempt := 1; ; attempt++ {
		if err := e.pacer.Wait(ctx); err != nil {
			return false
		}

		if e.intents.Preempts(power) {
			logger.Info().Int("attempts", attempt-1).Msg("Newer power request arrived, abandoning this one")
			e.recorder.Record(Event{TransitionID: transition, Type: EventPreempted, Power: power, Attempt: attempt - 1})
			return false
		}

		if err := e.actuate(ctx, power); err != nil {
			if ctx.Err() != nil {
				return false
			}
			logger.Error().Err(err).Int("attempt", attempt).Msg("Failed to turn TV " + onoff)
			e.notifier.Status("Retrying TV power-" + onoff)
			e.recorder.Record(Event{TransitionID: transition, Type: EventAttemptFailed, Power: power, Attempt: attempt, Err: err})
		}

		on, err := e.sensor.IsOn(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to read TV power state")
		} else if on == power {
			logger.Info().Int("attempts", attempt).Msg("Turned TV " + onoff)
			e.recorder.Record(Event{TransitionID: transition, Type: EventConverged, Power: power, Attempt: attempt})
			return true
		}

		logger.Warn().Dur("retry_in", e.backoff).Msg("TV is not yet " + onoff + ", retrying")
	}
}

func (e *Engine) actuate(ctx context.Context, power bool) error {
	if power {
		return e.actuator.TurnOn(ctx)
	}
	return e.actuator.TurnOff(ctx)
}
