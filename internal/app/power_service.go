package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/tvpower/internal/config"
	"github.com/dokzlo13/tvpower/internal/notify"
	"github.com/dokzlo13/tvpower/internal/outputs"
	"github.com/dokzlo13/tvpower/internal/presence"
	"github.com/dokzlo13/tvpower/internal/reconcile"
)

// presenceSource is the part of presence.Source the service uses.
type presenceSource interface {
	Status(ctx context.Context) (presence.Status, error)
	Subscribe(ctx context.Context, fn func(presence.Status)) error
	Close() error
}

// connectPresence is swapped in tests.
var connectPresence = func(ctx context.Context, opts presence.Options) (presenceSource, error) {
	src, err := presence.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// PowerService follows the session's presence and keeps the TV in step.
type PowerService struct {
	cfg      *config.Config
	actuator reconcile.Actuator
	notifier *notify.Notifier
	recorder reconcile.Recorder

	source presenceSource
	engine *reconcile.Engine
	output string
}

// NewPowerService creates a new PowerService.
func NewPowerService(cfg *config.Config, actuator reconcile.Actuator, notifier *notify.Notifier, recorder reconcile.Recorder) *PowerService {
	return &PowerService{
		cfg:      cfg,
		actuator: actuator,
		notifier: notifier,
		recorder: recorder,
	}
}

// Start connects to the session bus, picks the output to watch and starts
// the reconciler. It returns once presence events are being delivered.
func (p *PowerService) Start(ctx context.Context, onFatalError func(error)) error {
	p.notifier.Status("Waiting for DBus")
	src, err := connectPresence(ctx, presence.Options{
		Attempts: p.cfg.Presence.ConnectAttempts,
		Backoff:  p.cfg.Presence.RetryBackoff.Duration(),
	})
	if err != nil {
		return err
	}
	p.source = src

	status, err := src.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get initial presence status: %w", err)
	}
	log.Debug().Stringer("status", status).Msg("Got initial presence status")

	enum := outputs.NewEnumerator(p.cfg.Outputs.SysfsRoot)
	output, err := outputs.Resolve(enum, p.cfg.TV.Output)
	if err != nil {
		return &ConfigError{Err: err}
	}
	p.output = output

	p.engine = reconcile.New(p.actuator, outputs.NewSensor(enum, output), status.IsActive(), reconcile.Options{
		Backoff:  p.cfg.Reconciler.Backoff.Duration(),
		Notifier: p.notifier,
		Recorder: p.recorder,
	})

	go p.engine.Run(ctx)
	go p.listen(ctx, onFatalError)

	return nil
}

func (p *PowerService) listen(ctx context.Context, onFatalError func(error)) {
	err := p.source.Subscribe(ctx, func(status presence.Status) {
		// During shutdown the worker may exit before the bus stops
		// delivering, so a refused request is only fatal while running.
		if err := p.engine.RequestPower(status.IsActive()); err != nil && ctx.Err() == nil {
			onFatalError(err)
		}
	})
	if err != nil && ctx.Err() == nil {
		onFatalError(fmt.Errorf("presence subscription ended: %w", err))
	}
}

// Output returns the output being watched, once started.
func (p *PowerService) Output() string {
	return p.output
}

// Stop waits up to timeout for the reconciler to finish its current step
// and releases the bus connection. The context passed to Start must
// already be cancelled.
func (p *PowerService) Stop(timeout time.Duration) {
	if p.engine != nil {
		select {
		case <-p.engine.Done():
		case <-time.After(timeout):
			log.Warn().Dur("timeout", timeout).Msg("Power reconciler did not stop in time")
		}
	}
	if p.source != nil {
		if err := p.source.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed to close DBus connection")
		}
	}
}
