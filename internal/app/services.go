package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/tvpower/internal/config"
	"github.com/dokzlo13/tvpower/internal/db"
	"github.com/dokzlo13/tvpower/internal/ledger"
	"github.com/dokzlo13/tvpower/internal/notify"
	"github.com/dokzlo13/tvpower/internal/reconcile"
)

// Services is a container for all service-mode components.
// It manages initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB       *db.DB
	Ledger   *ledger.Ledger
	Notifier *notify.Notifier

	Power *PowerService
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config) (*Services, error) {
	id, err := Identity(cfg, true, true)
	if err != nil {
		return nil, err
	}

	s := &Services{cfg: cfg, Notifier: notify.New()}

	if cfg.Database.IsEnabled() {
		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		s.DB = database
		s.Ledger = ledger.New(database.DB)
		s.cleanupLedger()
	} else {
		log.Info().Msg("Transition history is disabled")
	}

	actuator := NewActuator(cfg, id, cfg.ADB.Timeout.Duration())
	s.Power = NewPowerService(cfg, actuator, s.Notifier, s.recorder())

	log.Debug().Stringer("tv", id).Msg("Services initialized")
	return s, nil
}

func (s *Services) recorder() reconcile.Recorder {
	if s.Ledger == nil {
		return nil
	}
	return NewLedgerRecorder(s.Ledger)
}

func (s *Services) cleanupLedger() {
	if s.cfg.Database.RetentionDays <= 0 {
		return
	}
	retention := time.Duration(s.cfg.Database.RetentionDays) * 24 * time.Hour
	deleted, err := s.Ledger.DeleteOlderThan(retention)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to clean up transition history")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Int("retention_days", s.cfg.Database.RetentionDays).Msg("Cleaned up transition history")
	}
}

// Start starts all services in the correct order.
// The onFatalError callback is called when a fatal error occurs (e.g. the reconciler stopped).
func (s *Services) Start(ctx context.Context, onFatalError func(error)) error {
	if err := s.Power.Start(ctx, onFatalError); err != nil {
		return err
	}

	s.Notifier.Ready()
	s.Notifier.Status("Idle")
	return nil
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	s.Notifier.Stopping()
	s.Power.Stop(s.cfg.ShutdownTimeout.Duration())
	s.Close()
	return nil
}

// Close releases all resources.
func (s *Services) Close() {
	if s.DB != nil {
		s.DB.Close()
	}
}
