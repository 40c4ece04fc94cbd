package app

import (
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/tvpower/internal/ledger"
	"github.com/dokzlo13/tvpower/internal/reconcile"
)

// LedgerRecorder stores reconciler events in the ledger.
type LedgerRecorder struct {
	ledger *ledger.Ledger
}

// NewLedgerRecorder creates a new recorder.
func NewLedgerRecorder(l *ledger.Ledger) *LedgerRecorder {
	return &LedgerRecorder{ledger: l}
}

// Record implements reconcile.Recorder. Failures are logged and dropped.
func (r *LedgerRecorder) Record(e reconcile.Event) {
	var payload map[string]any
	if e.Err != nil {
		payload = map[string]any{"error": e.Err.Error()}
	}

	if err := r.ledger.Append(e.TransitionID, ledger.EventType(e.Type), e.Power, e.Attempt, payload); err != nil {
		log.Warn().Err(err).Str("transition", e.TransitionID).Msg("Failed to record power event")
	}
}
