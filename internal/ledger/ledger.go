// Package ledger provides an append-only history of TV power transitions.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event in the ledger
type EventType string

const (
	EventRequested     EventType = "requested"
	EventAttemptFailed EventType = "attempt_failed"
	EventConverged     EventType = "converged"
	EventPreempted     EventType = "preempted"
)

// Entry represents a single event in the ledger
type Entry struct {
	ID           int64
	TransitionID string
	EventType    EventType
	Power        bool
	Attempt      int
	Timestamp    time.Time
	Payload      map[string]any
}

// Ledger provides append-only power event logging
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new Ledger using the provided database connection
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// Append adds a new event to the ledger
func (l *Ledger) Append(transitionID string, eventType EventType, power bool, attempt int, payload map[string]any) error {
	var payloadJSON []byte
	var err error

	if payload != nil {
		payloadJSON, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
	}

	_, err = l.db.Exec(
		`INSERT INTO power_events (transition_id, event_type, power, attempt, timestamp, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		transitionID, string(eventType), power, attempt, l.now().UTC().UnixMilli(), string(payloadJSON),
	)
	return err
}

// Recent returns the newest entries first
func (l *Ledger) Recent(limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, transition_id, event_type, power, attempt, timestamp, payload
		FROM power_events
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return l.scanEntries(rows)
}

// Transition returns every entry of one transition in insertion order
func (l *Ledger) Transition(transitionID string) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, transition_id, event_type, power, attempt, timestamp, payload
		FROM power_events
		WHERE transition_id = ?
		ORDER BY id ASC
	`, transitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return l.scanEntries(rows)
}

// DeleteOlderThan removes entries older than the specified duration (retention policy)
func (l *Ledger) DeleteOlderThan(retention time.Duration) (int64, error) {
	cutoff := l.now().Add(-retention).UTC().UnixMilli()
	result, err := l.db.Exec(`DELETE FROM power_events WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (l *Ledger) scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var payloadStr sql.NullString
		var timestamp int64

		err := rows.Scan(
			&entry.ID, &entry.TransitionID, &entry.EventType, &entry.Power, &entry.Attempt, &timestamp, &payloadStr,
		)
		if err != nil {
			return nil, err
		}

		entry.Timestamp = time.UnixMilli(timestamp).UTC()

		if payloadStr.Valid && payloadStr.String != "" {
			entry.Payload = make(map[string]any)
			if err := json.Unmarshal([]byte(payloadStr.String), &entry.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
