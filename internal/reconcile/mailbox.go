package reconcile

import (
	"context"
	"sync"
)

// mailbox is an unbounded multi-producer single-consumer queue of desired
// power values. Producers never block. The consumer only cares about the
// most recent value, so reads collapse everything queued.
type mailbox struct {
	mu      sync.Mutex
	pending []bool
	signal  chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{signal: make(chan struct{}, 1)}
}

// Put enqueues a value and wakes the consumer.
func (m *mailbox) Put(power bool) {
	m.mu.Lock()
	m.pending = append(m.pending, power)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// Take blocks until something is queued and returns the most recent value
// together with how many older values it consumed. ok is false if ctx ended.
func (m *mailbox) Take(ctx context.Context) (power bool, dropped int, ok bool) {
	for {
		m.mu.Lock()
		if n := len(m.pending); n > 0 {
			power = m.pending[n-1]
			m.pending = m.pending[:0]
			m.mu.Unlock()
			return power, n - 1, true
		}
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return false, 0, false
		case <-m.signal:
		}
	}
}

// Preempts reports whether a queued value differs from current. Values
// that merely restate current are consumed so they don't restart the
// transition later. Never blocks.
func (m *mailbox) Preempts(current bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.pending)
	if n == 0 {
		return false
	}
	if m.pending[n-1] != current {
		return true
	}
	m.pending = m.pending[:0]
	return false
}
