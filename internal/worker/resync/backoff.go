package resync

import (
	"sync"
	"time"
)

const (
	// initialBackoff is the first delay after a failed sync (30 minutes).
	initialBackoff = 30 * time.Minute
	// maxBackoff caps the exponential backoff (12 hours).
	maxBackoff = 12 * time.Hour
)

// CalculateBackoff returns the exponential backoff delay for the given
// number of consecutive failures: 30 minutes doubling up to 12 hours.
func CalculateBackoff(consecutiveErrors int) time.Duration {
	delay := initialBackoff
	for i := 0; i < consecutiveErrors; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// backoffState tracks failing subscribers between cycles. A subscriber
// whose sync keeps failing (typically a revoked consent) is skipped with
// increasing delays instead of being hammered every cycle. The state is
// in-memory; a restart resets it, which only means one extra attempt.
type backoffState struct {
	mu      sync.Mutex
	entries map[string]*backoffEntry
}

type backoffEntry struct {
	consecutiveErrors int
	nextAttempt       time.Time
}

func newBackoffState() *backoffState {
	return &backoffState{entries: make(map[string]*backoffEntry)}
}

// ShouldAttempt reports whether the subscriber is due for a sync attempt.
func (b *backoffState) ShouldAttempt(subscriberID string, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[subscriberID]
	if !ok {
		return true
	}
	return !now.Before(entry.nextAttempt)
}

// RecordFailure bumps the failure count and schedules the next attempt.
func (b *backoffState) RecordFailure(subscriberID string, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[subscriberID]
	if !ok {
		entry = &backoffEntry{}
		b.entries[subscriberID] = entry
	}
	entry.consecutiveErrors++
	entry.nextAttempt = now.Add(CalculateBackoff(entry.consecutiveErrors - 1))
}

// RecordSuccess clears any backoff for the subscriber.
func (b *backoffState) RecordSuccess(subscriberID string) {
	b.mu.Lock()
	delete(b.entries, subscriberID)
	b.mu.Unlock()
}
