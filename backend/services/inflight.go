package services

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInFlight is returned when an update for the same item key is already
// being processed; the caller should retry after the prior one settles.
var ErrInFlight = errors.New("an update for this item is already in flight")

// InFlightGuard drops duplicate concurrent updates for the same progress
// key. Playback timers fire every few seconds and can overlap; this keeps a
// burst of events for one item from racing each other. The guard is advisory
// and per-process; the unique index on progress_records is the real
// correctness guarantee.
type InFlightGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewInFlightGuard() *InFlightGuard {
	return &InFlightGuard{inFlight: make(map[string]struct{})}
}

// Do runs fn unless another call for key is still running, in which case it
// returns ErrInFlight without running fn. The key is always released when fn
// returns, whether it succeeded or not.
func (g *InFlightGuard) Do(key string, fn func() error) error {
	g.mu.Lock()
	if _, busy := g.inFlight[key]; busy {
		g.mu.Unlock()
		return ErrInFlight
	}
	g.inFlight[key] = struct{}{}
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.inFlight, key)
		g.mu.Unlock()
	}()

	return fn()
}

// ProgressKey builds the guard key for one learner/enrollment/item triple.
func ProgressKey(userID, enrollmentID, itemID uint) string {
	return fmt.Sprintf("%d:%d:%d", userID, enrollmentID, itemID)
}
