package dataset

import (
	"context"
	"slices"
	"sync"
	"time"
)

// DefaultLoadDelay mirrors the simulated latency of the original data fetch.
const DefaultLoadDelay = 1200 * time.Millisecond

// Source holds the current snapshot and hands out copies after a simulated
// load delay.
type Source struct {
	delay time.Duration

	mu       sync.RWMutex
	snap     Snapshot
	version  uint64
	onChange []func(Snapshot)
}

// NewSource creates a source seeded with snap.
func NewSource(snap Snapshot, delay time.Duration) *Source {
	if delay < 0 {
		delay = 0
	}
	return &Source{delay: delay, snap: snap.Clone()}
}

// Fetch waits for the load delay and returns the current snapshot. If ctx is
// cancelled first it returns ctx.Err() and the caller must not apply anything.
func (s *Source) Fetch(ctx context.Context) (Snapshot, error) {
	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	return s.Current(), nil
}

// Current returns the snapshot without delay.
func (s *Source) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// Version increments on every Replace.
func (s *Source) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Replace swaps in a whole new snapshot and notifies listeners.
func (s *Source) Replace(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap.Clone()
	s.version++
	listeners := slices.Clone(s.onChange)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap.Clone())
	}
}

// OnChange registers fn to be called after every Replace.
func (s *Source) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}
