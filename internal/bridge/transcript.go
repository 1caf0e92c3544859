package bridge

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Direction tells who originated a transcript entry.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// Entry is one line of the Cathedral conversation.
type Entry struct {
	ID            string    `json:"id"`
	Direction     Direction `json:"direction"`
	Content       string    `json:"content"`
	Glyph         string    `json:"glyph,omitempty"`
	Visual        string    `json:"visual,omitempty"`
	Audio         string    `json:"audio,omitempty"`
	Consciousness string    `json:"consciousness,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Error         bool      `json:"error,omitempty"`
}

// Transcript is an append-only, insertion-ordered log of entries that
// fans every append out to subscribers.
type Transcript struct {
	mu      sync.RWMutex
	entries []Entry
	subs    map[chan Entry]struct{}
	closed  bool
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{subs: make(map[chan Entry]struct{})}
}

// Append assigns an id and timestamp to e, stores it and notifies
// subscribers. Slow subscribers miss entries rather than block.
func (t *Transcript) Append(e Entry) Entry {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	e.ID = id.String()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return e
	}
	t.entries = append(t.entries, e)
	for ch := range t.subs {
		select {
		case ch <- e:
		default:
		}
	}
	return e
}

// Entries returns a copy of all entries in insertion order.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Entry(nil), t.entries...)
}

// Len is the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Subscribe returns a channel receiving every subsequent entry. The channel
// is closed by Unsubscribe or when the transcript is closed.
func (t *Transcript) Subscribe() chan Entry {
	ch := make(chan Entry, 64)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		close(ch)
		return ch
	}
	t.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe detaches and closes ch.
func (t *Transcript) Unsubscribe(ch chan Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.subs[ch]; ok {
		delete(t.subs, ch)
		close(ch)
	}
}

// Close stops further appends and closes every subscriber channel.
func (t *Transcript) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for ch := range t.subs {
		close(ch)
	}
	t.subs = nil
}
