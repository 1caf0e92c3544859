package bridge

import (
	"errors"
	"fmt"
)

// ReadyState is the four-valued socket lifecycle.
type ReadyState int

const (
	StateConnecting ReadyState = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s ReadyState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("ReadyState(%d)", int(s))
}

// Status is a point-in-time view of a client.
type Status struct {
	State     ReadyState `json:"-"`
	SessionID string     `json:"session_id,omitempty"`
	Connected bool       `json:"connected"`
	Sending   bool       `json:"sending"`
	Glyph     string     `json:"glyph"`
	// Attempt counts consecutive failed connections since the last open.
	Attempt int `json:"attempt"`
}

// Text is the human status line shown above the transcript.
func (s Status) Text() string {
	switch s.State {
	case StateConnecting:
		return "Connecting to quantum field..."
	case StateOpen:
		if s.Connected {
			return fmt.Sprintf("Connected to Quantum Field (Session: %s...)", shortID(s.SessionID))
		}
		return "Establishing resonance..."
	case StateClosing:
		return "Closing sacred connection..."
	default:
		return "Disconnected from cosmic network"
	}
}

// CanSend reports whether the input should be enabled.
func (s Status) CanSend() bool {
	return s.State == StateOpen && s.SessionID != "" && !s.Sending
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Explain turns a Send error into the notice shown to the user.
func Explain(err error) string {
	switch {
	case errors.Is(err, ErrBlankQuery):
		return "Enter a query first."
	case errors.Is(err, ErrNoSession), errors.Is(err, ErrNotOpen):
		return "No quantum session yet. Wait for the connection."
	case errors.Is(err, ErrInFlight):
		return "The council is still answering your previous query."
	case errors.Is(err, ErrScreened):
		return "Query withheld by content screening."
	case errors.Is(err, ErrClosed):
		return "The bridge has been shut down."
	}
	return err.Error()
}
