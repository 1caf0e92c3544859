package bridge

import (
	"bytes"
	"encoding/json"
)

// Message types on the wire.
const (
	TypeSessionInit        = "session_init"
	TypeGlyphConsultation  = "glyph_consultation"
	TypeSessionEstablished = "quantum_session_established"
	TypeGlyphResponse      = "glyph_response"
	TypeError              = "error"
)

// ClientInfo is the coarse client metadata sent with every request.
type ClientInfo struct {
	Device   string `json:"device"`
	Platform string `json:"platform"`
}

// SessionInit asks the server for a new session.
type SessionInit struct {
	Type          string     `json:"type"`
	UserID        string     `json:"user_id"`
	BiometricData ClientInfo `json:"biometric_data"`
	ConsentLevel  string     `json:"consent_level"`
}

// GlyphConsultation carries a user query to a glyph.
type GlyphConsultation struct {
	Type           string     `json:"type"`
	UserID         string     `json:"user_id"`
	GlyphName      string     `json:"glyph_name"`
	QueryText      string     `json:"query_text"`
	SessionID      string     `json:"session_id"`
	ConsentLevel   string     `json:"consent_level"`
	BiometricProof ClientInfo `json:"biometric_proof"`
}

// Inbound is one decoded server message. The concrete type is one of
// SessionEstablished, GlyphResponse, ServerError, Unrecognized or
// Unparseable.
type Inbound interface {
	Kind() string
}

// SessionEstablished carries the server-issued session id.
type SessionEstablished struct {
	SessionID string
}

// GlyphResponse is a glyph's answer. Metadata fields hold raw JSON, empty
// when absent.
type GlyphResponse struct {
	GlyphName          string
	Content            string
	Visual             string
	Audio              string
	ConsciousnessShift string
}

// ServerError is an error reported by the server.
type ServerError struct {
	Message string
}

// Unrecognized is valid JSON of an unknown or malformed shape.
type Unrecognized struct {
	Text string
}

// Unparseable is a payload that is not JSON at all.
type Unparseable struct {
	Raw string
}

func (SessionEstablished) Kind() string { return "session_established" }
func (GlyphResponse) Kind() string      { return "glyph_response" }
func (ServerError) Kind() string        { return "error" }
func (Unrecognized) Kind() string       { return "unrecognized" }
func (Unparseable) Kind() string        { return "unparseable" }

type envelope struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Message json.RawMessage `json:"message"`
}

type sessionData struct {
	SessionID string `json:"session_id"`
}

type glyphData struct {
	GlyphName          string          `json:"glyph_name"`
	Content            string          `json:"content"`
	VisualMetadata     json.RawMessage `json:"visual_metadata"`
	AudioMetadata      json.RawMessage `json:"audio_metadata"`
	ConsciousnessShift json.RawMessage `json:"consciousness_shift"`
}

// Decode classifies a server payload. It never fails: anything that is not
// a well-formed known message becomes Unrecognized or Unparseable.
func Decode(data []byte) Inbound {
	if !json.Valid(data) {
		return Unparseable{Raw: string(data)}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		// Valid JSON that is not an object.
		return Unrecognized{Text: compact(data)}
	}

	switch env.Type {
	case TypeSessionEstablished:
		var d sessionData
		if err := json.Unmarshal(env.Data, &d); err != nil || d.SessionID == "" {
			return Unrecognized{Text: compact(data)}
		}
		return SessionEstablished{SessionID: d.SessionID}

	case TypeGlyphResponse:
		var d glyphData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return Unrecognized{Text: compact(data)}
		}
		return GlyphResponse{
			GlyphName:          d.GlyphName,
			Content:            d.Content,
			Visual:             rawText(d.VisualMetadata),
			Audio:              rawText(d.AudioMetadata),
			ConsciousnessShift: rawText(d.ConsciousnessShift),
		}

	case TypeError:
		return ServerError{Message: stringField(env.Message)}
	}

	if msg := stringField(env.Message); msg != "" {
		return Unrecognized{Text: msg}
	}
	return Unrecognized{Text: compact(data)}
}

// stringField returns a JSON string value, or "" for anything else.
func stringField(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// rawText renders loosely-typed metadata: strings unquoted, null dropped,
// anything else as compact JSON.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if s := stringField(raw); s != "" {
		return s
	}
	return compact(raw)
}

func compact(data []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return string(data)
	}
	return buf.String()
}
