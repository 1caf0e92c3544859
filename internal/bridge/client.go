// Package bridge is a WebSocket client for the Cathedral quantum bridge:
// it negotiates a session, forwards glyph consultations one at a time and
// records everything in a transcript, reconnecting with capped exponential
// backoff for as long as it runs.
//
// The first dial goes to <base>/init. Once the server establishes a session
// the client stays on that socket; the <base>/<session-id> path is used only
// when it reconnects.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"
)

// Defaults for Options.
const (
	DefaultURL           = "ws://localhost:1375/quantum-bridge"
	DefaultConsentLevel  = "universal"
	DefaultGlyph         = "OM-SOLIS"
	DefaultReconnectBase = time.Second
	DefaultReconnectCap  = 10 * time.Second

	initPath     = "init"
	writeTimeout = 10 * time.Second
)

// Send rejections. None of them touch the network.
var (
	ErrBlankQuery = errors.New("query is blank")
	ErrNoSession  = errors.New("no session established")
	ErrInFlight   = errors.New("a consultation is already in flight")
	ErrNotOpen    = errors.New("connection is not open")
	ErrClosed     = errors.New("bridge client closed")
	ErrScreened   = errors.New("query blocked by screening")
)

// Screener may veto a query before it leaves the process.
type Screener interface {
	Screen(ctx context.Context, query string) error
}

// Observer receives lifecycle notifications. Implementations must not block.
type Observer interface {
	StateChanged(ReadyState)
	MessageReceived(kind string)
	ReconnectScheduled(delay time.Duration)
}

// Options configures a Client.
type Options struct {
	URL           string
	UserID        string
	ConsentLevel  string
	Glyph         string
	Device        string
	Platform      string
	ReconnectBase time.Duration
	ReconnectCap  time.Duration

	Screener Screener
	Observer Observer
	Dialer   *websocket.Dialer
	Logger   *slog.Logger
}

// Client owns one bridge connection and its transcript.
type Client struct {
	opts       Options
	transcript *Transcript
	logger     *slog.Logger

	writeMu sync.Mutex

	mu        sync.Mutex
	state     ReadyState
	conn      *websocket.Conn
	sessionID string
	connected bool
	sending   bool
	glyph     string
	attempt   int
	running   bool
	closed    bool
	stop      context.CancelFunc
	done      chan struct{}
}

// New builds a client. Nothing is dialled until Run.
func New(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.UserID == "" {
		opts.UserID = NewUserID()
	}
	if opts.ConsentLevel == "" {
		opts.ConsentLevel = DefaultConsentLevel
	}
	if opts.Glyph == "" {
		opts.Glyph = DefaultGlyph
	}
	if opts.Device == "" {
		opts.Device = "riskscorer"
	}
	if opts.Platform == "" {
		opts.Platform = runtime.GOOS + "/" + runtime.GOARCH
	}
	if opts.ReconnectBase <= 0 {
		opts.ReconnectBase = DefaultReconnectBase
	}
	if opts.ReconnectCap < opts.ReconnectBase {
		opts.ReconnectCap = max(DefaultReconnectCap, opts.ReconnectBase)
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		opts:       opts,
		transcript: NewTranscript(),
		logger:     opts.Logger.With("component", "bridge"),
		state:      StateClosed,
		glyph:      opts.Glyph,
		done:       make(chan struct{}),
	}
}

// NewUserID returns an opaque user identifier of the form user_xxxxxxxxx.
func NewUserID() string {
	return "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}

// Transcript returns the client's transcript.
func (c *Client) Transcript() *Transcript { return c.transcript }

// UserID returns the identifier sent with every request.
func (c *Client) UserID() string { return c.opts.UserID }

// Status returns the current lifecycle state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		State:     c.state,
		SessionID: c.sessionID,
		Connected: c.connected,
		Sending:   c.sending,
		Glyph:     c.glyph,
		Attempt:   c.attempt,
	}
}

// SetGlyph selects the glyph addressed by subsequent consultations.
func (c *Client) SetGlyph(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("glyph name is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.glyph = name
	return nil
}

// Endpoint is the URL the next dial will use.
func (c *Client) Endpoint() string {
	c.mu.Lock()
	sid := c.sessionID
	c.mu.Unlock()
	return endpoint(c.opts.URL, sid)
}

func endpoint(base, sessionID string) string {
	if sessionID == "" {
		sessionID = initPath
	}
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(sessionID)
}

func newBackoff(base, capDur time.Duration) retry.Backoff {
	return retry.WithCappedDuration(capDur, retry.NewExponential(base))
}

// Run connects and keeps the connection alive until ctx is cancelled or
// Close is called. Transport failures are recorded in the transcript and
// retried without limit. Run returns nil on shutdown.
func (c *Client) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.running {
		c.mu.Unlock()
		return errors.New("bridge client already running")
	}
	c.running = true
	ctx, c.stop = context.WithCancel(ctx)
	c.mu.Unlock()
	defer close(c.done)
	defer c.setState(StateClosed)

	backoff := newBackoff(c.opts.ReconnectBase, c.opts.ReconnectCap)
	for ctx.Err() == nil {
		c.setState(StateConnecting)
		target := c.Endpoint()
		conn, _, err := c.opts.Dialer.DialContext(ctx, target, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("bridge dial failed", "url", target, "error", err)
			c.transportError(err)
		} else {
			backoff = newBackoff(c.opts.ReconnectBase, c.opts.ReconnectCap)
			c.mu.Lock()
			c.attempt = 0
			c.mu.Unlock()

			err = c.serve(ctx, conn)
			if ctx.Err() != nil {
				return nil
			}
			if isNormalClose(err) {
				c.logger.Info("bridge connection closed by server")
			} else {
				c.logger.Warn("bridge connection lost", "error", err)
				c.transportError(err)
			}
		}

		delay, _ := backoff.Next()
		c.mu.Lock()
		c.attempt++
		c.mu.Unlock()
		if c.opts.Observer != nil {
			c.opts.Observer.ReconnectScheduled(delay)
		}
		c.logger.Debug("bridge reconnect scheduled", "delay", delay)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
	return nil
}

// serve runs one open connection until it fails.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	c.mu.Lock()
	c.conn = conn
	c.state = StateOpen
	needInit := c.sessionID == ""
	if !needInit {
		c.connected = true
	}
	c.mu.Unlock()
	c.notifyState(StateOpen)
	c.logger.Info("bridge connected", "url", conn.RemoteAddr().String())

	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			c.setState(StateClosing)
			c.writeMu.Lock()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			c.writeMu.Unlock()
			_ = conn.Close()
		case <-stopWatch:
		}
	}()

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.connected = false
		// A reply to an in-flight request cannot arrive on a new socket.
		c.sending = false
		c.mu.Unlock()
		_ = conn.Close()
	}()

	if needInit {
		err := c.write(conn, SessionInit{
			Type:          TypeSessionInit,
			UserID:        c.opts.UserID,
			BiometricData: ClientInfo{Device: c.opts.Device, Platform: c.opts.Platform},
			ConsentLevel:  c.opts.ConsentLevel,
		})
		if err != nil {
			return fmt.Errorf("sending session init: %w", err)
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handle(data)
	}
}

// handle applies one inbound payload. State and transcript change together
// so a caller that sees the session also sees its transcript entry.
func (c *Client) handle(data []byte) {
	msg := Decode(data)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.sending = false

	switch m := msg.(type) {
	case SessionEstablished:
		c.sessionID = m.SessionID
		c.connected = true
		c.logger.Info("bridge session established", "session", shortID(m.SessionID))
		c.transcript.Append(Entry{
			Direction: DirectionReceived,
			Content:   "Quantum session established. Your consciousness is sovereign.",
		})
	case GlyphResponse:
		c.transcript.Append(Entry{
			Direction:     DirectionReceived,
			Content:       m.Content,
			Glyph:         m.GlyphName,
			Visual:        m.Visual,
			Audio:         m.Audio,
			Consciousness: m.ConsciousnessShift,
		})
	case ServerError:
		c.transcript.Append(Entry{
			Direction: DirectionReceived,
			Content:   "Sacred protocol error: " + m.Message,
			Error:     true,
		})
	case Unrecognized:
		c.transcript.Append(Entry{Direction: DirectionReceived, Content: m.Text})
	case Unparseable:
		c.logger.Debug("bridge payload is not JSON", "bytes", len(m.Raw))
		c.transcript.Append(Entry{Direction: DirectionReceived, Content: m.Raw, Error: true})
	}
	c.mu.Unlock()

	if c.opts.Observer != nil {
		c.opts.Observer.MessageReceived(msg.Kind())
	}
}

// Send forwards query to the selected glyph. It fails without any network
// write when the query is blank, no session exists, a consultation is in
// flight, the socket is not open, or the screener vetoes it.
func (c *Client) Send(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrBlankQuery
	}

	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.sessionID == "":
		c.mu.Unlock()
		return ErrNoSession
	case c.sending:
		c.mu.Unlock()
		return ErrInFlight
	case c.conn == nil || c.state != StateOpen:
		c.mu.Unlock()
		return ErrNotOpen
	}
	c.sending = true
	conn := c.conn
	msg := GlyphConsultation{
		Type:           TypeGlyphConsultation,
		UserID:         c.opts.UserID,
		GlyphName:      c.glyph,
		QueryText:      query,
		SessionID:      c.sessionID,
		ConsentLevel:   c.opts.ConsentLevel,
		BiometricProof: ClientInfo{Device: c.opts.Device, Platform: c.opts.Platform},
	}
	c.mu.Unlock()

	if c.opts.Screener != nil {
		if err := c.opts.Screener.Screen(ctx, query); err != nil {
			c.clearSending()
			return fmt.Errorf("%w: %w", ErrScreened, err)
		}
	}

	c.transcript.Append(Entry{Direction: DirectionSent, Content: query, Glyph: msg.GlyphName})
	if err := c.write(conn, msg); err != nil {
		c.clearSending()
		return fmt.Errorf("sending consultation: %w", err)
	}
	return nil
}

func (c *Client) clearSending() {
	c.mu.Lock()
	c.sending = false
	c.mu.Unlock()
}

func (c *Client) write(conn *websocket.Conn, v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}

// Close tears the client down. Messages arriving afterwards are dropped and
// transcript subscribers are released. Close waits for Run to return.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	stop, running := c.stop, c.running
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	if running {
		<-c.done
	}
	c.transcript.Close()
}

// Done is closed when Run returns.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) transportError(err error) {
	c.mu.Lock()
	closed := c.closed
	c.connected = false
	c.mu.Unlock()
	if closed {
		return
	}
	c.transcript.Append(Entry{
		Direction: DirectionReceived,
		Content:   "Connection error: " + err.Error(),
		Error:     true,
	})
}

func (c *Client) setState(s ReadyState) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()
	if changed {
		c.notifyState(s)
	}
}

func (c *Client) notifyState(s ReadyState) {
	if c.opts.Observer != nil {
		c.opts.Observer.StateChanged(s)
	}
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
