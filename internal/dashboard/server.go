package dashboard

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/riskscorer/riskscorer/internal/bridge"
	"github.com/riskscorer/riskscorer/internal/cathedral"
	"github.com/riskscorer/riskscorer/internal/config"
	"github.com/riskscorer/riskscorer/internal/dataset"
	"github.com/riskscorer/riskscorer/internal/report"
	"github.com/riskscorer/riskscorer/internal/telemetry"
	"github.com/riskscorer/riskscorer/internal/view"
)

// viewer is the state owned by one logged-in browser session.
type viewer struct {
	view  *view.Controller
	codex *cathedral.Collection

	mu        sync.Mutex
	resonance cathedral.Resonance
}

// Server serves the risk dashboard UI.
type Server struct {
	auth    *Auth
	cfg     *config.Config
	src     *dataset.Source
	bridge  *bridge.Client
	metrics *telemetry.Metrics
	logger  *slog.Logger
	mux     *http.ServeMux
	now     func() time.Time

	mu      sync.Mutex
	viewers map[string]*viewer

	stopPrune chan struct{}
	closeOnce sync.Once
}

// sessionPruneInterval is how often expired sessions lose their viewers.
const sessionPruneInterval = 5 * time.Minute

// NewServer creates a dashboard server with access-code authentication.
// client and metrics may be nil.
func NewServer(cfg *config.Config, src *dataset.Source, client *bridge.Client, metrics *telemetry.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		auth:    NewAuth(),
		cfg:     cfg,
		src:     src,
		bridge:  client,
		metrics: metrics,
		logger:  logger,
		mux:     http.NewServeMux(),
		now:     time.Now,
		viewers:   make(map[string]*viewer),
		stopPrune: make(chan struct{}),
	}
	s.routes()
	go s.pruneLoop(sessionPruneInterval)
	return s
}

func (s *Server) pruneLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.stopPrune:
			return
		case <-t.C:
			s.pruneSessions()
		}
	}
}

// pruneSessions drops expired sessions and closes their viewers.
func (s *Server) pruneSessions() {
	expired := s.auth.PruneExpired()
	if len(expired) == 0 {
		return
	}
	s.mu.Lock()
	for _, t := range expired {
		if v, ok := s.viewers[t]; ok {
			v.view.Close()
			delete(s.viewers, t)
		}
	}
	n := len(s.viewers)
	s.mu.Unlock()

	s.logger.Debug("pruned expired sessions", "count", len(expired))
	if s.metrics != nil {
		s.metrics.SetSessions(n)
	}
}

// AccessCode returns the one-time access code displayed in the terminal.
func (s *Server) AccessCode() string {
	return s.auth.AccessCode()
}

// Handler returns the dashboard HTTP handler with auth middleware applied.
func (s *Server) Handler() http.Handler {
	return s.auth.Middleware(s.mux)
}

// Close stops the session pruner and every session's pending loads and timers.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.stopPrune) })
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, v := range s.viewers {
		v.view.Close()
		delete(s.viewers, token)
	}
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /dashboard/login", s.handleLoginPage)
	s.mux.HandleFunc("POST /dashboard/login", s.handleLoginSubmit)
	s.mux.HandleFunc("POST /dashboard/logout", s.handleLogout)

	s.mux.HandleFunc("GET /dashboard", s.handleCurrentTab)
	s.mux.HandleFunc("GET /dashboard/{tab}", s.handleTab)
	s.mux.HandleFunc("POST /dashboard/role", s.handleRole)
	s.mux.HandleFunc("POST /dashboard/refresh", s.handleRefresh)

	// Print view
	s.mux.HandleFunc("GET /dashboard/report", s.handleReport)

	// JSON
	s.mux.HandleFunc("GET /dashboard/api/metrics", s.handleAPIMetrics)
	s.mux.HandleFunc("GET /dashboard/api/transcript", s.handleAPITranscript)

	// Cathedral
	s.mux.HandleFunc("POST /dashboard/cathedral/query", s.handleQuery)
	s.mux.HandleFunc("POST /dashboard/cathedral/glyph", s.handleGlyph)
	s.mux.HandleFunc("POST /dashboard/cathedral/resonance", s.handleResonance)
	s.mux.HandleFunc("POST /dashboard/cathedral/collect/{id}", s.handleCollect)
	s.mux.HandleFunc("GET /dashboard/cathedral/events", s.handleSSE)
}

func (s *Server) viewOptions(role view.Role) view.Options {
	opts := view.Options{
		Tab:          view.Tab(s.cfg.Dashboard.DefaultTab),
		Role:         view.Role(s.cfg.Dashboard.DefaultRole),
		RefreshDelay: time.Duration(s.cfg.Dashboard.RefreshDelayMs) * time.Millisecond,
	}
	if role != "" {
		opts.Role = role
	}
	return opts
}

func (s *Server) newViewer(role view.Role) *viewer {
	v := &viewer{
		view:  view.NewController(s.src, s.viewOptions(role)),
		codex: cathedral.NewCollection(),
	}
	v.view.Start()
	return v
}

// openViewer registers a session's viewer and drops viewers whose sessions
// have expired.
func (s *Server) openViewer(token string, role view.Role) *viewer {
	v := s.newViewer(role)

	s.mu.Lock()
	s.viewers[token] = v
	n := len(s.viewers)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetSessions(n)
	}
	s.pruneSessions()
	return v
}

func (s *Server) closeViewer(token string) {
	s.mu.Lock()
	if v, ok := s.viewers[token]; ok {
		v.view.Close()
		delete(s.viewers, token)
	}
	n := len(s.viewers)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetSessions(n)
	}
}

// viewerFor returns the request's viewer. The auth middleware has already
// validated the cookie; a valid session without a viewer gets a fresh one.
// Without a cookie it redirects to the login page and returns nil.
func (s *Server) viewerFor(w http.ResponseWriter, r *http.Request) *viewer {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		http.Redirect(w, r, "/dashboard/login", http.StatusFound)
		return nil
	}
	s.mu.Lock()
	v, ok := s.viewers[cookie.Value]
	s.mu.Unlock()
	if ok {
		return v
	}
	return s.openViewer(cookie.Value, "")
}

func (s *Server) organization() report.Organization {
	org := report.Organization{
		Name:              s.cfg.Report.Organization,
		SecurityContact:   s.cfg.Report.SecurityContact,
		ComplianceOfficer: s.cfg.Report.ComplianceOfficer,
	}
	if org.Name == "" {
		org = report.DefaultOrganization
	}
	return org
}
