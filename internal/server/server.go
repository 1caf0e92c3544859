// Package server wires the dashboard, the Cathedral bridge and telemetry
// into one HTTP process.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskscorer/riskscorer/internal/bridge"
	"github.com/riskscorer/riskscorer/internal/config"
	"github.com/riskscorer/riskscorer/internal/dashboard"
	"github.com/riskscorer/riskscorer/internal/dataset"
	"github.com/riskscorer/riskscorer/internal/guard"
	"github.com/riskscorer/riskscorer/internal/telemetry"
)

// Server is the riskscorer HTTP server.
type Server struct {
	cfg       *config.Config
	version   string
	srv       *http.Server
	ln        net.Listener
	src       *dataset.Source
	bridge    *bridge.Client
	dashboard *dashboard.Server
	metrics   *telemetry.Metrics
	logger    *slog.Logger

	stopTracing telemetry.ShutdownFunc

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer loads the dataset, builds the bridge client and dashboard, and
// binds the listener. Nothing runs until Start.
func NewServer(cfg *config.Config, version string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	snap := dataset.Default()
	if cfg.Dashboard.Dataset != "" {
		loaded, err := dataset.LoadFile(cfg.Dashboard.Dataset)
		if err != nil {
			return nil, fmt.Errorf("loading dataset: %w", err)
		}
		snap = loaded
		logger.Info("loaded dataset", "path", cfg.Dashboard.Dataset,
			"violations", len(snap.Violations), "frameworks", len(snap.Frameworks))
	}
	src := dataset.NewSource(snap, time.Duration(cfg.Dashboard.LoadDelayMs)*time.Millisecond)

	var metrics *telemetry.Metrics
	if cfg.Telemetry.Metrics {
		metrics = telemetry.NewMetrics()
		src.OnChange(func(dataset.Snapshot) { metrics.DatasetReloaded() })
	}

	var stopTracing telemetry.ShutdownFunc
	if cfg.Telemetry.TraceStdout {
		shutdown, err := telemetry.InitTracing(context.Background(), "riskscorer", version, os.Stdout)
		if err != nil {
			return nil, fmt.Errorf("initializing tracing: %w", err)
		}
		stopTracing = shutdown
	}

	var client *bridge.Client
	if cfg.Bridge.Enabled {
		client = NewBridge(cfg.Bridge, metrics, logger)
	}

	dash := dashboard.NewServer(cfg, src, client, metrics, logger)

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"status":  "ok",
			"version": version,
		}
		if client != nil {
			st := client.Status()
			resp["bridge"] = map[string]any{
				"state":     st.State.String(),
				"connected": st.Connected,
				"attempt":   st.Attempt,
			}
		}
		writeJSON(w, http.StatusOK, resp)
	})
	if metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})

	// Mount dashboard (auth middleware applied internally)
	mux.Handle("/dashboard/", dash.Handler())
	mux.Handle("/dashboard", dash.Handler())

	var h http.Handler = mux
	h = securityHeaders(h)
	h = logging(logger, metrics)(h)
	h = recovery(logger)(h)
	h = requestID(h)
	h = otelhttp.NewHandler(h, "riskscorer",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)

	// Bind to 127.0.0.1 by default (localhost only).
	bind := cfg.Server.Bind
	if bind == "" {
		bind = "127.0.0.1"
	}
	ln, actualPort, err := listenAutoPort(bind, cfg.Server.Port, logger)
	if err != nil {
		dash.Close()
		return nil, fmt.Errorf("binding port: %w", err)
	}
	cfg.Server.Port = actualPort

	srv := &http.Server{
		Handler:        h,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	return &Server{
		cfg:         cfg,
		version:     version,
		srv:         srv,
		ln:          ln,
		src:         src,
		bridge:      client,
		dashboard:   dash,
		metrics:     metrics,
		logger:      logger,
		stopTracing: stopTracing,
	}, nil
}

// NewBridge builds a Cathedral client from config. Queries are screened
// when screen_queries is set; metrics may be nil.
func NewBridge(bc config.BridgeConfig, metrics *telemetry.Metrics, logger *slog.Logger) *bridge.Client {
	opts := bridge.Options{
		URL:           bc.URL,
		UserID:        bc.UserID,
		ConsentLevel:  bc.ConsentLevel,
		Glyph:         bc.Glyph,
		ReconnectBase: time.Duration(bc.ReconnectBaseMs) * time.Millisecond,
		ReconnectCap:  time.Duration(bc.ReconnectCapMs) * time.Millisecond,
		Logger:        logger,
	}
	if bc.ScreenQueries {
		g := guard.New(bc.ScreenRulesDir, logger)
		logger.Info("query screening enabled", "rules", g.RulesCount(context.Background()))
		opts.Screener = g
	}
	if metrics != nil {
		opts.Observer = metrics.BridgeObserver()
	}
	return bridge.New(opts)
}

// listenAutoPort tries the configured port; if busy, scans up to 10 higher ports.
func listenAutoPort(bind string, port int, logger *slog.Logger) (net.Listener, int, error) {
	addr := net.JoinHostPort(bind, fmt.Sprint(port))
	ln, err := net.Listen("tcp", addr)
	if err == nil {
		// Port 0 means the OS picked one.
		return ln, ln.Addr().(*net.TCPAddr).Port, nil
	}
	if !isAddrInUse(err) || port == 0 {
		return nil, 0, err
	}

	logger.Warn("port in use, searching for available port", "port", port)
	for offset := 1; offset <= 10; offset++ {
		tryPort := port + offset
		ln, err = net.Listen("tcp", net.JoinHostPort(bind, fmt.Sprint(tryPort)))
		if err == nil {
			logger.Info("using alternative port", "original", port, "actual", tryPort)
			return ln, tryPort, nil
		}
	}
	return nil, 0, fmt.Errorf("port %d and next 10 ports are all in use", port)
}

func isAddrInUse(err error) bool {
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, syscall.EADDRINUSE)
	}
	return false
}

// DashboardCode returns the one-time access code for the dashboard.
func (s *Server) DashboardCode() string {
	return s.dashboard.AccessCode()
}

// Port returns the actual port the server is bound to.
func (s *Server) Port() int {
	return s.cfg.Server.Port
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Bridge returns the Cathedral client, or nil when the bridge is disabled.
func (s *Server) Bridge() *bridge.Client {
	return s.bridge
}

// Start runs the bridge and the dataset watcher in the background, then
// serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Info("riskscorer starting",
		"addr", s.ln.Addr().String(),
		"bridge", s.bridge != nil,
		"metrics", s.metrics != nil,
	)

	if s.bridge != nil {
		s.wg.Go(func() {
			if err := s.bridge.Run(ctx); err != nil {
				s.logger.Error("bridge stopped", "error", err)
			}
		})
	}
	if s.cfg.Dashboard.Dataset != "" && s.cfg.Dashboard.WatchDataset {
		s.wg.Go(func() {
			if err := dataset.Watch(ctx, s.cfg.Dashboard.Dataset, s.src, s.logger); err != nil {
				s.logger.Error("dataset watcher stopped", "error", err)
			}
		})
	}

	if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server and everything it started.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	// Closing the bridge ends open event streams so Shutdown can drain.
	if s.bridge != nil {
		s.bridge.Close()
	}
	s.dashboard.Close()
	err := s.srv.Shutdown(ctx)
	_ = s.ln.Close() // still open if Start never ran
	s.wg.Wait()

	if s.stopTracing != nil {
		if terr := s.stopTracing(ctx); terr != nil && err == nil {
			err = terr
		}
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
