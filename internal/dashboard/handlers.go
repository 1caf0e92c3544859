package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/riskscorer/riskscorer/internal/bridge"
	"github.com/riskscorer/riskscorer/internal/cathedral"
	"github.com/riskscorer/riskscorer/internal/report"
	"github.com/riskscorer/riskscorer/internal/risk"
	"github.com/riskscorer/riskscorer/internal/telemetry"
	"github.com/riskscorer/riskscorer/internal/view"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = loginTmpl.Execute(w, map[string]any{"Roles": view.Roles(), "Default": s.cfg.Dashboard.DefaultRole})
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	allowed, retryAfter := s.auth.CheckRateLimit(ip)
	if !allowed {
		s.logger.Warn("login rate-limited",
			"ip", ip,
			"retry_after", retryAfter.Round(time.Second).String(),
		)
		msg := fmt.Sprintf("Too many failed attempts. Try again in %d minutes.", int(retryAfter.Minutes())+1)
		s.renderLogin(w, http.StatusTooManyRequests, msg)
		return
	}

	if !s.auth.ValidateCode(r.FormValue("code")) {
		if lockout := s.auth.RecordFailure(ip); lockout > 0 {
			s.logger.Warn("login lockout triggered", "ip", ip, "lockout_duration", lockout.String())
		} else {
			s.logger.Info("login failed", "ip", ip)
		}
		s.renderLogin(w, http.StatusUnauthorized, "Invalid access code. Check your terminal.")
		return
	}

	s.auth.RecordSuccess(ip)

	role, ok := view.ParseRole(r.FormValue("role"))
	if !ok {
		role = ""
	}
	token := s.auth.CreateSession()
	s.openViewer(token, role)
	s.logger.Info("login success", "ip", ip, "role", role)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/dashboard",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) renderLogin(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = loginTmpl.Execute(w, map[string]any{
		"Roles":   view.Roles(),
		"Default": s.cfg.Dashboard.DefaultRole,
		"Error":   msg,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		s.auth.InvalidateSession(cookie.Value)
		s.closeViewer(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/dashboard",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})

	s.logger.Info("logout", "ip", clientIP(r))
	http.Redirect(w, r, "/dashboard/login", http.StatusFound)
}

func (s *Server) handleCurrentTab(w http.ResponseWriter, r *http.Request) {
	if v := s.viewerFor(w, r); v != nil {
		s.render(w, r, v)
	}
}

func (s *Server) handleTab(w http.ResponseWriter, r *http.Request) {
	v := s.viewerFor(w, r)
	if v == nil {
		return
	}
	if err := v.view.SelectTab(r.PathValue("tab")); err != nil {
		http.NotFound(w, r)
		return
	}
	s.render(w, r, v)
}

var tabTemplates = map[view.Tab]*template.Template{
	view.TabOverview:     overviewTmpl,
	view.TabViolations:   violationsTmpl,
	view.TabCompliance:   complianceTmpl,
	view.TabCathedral:    cathedralTmpl,
	view.TabSettings:     settingsTmpl,
	view.TabIntegrations: integrationsTmpl,
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, v *viewer) {
	st := v.view.Snapshot()
	_, span := telemetry.StartSpan(r.Context(), "dashboard.render",
		"tab", string(st.Tab), "role", string(st.Role))
	defer span.End()

	p := s.buildPage(v, st)
	p.Flash = r.URL.Query().Get("error")

	tmpl := loadingTmpl
	if !p.Loading {
		tmpl = tabTemplates[st.Tab]
		if s.metrics != nil {
			s.metrics.SetPosture(p.Metrics.SecurityScore, p.Open+p.InProgress)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, p); err != nil {
		s.logger.Error("render failed", "tab", st.Tab, "error", err)
	}
}

// backToTab redirects to the viewer's current tab.
func backToTab(w http.ResponseWriter, r *http.Request, v *viewer, flash string) {
	target := "/dashboard/" + string(v.view.Snapshot().Tab)
	if flash != "" {
		target += "?error=" + url.QueryEscape(flash)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleRole(w http.ResponseWriter, r *http.Request) {
	v := s.viewerFor(w, r)
	if v == nil {
		return
	}
	if err := v.view.SelectRole(r.FormValue("role")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	backToTab(w, r, v, "")
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	v := s.viewerFor(w, r)
	if v == nil {
		return
	}
	if err := v.view.Refresh(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	backToTab(w, r, v, "")
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	v := s.viewerFor(w, r)
	if v == nil {
		return
	}
	st := v.view.Snapshot()
	if !st.Loaded {
		w.Header().Set("Retry-After", "1")
		http.Error(w, "security data is still loading", http.StatusServiceUnavailable)
		return
	}

	rep := report.Build(st.Data, s.organization(), s.now())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = reportTmpl.Execute(w, rep)
}

type metricsResponse struct {
	risk.Metrics
	RiskColor     string            `json:"risk_color"`
	Role          view.Role         `json:"role"`
	Loading       bool              `json:"loading"`
	Open          int               `json:"open"`
	InProgress    int               `json:"in_progress"`
	Resolved      int               `json:"resolved"`
	TotalCritical int               `json:"total_critical"`
	Severity      []risk.ChartSlice `json:"severity_distribution"`
	Compliance    []risk.ChartSlice `json:"compliance_distribution"`
}

func (s *Server) handleAPIMetrics(w http.ResponseWriter, r *http.Request) {
	v := s.viewerFor(w, r)
	if v == nil {
		return
	}
	st := v.view.Snapshot()
	if !st.Loaded {
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "loading", "loading": true})
		return
	}

	counts := risk.CountByStatus(st.Data.Violations)
	m := risk.Calculate(st.Data.Violations)
	writeJSON(w, http.StatusOK, metricsResponse{
		Metrics:       m,
		RiskColor:     risk.RiskColor(m.SecurityScore),
		Role:          st.Role,
		Loading:       st.Loading,
		Open:          counts[risk.StatusOpen],
		InProgress:    counts[risk.StatusInProgress],
		Resolved:      counts[risk.StatusResolved],
		TotalCritical: risk.TotalCritical(st.Data.Frameworks),
		Severity:      risk.SeverityDistribution(st.Data.Violations),
		Compliance:    risk.ComplianceDistribution(st.Data.Frameworks),
	})
}

func (s *Server) handleAPITranscript(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "cathedral bridge disabled"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  s.bridge.Status(),
		"text":    s.bridge.Status().Text(),
		"entries": s.bridge.Transcript().Entries(),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	v := s.viewerFor(w, r)
	if v == nil {
		return
	}
	if s.bridge == nil {
		backToTab(w, r, v, "The Cathedral bridge is disabled.")
		return
	}

	ctx, span := telemetry.StartSpan(r.Context(), "cathedral.query", "glyph", s.bridge.Status().Glyph)
	defer span.End()

	err := s.bridge.Send(ctx, r.FormValue("query"))
	switch {
	case err == nil:
		s.countQuery("sent")
		backToTab(w, r, v, "")
	case errors.Is(err, bridge.ErrScreened):
		s.countQuery("screened")
		s.logger.Warn("cathedral query screened", "error", err)
		backToTab(w, r, v, bridge.Explain(err))
	default:
		s.countQuery("rejected")
		backToTab(w, r, v, bridge.Explain(err))
	}
}

func (s *Server) countQuery(result string) {
	if s.metrics != nil {
		s.metrics.QueryResult(result)
	}
}

func (s *Server) handleGlyph(w http.ResponseWriter, r *http.Request) {
	v := s.viewerFor(w, r)
	if v == nil {
		return
	}
	if s.bridge == nil {
		backToTab(w, r, v, "The Cathedral bridge is disabled.")
		return
	}
	name := strings.TrimSpace(r.FormValue("glyph"))
	if _, ok := cathedral.LookupGlyph(name); !ok {
		http.Error(w, fmt.Sprintf("unknown glyph %q", name), http.StatusBadRequest)
		return
	}
	if err := s.bridge.SetGlyph(name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	backToTab(w, r, v, "")
}

func (s *Server) handleResonance(w http.ResponseWriter, r *http.Request) {
	v := s.viewerFor(w, r)
	if v == nil {
		return
	}
	v.mu.Lock()
	switch r.FormValue("dir") {
	case "up":
		v.resonance.Increase()
	case "down":
		v.resonance.Decrease()
	default:
		v.mu.Unlock()
		http.Error(w, "dir must be up or down", http.StatusBadRequest)
		return
	}
	v.mu.Unlock()
	backToTab(w, r, v, "")
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	v := s.viewerFor(w, r)
	if v == nil {
		return
	}
	id := r.PathValue("id")
	if _, ok := cathedral.LookupFragment(id); !ok {
		http.NotFound(w, r)
		return
	}
	if v.codex.Collect(id) {
		s.logger.Debug("codex fragment collected", "id", id)
	}
	backToTab(w, r, v, "")
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil {
		http.NotFound(w, r)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	flusher.Flush()

	ch := s.bridge.Transcript().Subscribe()
	defer s.bridge.Transcript().Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-ch:
			if !ok {
				return
			}
			data, _ := json.Marshal(entry)
			_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
