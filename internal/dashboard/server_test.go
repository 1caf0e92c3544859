package dashboard

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskscorer/riskscorer/internal/bridge"
	"github.com/riskscorer/riskscorer/internal/config"
	"github.com/riskscorer/riskscorer/internal/dataset"
	"github.com/riskscorer/riskscorer/internal/telemetry"
	"github.com/riskscorer/riskscorer/internal/view"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T, client *bridge.Client, mutate ...func(*config.Config)) *Server {
	t.Helper()

	cfg := config.Defaults()
	cfg.Dashboard.LoadDelayMs = 0
	cfg.Dashboard.RefreshDelayMs = 300
	for _, m := range mutate {
		m(cfg)
	}

	src := dataset.NewSource(dataset.Default(), time.Duration(cfg.Dashboard.LoadDelayMs)*time.Millisecond)
	srv := NewServer(cfg, src, client, telemetry.NewMetrics(), testLogger())
	srv.now = func() time.Time { return time.Date(2024, 3, 7, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(srv.Close)
	return srv
}

func loginAs(t *testing.T, srv *Server, role view.Role) *http.Cookie {
	t.Helper()

	form := url.Values{"code": {srv.AccessCode()}, "role": {string(role)}}
	req := httptest.NewRequest("POST", "/dashboard/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie after login")
	return nil
}

// loginLoaded logs in and waits for the initial data load.
func loginLoaded(t *testing.T, srv *Server, role view.Role) *http.Cookie {
	t.Helper()
	cookie := loginAs(t, srv, role)
	require.Eventually(t, func() bool {
		srv.mu.Lock()
		v, ok := srv.viewers[cookie.Value]
		srv.mu.Unlock()
		return ok && v.view.Snapshot().Loaded
	}, 2*time.Second, 10*time.Millisecond)
	return cookie
}

func do(t *testing.T, srv *Server, cookie *http.Cookie, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_LoginFlow(t *testing.T) {
	srv := newTestServer(t, nil)

	w := do(t, srv, nil, "GET", "/dashboard", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("dashboard without auth: status = %d, want 302", w.Code)
	}

	w = do(t, srv, nil, "GET", "/dashboard/login", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "access code") {
		t.Fatalf("login page: status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Compliance Officer") {
		t.Error("login page should offer the role picker")
	}

	w = do(t, srv, nil, "POST", "/dashboard/login", url.Values{"code": {"wrong"}})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong code: status = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid access code") {
		t.Error("wrong code should show an error")
	}

	cookie := loginLoaded(t, srv, view.RoleExecutive)
	w = do(t, srv, cookie, "GET", "/dashboard", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard with session: status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Security Posture Summary") {
		t.Error("default tab should be the overview")
	}
}

func TestServer_LoginLockout(t *testing.T) {
	srv := newTestServer(t, nil)
	for range maxLoginFailures {
		do(t, srv, nil, "POST", "/dashboard/login", url.Values{"code": {"00000000x"}})
	}
	w := do(t, srv, nil, "POST", "/dashboard/login", url.Values{"code": {srv.AccessCode()}})
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("after lockout: status = %d, want 429", w.Code)
	}
}

func TestServer_Logout(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := loginLoaded(t, srv, view.RoleSecurityAnalyst)

	w := do(t, srv, cookie, "POST", "/dashboard/logout", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("logout: status = %d", w.Code)
	}
	w = do(t, srv, cookie, "GET", "/dashboard", nil)
	if w.Code != http.StatusFound {
		t.Errorf("old cookie after logout: status = %d, want 302", w.Code)
	}
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if len(srv.viewers) != 0 {
		t.Errorf("viewers = %d after logout, want 0", len(srv.viewers))
	}
}

func TestServer_AllTabsRender(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := loginLoaded(t, srv, view.RoleSecurityAnalyst)

	want := map[view.Tab]string{
		view.TabOverview:     "Security Insights",
		view.TabViolations:   "Security Violations",
		view.TabCompliance:   "Executive Summary",
		view.TabCathedral:    "Codex",
		view.TabSettings:     "Dashboard Settings",
		view.TabIntegrations: "Security Tool Integrations",
	}
	for _, tab := range view.Tabs() {
		w := do(t, srv, cookie, "GET", "/dashboard/"+string(tab.Value), nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s: status = %d", tab.Value, w.Code)
			continue
		}
		if !strings.Contains(w.Body.String(), want[tab.Value]) {
			t.Errorf("%s: body missing %q", tab.Value, want[tab.Value])
		}
	}

	w := do(t, srv, cookie, "GET", "/dashboard", nil)
	if !strings.Contains(w.Body.String(), "Security Tool Integrations") {
		t.Error("GET /dashboard should stay on the last selected tab")
	}
}

func TestServer_UnknownTab(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := loginLoaded(t, srv, view.RoleExecutive)

	w := do(t, srv, cookie, "GET", "/dashboard/billing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown tab: status = %d, want 404", w.Code)
	}
}

var regionMarkers = map[view.Region]string{
	view.RegionComplianceSummary:    `id="compliance-summary"`,
	view.RegionInvestmentPriorities: `id="investment-priorities"`,
	view.RegionViolationActions:     `id="violation-actions"`,
	view.RegionAdvancedSettings:     `id="advanced-settings"`,
}

var regionTab = map[view.Region]view.Tab{
	view.RegionComplianceSummary:    view.TabOverview,
	view.RegionInvestmentPriorities: view.TabOverview,
	view.RegionViolationActions:     view.TabViolations,
	view.RegionAdvancedSettings:     view.TabSettings,
}

func TestServer_RoleVisibility(t *testing.T) {
	for _, role := range view.Roles() {
		t.Run(string(role.Value), func(t *testing.T) {
			srv := newTestServer(t, nil)
			cookie := loginLoaded(t, srv, role.Value)

			for _, tab := range view.Tabs() {
				body := do(t, srv, cookie, "GET", "/dashboard/"+string(tab.Value), nil).Body.String()
				for region, marker := range regionMarkers {
					present := strings.Contains(body, marker)
					if !view.Visible(role.Value, region) && present {
						t.Errorf("tab %s: %s rendered for %s", tab.Value, region, role.Value)
					}
					if view.Visible(role.Value, region) && regionTab[region] == tab.Value && !present {
						t.Errorf("tab %s: %s missing for %s", tab.Value, region, role.Value)
					}
				}
			}
		})
	}
}

func TestServer_SwitchRole(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := loginLoaded(t, srv, view.RoleSecurityAnalyst)
	do(t, srv, cookie, "GET", "/dashboard/violations", nil)

	w := do(t, srv, cookie, "POST", "/dashboard/role", url.Values{"role": {"executive"}})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("role switch: status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/dashboard/violations" {
		t.Errorf("redirect = %q, want /dashboard/violations", loc)
	}

	body := do(t, srv, cookie, "GET", "/dashboard/violations", nil).Body.String()
	if strings.Contains(body, regionMarkers[view.RegionViolationActions]) {
		t.Error("executive should not see violation actions")
	}

	w = do(t, srv, cookie, "POST", "/dashboard/role", url.Values{"role": {"intern"}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown role: status = %d, want 400", w.Code)
	}
}

func TestServer_LoadingPlaceholder(t *testing.T) {
	srv := newTestServer(t, nil, func(c *config.Config) { c.Dashboard.LoadDelayMs = 60_000 })
	cookie := loginAs(t, srv, view.RoleExecutive)

	body := do(t, srv, cookie, "GET", "/dashboard", nil).Body.String()
	assert.Contains(t, body, "Loading security data...")
	assert.NotContains(t, body, "Security Posture Summary")
	assert.Contains(t, body, `http-equiv="refresh"`)

	w := do(t, srv, cookie, "GET", "/dashboard/api/metrics", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_Refresh(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := loginLoaded(t, srv, view.RoleExecutive)

	w := do(t, srv, cookie, "POST", "/dashboard/refresh", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)

	body := do(t, srv, cookie, "GET", "/dashboard", nil).Body.String()
	assert.Contains(t, body, "Refreshing...")
	assert.Contains(t, body, "Loading security data...")

	require.Eventually(t, func() bool {
		return strings.Contains(do(t, srv, cookie, "GET", "/dashboard", nil).Body.String(), "Security Posture Summary")
	}, 2*time.Second, 20*time.Millisecond)
}

func TestServer_OverviewNumbers(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := loginLoaded(t, srv, view.RoleExecutive)

	body := do(t, srv, cookie, "GET", "/dashboard/overview", nil).Body.String()
	assert.Contains(t, body, "68/100")
	assert.Contains(t, body, ">Medium<")
	assert.Contains(t, body, "conic-gradient(")
}

func TestServer_APIMetrics(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := loginLoaded(t, srv, view.RoleComplianceOfficer)

	w := do(t, srv, cookie, "GET", "/dashboard/api/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		SecurityScore int    `json:"security_score"`
		RiskLevel     string `json:"risk_level"`
		RiskColor     string `json:"risk_color"`
		Role          string `json:"role"`
		TotalCritical int    `json:"total_critical"`
		Severity      []struct {
			Name  string `json:"name"`
			Value int    `json:"value"`
		} `json:"severity_distribution"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 68, got.SecurityScore)
	assert.Equal(t, "Medium", got.RiskLevel)
	assert.Equal(t, "orange", got.RiskColor)
	assert.Equal(t, "complianceOfficer", got.Role)
	assert.Equal(t, 7, got.TotalCritical)
	assert.Len(t, got.Severity, 3)
}

func TestServer_Report(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := loginLoaded(t, srv, view.RoleExecutive)

	w := do(t, srv, cookie, "GET", "/dashboard/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, body, "<title>Compliance-Report-2024-03-07</title>")
	assert.Contains(t, body, "size:A4")
	assert.Contains(t, body, `class="print-break"`)
	assert.Contains(t, body, `class="print-hide"`)
	assert.Contains(t, body, "Acme Corporation")
	assert.Contains(t, body, "critical issues require immediate remediation")
}

func TestServer_CathedralDisabled(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := loginLoaded(t, srv, view.RoleSecurityAnalyst)

	body := do(t, srv, cookie, "GET", "/dashboard/cathedral", nil).Body.String()
	assert.Contains(t, body, "The Cathedral bridge is disabled.")

	w := do(t, srv, cookie, "POST", "/dashboard/cathedral/query", url.Values{"query": {"hello"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "error=")

	w = do(t, srv, cookie, "GET", "/dashboard/cathedral/events", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_CathedralQueryWithoutSession(t *testing.T) {
	client := bridge.New(bridge.Options{Logger: testLogger()})
	t.Cleanup(client.Close)
	srv := newTestServer(t, client)
	cookie := loginLoaded(t, srv, view.RoleSecurityAnalyst)
	do(t, srv, cookie, "GET", "/dashboard/cathedral", nil)

	body := do(t, srv, cookie, "GET", "/dashboard/cathedral", nil).Body.String()
	assert.Contains(t, body, "Disconnected from cosmic network")
	assert.Contains(t, body, "disabled>Consult")

	w := do(t, srv, cookie, "POST", "/dashboard/cathedral/query", url.Values{"query": {"hello"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/dashboard/cathedral", loc.Path)
	assert.Equal(t, "No quantum session yet. Wait for the connection.", loc.Query().Get("error"))
	assert.Zero(t, client.Transcript().Len(), "rejected query must not reach the transcript")

	w = do(t, srv, cookie, "POST", "/dashboard/cathedral/query", url.Values{"query": {"   "}})
	loc, _ = url.Parse(w.Header().Get("Location"))
	assert.Equal(t, "Enter a query first.", loc.Query().Get("error"))
}

func TestServer_CathedralGlyphResonanceCodex(t *testing.T) {
	client := bridge.New(bridge.Options{Logger: testLogger()})
	t.Cleanup(client.Close)
	srv := newTestServer(t, client)
	cookie := loginLoaded(t, srv, view.RoleSecurityAnalyst)
	do(t, srv, cookie, "GET", "/dashboard/cathedral", nil)

	w := do(t, srv, cookie, "POST", "/dashboard/cathedral/glyph", url.Values{"glyph": {"KETH-MOOR"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "KETH-MOOR", client.Status().Glyph)

	w = do(t, srv, cookie, "POST", "/dashboard/cathedral/glyph", url.Values{"glyph": {"NOBODY"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	do(t, srv, cookie, "POST", "/dashboard/cathedral/resonance", url.Values{"dir": {"up"}})
	do(t, srv, cookie, "POST", "/dashboard/cathedral/resonance", url.Values{"dir": {"up"}})
	w = do(t, srv, cookie, "POST", "/dashboard/cathedral/resonance", url.Values{"dir": {"sideways"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, cookie, "POST", "/dashboard/cathedral/collect/fragment-1", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	w = do(t, srv, cookie, "POST", "/dashboard/cathedral/collect/fragment-99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	body := do(t, srv, cookie, "GET", "/dashboard/cathedral", nil).Body.String()
	assert.Contains(t, body, "Consulting KETH-MOOR, the Shadow Guardian")
	assert.Contains(t, body, "Resonance 2/10")
	assert.Contains(t, body, "Codex 1/9")
}

func TestServer_TranscriptAPIAndSSE(t *testing.T) {
	client := bridge.New(bridge.Options{Logger: testLogger()})
	t.Cleanup(client.Close)
	srv := newTestServer(t, client)
	cookie := loginLoaded(t, srv, view.RoleSecurityAnalyst)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	req, err := http.NewRequest("GET", ts.URL+"/dashboard/cathedral/events", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// The subscription is registered after headers are flushed; keep
	// appending until one arrives.
	lines := make(chan string, 1)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if strings.HasPrefix(sc.Text(), "data: ") {
				lines <- strings.TrimPrefix(sc.Text(), "data: ")
				return
			}
		}
	}()

	var line string
	require.Eventually(t, func() bool {
		client.Transcript().Append(bridge.Entry{Direction: bridge.DirectionReceived, Content: "the field hums"})
		select {
		case line = <-lines:
			return true
		default:
			return false
		}
	}, 2*time.Second, 50*time.Millisecond)

	var entry bridge.Entry
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "the field hums", entry.Content)
	assert.NotEmpty(t, entry.ID)

	w := do(t, srv, cookie, "GET", "/dashboard/api/transcript", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "the field hums")
	assert.Contains(t, w.Body.String(), "Disconnected from cosmic network")
}

func TestPruneSessionsClosesExpiredViewers(t *testing.T) {
	srv := newTestServer(t, nil)
	now := time.Now()
	srv.auth.now = func() time.Time { return now }

	stale := loginLoaded(t, srv, view.RoleExecutive)
	now = now.Add(sessionDuration + time.Minute)
	fresh := loginLoaded(t, srv, view.RoleSecurityAnalyst)

	// Logging in the second session already pruned the first.
	srv.mu.Lock()
	_, staleKept := srv.viewers[stale.Value]
	_, freshKept := srv.viewers[fresh.Value]
	srv.mu.Unlock()
	assert.False(t, staleKept)
	assert.True(t, freshKept)

	// With no further logins the periodic pass still drops it.
	now = now.Add(sessionDuration + time.Minute)
	srv.pruneSessions()
	srv.mu.Lock()
	assert.Empty(t, srv.viewers)
	srv.mu.Unlock()

	w := do(t, srv, fresh, "GET", "/dashboard", nil)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestPruneLoopRunsUntilClose(t *testing.T) {
	srv := newTestServer(t, nil)
	now := time.Now()
	srv.auth.now = func() time.Time { return now }
	cookie := loginLoaded(t, srv, view.RoleExecutive)
	now = now.Add(sessionDuration + time.Minute)

	done := make(chan struct{})
	go func() {
		srv.pruneLoop(10 * time.Millisecond)
		close(done)
	}()
	require.Eventually(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		_, ok := srv.viewers[cookie.Value]
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	srv.Close()
	srv.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("prune loop still running after Close")
	}
}

func TestViewerForWithoutCookie(t *testing.T) {
	srv := newTestServer(t, nil)

	w := httptest.NewRecorder()
	v := srv.viewerFor(w, httptest.NewRequest("GET", "/dashboard", nil))
	assert.Nil(t, v)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard/login", w.Header().Get("Location"))

	srv.mu.Lock()
	assert.Empty(t, srv.viewers)
	srv.mu.Unlock()
}
