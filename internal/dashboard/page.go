package dashboard

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"

	"github.com/riskscorer/riskscorer/internal/bridge"
	"github.com/riskscorer/riskscorer/internal/cathedral"
	"github.com/riskscorer/riskscorer/internal/report"
	"github.com/riskscorer/riskscorer/internal/risk"
	"github.com/riskscorer/riskscorer/internal/view"
)

// visibility carries the role gate for each region so templates never
// evaluate roles themselves.
type visibility struct {
	ComplianceSummary    bool
	InvestmentPriorities bool
	ViolationActions     bool
	AdvancedSettings     bool
}

func visibilityFor(role view.Role) visibility {
	return visibility{
		ComplianceSummary:    view.Visible(role, view.RegionComplianceSummary),
		InvestmentPriorities: view.Visible(role, view.RegionInvestmentPriorities),
		ViolationActions:     view.Visible(role, view.RegionViolationActions),
		AdvancedSettings:     view.Visible(role, view.RegionAdvancedSettings),
	}
}

type bar struct {
	risk.ChartSlice
	Width int
}

type priority struct {
	Area   string
	Level  string
	Tone   string
	Width  int
	Detail string
}

var investmentPriorities = []priority{
	{"Data Protection", "High priority", "high", 85, "3 critical issues"},
	{"Access Control", "Medium priority", "medium", 65, "2 major issues"},
	{"Network Security", "Medium priority", "medium", 60, "1 open violation"},
	{"Application Security", "Low priority", "low", 40, "Compliant"},
}

type integration struct {
	ID          string
	Name        string
	Description string
}

var integrations = []integration{
	{"splunk", "Splunk", "SIEM integration for real-time alerting"},
	{"jira", "Jira", "Automated ticket creation for violations"},
	{"slack", "Slack", "Real-time notifications and alerts"},
	{"aws", "AWS Security Hub", "Cloud security findings integration"},
	{"tenable", "Tenable.io", "Vulnerability scanning integration"},
	{"custom", "Custom Webhook", "Build your own integration"},
}

func integrationWebhook(companyID string) string {
	return "https://api.securescorer.com/webhook/" + base64.StdEncoding.EncodeToString([]byte(companyID))
}

type fragmentView struct {
	cathedral.Fragment
	Color     string
	Collected bool
}

type cathedralView struct {
	Enabled   bool
	Status    string
	CanSend   bool
	Glyph     string
	GlyphRole string
	Council   []cathedral.Glyph
	Entries   []bridge.Entry

	Fragments []fragmentView
	Collected int
	Total     int

	Resonance int
	Max       int
	State     string
	Readings  cathedral.Readings
}

// page is the data behind every tab template.
type page struct {
	Active  view.Tab
	Label   string
	Tabs    []view.Option[view.Tab]
	Roles   []view.Option[view.Role]
	Role    view.Role
	Loading bool
	Show    visibility
	Flash   string

	Metrics       risk.Metrics
	RiskColor     string
	Open          int
	InProgress    int
	Violations    []risk.Violation
	SeverityBars  []bar
	Compliance    []risk.ChartSlice
	PieStyle      template.CSS
	Frameworks    []report.Framework
	Org           report.Organization
	Summary       string
	TotalCritical int
	Priorities    []priority

	Integrations []integration
	Webhook      string

	Cathedral *cathedralView
}

func (s *Server) buildPage(v *viewer, st view.State) page {
	p := page{
		Active:  st.Tab,
		Label:   st.Tab.Label(),
		Tabs:    view.Tabs(),
		Roles:   view.Roles(),
		Role:    st.Role,
		Loading: st.Loading,
		Show:    visibilityFor(st.Role),
	}
	if st.Loading {
		return p
	}

	data := st.Data
	p.Metrics = risk.Calculate(data.Violations)
	p.RiskColor = risk.RiskColor(p.Metrics.SecurityScore)
	counts := risk.CountByStatus(data.Violations)
	p.Open = counts[risk.StatusOpen]
	p.InProgress = counts[risk.StatusInProgress]
	p.Violations = data.Violations
	p.TotalCritical = risk.TotalCritical(data.Frameworks)

	sev := risk.SeverityDistribution(data.Violations)
	for i, w := range risk.BarWidths(sev) {
		p.SeverityBars = append(p.SeverityBars, bar{ChartSlice: sev[i], Width: w})
	}
	p.Compliance = risk.ComplianceDistribution(data.Frameworks)
	p.PieStyle = pieStyle(p.Compliance)

	rep := report.Build(data, s.organization(), s.now())
	p.Frameworks = rep.Frameworks
	p.Org = rep.Organization
	p.Summary = rep.Summary
	p.Priorities = investmentPriorities
	p.Integrations = integrations
	p.Webhook = integrationWebhook("your-company-id")

	if st.Tab == view.TabCathedral {
		p.Cathedral = s.buildCathedral(v)
	}
	return p
}

// pieStyle renders slices as a conic gradient.
func pieStyle(slices []risk.ChartSlice) template.CSS {
	shares := risk.PieShares(slices)
	if len(shares) == 0 {
		return template.CSS("background:#e5e7eb")
	}
	var stops []string
	from := 0.0
	for i, share := range shares {
		to := from + share*100
		stops = append(stops, fmt.Sprintf("%s %.2f%% %.2f%%", slices[i].Color, from, to))
		from = to
	}
	return template.CSS("background:conic-gradient(" + strings.Join(stops, ",") + ")")
}

func (s *Server) buildCathedral(v *viewer) *cathedralView {
	cv := &cathedralView{Council: cathedral.Council(), Max: cathedral.MaxResonance}

	if s.bridge != nil {
		st := s.bridge.Status()
		cv.Enabled = true
		cv.Status = st.Text()
		cv.CanSend = st.CanSend()
		cv.Glyph = st.Glyph
		cv.GlyphRole = cathedral.RoleOf(st.Glyph)
		cv.Entries = s.bridge.Transcript().Entries()
	}

	for _, f := range cathedral.Fragments() {
		cv.Fragments = append(cv.Fragments, fragmentView{
			Fragment:  f,
			Color:     cathedral.CategoryColor(f.Category),
			Collected: v.codex.Has(f.ID),
		})
	}
	cv.Collected, cv.Total = v.codex.Progress()

	v.mu.Lock()
	cv.Resonance = v.resonance.Level()
	cv.State = v.resonance.State()
	cv.Readings = v.resonance.Readings()
	v.mu.Unlock()
	return cv
}
