package mcp

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/riskscorer/riskscorer/internal/cathedral"
	"github.com/riskscorer/riskscorer/internal/dataset"
	"github.com/riskscorer/riskscorer/internal/guard"
	"github.com/riskscorer/riskscorer/internal/report"
	"github.com/riskscorer/riskscorer/internal/risk"
)

type handlers struct {
	src    *dataset.Source
	guard  *guard.Guard
	org    report.Organization
	now    func() time.Time
	logger *slog.Logger
}

var readOnly = &mcp.ToolAnnotations{ReadOnlyHint: true}

// --- Tool definitions ---

func riskScoreTool() *mcp.Tool {
	return &mcp.Tool{
		Name: "risk_score",
		Description: "Return the current security score (0-100), its risk level and color, " +
			"and violation counts by status.",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		Annotations: readOnly,
	}
}

func listViolationsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_violations",
		Description: "List security violations, optionally filtered by severity and status.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"severity": map[string]any{
					"type":        "string",
					"description": "Filter by severity: Low, Medium, High",
				},
				"status": map[string]any{
					"type":        "string",
					"description": "Filter by status: Open, In Progress, Resolved",
				},
				"limit": map[string]any{
					"type":        "number",
					"description": "Maximum violations to return (default all)",
				},
			},
		},
		Annotations: readOnly,
	}
}

func complianceSummaryTool() *mcp.Tool {
	return &mcp.Tool{
		Name: "compliance_summary",
		Description: "Summarize compliance per framework with the executive summary " +
			"and remarks used in the printed report.",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		Annotations: readOnly,
	}
}

func glyphCouncilTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "glyph_council",
		Description: "List the glyphs that answer Cathedral consultations and their roles.",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		Annotations: readOnly,
	}
}

func scanQueryTool() *mcp.Tool {
	return &mcp.Tool{
		Name: "scan_query",
		Description: "Screen a Cathedral query the way the bridge does before sending it. " +
			"Returns the verdict (clean, flag, hold, block) and any findings.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"content": map[string]any{
					"type":        "string",
					"description": "The query text to screen",
				},
			},
			"required": []string{"content"},
		},
		Annotations: readOnly,
	}
}

// --- Handlers ---

type scoreResult struct {
	risk.Metrics
	RiskColor     string `json:"risk_color"`
	Open          int    `json:"open"`
	InProgress    int    `json:"in_progress"`
	Resolved      int    `json:"resolved"`
	TotalCritical int    `json:"total_critical"`
}

func (h *handlers) handleRiskScore(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := h.src.Current()
	m := risk.Calculate(snap.Violations)
	counts := risk.CountByStatus(snap.Violations)
	return jsonResult(scoreResult{
		Metrics:       m,
		RiskColor:     risk.RiskColor(m.SecurityScore),
		Open:          counts[risk.StatusOpen],
		InProgress:    counts[risk.StatusInProgress],
		Resolved:      counts[risk.StatusResolved],
		TotalCritical: risk.TotalCritical(snap.Frameworks),
	})
}

func (h *handlers) handleListViolations(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a := parseArgs(req.Params.Arguments)

	var sev risk.Severity
	if s := a.getString("severity", ""); s != "" {
		parsed, err := risk.ParseSeverity(s)
		if err != nil {
			return errorResult("%v", err), nil
		}
		sev = parsed
	}
	var status risk.Status
	if s := a.getString("status", ""); s != "" {
		parsed, err := risk.ParseStatus(s)
		if err != nil {
			return errorResult("%v", err), nil
		}
		status = parsed
	}
	limit := a.getInt("limit", 0)

	out := []risk.Violation{}
	for _, v := range h.src.Current().Violations {
		if sev != "" && v.Severity != sev {
			continue
		}
		if status != "" && v.Status != status {
			continue
		}
		out = append(out, v)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return jsonResult(map[string]any{
		"count":      len(out),
		"violations": out,
	})
}

func (h *handlers) handleComplianceSummary(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(report.Build(h.src.Current(), h.org, h.now()))
}

func (h *handlers) handleGlyphCouncil(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"glyphs": cathedral.Council()})
}

func (h *handlers) handleScanQuery(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := parseArgs(req.Params.Arguments).getString("content", "")
	if strings.TrimSpace(content) == "" {
		return errorResult("content is required"), nil
	}
	outcome, err := h.guard.Scan(ctx, content)
	if err != nil {
		h.logger.Error("scan_query failed", "error", err)
		return errorResult("scan failed: %v", err), nil
	}
	return jsonResult(outcome)
}
