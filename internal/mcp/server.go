// Package mcp exposes the risk dataset and the glyph council to MCP
// clients.
package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/riskscorer/riskscorer/internal/dataset"
	"github.com/riskscorer/riskscorer/internal/guard"
	"github.com/riskscorer/riskscorer/internal/report"
)

// NewServer creates an MCP server exposing riskscorer tools. g may be nil,
// in which case scan_query is not offered.
func NewServer(src *dataset.Source, g *guard.Guard, org report.Organization, version string, logger *slog.Logger) *mcp.Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "riskscorer",
		Version: version,
	}, &mcp.ServerOptions{
		Instructions: "Riskscorer reports an organization's security posture. " +
			"Use these tools to read the security score, list violations, " +
			"summarize compliance frameworks, and inspect the glyph council.",
	})

	h := &handlers{
		src:    src,
		guard:  g,
		org:    org,
		now:    time.Now,
		logger: logger,
	}

	s.AddTool(riskScoreTool(), h.handleRiskScore)
	s.AddTool(listViolationsTool(), h.handleListViolations)
	s.AddTool(complianceSummaryTool(), h.handleComplianceSummary)
	s.AddTool(glyphCouncilTool(), h.handleGlyphCouncil)
	if g != nil {
		s.AddTool(scanQueryTool(), h.handleScanQuery)
	}

	return s
}

// Serve runs the MCP server on stdio until ctx is cancelled or the client
// disconnects.
func Serve(ctx context.Context, s *mcp.Server) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}
