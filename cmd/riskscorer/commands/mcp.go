package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/riskscorer/riskscorer/internal/dataset"
	"github.com/riskscorer/riskscorer/internal/guard"
	mcpserver "github.com/riskscorer/riskscorer/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start riskscorer as an MCP server (stdio)",
		Long: `Exposes the risk dataset as an MCP tool server. Add to your MCP client config:

  {
    "mcpServers": {
      "riskscorer": {
        "command": "riskscorer",
        "args": ["mcp", "--config", "./riskscorer.yaml"]
      }
    }
  }

Tools: risk_score, list_violations, compliance_summary, glyph_council, scan_query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// stdout carries the protocol; only errors go to stderr.
			logger := newLogger("error")

			snap, err := loadSnapshot(cfg.Dashboard.Dataset)
			if err != nil {
				return err
			}
			src := dataset.NewSource(snap, 0)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Dashboard.Dataset != "" && cfg.Dashboard.WatchDataset {
				go func() {
					if err := dataset.Watch(ctx, cfg.Dashboard.Dataset, src, logger); err != nil {
						logger.Error("dataset watcher stopped", "error", err)
					}
				}()
			}

			g := guard.New(cfg.Bridge.ScreenRulesDir, logger)
			s := mcpserver.NewServer(src, g, organization(cfg), version, logger)
			return mcpserver.Serve(ctx, s)
		},
	}
}
