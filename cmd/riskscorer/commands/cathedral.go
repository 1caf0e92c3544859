package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/riskscorer/riskscorer/internal/cathedral"
	"github.com/riskscorer/riskscorer/internal/server"
	"github.com/riskscorer/riskscorer/internal/tui"
)

func newCathedralCmd() *cobra.Command {
	var (
		bridgeURL string
		glyph     string
		lineMode  bool
	)

	cmd := &cobra.Command{
		Use:   "cathedral",
		Short: "Consult the glyph council from the terminal",
		Long: `Connects to the Cathedral bridge and opens an interactive console.

When stdout is not a terminal, or with --lines, each line read from stdin
is sent as a query and the transcript is printed as plain text.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if bridgeURL != "" {
				cfg.Bridge.URL = bridgeURL
			}
			if glyph != "" {
				if _, ok := cathedral.LookupGlyph(glyph); !ok {
					return fmt.Errorf("unknown glyph %q", glyph)
				}
				cfg.Bridge.Glyph = glyph
			}
			cfg.Bridge.Enabled = true
			if err := cfg.Validate(); err != nil {
				return err
			}

			interactive := !lineMode && term.IsTerminal(int(os.Stdout.Fd()))

			// The full-screen UI owns the terminal; keep logs quiet there.
			level := cfg.Server.LogLevel
			if interactive {
				level = "error"
			}
			logger := newLogger(level)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := server.NewBridge(cfg.Bridge, nil, logger)
			defer client.Close()
			go func() {
				if err := client.Run(ctx); err != nil {
					logger.Error("bridge stopped", "error", err)
				}
			}()

			if interactive {
				return tui.Run(ctx, client)
			}
			return tui.RunLines(ctx, client, cmd.InOrStdin(), cmd.OutOrStdout(), tui.LineOptions{})
		},
	}

	cmd.Flags().StringVar(&bridgeURL, "url", "", "Cathedral bridge WebSocket URL")
	cmd.Flags().StringVar(&glyph, "glyph", "", "glyph to consult first")
	cmd.Flags().BoolVar(&lineMode, "lines", false, "plain line mode even on a terminal")
	return cmd
}
