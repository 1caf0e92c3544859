package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/riskscorer/riskscorer/internal/config"
	"github.com/riskscorer/riskscorer/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		port      int
		bind      string
		data      string
		watch     bool
		bridgeURL string
		noBridge  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard server and the Cathedral bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}
			if data != "" {
				cfg.Dashboard.Dataset = data
			}
			if watch {
				cfg.Dashboard.WatchDataset = true
			}
			if bridgeURL != "" {
				cfg.Bridge.URL = bridgeURL
			}
			if noBridge {
				cfg.Bridge.Enabled = false
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cfg.Server.LogLevel)

			srv, err := server.NewServer(cfg, version, logger)
			if err != nil {
				return err
			}

			// Print startup banner with dashboard access code
			printBanner(cmd.OutOrStdout(), cfg, srv.DashboardCode())

			// Graceful shutdown on SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server port")
	cmd.Flags().StringVar(&bind, "bind", "", "address to bind (default: 127.0.0.1)")
	cmd.Flags().StringVar(&data, "dataset", "", "YAML dataset replacing the built-in data")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the dataset file when it changes")
	cmd.Flags().StringVar(&bridgeURL, "bridge-url", "", "Cathedral bridge WebSocket URL")
	cmd.Flags().BoolVar(&noBridge, "no-bridge", false, "do not connect to the Cathedral bridge")
	return cmd
}

func printBanner(w io.Writer, cfg *config.Config, dashCode string) {
	bindAddr := cfg.Server.Bind
	if bindAddr == "" {
		bindAddr = "127.0.0.1"
	}
	title := color.New(color.FgCyan, color.Bold).SprintFunc()
	code := color.New(color.FgYellow, color.Bold).SprintFunc()

	bridgeLine := "disabled"
	if cfg.Bridge.Enabled {
		bridgeLine = cfg.Bridge.URL
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "  "+title("riskscorer"))
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	fmt.Fprintf(w, "  Dashboard:  http://%s:%d/dashboard\n", bindAddr, cfg.Server.Port)
	fmt.Fprintf(w, "  Health:     http://%s:%d/health\n", bindAddr, cfg.Server.Port)
	if cfg.Telemetry.Metrics {
		fmt.Fprintf(w, "  Metrics:    http://%s:%d/metrics\n", bindAddr, cfg.Server.Port)
	}
	fmt.Fprintf(w, "  Bridge:     %s\n", bridgeLine)
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	fmt.Fprintf(w, "  Access code:  %s\n", code(dashCode))
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Enter this code in the browser to access the dashboard.")
	fmt.Fprintln(w, "  Press Ctrl+C to stop.")
	fmt.Fprintln(w)
}
