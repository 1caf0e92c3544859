package commands

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/riskscorer/riskscorer/internal/config"
	"github.com/riskscorer/riskscorer/internal/dataset"
	"github.com/riskscorer/riskscorer/internal/report"
)

var cfgFile string

func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "riskscorer",
		Short: "Security risk dashboard with a Cathedral bridge client",
		Long: "Riskscorer scores an organization's security posture, serves a role-aware " +
			"dashboard with printable compliance reports, and consults the Cathedral glyph council.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "riskscorer.yaml", "config file path")

	root.AddCommand(
		newServeCmd(),
		newScoreCmd(),
		newReportCmd(),
		newCathedralCmd(),
		newMCPCmd(),
		newInitCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig reads cfgFile, falling back to defaults when it does not exist.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Defaults(), nil
	}
	return cfg, err
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// loadSnapshot returns the dataset at path, or the built-in data when path
// is empty.
func loadSnapshot(path string) (dataset.Snapshot, error) {
	if path == "" {
		return dataset.Default(), nil
	}
	return dataset.LoadFile(path)
}

func organization(cfg *config.Config) report.Organization {
	if cfg.Report.Organization == "" {
		return report.DefaultOrganization
	}
	return report.Organization{
		Name:              cfg.Report.Organization,
		SecurityContact:   cfg.Report.SecurityContact,
		ComplianceOfficer: cfg.Report.ComplianceOfficer,
	}
}
