package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/riskscorer/riskscorer/internal/dataset"
	"github.com/riskscorer/riskscorer/internal/risk"
)

type scoreOutput struct {
	risk.Metrics
	RiskColor              string            `json:"risk_color"`
	Open                   int               `json:"open"`
	InProgress             int               `json:"in_progress"`
	Resolved               int               `json:"resolved"`
	TotalCritical          int               `json:"total_critical"`
	SeverityDistribution   []risk.ChartSlice `json:"severity_distribution"`
	ComplianceDistribution []risk.ChartSlice `json:"compliance_distribution"`
	Violations             []risk.Violation  `json:"violations"`
}

func buildScore(snap dataset.Snapshot) scoreOutput {
	m := risk.Calculate(snap.Violations)
	counts := risk.CountByStatus(snap.Violations)
	return scoreOutput{
		Metrics:                m,
		RiskColor:              risk.RiskColor(m.SecurityScore),
		Open:                   counts[risk.StatusOpen],
		InProgress:             counts[risk.StatusInProgress],
		Resolved:               counts[risk.StatusResolved],
		TotalCritical:          risk.TotalCritical(snap.Frameworks),
		SeverityDistribution:   risk.SeverityDistribution(snap.Violations),
		ComplianceDistribution: risk.ComplianceDistribution(snap.Frameworks),
		Violations:             snap.Violations,
	}
}

func newScoreCmd() *cobra.Command {
	var (
		data   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Print the security score and open violations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if data == "" {
				data = cfg.Dashboard.Dataset
			}
			snap, err := loadSnapshot(data)
			if err != nil {
				return err
			}

			out := buildScore(snap)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			return printScore(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&data, "dataset", "", "YAML dataset (default: configured or built-in data)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func scoreColor(name string) *color.Color {
	switch name {
	case "green":
		return color.New(color.FgGreen, color.Bold)
	case "orange":
		return color.New(color.FgYellow, color.Bold)
	}
	return color.New(color.FgRed, color.Bold)
}

func severityColor(s risk.Severity) *color.Color {
	switch s {
	case risk.SeverityHigh:
		return color.New(color.FgRed)
	case risk.SeverityMedium:
		return color.New(color.FgYellow)
	}
	return color.New(color.FgGreen)
}

func printScore(w io.Writer, s scoreOutput) error {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Security score:  %s\n", scoreColor(s.RiskColor).Sprintf("%d/100", s.SecurityScore))
	fmt.Fprintf(w, "  Risk level:      %s\n", s.RiskLevel)
	fmt.Fprintf(w, "  Violations:      %d open, %d in progress, %d resolved\n", s.Open, s.InProgress, s.Resolved)
	fmt.Fprintf(w, "  Critical issues: %d across compliance frameworks\n", s.TotalCritical)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEVERITY\tCATEGORY\tSTATUS\tAGE\tDESCRIPTION")
	for _, v := range s.Violations {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, severityColor(v.Severity).Sprint(v.Severity), v.Category, v.Status, v.Age, v.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}
