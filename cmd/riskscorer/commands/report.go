package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskscorer/riskscorer/internal/report"
)

func newReportCmd() *cobra.Command {
	var (
		data string
		date string
		org  string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the compliance report as plain text",
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

			now := time.Now()
			if date != "" {
				now, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
				}
			}

			o := organization(cfg)
			if org != "" {
				o.Name = org
			}
			return report.WriteText(cmd.OutOrStdout(), report.Build(snap, o, now))
		},
	}

	cmd.Flags().StringVar(&data, "dataset", "", "YAML dataset (default: configured or built-in data)")
	cmd.Flags().StringVar(&date, "date", "", "report date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&org, "org", "", "organization name on the report")
	return cmd
}
