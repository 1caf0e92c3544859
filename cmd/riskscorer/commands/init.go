package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/riskscorer/riskscorer/internal/config"
)

func newInitCmd() *cobra.Command {
	var (
		force    bool
		noBridge bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(cfgFile); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", cfgFile)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}

			cfg := config.Defaults()
			if noBridge {
				cfg.Bridge.Enabled = false
			}
			if err := cfg.Save(cfgFile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", cfgFile)
			fmt.Fprintln(cmd.OutOrStdout(), "Start the dashboard with: riskscorer serve --config "+cfgFile)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	cmd.Flags().BoolVar(&noBridge, "no-bridge", false, "disable the Cathedral bridge in the written config")
	return cmd
}
