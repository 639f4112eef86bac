package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/sleepstat/internal/config"
	"github.com/YuminosukeSato/sleepstat/pkg/errors"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sleepstat configuration",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultFile
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.Newf("%s already exists; use --force to overwrite", path)
			}
			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "columns:      %+v\n", a.cfg.Columns)
			fmt.Fprintf(cmd.OutOrStdout(), "id_column:    %s\n", a.cfg.IDColumn)
			fmt.Fprintf(cmd.OutOrStdout(), "grid:         %+v\n", a.cfg.Grid)
			fmt.Fprintf(cmd.OutOrStdout(), "mnlogit:      %+v\n", a.cfg.MNLogit)
			fmt.Fprintf(cmd.OutOrStdout(), "log:          %+v\n", a.cfg.Log)
			fmt.Fprintf(cmd.OutOrStdout(), "output:       %+v\n", a.cfg.Output)
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
