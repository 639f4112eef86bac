package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/sleepstat/dataset"
	"github.com/YuminosukeSato/sleepstat/internal/synth"
	"github.com/YuminosukeSato/sleepstat/pkg/errors"
)

func newDemoCmd(_ *app) *cobra.Command {
	var (
		rows int
		seed uint64
		out  string
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Write a synthetic sleep-health CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			t, err := synth.SleepTable(rows, seed, synth.Options{MessyLabels: true, MissingRows: 2})
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return errors.Wrapf(err, "create %s", out)
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = errors.Wrapf(cerr, "close %s", out)
				}
			}()
			if err := dataset.WriteCSV(f, t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", rows, out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&rows, "rows", "n", 374, "number of rows")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVarP(&out, "out", "o", "sleep_demo.csv", "output CSV file")
	return cmd
}
