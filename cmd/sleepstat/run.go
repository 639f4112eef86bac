package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/sleepstat/dataset"
	"github.com/YuminosukeSato/sleepstat/pipeline"
	"github.com/YuminosukeSato/sleepstat/plotting"
	"github.com/YuminosukeSato/sleepstat/report"
	"github.com/YuminosukeSato/sleepstat/pkg/errors"
	"github.com/YuminosukeSato/sleepstat/pkg/log"
)

const reportPrefix = "sleep_full_regression_report"

type runFlags struct {
	input    string
	outDir   string
	compress string
	noPlots  bool
}

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run --input data.csv",
		Short: "Run the full analysis and write the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("out-dir") {
				a.cfg.Output.Dir = f.outDir
			}
			if cmd.Flags().Changed("compress") {
				a.cfg.Output.Compress = f.compress
			}
			if f.noPlots {
				a.cfg.Output.Plots = false
			}
			files, err := a.run(f.input, time.Now())
			if err != nil {
				return err
			}
			for _, p := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "input CSV file")
	cmd.Flags().StringVarP(&f.outDir, "out-dir", "o", "", "output directory (overrides config)")
	cmd.Flags().StringVar(&f.compress, "compress", "", "report compression: none, gzip or zstd (overrides config)")
	cmd.Flags().BoolVar(&f.noPlots, "no-plots", false, "skip the figures")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// run executes one analysis and returns the written file paths.
func (a *app) run(input string, now time.Time) ([]string, error) {
	logger := log.GetLoggerWithName("sleepstat")
	compress, err := report.ParseCompression(a.cfg.Output.Compress)
	if err != nil {
		return nil, err
	}
	pc, err := a.cfg.Pipeline()
	if err != nil {
		return nil, err
	}
	pc.Logger = logger

	raw, err := os.ReadFile(input)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", input)
	}
	tbl, err := dataset.ReadCSV(bytes.NewReader(raw), dataset.CSVOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", input)
	}

	an, err := pipeline.Run(tbl, pc)
	if err != nil {
		logger.Error("analysis failed", err)
		return nil, err
	}

	dir := a.cfg.Output.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", dir)
	}
	h := report.NewHeader(filepath.Base(input), raw, tbl.NRows(), tbl.NCols(), now)
	path, err := report.Save(filepath.Join(dir, report.FileName(reportPrefix, now, "txt")), compress,
		func(w io.Writer) error { return report.Write(w, h, an, pc.Columns) })
	if err != nil {
		return nil, err
	}
	files := []string{path}

	if a.cfg.Output.Plots {
		cols := pc.Columns
		figures := []struct {
			prefix string
			draw   func(string) error
		}{
			{"correlation_heatmap", func(p string) error { return plotting.Heatmap(an.Correlation, p) }},
			{"interaction_plot", func(p string) error {
				return plotting.Interaction(an.Table, an.OLS[1], cols.Stress, cols.Activity, cols.Quality, p)
			}},
			{"sleep_disorder_probabilities", func(p string) error { return plotting.Probabilities(an.Probability, p) }},
		}
		for _, fig := range figures {
			p := filepath.Join(dir, report.FileName(fig.prefix, now, "png"))
			if err := fig.draw(p); err != nil {
				return files, err
			}
			files = append(files, p)
		}
	}
	logger.Info("report written", log.RunIDKey, h.RunID, log.OutputPathKey, path)
	return files, nil
}
