// Package sleepstat is a small statistics toolkit for sleep-health survey
// data. It fits nested OLS models of sleep quality and multinomial logit
// models of sleep disorders, and writes regression-summary text reports.
//
// # Installation
//
//	go install github.com/YuminosukeSato/sleepstat/cmd/sleepstat@latest
//
// # Quick Start
//
// From the command line:
//
//	sleepstat demo --out sleep.csv
//	sleepstat run --input sleep.csv --out-dir out
//
// From Go:
//
//	package main
//
//	import (
//	    "log"
//	    "os"
//
//	    "github.com/YuminosukeSato/sleepstat/dataset"
//	    "github.com/YuminosukeSato/sleepstat/pipeline"
//	)
//
//	func main() {
//	    f, err := os.Open("sleep.csv")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer f.Close()
//
//	    tbl, err := dataset.ReadCSV(f, dataset.CSVOptions{})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    a, err := pipeline.Run(tbl, pipeline.DefaultConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    log.Printf("model 3 R²: %.3f", a.OLS[2].R2)
//	}
//
// # Packages
//
//   - dataset: column tables, CSV I/O, describe and correlation
//   - preprocessing: label cleaning, missing-row drop, label encoding
//   - formula: model specs and design matrices
//   - linear: OLS, multinomial logit, odds ratios
//   - prediction: probability grids over one predictor
//   - metrics: regression and classification metrics
//   - pipeline: the end-to-end analysis
//   - report: text report and compressed output
//   - plotting: heatmap, interaction and probability figures
//   - core/model: estimator state shared by models
//   - pkg/errors: error taxonomy and numerical checks
//   - pkg/log: structured logging on zerolog
//
// # License
//
// sleepstat is released under the MIT License.
package sleepstat
