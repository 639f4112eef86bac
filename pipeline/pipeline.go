// Package pipeline runs one complete sleep-health analysis: overview and
// descriptive statistics, three nested OLS models of sleep quality, baseline
// and extended multinomial logits of the sleep disorder, their odds ratios,
// and a probability grid over stress.
package pipeline

import (
	"time"

	"github.com/YuminosukeSato/sleepstat/dataset"
	"github.com/YuminosukeSato/sleepstat/formula"
	"github.com/YuminosukeSato/sleepstat/linear"
	"github.com/YuminosukeSato/sleepstat/prediction"
	"github.com/YuminosukeSato/sleepstat/preprocessing"
	"github.com/YuminosukeSato/sleepstat/pkg/errors"
	"github.com/YuminosukeSato/sleepstat/pkg/log"
)

// Model names used in logs, errors and the report.
const (
	BaselineModel = "mnlogit_baseline"
	ExtendedModel = "mnlogit_extended"
)

// Columns maps analysis roles onto input column names.
type Columns struct {
	Quality   string
	Stress    string
	Activity  string
	Duration  string
	Age       string
	HeartRate string
	Disorder  string
	ID        string
}

// DefaultColumns returns the column names of the cleaned sleep dataset.
func DefaultColumns() Columns {
	return Columns{
		Quality:   "quality_of_sleep",
		Stress:    "stress_level",
		Activity:  "Physical_Activity_level",
		Duration:  "sleep_duration",
		Age:       "age",
		HeartRate: "heart_rate",
		Disorder:  "sleep_disorder",
		ID:        "id",
	}
}

func (c Columns) sleep() formula.SleepColumns {
	return formula.SleepColumns{
		Quality:   c.Quality,
		Stress:    c.Stress,
		Activity:  c.Activity,
		Duration:  c.Duration,
		Age:       c.Age,
		HeartRate: c.HeartRate,
	}
}

// BaselinePredictors are the exog columns of the baseline categorical model.
func (c Columns) BaselinePredictors() []string {
	return []string{c.Stress, c.Quality}
}

// ExtendedPredictors are the exog columns of the extended categorical model.
func (c Columns) ExtendedPredictors() []string {
	return []string{c.Stress, c.Quality, c.Duration, c.HeartRate, c.Age}
}

// Config configures Run.
type Config struct {
	Columns Columns

	// GridPoints is the size of the probability grid; zero means 100.
	GridPoints int
	// GridVary defaults to the stress column.
	GridVary  string
	GridFixed prediction.FixedValuePolicy

	Solver  linear.Solver
	MaxIter int
	Tol     float64

	Logger log.Logger
}

// DefaultConfig returns the reference analysis settings.
func DefaultConfig() Config {
	return Config{
		Columns:    DefaultColumns(),
		GridPoints: prediction.DefaultPoints,
		GridFixed:  prediction.MeanPolicy,
		Solver:     linear.SolverNewton,
		MaxIter:    35,
		Tol:        1e-8,
	}
}

// Overview describes the input table before preparation.
type Overview struct {
	Rows    int
	Cols    int
	Names   []string
	Kinds   []dataset.Kind
	Missing []int
}

// Analysis is the outcome of one run. Every field is set when Run succeeds.
type Analysis struct {
	Overview    Overview
	Summary     []dataset.Summary
	Correlation *dataset.CorrelationMatrix

	Prepared       *preprocessing.PrepareReport
	Table          *dataset.Table
	DisorderCounts []dataset.ValueCount

	Specs []formula.Spec
	OLS   []*linear.OLSResults

	Categories  []string
	Baseline    *linear.MNLogitResults
	Extended    *linear.MNLogitResults
	BaselineOR  *linear.OddsRatioTable
	ExtendedOR  *linear.OddsRatioTable
	Probability *prediction.ProbabilityTable
}

// RequiredColumns lists every column a model reads.
func RequiredColumns(c Columns) []string {
	seen := map[string]bool{}
	var out []string
	add := func(names ...string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	for _, s := range formula.SleepQualitySpecs(c.sleep()) {
		add(s.Variables()...)
	}
	add(c.ExtendedPredictors()...)
	add(c.Disorder)
	return out
}

// Run executes the analysis on raw. It stops at the first failing model and
// returns its error wrapped with the model name; no partial result is returned.
func Run(raw *dataset.Table, cfg Config) (*Analysis, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.GetLoggerWithName("pipeline")
	}
	if raw == nil || raw.NRows() == 0 {
		return nil, errors.NewModelError("pipeline.Run", "empty data", errors.ErrEmptyData)
	}
	start := time.Now()
	cols := cfg.Columns
	opts := []linear.Option{linear.WithLogger(logger)}
	if cfg.Solver != "" {
		opts = append(opts, linear.WithSolver(cfg.Solver))
	}
	if cfg.MaxIter > 0 {
		opts = append(opts, linear.WithMaxIter(cfg.MaxIter))
	}
	if cfg.Tol > 0 {
		opts = append(opts, linear.WithTol(cfg.Tol))
	}

	a := &Analysis{
		Overview: Overview{
			Rows:    raw.NRows(),
			Cols:    raw.NCols(),
			Names:   raw.Names(),
			Missing: raw.MissingCounts(),
		},
		Summary:     dataset.Describe(raw),
		Correlation: dataset.Correlation(raw),
	}
	for _, n := range a.Overview.Names {
		k, _ := raw.Kind(n)
		a.Overview.Kinds = append(a.Overview.Kinds, k)
	}

	// 準備
	tbl, rep, err := preprocessing.Prepare(raw, preprocessing.PrepareOptions{
		DisorderColumn: cols.Disorder,
		IDColumn:       cols.ID,
		Required:       RequiredColumns(cols),
		Logger:         logger.With(log.PhaseKey, log.PhasePreprocessing),
	})
	if err != nil {
		return nil, errors.Wrap(err, "prepare analysis table")
	}
	a.Table, a.Prepared = tbl, rep
	if a.DisorderCounts, err = dataset.ValueCounts(tbl, cols.Disorder); err != nil {
		return nil, err
	}

	// 線形モデル
	train := logger.With(log.PhaseKey, log.PhaseTraining)
	a.Specs = formula.SleepQualitySpecs(cols.sleep())
	for i, spec := range a.Specs {
		if i > 0 {
			if err := formula.CheckNested(a.Specs[i-1], spec); err != nil {
				return nil, errors.Wrapf(err, "%s", spec.Name)
			}
		}
		d, err := formula.Build(spec, tbl)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", spec.Name)
		}
		res, err := linear.NewOLS(spec.Name, opts...).Fit(d)
		if err != nil {
			train.Error("model fit failed", err, log.ModelNameKey, spec.Name)
			return nil, errors.Wrapf(err, "%s", spec.Name)
		}
		a.OLS = append(a.OLS, res)
	}

	// 多項ロジット
	labels, _, err := tbl.Text(cols.Disorder)
	if err != nil {
		return nil, err
	}
	enc := preprocessing.NewLabelEncoder()
	codes, err := enc.FitTransform(labels)
	if err != nil {
		return nil, err
	}
	a.Categories = enc.Categories
	train.Info("categorical response encoded",
		log.ColumnKey, cols.Disorder,
		log.CategoriesKey, enc.Categories,
		"baseline", enc.Baseline(),
	)

	fitCategorical := func(name string, predictors []string) (*linear.MNLogitResults, error) {
		d, err := formula.Exog(tbl, predictors)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", name)
		}
		res, err := linear.NewMNLogit(name, opts...).Fit(codes, enc.Categories, d)
		if err != nil {
			train.Error("model fit failed", err, log.ModelNameKey, name)
			return nil, errors.Wrapf(err, "%s", name)
		}
		return res, nil
	}
	if a.Baseline, err = fitCategorical(BaselineModel, cols.BaselinePredictors()); err != nil {
		return nil, err
	}
	if a.Extended, err = fitCategorical(ExtendedModel, cols.ExtendedPredictors()); err != nil {
		return nil, err
	}
	a.BaselineOR = linear.OddsRatios(a.Baseline.Params())
	a.ExtendedOR = linear.OddsRatios(a.Extended.Params())

	// 予測グリッド
	vary := cfg.GridVary
	if vary == "" {
		vary = cols.Stress
	}
	a.Probability, err = prediction.Grid(a.Baseline, tbl, prediction.GridOptions{
		Vary:   vary,
		Points: cfg.GridPoints,
		Fixed:  cfg.GridFixed,
		Logger: logger.With(log.PhaseKey, log.PhaseInference),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "%s: probability grid", BaselineModel)
	}

	logger.Info("analysis complete",
		log.SamplesKey, tbl.NRows(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return a, nil
}
