// Package prediction builds prediction frames for fitted categorical models
// and evaluates category probabilities over a grid of one varying predictor.
package prediction

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/sleepstat/dataset"
	"github.com/YuminosukeSato/sleepstat/formula"
	"github.com/YuminosukeSato/sleepstat/pkg/errors"
	"github.com/YuminosukeSato/sleepstat/pkg/log"
)

// DefaultPoints is the grid size used when GridOptions.Points is zero.
const DefaultPoints = 100

// Classifier is a fitted model that maps a labeled frame to probabilities.
type Classifier interface {
	// Columns returns the exog names, constant included, in fit order.
	Columns() []string
	// Classes returns the category labels in probability column order.
	Classes() []string
	PredictProba(names []string, X mat.Matrix) (*mat.Dense, error)
}

// FixedValuePolicy decides the value of predictors that do not vary.
type FixedValuePolicy int

const (
	// MeanPolicy holds predictors at their sample mean.
	MeanPolicy FixedValuePolicy = iota
	// MedianPolicy holds predictors at their sample median.
	MedianPolicy
)

func (p FixedValuePolicy) String() string {
	if p == MedianPolicy {
		return "median"
	}
	return "mean"
}

// ParsePolicy converts a config string into a FixedValuePolicy.
func ParsePolicy(s string) (FixedValuePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mean", "":
		return MeanPolicy, nil
	case "median":
		return MedianPolicy, nil
	}
	return MeanPolicy, errors.NewValidationError("fixed_policy", "must be mean or median", s)
}

// GridOptions configures Grid.
type GridOptions struct {
	// Vary is the predictor swept across its observed range.
	Vary string
	// Points is the grid size, at least 2. Zero means DefaultPoints.
	Points int
	// Fixed holds the other predictors constant.
	Fixed FixedValuePolicy
	// Overrides pins individual predictors, taking precedence over Fixed.
	Overrides map[string]float64
	// Logger defaults to the process-wide "prediction" logger.
	Logger log.Logger
}

// Frame is a labeled design for prediction.
type Frame struct {
	Names []string
	X     *mat.Dense
}

// ProbabilityTable holds one row of category probabilities per grid value.
type ProbabilityTable struct {
	Vary       string
	Grid       []float64
	Categories []string
	// Probs is len(Grid)×len(Categories); every row sums to one.
	Probs *mat.Dense
}

// Column returns the probabilities of category across the grid.
func (t *ProbabilityTable) Column(category string) ([]float64, bool) {
	for j, c := range t.Categories {
		if c == category {
			return mat.Col(nil, j, t.Probs), true
		}
	}
	return nil, false
}

// Span returns n evenly spaced values from the minimum to the maximum of
// column, both ends included. A constant column yields n copies.
func Span(t *dataset.Table, column string, n int) ([]float64, error) {
	if n < 2 {
		return nil, errors.NewValidationError("points", "grid needs at least two points", n)
	}
	values, err := t.Numeric(column)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, errors.NewModelError("prediction.Span", "empty data", errors.ErrEmptyData)
	}
	return floats.Span(make([]float64, n), floats.Min(values), floats.Max(values)), nil
}

// fixedValue returns the policy value of column.
func fixedValue(t *dataset.Table, column string, policy FixedValuePolicy) (float64, error) {
	values, err := t.Numeric(column)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, errors.NewModelError("prediction.fixedValue", "empty data", errors.ErrEmptyData)
	}
	if policy == MedianPolicy {
		sort.Float64s(values)
		mid := len(values) / 2
		if len(values)%2 == 1 {
			return values[mid], nil
		}
		return (values[mid-1] + values[mid]) / 2, nil
	}
	return stat.Mean(values, nil), nil
}

// BuildFrame lays out the grid frame in the model's column order: the
// constant is 1, Vary takes the grid values and every other predictor its
// fixed value.
func BuildFrame(model Classifier, t *dataset.Table, opts GridOptions) (*Frame, []float64, error) {
	names := model.Columns()
	varies := false
	for _, n := range names {
		if n == opts.Vary {
			varies = true
		}
	}
	if !varies {
		return nil, nil, errors.NewValidationError("vary", "not a predictor of the model", opts.Vary)
	}

	points := opts.Points
	if points == 0 {
		points = DefaultPoints
	}
	grid, err := Span(t, opts.Vary, points)
	if err != nil {
		return nil, nil, err
	}

	X := mat.NewDense(points, len(names), nil)
	for j, name := range names {
		switch name {
		case formula.ConstName:
			fill(X, j, 1)
		case opts.Vary:
			X.SetCol(j, grid)
		default:
			v, ok := opts.Overrides[name]
			if ok {
				if err := errors.CheckNumericalStability("prediction.BuildFrame", []float64{v}, 0); err != nil {
					return nil, nil, errors.Wrapf(err, "override %s", name)
				}
			} else {
				if v, err = fixedValue(t, name, opts.Fixed); err != nil {
					return nil, nil, err
				}
			}
			fill(X, j, v)
		}
	}
	return &Frame{Names: names, X: X}, grid, nil
}

func fill(X *mat.Dense, j int, v float64) {
	r, _ := X.Dims()
	for i := 0; i < r; i++ {
		X.Set(i, j, v)
	}
}

// Predict evaluates the model on f. The frame columns must equal the
// model's in name and order.
func Predict(model Classifier, f *Frame) (*mat.Dense, error) {
	want := model.Columns()
	if len(want) != len(f.Names) {
		return nil, errors.NewFrameMismatchError("prediction", want, f.Names)
	}
	for i := range want {
		if want[i] != f.Names[i] {
			return nil, errors.NewFrameMismatchError("prediction", want, f.Names)
		}
	}
	return model.PredictProba(f.Names, f.X)
}

// Grid sweeps opts.Vary over its observed range in t and returns the
// predicted category probabilities, labeled by the model's categories.
func Grid(model Classifier, t *dataset.Table, opts GridOptions) (*ProbabilityTable, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLoggerWithName("prediction")
	}

	frame, grid, err := BuildFrame(model, t, opts)
	if err != nil {
		return nil, err
	}
	probs, err := Predict(model, frame)
	if err != nil {
		return nil, err
	}

	logger.Info("prediction grid evaluated",
		log.OperationKey, log.OperationPredict,
		log.ColumnKey, opts.Vary,
		log.PredsKey, len(grid),
		log.CategoriesKey, model.Classes(),
	)
	return &ProbabilityTable{
		Vary:       opts.Vary,
		Grid:       grid,
		Categories: model.Classes(),
		Probs:      probs,
	}, nil
}
