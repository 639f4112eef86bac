package formula

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sleepstat/dataset"
	"github.com/YuminosukeSato/sleepstat/pkg/errors"
)

// Design is a design matrix with labeled columns and, for formula designs,
// the response vector.
type Design struct {
	Formula string
	Names   []string
	X       *mat.Dense
	Y       *mat.VecDense
}

// Build evaluates spec against t.
func Build(spec Spec, t *dataset.Table) (*Design, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if t.NRows() == 0 {
		return nil, errors.NewModelError("formula.Build", "empty data", errors.ErrEmptyData)
	}

	values := make(map[string][]float64)
	for _, v := range spec.Variables() {
		col, err := t.Numeric(v)
		if err != nil {
			return nil, errors.Wrapf(err, "build %s", spec.Name)
		}
		values[v] = col
	}

	names := spec.Columns()
	n := t.NRows()
	X := mat.NewDense(n, len(names), nil)
	for j, name := range names {
		col := columnValues(name, spec, values, n)
		X.SetCol(j, col)
	}
	if err := errors.CheckMatrix("design:"+spec.Name, X, n, len(names), 0); err != nil {
		return nil, err
	}

	return &Design{Formula: spec.String(), Names: names, X: X, Y: mat.NewVecDense(n, values[spec.Response])}, nil
}

func columnValues(name string, spec Spec, values map[string][]float64, n int) []float64 {
	if name == InterceptName {
		return ones(n)
	}
	if v, ok := values[name]; ok {
		return v
	}
	for _, t := range spec.Terms {
		if t.Kind == Interaction && t.Name() == name {
			a, b := values[t.Vars[0]], values[t.Vars[1]]
			out := make([]float64, n)
			for i := range out {
				out[i] = a[i] * b[i]
			}
			return out
		}
	}
	return make([]float64, n)
}

// Exog builds a "const"-prefixed design from plain predictor columns.
func Exog(t *dataset.Table, predictors []string) (*Design, error) {
	if t.NRows() == 0 {
		return nil, errors.NewModelError("formula.Exog", "empty data", errors.ErrEmptyData)
	}
	names := append([]string{ConstName}, predictors...)
	n := t.NRows()
	X := mat.NewDense(n, len(names), nil)
	X.SetCol(0, ones(n))
	for j, p := range predictors {
		col, err := t.Numeric(p)
		if err != nil {
			return nil, err
		}
		X.SetCol(j+1, col)
	}
	if err := errors.CheckMatrix("design:exog", X, n, len(names), 0); err != nil {
		return nil, err
	}
	return &Design{Names: names, X: X}, nil
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
