package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// CoefMatrix is a coefficient matrix with row and column labels.
type CoefMatrix struct {
	Rows   []string
	Cols   []string
	Values *mat.Dense
}

// At looks a cell up by its labels.
func (c *CoefMatrix) At(row, col string) (float64, bool) {
	i, j := indexOf(c.Rows, row), indexOf(c.Cols, col)
	if i < 0 || j < 0 || c.Values == nil {
		return 0, false
	}
	return c.Values.At(i, j), true
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// OddsRatioTable holds exp(coefficient) with the labels of its source.
type OddsRatioTable struct {
	CoefMatrix
}

// OddsRatios exponentiates params element-wise. NaN and ±Inf propagate
// (exp(+Inf) = +Inf, exp(−Inf) = 0).
func OddsRatios(params *CoefMatrix) *OddsRatioTable {
	out := &OddsRatioTable{CoefMatrix{
		Rows: append([]string(nil), params.Rows...),
		Cols: append([]string(nil), params.Cols...),
	}}
	if params.Values == nil {
		return out
	}
	var v mat.Dense
	v.Apply(func(_, _ int, x float64) float64 { return math.Exp(x) }, params.Values)
	out.Values = &v
	return out
}
