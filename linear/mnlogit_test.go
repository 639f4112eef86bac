package linear

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sleepstat/formula"
	"github.com/YuminosukeSato/sleepstat/pkg/errors"
)

// syntheticMultinomial draws n rows from a three-category logit with
// overlapping classes so the likelihood has a finite maximum.
func syntheticMultinomial(t *testing.T, n int, seed int64) ([]int, []string, *formula.Design) {
	t.Helper()
	rng := rand.New(rand.NewPCG(uint64(seed), 0))
	beta := [][]float64{
		{0.5, 1.0, -0.5},
		{-0.3, -0.8, 0.7},
	}
	X := mat.NewDense(n, 3, nil)
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		x := []float64{1, rng.NormFloat64(), rng.NormFloat64()}
		X.SetRow(i, x)
		eta := []float64{0, 0, 0}
		for k, b := range beta {
			for j := range x {
				eta[k+1] += b[j] * x[j]
			}
		}
		lse := errors.LogSumExp(eta)
		u := rng.Float64()
		acc := 0.0
		codes[i] = 2
		for k := range eta {
			acc += math.Exp(eta[k] - lse)
			if u < acc {
				codes[i] = k
				break
			}
		}
	}
	d := &formula.Design{Names: []string{"const", "stress", "quality"}, X: X}
	return codes, []string{"Insomnia", "None", "Sleep Apnea"}, d
}

func TestMNLogitNewton(t *testing.T) {
	codes, cats, d := syntheticMultinomial(t, 400, 1)

	m := NewMNLogit("baseline", quietOption())
	res, err := m.Fit(codes, cats, d)
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.LessOrEqual(t, res.Iterations, defaultMaxIter)
	assert.Equal(t, SolverNewton, res.Solver)
	assert.Equal(t, "Insomnia", res.Baseline())

	require.Len(t, res.Equations, 3)
	assert.Equal(t, RoleBaseline, res.Equations[0].Role)
	assert.Equal(t, []float64{0, 0, 0}, res.Equations[0].Coef)
	assert.Nil(t, res.Equations[0].StdErr)
	for _, eq := range res.Equations[1:] {
		assert.Equal(t, RoleContrast, eq.Role)
		for j := range eq.Coef {
			assert.Greater(t, eq.StdErr[j], 0.0)
			assert.InDelta(t, eq.Coef[j]/eq.StdErr[j], eq.ZValues[j], 1e-12)
			assert.True(t, eq.PValues[j] >= 0 && eq.PValues[j] <= 1)
		}
	}

	// recovers the generating coefficients roughly
	none, ok := res.Equation("None")
	require.True(t, ok)
	assert.InDelta(t, 1.0, none.Coef[1], 0.4)
	apnea, ok := res.Equation("Sleep Apnea")
	require.True(t, ok)
	assert.InDelta(t, 0.7, apnea.Coef[2], 0.4)

	assert.Less(t, res.LLNull, res.LogLik)
	assert.Greater(t, res.PseudoR2, 0.0)
	assert.Less(t, res.PseudoR2, 1.0)
	assert.InDelta(t, 1-res.LogLik/res.LLNull, res.PseudoR2, 1e-12)
	assert.InDelta(t, -2*res.LogLik+2*6, res.AIC, 1e-9)
	assert.Equal(t, 4.0, res.DFModel)
	assert.Less(t, res.LLRPValue, 0.05)
	assert.Greater(t, res.Accuracy, 1.0/3.0)
	assert.InDelta(t, -res.LogLik/400, res.LogLoss, 1e-9)
}

func TestMNLogitParamsLabels(t *testing.T) {
	codes, cats, d := syntheticMultinomial(t, 300, 2)
	res, err := NewMNLogit("baseline", quietOption()).Fit(codes, cats, d)
	require.NoError(t, err)

	params := res.Params()
	assert.Equal(t, []string{"None", "Sleep Apnea"}, params.Rows)
	assert.Equal(t, []string{"const", "stress", "quality"}, params.Cols)
	r, c := params.Values.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)

	v, ok := params.At("Sleep Apnea", "stress")
	require.True(t, ok)
	eq, _ := res.Equation("Sleep Apnea")
	assert.Equal(t, eq.Coef[1], v)

	se := res.StdErrors()
	v, ok = se.At("None", "const")
	require.True(t, ok)
	eq, _ = res.Equation("None")
	assert.Equal(t, eq.StdErr[0], v)
}

func TestMNLogitProbabilitiesOnSimplex(t *testing.T) {
	codes, cats, d := syntheticMultinomial(t, 300, 3)
	res, err := NewMNLogit("baseline", quietOption()).Fit(codes, cats, d)
	require.NoError(t, err)

	proba, err := res.PredictProba(d.Names, d.X)
	require.NoError(t, err)
	n, k := proba.Dims()
	assert.Equal(t, 300, n)
	assert.Equal(t, 3, k)
	for i := 0; i < n; i++ {
		sum := 0.0
		for j := 0; j < k; j++ {
			p := proba.At(i, j)
			assert.True(t, p >= 0 && p <= 1)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}

	// extreme inputs stay finite
	extreme := mat.NewDense(1, 3, []float64{1, 1e4, -1e4})
	proba, err = res.PredictProba(d.Names, extreme)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, proba.At(0, 0)+proba.At(0, 1)+proba.At(0, 2), 1e-9)
}

func TestMNLogitFrameMismatch(t *testing.T) {
	codes, cats, d := syntheticMultinomial(t, 200, 4)
	res, err := NewMNLogit("baseline", quietOption()).Fit(codes, cats, d)
	require.NoError(t, err)

	_, err = res.PredictProba([]string{"const", "quality", "stress"}, d.X)
	var fm *errors.FrameMismatchError
	require.True(t, errors.As(err, &fm))
	assert.Equal(t, []string{"const", "stress", "quality"}, fm.Expected)
}

func TestMNLogitNewtonAndBFGSAgree(t *testing.T) {
	codes, cats, d := syntheticMultinomial(t, 400, 5)

	newton, err := NewMNLogit("newton", quietOption()).Fit(codes, cats, d)
	require.NoError(t, err)
	bfgs, err := NewMNLogit("bfgs", quietOption(),
		WithSolver(SolverBFGS), WithMaxIter(1000), WithTol(1e-7)).Fit(codes, cats, d)
	require.NoError(t, err)

	assert.Equal(t, SolverBFGS, bfgs.Solver)
	assert.InDelta(t, newton.LogLik, bfgs.LogLik, 1e-6)
	for c := 1; c < 3; c++ {
		assert.InDeltaSlice(t, newton.Equations[c].Coef, bfgs.Equations[c].Coef, 1e-3)
	}
}

func TestMNLogitInsufficientSupport(t *testing.T) {
	codes, cats, d := syntheticMultinomial(t, 100, 6)
	// leave exactly one observation of the last category
	seen := false
	for i, c := range codes {
		if c == 2 {
			if seen {
				codes[i] = 1
			}
			seen = true
		}
	}
	require.True(t, seen)

	_, err := NewMNLogit("baseline", quietOption()).Fit(codes, cats, d)
	require.Error(t, err)
	var is *errors.InsufficientSupportError
	require.True(t, errors.As(err, &is))
	assert.Equal(t, "Sleep Apnea", is.Category)
	assert.Equal(t, 1, is.Count)
}

func TestMNLogitSingleCategory(t *testing.T) {
	_, _, d := syntheticMultinomial(t, 20, 8)
	codes := make([]int, 20)
	_, err := NewMNLogit("baseline", quietOption()).Fit(codes, []string{"None"}, d)
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))
}

func TestMNLogitNonConvergence(t *testing.T) {
	codes, cats, d := syntheticMultinomial(t, 200, 9)
	_, err := NewMNLogit("baseline", quietOption(), WithMaxIter(1)).Fit(codes, cats, d)
	var nc *errors.NonConvergenceError
	require.True(t, errors.As(err, &nc))
	assert.Equal(t, "newton", nc.Algorithm)
}

func TestMNLogitSeparatedDataFails(t *testing.T) {
	X := mat.NewDense(8, 2, nil)
	codes := make([]int, 8)
	for i := 0; i < 8; i++ {
		x := float64(i) - 3.5
		X.SetRow(i, []float64{1, x})
		if x > 0 {
			codes[i] = 1
		}
	}
	d := &formula.Design{Names: []string{"const", "x"}, X: X}
	_, err := NewMNLogit("separated", quietOption()).Fit(codes, []string{"a", "b"}, d)
	var nc *errors.NonConvergenceError
	assert.True(t, errors.As(err, &nc))
}

func TestMNLogitValidation(t *testing.T) {
	codes, cats, d := syntheticMultinomial(t, 50, 10)

	_, err := NewMNLogit("m", quietOption()).Fit(codes[:10], cats, d)
	assert.Error(t, err)

	bad := append([]int(nil), codes...)
	bad[0] = 7
	_, err = NewMNLogit("m", quietOption()).Fit(bad, cats, d)
	assert.Error(t, err)

	_, err = NewMNLogit("m", quietOption(), WithSolver("lbfgs")).Fit(codes, cats, d)
	assert.Error(t, err)

	_, err = NewMNLogit("m", quietOption()).Results()
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestParseSolver(t *testing.T) {
	s, err := ParseSolver("")
	require.NoError(t, err)
	assert.Equal(t, SolverNewton, s)
	s, err = ParseSolver("bfgs")
	require.NoError(t, err)
	assert.Equal(t, SolverBFGS, s)
	_, err = ParseSolver("sgd")
	assert.Error(t, err)
	assert.Equal(t, "baseline", RoleBaseline.String())
	assert.Equal(t, "contrast", RoleContrast.String())
}
