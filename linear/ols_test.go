package linear

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sleepstat/formula"
	"github.com/YuminosukeSato/sleepstat/pkg/errors"
	"github.com/YuminosukeSato/sleepstat/pkg/log"
)

func quietOption() Option {
	l, _ := log.NewTestLogger(log.LevelError)
	return WithLogger(l)
}

func simpleDesign() *formula.Design {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 5, 4, 5}
	X := mat.NewDense(5, 2, nil)
	for i, v := range x {
		X.Set(i, 0, 1)
		X.Set(i, 1, v)
	}
	return &formula.Design{
		Formula: "y ~ x",
		Names:   []string{"Intercept", "x"},
		X:       X,
		Y:       mat.NewVecDense(5, y),
	}
}

func TestOLSSimpleRegression(t *testing.T) {
	res, err := NewOLS("simple", quietOption()).Fit(simpleDesign())
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{2.2, 0.6}, res.Params, 1e-10)
	assert.InDelta(t, math.Sqrt(0.88), res.StdErr[0], 1e-10)
	assert.InDelta(t, math.Sqrt(0.08), res.StdErr[1], 1e-10)
	assert.InDelta(t, 0.6/math.Sqrt(0.08), res.TValues[1], 1e-10)
	assert.InDelta(t, 0.6, res.R2, 1e-10)
	assert.InDelta(t, 1-0.4*4.0/3.0, res.AdjR2, 1e-10)
	assert.InDelta(t, 4.5, res.FStat, 1e-10)
	// with one regressor the F test and the t test coincide
	assert.InDelta(t, res.PValues[1], res.FPValue, 1e-9)

	wantLL := -2.5 * (math.Log(2*math.Pi) + math.Log(2.4/5) + 1)
	assert.InDelta(t, wantLL, res.LogLik, 1e-10)
	assert.InDelta(t, -2*wantLL+4, res.AIC, 1e-10)
	assert.InDelta(t, -2*wantLL+2*math.Log(5), res.BIC, 1e-10)
	assert.InDelta(t, math.Sqrt(2.4/5), res.RMSE, 1e-10)
	assert.InDelta(t, 0.64, res.MAE, 1e-10)

	assert.Equal(t, 5, res.NObs)
	assert.Equal(t, 1.0, res.DFModel)
	assert.Equal(t, 3.0, res.DFResid)
	assert.Equal(t, "y ~ x", res.Formula)

	for j := range res.Params {
		assert.Less(t, res.ConfInt[j][0], res.Params[j])
		assert.Greater(t, res.ConfInt[j][1], res.Params[j])
	}

	coef, ok := res.Coef("x")
	assert.True(t, ok)
	assert.InDelta(t, 0.6, coef, 1e-10)
	_, ok = res.Coef("missing")
	assert.False(t, ok)
}

func TestOLSPredict(t *testing.T) {
	d := simpleDesign()
	res, err := NewOLS("simple", quietOption()).Fit(d)
	require.NoError(t, err)

	pred, err := res.Predict(d.X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2.8, 3.4, 4.0, 4.6, 5.2}, pred.RawVector().Data, 1e-10)

	_, err = res.Predict(mat.NewDense(2, 3, nil))
	assert.Error(t, err)
}

func TestOLSSingularDesign(t *testing.T) {
	X := mat.NewDense(6, 3, nil)
	for i := 0; i < 6; i++ {
		X.Set(i, 0, 1)
		X.Set(i, 1, float64(i))
		X.Set(i, 2, 2*float64(i))
	}
	d := &formula.Design{
		Names: []string{"Intercept", "stress", "stress_twice"},
		X:     X,
		Y:     mat.NewVecDense(6, []float64{1, 3, 2, 5, 4, 6}),
	}

	_, err := NewOLS("model2", quietOption()).Fit(d)
	require.Error(t, err)

	var sd *errors.SingularDesignError
	require.True(t, errors.As(err, &sd))
	assert.Equal(t, "model2", sd.Model)
	assert.Equal(t, "stress_twice", sd.Term)
	assert.Equal(t, 2, sd.Rank)
	assert.True(t, errors.Is(err, errors.ErrSingularMatrix))
}

func TestOLSInterceptOnlyWarnsOnF(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	d := &formula.Design{
		Names: []string{"Intercept"},
		X:     mat.NewDense(4, 1, []float64{1, 1, 1, 1}),
		Y:     mat.NewVecDense(4, []float64{1, 2, 3, 6}),
	}
	res, err := NewOLS("null", quietOption()).Fit(d)
	require.NoError(t, err)

	assert.InDelta(t, 3.0, res.Params[0], 1e-12)
	assert.True(t, math.IsNaN(res.FStat))
	assert.True(t, math.IsNaN(res.FPValue))
	require.NotEmpty(t, warnings)

	var um *errors.UndefinedMetricWarning
	assert.True(t, errors.As(warnings[0], &um))
}

func TestOLSInputValidation(t *testing.T) {
	tests := []struct {
		name string
		d    *formula.Design
	}{
		{"nil design", nil},
		{"too few rows", &formula.Design{
			Names: []string{"Intercept", "x"},
			X:     mat.NewDense(2, 2, []float64{1, 1, 1, 2}),
			Y:     mat.NewVecDense(2, []float64{1, 2}),
		}},
		{"response length", &formula.Design{
			Names: []string{"Intercept"},
			X:     mat.NewDense(3, 1, []float64{1, 1, 1}),
			Y:     mat.NewVecDense(2, []float64{1, 2}),
		}},
		{"name count", &formula.Design{
			Names: []string{"Intercept", "x"},
			X:     mat.NewDense(3, 1, []float64{1, 1, 1}),
			Y:     mat.NewVecDense(3, []float64{1, 2, 3}),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOLS("m", quietOption()).Fit(tt.d)
			assert.Error(t, err)
		})
	}
}

func TestOLSResultsRequiresFit(t *testing.T) {
	m := NewOLS("m", quietOption())
	_, err := m.Results()
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	_, err = m.Fit(simpleDesign())
	require.NoError(t, err)
	res, err := m.Results()
	require.NoError(t, err)
	assert.Equal(t, "m", res.Model)

	// a failed refit leaves no stale results behind
	_, err = m.Fit(nil)
	require.Error(t, err)
	_, err = m.Results()
	assert.True(t, errors.As(err, &nf))
}

func TestOLSOnFormulaDesign(t *testing.T) {
	codes, _, d := syntheticMultinomial(t, 200, 7)
	// quality depends on both predictors and their product
	y := mat.NewVecDense(len(codes), nil)
	for i := range codes {
		s, a := d.X.At(i, 1), d.X.At(i, 2)
		y.SetVec(i, 5+0.8*s-0.4*a+0.3*s*a+0.01*float64(i%7-3))
	}
	X := mat.NewDense(len(codes), 4, nil)
	for i := range codes {
		X.Set(i, 0, 1)
		X.Set(i, 1, d.X.At(i, 1))
		X.Set(i, 2, d.X.At(i, 2))
		X.Set(i, 3, d.X.At(i, 1)*d.X.At(i, 2))
	}
	res, err := NewOLS("ix", quietOption()).Fit(&formula.Design{
		Names: []string{"Intercept", "s", "a", "s:a"},
		X:     X,
		Y:     y,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, res.Params[1], 1e-2)
	assert.InDelta(t, -0.4, res.Params[2], 1e-2)
	assert.InDelta(t, 0.3, res.Params[3], 1e-2)
	assert.Greater(t, res.R2, 0.99)
}
