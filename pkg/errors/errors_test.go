package errors

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Fit",
			kind:    "invalid input",
			err:     fmt.Errorf("test error"),
			wantMsg: "sleepstat: Fit: invalid input: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			err:     nil,
			wantMsg: "sleepstat: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Contains(t, fmt.Sprintf("%+v", err), "errors_test.go")

			var modelErr *ModelError
			assert.True(t, As(err, &modelErr))
		})
	}
}

func TestMissingColumnError(t *testing.T) {
	err := NewMissingColumnError("Prepare", "heart_rate")
	assert.Equal(t, `sleepstat: Prepare: missing required column "heart_rate"`, err.Error())

	var mc *MissingColumnError
	require.True(t, As(err, &mc))
	assert.Equal(t, "heart_rate", mc.Column)
}

func TestSingularDesignError(t *testing.T) {
	err := NewSingularDesignError("model2", "stress_copy", 2, 3)
	assert.Contains(t, err.Error(), "singular design")
	assert.Contains(t, err.Error(), `"stress_copy"`)
	assert.True(t, Is(err, ErrSingularMatrix))

	var sd *SingularDesignError
	require.True(t, As(err, &sd))
	assert.Equal(t, 2, sd.Rank)
	assert.Equal(t, 3, sd.Columns)
}

func TestNonConvergenceAndSupportErrors(t *testing.T) {
	err := NewNonConvergenceError("mnlogit", "newton", 35, "maximum iterations reached")
	assert.Contains(t, err.Error(), "model did not converge")

	err = NewInsufficientSupportError("mnlogit", "Narcolepsy", 1, 2)
	assert.Contains(t, err.Error(), "insufficient category support")

	var is *InsufficientSupportError
	require.True(t, As(Wrap(err, "baseline model"), &is))
	assert.Equal(t, "Narcolepsy", is.Category)
	assert.Equal(t, 1, is.Count)
}

func TestFrameMismatchError(t *testing.T) {
	err := NewFrameMismatchError("mnlogit", []string{"const", "x"}, []string{"x", "const"})
	assert.Equal(t, "sleepstat: mnlogit: prediction frame mismatch: expected columns [const, x], got [x, const]", err.Error())
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 9, 0)
	assert.Equal(t, "sleepstat: Predict: dimension mismatch on axis 0 (rows). Expected 10, got 9", err.Error())

	var dimErr *DimensionError
	assert.True(t, As(err, &dimErr))
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("OLS", "Results")
	assert.Contains(t, err.Error(), "not fitted yet")

	var nf *NotFittedError
	assert.True(t, As(err, &nf))
}

func TestWarnRoutesToZerologFunc(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewUndefinedMetricWarning("F-statistic", "no regressors", math.NaN()))
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Error(), "F-statistic")
}

func TestWarnFallsBackToHandler(t *testing.T) {
	var got error
	SetWarningHandler(func(w error) { got = w })
	defer SetWarningHandler(nil)

	Warn(NewDataConversionWarning("missing", "string", "placeholder"))
	require.Error(t, got)
	assert.Contains(t, got.Error(), "placeholder")
}

func TestRecover(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err, "Dense.Mul")
		panic("mat: dimension mismatch")
	}
	err := fn()
	var pe *PanicError
	require.True(t, As(err, &pe))
	assert.Equal(t, "Dense.Mul", pe.Operation)
	assert.Contains(t, pe.String(), "Stack trace")
}

func TestRecoverWithExistingError(t *testing.T) {
	base := New("fit failed")
	fn := func() (err error) {
		defer Recover(&err, "OLS.Fit")
		err = base
		panic("boom")
	}
	err := fn()
	require.Error(t, err)
	assert.True(t, Is(err, base))
	assert.Contains(t, err.Error(), "panic in OLS.Fit")
}

func TestSafeExecute(t *testing.T) {
	assert.NoError(t, SafeExecute("noop", func() error { return nil }))

	err := SafeExecute("index", func() error {
		var s []int
		_ = s[3]
		return nil
	})
	var pe *PanicError
	assert.True(t, As(err, &pe))
}

func TestNumericalChecks(t *testing.T) {
	assert.NoError(t, CheckNumericalStability("ok", []float64{1, 2, 3}, 0))
	assert.Error(t, CheckNumericalStability("nan", []float64{1, math.NaN()}, 2))
	assert.Error(t, CheckScalar("inf", math.Inf(1), 1))

	m := [][]float64{{1, 2}, {math.Inf(-1), 4}}
	err := CheckMatrix("design", matAt(m), 2, 2, 0)
	var ni *NumericalInstabilityError
	require.True(t, As(err, &ni))
	assert.Equal(t, "design", ni.Operation)
}

func TestLogSumExp(t *testing.T) {
	assert.InDelta(t, math.Log(3), LogSumExp([]float64{0, 0, 0}), 1e-12)
	assert.InDelta(t, 1000+math.Log(2), LogSumExp([]float64{1000, 1000}), 1e-9)
	assert.True(t, math.IsInf(LogSumExp(nil), -1))
}

type matAt [][]float64

func (m matAt) At(i, j int) float64 { return m[i][j] }
