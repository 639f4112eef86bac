package model

import (
	"testing"

	"github.com/YuminosukeSato/sleepstat/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestBaseEstimatorLifecycle(t *testing.T) {
	var e BaseEstimator
	assert.False(t, e.IsFitted())

	err := e.CheckFitted("OLS", "Results")
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
	assert.Equal(t, "Results", nf.Method)

	e.SetFitted()
	assert.True(t, e.IsFitted())
	assert.NoError(t, e.CheckFitted("OLS", "Results"))

	e.Reset()
	assert.False(t, e.IsFitted())
}
