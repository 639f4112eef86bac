package synth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/sleepstat/dataset"
)

func TestSleepTableDeterministic(t *testing.T) {
	a, err := SleepTable(50, 7, Options{})
	require.NoError(t, err)
	b, err := SleepTable(50, 7, Options{})
	require.NoError(t, err)

	qa, _ := a.Numeric("quality_of_sleep")
	qb, _ := b.Numeric("quality_of_sleep")
	assert.Equal(t, qa, qb)
	assert.Equal(t, 8, a.NCols())
	assert.Equal(t, 50, a.NRows())
}

func TestSleepTableOptions(t *testing.T) {
	tb, err := SleepTable(40, 1, Options{MessyLabels: true, MissingRows: 2})
	require.NoError(t, err)

	hr, _ := tb.Numeric("heart_rate")
	assert.True(t, math.IsNaN(hr[3]))
	assert.True(t, math.IsNaN(hr[4]))
	assert.False(t, math.IsNaN(hr[5]))

	labels, _, err := tb.Text("sleep_disorder")
	require.NoError(t, err)
	assert.Contains(t, labels[0], "\r")

	counts, err := dataset.ValueCounts(tb, "sleep_disorder")
	require.NoError(t, err)
	assert.Greater(t, len(counts), len(Categories))
}

func TestSleepTableRejectsEmpty(t *testing.T) {
	_, err := SleepTable(0, 1, Options{})
	assert.Error(t, err)
}
