package preprocessing

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/sleepstat/dataset"
	"github.com/YuminosukeSato/sleepstat/pkg/errors"
	"github.com/YuminosukeSato/sleepstat/pkg/log"
)

func rawTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl := dataset.New()
	require.NoError(t, tbl.AddNumeric("id", []float64{1, 2, 3, 4, 5}))
	require.NoError(t, tbl.AddNumeric("stress_level", []float64{3, 5, math.NaN(), 7, 8}))
	require.NoError(t, tbl.AddNumeric("quality_of_sleep", []float64{8, 7, 6, 5, 4}))
	require.NoError(t, tbl.AddText("sleep_disorder",
		[]string{"None\r", "  Insomnia ", "Sleep Apnea", "", "Insomnia\r\n"},
		[]bool{true, true, true, false, true}))
	return tbl
}

func opts() PrepareOptions {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	return PrepareOptions{
		DisorderColumn: "sleep_disorder",
		IDColumn:       "id",
		Required:       []string{"stress_level", "quality_of_sleep"},
		Logger:         logger,
	}
}

func TestPrepareCleansAndDrops(t *testing.T) {
	errors.SetZerologWarnFunc(func(error) {})
	defer errors.SetZerologWarnFunc(nil)

	raw := rawTable(t)
	out, rep, err := Prepare(raw, opts())
	require.NoError(t, err)

	assert.Equal(t, []string{"stress_level", "quality_of_sleep", "sleep_disorder"}, out.Names())
	assert.Equal(t, 4, out.NRows())
	assert.Equal(t, 5, rep.RowsIn)
	assert.Equal(t, 4, rep.RowsOut)
	assert.True(t, rep.DroppedID)
	assert.Equal(t, 1, rep.CoercedCells)

	labels, valid, err := out.Text("sleep_disorder")
	require.NoError(t, err)
	assert.Equal(t, []string{"None", "Insomnia", MissingLabel, "Insomnia"}, labels)
	for i, l := range labels {
		assert.True(t, valid[i])
		assert.False(t, strings.ContainsAny(l, "\r"))
		assert.Equal(t, strings.TrimSpace(l), l)
	}
	for _, n := range out.MissingCounts() {
		assert.Zero(t, n)
	}

	// raw table untouched
	assert.True(t, raw.Has("id"))
	assert.Equal(t, 5, raw.NRows())
}

func TestPrepareWithoutIDColumn(t *testing.T) {
	raw := rawTable(t).Drop("id")
	o := opts()
	errors.SetZerologWarnFunc(func(error) {})
	defer errors.SetZerologWarnFunc(nil)

	_, rep, err := Prepare(raw, o)
	require.NoError(t, err)
	assert.False(t, rep.DroppedID)
}

func TestPrepareMissingRequiredColumn(t *testing.T) {
	o := opts()
	o.Required = append(o.Required, "heart_rate")

	_, _, err := Prepare(rawTable(t), o)
	var mc *errors.MissingColumnError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, "heart_rate", mc.Column)
}

func TestPrepareNumericDisorderColumn(t *testing.T) {
	tbl := dataset.New()
	require.NoError(t, tbl.AddNumeric("code", []float64{1, 2, 2}))
	require.NoError(t, tbl.AddNumeric("x", []float64{1, 2, 3}))

	out, _, err := Prepare(tbl, PrepareOptions{DisorderColumn: "code", Required: []string{"x"}})
	require.NoError(t, err)
	labels, _, err := out.Text("code")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "2"}, labels)
}

func TestPrepareKeepsBlankLabelApartFromMissing(t *testing.T) {
	errors.SetZerologWarnFunc(func(error) {})
	defer errors.SetZerologWarnFunc(nil)

	raw, err := dataset.ReadCSV(strings.NewReader(
		"stress_level,quality_of_sleep,sleep_disorder\n3,8,Insomnia\n4,7,\" \"\n5,6,\n"), dataset.CSVOptions{})
	require.NoError(t, err)

	o := opts()
	o.IDColumn = ""
	out, _, err := Prepare(raw, o)
	require.NoError(t, err)

	labels, _, err := out.Text("sleep_disorder")
	require.NoError(t, err)
	assert.Equal(t, []string{"Insomnia", "", MissingLabel}, labels)
}

func TestCleanLabel(t *testing.T) {
	assert.Equal(t, "Sleep Apnea", CleanLabel(" Sleep Apnea\r "))
	assert.Equal(t, "", CleanLabel("\r\n "))
}

func TestLabelEncoder(t *testing.T) {
	enc := NewLabelEncoder()
	codes, err := enc.FitTransform([]string{"Sleep Apnea", "None", "Insomnia", "None"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Insomnia", "None", "Sleep Apnea"}, enc.Categories)
	assert.Equal(t, "Insomnia", enc.Baseline())
	assert.Equal(t, []int{2, 1, 0, 1}, codes)
	assert.Equal(t, []int{1, 2, 1}, enc.Counts(codes))

	_, err = enc.Transform([]string{"Narcolepsy"})
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))
}

func TestLabelEncoderNotFitted(t *testing.T) {
	_, err := NewLabelEncoder().Transform([]string{"a"})
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	assert.Error(t, NewLabelEncoder().Fit(nil))
}
