package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/sleepstat/dataset"
	"github.com/YuminosukeSato/sleepstat/pkg/errors"
)

var testColumns = SleepColumns{
	Quality:   "quality",
	Stress:    "stress",
	Activity:  "activity",
	Duration:  "duration",
	Age:       "age",
	HeartRate: "heart_rate",
}

func TestSpecColumnsExpandInteractions(t *testing.T) {
	specs := SleepQualitySpecs(testColumns)
	require.Len(t, specs, 3)

	assert.Equal(t, []string{"Intercept", "stress"}, specs[0].Columns())
	assert.Equal(t, []string{"Intercept", "stress", "activity", "stress:activity"}, specs[1].Columns())
	assert.Equal(t, []string{
		"Intercept", "stress", "activity", "stress:activity", "duration", "age", "heart_rate",
	}, specs[2].Columns())

	assert.Equal(t, "quality ~ stress + activity + stress:activity", specs[1].String())
	assert.Equal(t, []string{"quality", "stress", "activity"}, specs[1].Variables())
}

func TestInteractionWithoutMainEffects(t *testing.T) {
	s := Spec{Name: "ix", Response: "y", Terms: []Term{Interact("a", "b"), MainEffect("a")}}
	assert.Equal(t, []string{"Intercept", "a", "b", "a:b"}, s.Columns())
}

func TestSpecsAreNested(t *testing.T) {
	specs := SleepQualitySpecs(testColumns)
	assert.NoError(t, CheckNested(specs[0], specs[1]))
	assert.NoError(t, CheckNested(specs[1], specs[2]))
	assert.NoError(t, CheckNested(specs[0], specs[2]))

	var ve *errors.ValidationError
	assert.True(t, errors.As(CheckNested(specs[2], specs[1]), &ve))
	assert.Error(t, CheckNested(specs[1], specs[1]))

	other := Spec{Name: "other", Response: "duration", Terms: specs[2].Terms}
	assert.Error(t, CheckNested(specs[0], other))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		ok   bool
	}{
		{"valid", Spec{Name: "m", Response: "y", Terms: []Term{MainEffect("x")}}, true},
		{"intercept only", Spec{Name: "m", Response: "y"}, true},
		{"empty response", Spec{Name: "m", Terms: []Term{MainEffect("x")}}, false},
		{"self interaction", Spec{Name: "m", Response: "y", Terms: []Term{Interact("x", "x")}}, false},
		{"bad main", Spec{Name: "m", Response: "y", Terms: []Term{{Kind: Main, Vars: []string{"a", "b"}}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func sampleTable(t *testing.T) *dataset.Table {
	t.Helper()
	tb := dataset.New()
	require.NoError(t, tb.AddNumeric("quality", []float64{6, 7, 8, 5}))
	require.NoError(t, tb.AddNumeric("stress", []float64{3, 4, 5, 8}))
	require.NoError(t, tb.AddNumeric("activity", []float64{30, 60, 45, 20}))
	require.NoError(t, tb.AddText("disorder", []string{"None", "None", "Insomnia", "Sleep Apnea"}, nil))
	return tb
}

func TestBuild(t *testing.T) {
	tb := sampleTable(t)
	spec := SleepQualitySpecs(testColumns)[1]

	d, err := Build(spec, tb)
	require.NoError(t, err)
	assert.Equal(t, spec.Columns(), d.Names)

	r, c := d.X.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 4, c)
	for i := 0; i < r; i++ {
		assert.Equal(t, 1.0, d.X.At(i, 0))
		assert.Equal(t, d.X.At(i, 1)*d.X.At(i, 2), d.X.At(i, 3))
	}
	assert.Equal(t, 8.0, d.Y.AtVec(2))
}

func TestBuildMissingColumn(t *testing.T) {
	tb := sampleTable(t)
	_, err := Build(SleepQualitySpecs(testColumns)[2], tb)
	require.Error(t, err)

	var mc *errors.MissingColumnError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, "duration", mc.Column)
}

func TestBuildRejectsText(t *testing.T) {
	tb := sampleTable(t)
	spec := Spec{Name: "m", Response: "quality", Terms: []Term{MainEffect("disorder")}}
	_, err := Build(spec, tb)
	assert.Error(t, err)
}

func TestExog(t *testing.T) {
	tb := sampleTable(t)
	d, err := Exog(tb, []string{"stress", "quality"})
	require.NoError(t, err)
	assert.Equal(t, []string{"const", "stress", "quality"}, d.Names)
	assert.Nil(t, d.Y)
	assert.Equal(t, 1.0, d.X.At(3, 0))
	assert.Equal(t, 8.0, d.X.At(3, 1))
	assert.Equal(t, 5.0, d.X.At(3, 2))
}
