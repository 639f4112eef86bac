// Package synth generates deterministic synthetic sleep-health tables for
// demos and tests. Column names match pipeline.DefaultColumns.
package synth

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/sleepstat/dataset"
	"github.com/YuminosukeSato/sleepstat/pkg/errors"
)

// Categories are the disorder labels drawn by SleepTable.
var Categories = []string{"Insomnia", "None", "Sleep Apnea"}

// Options tunes SleepTable.
type Options struct {
	// MessyLabels pads some labels with whitespace and carriage returns.
	MessyLabels bool
	// MissingRows blanks the heart rate of this many rows, starting at row 3.
	MissingRows int
}

// SleepTable draws n rows. Sleep quality falls with stress and rises slightly
// with physical activity; the disorder follows a multinomial logit in stress
// and quality with Insomnia as the reference.
func SleepTable(n int, seed uint64, opts Options) (*dataset.Table, error) {
	if n <= 0 {
		return nil, errors.NewValidationError("rows", "must be positive", n)
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	id := make([]float64, n)
	age := make([]float64, n)
	duration := make([]float64, n)
	quality := make([]float64, n)
	activity := make([]float64, n)
	stress := make([]float64, n)
	hr := make([]float64, n)
	disorder := make([]string, n)

	eta := make([]float64, len(Categories))
	for i := 0; i < n; i++ {
		id[i] = float64(i + 1)
		age[i] = float64(27 + rng.IntN(33))
		stress[i] = float64(3 + rng.IntN(6))
		activity[i] = float64(30 + rng.IntN(61))
		duration[i] = math.Round((5.8+2.7*rng.Float64())*10) / 10
		hr[i] = float64(65 + rng.IntN(22))
		quality[i] = 9.5 - 0.5*stress[i] + 0.01*activity[i] + 0.3*rng.NormFloat64()

		eta[0] = 0
		eta[1] = 2.5 - 0.5*stress[i] + 0.1*quality[i]
		eta[2] = -0.5 + 0.2*stress[i] - 0.05*quality[i]
		disorder[i] = Categories[draw(rng, eta)]

		if opts.MessyLabels {
			switch i % 5 {
			case 0:
				disorder[i] = " " + disorder[i] + "\r"
			case 1:
				disorder[i] += "  "
			}
		}
	}
	for k := 0; k < opts.MissingRows && 3+k < n; k++ {
		hr[3+k] = math.NaN()
	}

	t := dataset.New()
	for _, c := range []struct {
		name string
		v    []float64
	}{
		{"id", id},
		{"age", age},
		{"sleep_duration", duration},
		{"quality_of_sleep", quality},
		{"Physical_Activity_level", activity},
		{"stress_level", stress},
		{"heart_rate", hr},
	} {
		if err := t.AddNumeric(c.name, c.v); err != nil {
			return nil, err
		}
	}
	if err := t.AddText("sleep_disorder", disorder, nil); err != nil {
		return nil, err
	}
	return t, nil
}

// draw samples an index with probabilities softmax(eta).
func draw(rng *rand.Rand, eta []float64) int {
	lse := errors.LogSumExp(eta)
	u, acc := rng.Float64(), 0.0
	for k, e := range eta {
		acc += math.Exp(e - lse)
		if u < acc {
			return k
		}
	}
	return len(eta) - 1
}
