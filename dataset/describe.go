package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var nan = math.NaN()

// Summary holds descriptive statistics for one column. Numeric fields are NaN
// for text columns and text fields are zero for numeric columns.
type Summary struct {
	Column  string
	Kind    Kind
	Count   int
	Missing int

	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64

	Unique int
	Top    string
	Freq   int
}

// Describe summarizes every column of t.
func Describe(t *Table) []Summary {
	out := make([]Summary, 0, t.NCols())
	for _, c := range t.cols {
		s := Summary{Column: c.name, Kind: c.kind,
			Mean: nan, Std: nan, Min: nan, Q25: nan, Median: nan, Q75: nan, Max: nan}
		if c.kind == Numeric {
			xs := make([]float64, 0, len(c.num))
			for _, v := range c.num {
				if !math.IsNaN(v) {
					xs = append(xs, v)
				}
			}
			s.Count = len(xs)
			s.Missing = len(c.num) - len(xs)
			if len(xs) > 0 {
				sort.Float64s(xs)
				s.Mean = stat.Mean(xs, nil)
				if len(xs) > 1 {
					s.Std = stat.StdDev(xs, nil)
				}
				s.Min = xs[0]
				s.Max = xs[len(xs)-1]
				s.Q25 = stat.Quantile(0.25, stat.LinInterp, xs, nil)
				s.Median = stat.Quantile(0.5, stat.LinInterp, xs, nil)
				s.Q75 = stat.Quantile(0.75, stat.LinInterp, xs, nil)
			}
		} else {
			counts := valueCounts(c)
			for _, vc := range counts {
				s.Count += vc.Count
			}
			s.Missing = len(c.str) - s.Count
			s.Unique = len(counts)
			if len(counts) > 0 {
				s.Top, s.Freq = counts[0].Value, counts[0].Count
			}
		}
		out = append(out, s)
	}
	return out
}

// ValueCount is the frequency of one distinct text value.
type ValueCount struct {
	Value string
	Count int
}

// ValueCounts returns the distinct valid values of a text column ordered by
// descending count, ties broken by value.
func ValueCounts(t *Table, name string) ([]ValueCount, error) {
	c, err := t.lookup("ValueCounts", name)
	if err != nil {
		return nil, err
	}
	if c.kind != Text {
		vals := make([]string, len(c.num))
		valid := make([]bool, len(c.num))
		for i, v := range c.num {
			valid[i] = !math.IsNaN(v)
			if valid[i] {
				vals[i] = formatFloat(v)
			}
		}
		c = &column{name: c.name, kind: Text, str: vals, valid: valid}
	}
	return valueCounts(c), nil
}

func valueCounts(c *column) []ValueCount {
	m := make(map[string]int)
	for i, s := range c.str {
		if c.valid[i] {
			m[s]++
		}
	}
	out := make([]ValueCount, 0, len(m))
	for v, n := range m {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// CorrelationMatrix is a labeled Pearson correlation matrix.
type CorrelationMatrix struct {
	Names  []string
	Values *mat.SymDense
}

// Correlation computes pairwise Pearson correlations between the numeric
// columns of t, using for each pair only the rows where both are present.
func Correlation(t *Table) *CorrelationMatrix {
	var cols []*column
	for _, c := range t.cols {
		if c.kind == Numeric {
			cols = append(cols, c)
		}
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	if len(cols) == 0 {
		return &CorrelationMatrix{Names: names}
	}
	corr := mat.NewSymDense(len(cols), nil)
	for i := range cols {
		for j := i; j < len(cols); j++ {
			corr.SetSym(i, j, pairwiseCorrelation(cols[i].num, cols[j].num))
		}
	}
	return &CorrelationMatrix{Names: names, Values: corr}
}

func pairwiseCorrelation(a, b []float64) float64 {
	x := make([]float64, 0, len(a))
	y := make([]float64, 0, len(b))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		x = append(x, a[i])
		y = append(y, b[i])
	}
	if len(x) < 2 {
		return nan
	}
	return stat.Correlation(x, y, nil)
}
