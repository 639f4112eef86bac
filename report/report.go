// Package report renders an analysis as a plain-text report: dataset
// overview, descriptive statistics, model summaries and odds-ratio tables.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/sleepstat/dataset"
	"github.com/YuminosukeSato/sleepstat/linear"
	"github.com/YuminosukeSato/sleepstat/pipeline"
	"github.com/YuminosukeSato/sleepstat/prediction"
)

// TimestampLayout formats run timestamps in file names and headers.
const TimestampLayout = "2006-01-02_15-04-05"

const (
	ruleWidth = 78
	wideWidth = 120
)

// Header identifies one run.
type Header struct {
	RunID       string
	Generated   time.Time
	Input       string
	Fingerprint string
	Rows        int
	Cols        int
}

// NewHeader stamps a run with a fresh ID and the input fingerprint.
func NewHeader(input string, raw []byte, rows, cols int, now time.Time) Header {
	return Header{
		RunID:       uuid.NewString(),
		Generated:   now,
		Input:       input,
		Fingerprint: dataset.Fingerprint(raw),
		Rows:        rows,
		Cols:        cols,
	}
}

// FileName returns "<prefix>_<timestamp>.<ext>".
func FileName(prefix string, ts time.Time, ext string) string {
	return prefix + "_" + ts.Format(TimestampLayout) + "." + ext
}

// writer remembers the first write error so rendering code stays linear.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

func (w *writer) rule(ch string, width int) {
	w.printf("%s\n", strings.Repeat(ch, width))
}

// table writes tab-separated rows aligned with a tabwriter.
func (w *writer) table(rows [][]string) {
	if w.err != nil {
		return
	}
	tw := tabwriter.NewWriter(w.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, r := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(r, "\t")+"\t"); err != nil {
			w.err = err
			return
		}
	}
	w.err = tw.Flush()
}

// Write renders the complete report of a.
func Write(out io.Writer, h Header, a *pipeline.Analysis, cols pipeline.Columns) error {
	w := &writer{w: out}

	w.printf("FULL SLEEP ANALYSIS REPORT\n")
	w.printf("Generated on: %s\n", h.Generated.Format(TimestampLayout))
	w.printf("Run ID:       %s\n", h.RunID)
	if h.Input != "" {
		w.printf("Input:        %s\n", h.Input)
	}
	w.printf("Fingerprint:  %s\n", h.Fingerprint)
	w.printf("Shape:        (%d, %d)\n\n", h.Rows, h.Cols)

	writeOverview(w, a)
	writeDescribe(w, a.Summary)
	writeCorrelation(w, a.Correlation)

	titles := []string{
		"Model 1: Stress on Quality of Sleep",
		"Model 2: Stress x Physical Activity Interaction",
		"Model 3: Full Regression with Covariates",
	}
	for i, res := range a.OLS {
		title := res.Model
		if i < len(titles) {
			title = titles[i]
		}
		section(w, title)
		writeOLS(w, res)
	}
	section(w, "Multinomial Model: Predict Sleep Disorder")
	writeMNLogit(w, cols.Disorder, a.Baseline)
	section(w, "Extended Multinomial Model: With Sleep Duration, HR, Age")
	writeMNLogit(w, cols.Disorder, a.Extended)

	w.printf("\nMultinomial Odds Ratios:\n")
	writeOddsRatios(w, a.BaselineOR)
	w.printf("\nExtended Model Odds Ratios:\n")
	writeOddsRatios(w, a.ExtendedOR)

	if a.Probability != nil {
		w.printf("\nPredicted Probabilities by %s (other predictors held fixed):\n", a.Probability.Vary)
		writeProbabilities(w, a.Probability, 11)
	}
	return w.err
}

func section(w *writer, title string) {
	w.printf("\n")
	w.rule("=", wideWidth)
	w.printf("%s\n", title)
	w.rule("=", wideWidth)
	w.printf("\n")
}

func writeOverview(w *writer, a *pipeline.Analysis) {
	o := a.Overview
	w.printf("Dataset Shape: (%d, %d)\n\n", o.Rows, o.Cols)
	rows := [][]string{{"column", "dtype", "missing"}}
	for i, n := range o.Names {
		rows = append(rows, []string{n, o.Kinds[i].String(), fmt.Sprint(o.Missing[i])})
	}
	w.table(rows)

	if a.Prepared != nil {
		w.printf("\nRows used for modeling: %d of %d\n", a.Prepared.RowsOut, a.Prepared.RowsIn)
	}
	w.printf("\nCleaned Sleep Disorder Categories:\n")
	rows = [][]string{{"category", "count"}}
	for _, vc := range a.DisorderCounts {
		rows = append(rows, []string{vc.Value, fmt.Sprint(vc.Count)})
	}
	w.table(rows)
	w.printf("\n")
}

func writeDescribe(w *writer, summary []dataset.Summary) {
	w.printf("Summary Statistics:\n")
	rows := [][]string{{"", "count", "unique", "top", "freq", "mean", "std", "min", "25%", "50%", "75%", "max"}}
	for _, s := range summary {
		r := []string{s.Column, fmt.Sprint(s.Count)}
		if s.Kind == dataset.Text {
			r = append(r, fmt.Sprint(s.Unique), s.Top, fmt.Sprint(s.Freq))
		} else {
			r = append(r, "", "", "")
		}
		for _, v := range []float64{s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max} {
			r = append(r, num(v, 4))
		}
		rows = append(rows, r)
	}
	w.table(rows)
	w.printf("\n")
}

func writeCorrelation(w *writer, c *dataset.CorrelationMatrix) {
	if c == nil || c.Values == nil {
		return
	}
	w.printf("Correlation Matrix:\n")
	rows := [][]string{append([]string{""}, c.Names...)}
	for i, n := range c.Names {
		r := []string{n}
		for j := range c.Names {
			r = append(r, num(c.Values.At(i, j), 2))
		}
		rows = append(rows, r)
	}
	w.table(rows)
	w.printf("\n")
}

// num formats v with prec decimals; NaN prints as "NaN".
func num(v float64, prec int) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.*f", prec, v)
}

// pval formats a p value the way regression summaries do.
func pval(p float64) string {
	if math.IsNaN(p) {
		return "nan"
	}
	if p < 1e-3 && p > 0 {
		return fmt.Sprintf("%.2e", p)
	}
	return fmt.Sprintf("%.3f", p)
}

// pair renders two label/value columns of a summary header.
func pair(w *writer, lk, lv, rk, rv string) {
	w.printf("%-20s%18s   %-22s%16s\n", lk, lv, rk, rv)
}

func writeOLS(w *writer, r *linear.OLSResults) {
	dep, _, _ := strings.Cut(r.Formula, " ~ ")
	w.printf("%s\n", center("OLS Regression Results", ruleWidth))
	w.rule("=", ruleWidth)
	pair(w, "Dep. Variable:", dep, "R-squared:", num(r.R2, 3))
	pair(w, "Model:", r.Model, "Adj. R-squared:", num(r.AdjR2, 3))
	pair(w, "Method:", "Least Squares", "F-statistic:", num(r.FStat, 2))
	pair(w, "No. Observations:", fmt.Sprint(r.NObs), "Prob (F-statistic):", pval(r.FPValue))
	pair(w, "Df Residuals:", fmt.Sprint(r.DFResid), "Log-Likelihood:", num(r.LogLik, 2))
	pair(w, "Df Model:", fmt.Sprint(r.DFModel), "AIC:", num(r.AIC, 1))
	pair(w, "Root MSE:", num(r.RMSE, 4), "BIC:", num(r.BIC, 1))
	pair(w, "Mean Abs. Error:", num(r.MAE, 4), "", "")
	w.printf("Formula: %s\n", r.Formula)
	w.rule("=", ruleWidth)

	rows := [][]string{{"", "coef", "std err", "t", "P>|t|", "[0.025", "0.975]"}}
	for j, n := range r.Names {
		rows = append(rows, []string{
			n, num(r.Params[j], 4), num(r.StdErr[j], 3), num(r.TValues[j], 3),
			pval(r.PValues[j]), num(r.ConfInt[j][0], 3), num(r.ConfInt[j][1], 3),
		})
	}
	w.table(rows)
	w.rule("=", ruleWidth)
}

func writeMNLogit(w *writer, dep string, r *linear.MNLogitResults) {
	if r == nil {
		return
	}
	w.printf("%s\n", center("MNLogit Regression Results", ruleWidth))
	w.rule("=", ruleWidth)
	pair(w, "Dep. Variable:", dep, "No. Observations:", fmt.Sprint(r.NObs))
	pair(w, "Model:", r.Model, "Df Residuals:", fmt.Sprint(r.DFResid))
	pair(w, "Method:", "MLE ("+string(r.Solver)+")", "Df Model:", fmt.Sprint(r.DFModel))
	pair(w, "Baseline:", r.Baseline(), "Pseudo R-squ.:", num(r.PseudoR2, 4))
	pair(w, "converged:", fmt.Sprint(r.Converged), "Log-Likelihood:", num(r.LogLik, 2))
	pair(w, "Iterations:", fmt.Sprint(r.Iterations), "LL-Null:", num(r.LLNull, 2))
	pair(w, "Accuracy:", num(r.Accuracy, 4), "LLR p-value:", pval(r.LLRPValue))
	pair(w, "Log Loss:", num(r.LogLoss, 4), "AIC / BIC:", num(r.AIC, 1)+" / "+num(r.BIC, 1))
	w.rule("=", ruleWidth)

	for _, eq := range r.Equations {
		if eq.Role != linear.RoleContrast {
			continue
		}
		rows := [][]string{{dep + "=" + eq.Category, "coef", "std err", "z", "P>|z|", "[0.025", "0.975]"}}
		for j, n := range r.ExogNames {
			half := 1.959963984540054 * eq.StdErr[j]
			rows = append(rows, []string{
				n, num(eq.Coef[j], 4), num(eq.StdErr[j], 3), num(eq.ZValues[j], 3),
				pval(eq.PValues[j]), num(eq.Coef[j]-half, 3), num(eq.Coef[j]+half, 3),
			})
		}
		w.table(rows)
		w.rule("-", ruleWidth)
	}
}

func writeOddsRatios(w *writer, t *linear.OddsRatioTable) {
	if t == nil || t.Values == nil {
		w.printf("(empty)\n")
		return
	}
	rows := [][]string{append([]string{""}, t.Cols...)}
	for i, cat := range t.Rows {
		r := []string{cat}
		for j := range t.Cols {
			r = append(r, num(t.Values.At(i, j), 4))
		}
		rows = append(rows, r)
	}
	w.table(rows)
}

// writeProbabilities prints about limit evenly spaced grid rows, the last
// grid value always included.
func writeProbabilities(w *writer, t *prediction.ProbabilityTable, limit int) {
	n := len(t.Grid)
	if n == 0 {
		return
	}
	step := 1
	if n > limit {
		step = (n - 1) / (limit - 1)
	}
	rows := [][]string{append([]string{t.Vary}, t.Categories...)}
	for i := 0; i < n; i += step {
		r := []string{num(t.Grid[i], 3)}
		for j := range t.Categories {
			r = append(r, num(t.Probs.At(i, j), 4))
		}
		rows = append(rows, r)
	}
	if (n-1)%step != 0 {
		r := []string{num(t.Grid[n-1], 3)}
		for j := range t.Categories {
			r = append(r, num(t.Probs.At(n-1, j), 4))
		}
		rows = append(rows, r)
	}
	w.table(rows)
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", (width-len(s))/2) + s
}
