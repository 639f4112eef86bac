package linear

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/sleepstat/core/model"
	"github.com/YuminosukeSato/sleepstat/formula"
	"github.com/YuminosukeSato/sleepstat/metrics"
	"github.com/YuminosukeSato/sleepstat/pkg/errors"
	"github.com/YuminosukeSato/sleepstat/pkg/log"
)

// minCategorySupport is the number of observations every category needs.
const minCategorySupport = 2

// Role tags an equation of a multinomial model.
type Role int

const (
	// RoleBaseline is the reference category; its coefficients are fixed at zero.
	RoleBaseline Role = iota
	// RoleContrast is an estimated category-versus-baseline equation.
	RoleContrast
)

func (r Role) String() string {
	if r == RoleBaseline {
		return "baseline"
	}
	return "contrast"
}

// Equation is the linear predictor of one category.
type Equation struct {
	Category string
	Role     Role
	// Coef has one entry per exog column. All zero for the baseline.
	Coef []float64
	// StdErr, ZValues and PValues are nil for the baseline.
	StdErr  []float64
	ZValues []float64
	PValues []float64
}

// MNLogit fits a multinomial logit with reference-category parameterization.
type MNLogit struct {
	model.BaseEstimator
	Name string

	cfg     fitConfig
	results *MNLogitResults
}

// MNLogitResults is a fitted categorical model. It is not modified after Fit.
type MNLogitResults struct {
	Model      string
	Solver     Solver
	ExogNames  []string
	Categories []string
	// Equations holds one entry per category in category order, baseline first.
	Equations []Equation

	NObs       int
	DFModel    float64
	DFResid    float64
	LogLik     float64
	LLNull     float64
	PseudoR2   float64
	LLR        float64
	LLRPValue  float64
	AIC        float64
	BIC        float64
	Iterations int
	Converged  bool
	Accuracy   float64
	LogLoss    float64
}

// NewMNLogit returns an unfitted multinomial logit named name.
func NewMNLogit(name string, opts ...Option) *MNLogit {
	return &MNLogit{Name: name, cfg: newFitConfig(opts)}
}

// mnlProblem is the data of one fit. Parameters are laid out contrast by
// contrast: theta[k*p+j] is coefficient j of category k+1.
type mnlProblem struct {
	X     *mat.Dense
	codes []int
	n, p  int
	k     int
}

func (pr *mnlProblem) dim() int { return (pr.k - 1) * pr.p }

// probs fills P (n×K) and returns the log-likelihood.
func (pr *mnlProblem) probs(theta []float64, P *mat.Dense) float64 {
	eta := make([]float64, pr.k)
	ll := 0.0
	for i := 0; i < pr.n; i++ {
		row := pr.X.RawRowView(i)
		eta[0] = 0
		for c := 1; c < pr.k; c++ {
			eta[c] = floats.Dot(row, theta[(c-1)*pr.p:c*pr.p])
		}
		lse := errors.LogSumExp(eta)
		for c := 0; c < pr.k; c++ {
			P.Set(i, c, math.Exp(eta[c]-lse))
		}
		ll += eta[pr.codes[i]] - lse
	}
	return ll
}

// score is the gradient of the log-likelihood.
func (pr *mnlProblem) score(P *mat.Dense, grad []float64) {
	for j := range grad {
		grad[j] = 0
	}
	for i := 0; i < pr.n; i++ {
		row := pr.X.RawRowView(i)
		for c := 1; c < pr.k; c++ {
			r := -P.At(i, c)
			if pr.codes[i] == c {
				r += 1
			}
			floats.AddScaled(grad[(c-1)*pr.p:c*pr.p], r, row)
		}
	}
}

// negHessian is the observed information: −∂²ℓ/∂θ∂θᵀ with blocks
// Σ_i P_ik(δ_kl − P_il) x_i x_iᵀ.
func (pr *mnlProblem) negHessian(P *mat.Dense) *mat.SymDense {
	m := pr.dim()
	h := make([]float64, m*m)
	for i := 0; i < pr.n; i++ {
		row := pr.X.RawRowView(i)
		for k := 1; k < pr.k; k++ {
			for l := k; l < pr.k; l++ {
				w := -P.At(i, k) * P.At(i, l)
				if k == l {
					w += P.At(i, k)
				}
				for a := 0; a < pr.p; a++ {
					r := (k-1)*pr.p + a
					for b := 0; b < pr.p; b++ {
						c := (l-1)*pr.p + b
						h[r*m+c] += w * row[a] * row[b]
					}
				}
			}
		}
	}
	return mat.NewSymDense(m, h)
}

// Fit estimates the model. codes index into categories; categories[0] is the
// baseline. The design must carry the exog column names.
func (m *MNLogit) Fit(codes []int, categories []string, d *formula.Design) (res *MNLogitResults, err error) {
	defer errors.Recover(&err, "MNLogit.Fit")
	start := time.Now()
	m.Reset()

	if d == nil || d.X == nil {
		return nil, errors.NewModelError("MNLogit.Fit", "empty data", errors.ErrEmptyData)
	}
	n, p := d.X.Dims()
	if n == 0 {
		return nil, errors.NewModelError("MNLogit.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(codes) != n {
		return nil, errors.NewDimensionError("MNLogit.Fit", n, len(codes), 0)
	}
	if len(d.Names) != p {
		return nil, errors.NewDimensionError("MNLogit.Fit", p, len(d.Names), 1)
	}
	K := len(categories)
	if K < 2 {
		return nil, errors.NewValueError("MNLogit.Fit", fmt.Sprintf("need at least two categories, got %d", K))
	}
	counts := make([]int, K)
	for i, c := range codes {
		if c < 0 || c >= K {
			return nil, errors.NewValidationError("codes", fmt.Sprintf("category code out of range at row %d", i), c)
		}
		counts[c]++
	}
	for c, cnt := range counts {
		if cnt < minCategorySupport {
			return nil, errors.NewInsufficientSupportError(m.Name, categories[c], cnt, minCategorySupport)
		}
	}
	if err := checkRank(m.Name, d.X, d.Names); err != nil {
		return nil, err
	}

	pr := &mnlProblem{X: d.X, codes: codes, n: n, p: p, k: K}
	logger := m.cfg.logger.With(log.ModelNameKey, m.Name, log.SolverKey, string(m.cfg.solver))

	var theta []float64
	var iters int
	switch m.cfg.solver {
	case SolverNewton:
		theta, iters, err = m.newton(pr, logger)
	case SolverBFGS:
		theta, iters, err = m.bfgs(pr)
	default:
		return nil, errors.NewValidationError("solver", "must be newton or bfgs", m.cfg.solver)
	}
	if err != nil {
		return nil, err
	}

	P := mat.NewDense(n, K, nil)
	ll := pr.probs(theta, P)
	if err := errors.CheckScalar("MNLogit.loglik", ll, iters); err != nil {
		return nil, errors.NewNonConvergenceError(m.Name, string(m.cfg.solver), iters, "log-likelihood is not finite")
	}
	cov, ok := invertSPD(pr.negHessian(P))
	if !ok {
		return nil, errors.NewNonConvergenceError(m.Name, string(m.cfg.solver), iters, "Hessian is not positive definite at the optimum")
	}

	res = &MNLogitResults{
		Model:      m.Name,
		Solver:     m.cfg.solver,
		ExogNames:  append([]string(nil), d.Names...),
		Categories: append([]string(nil), categories...),
		NObs:       n,
		DFModel:    float64((K - 1) * (p - 1)),
		DFResid:    float64(n - (K-1)*p),
		LogLik:     ll,
		Iterations: iters,
		Converged:  true,
	}
	res.Equations = make([]Equation, K)
	res.Equations[0] = Equation{Category: categories[0], Role: RoleBaseline, Coef: make([]float64, p)}
	for c := 1; c < K; c++ {
		eq := Equation{
			Category: categories[c],
			Role:     RoleContrast,
			Coef:     append([]float64(nil), theta[(c-1)*p:c*p]...),
			StdErr:   make([]float64, p),
			ZValues:  make([]float64, p),
			PValues:  make([]float64, p),
		}
		for j := 0; j < p; j++ {
			idx := (c-1)*p + j
			eq.StdErr[j] = math.Sqrt(cov.At(idx, idx))
			eq.ZValues[j] = eq.Coef[j] / eq.StdErr[j]
			eq.PValues[j] = normalPValue(eq.ZValues[j])
		}
		res.Equations[c] = eq
	}

	// 切片のみモデルの最尤解は経験頻度
	for _, cnt := range counts {
		res.LLNull += float64(cnt) * math.Log(float64(cnt)/float64(n))
	}
	res.PseudoR2 = 1 - res.LogLik/res.LLNull
	res.LLR = 2 * (res.LogLik - res.LLNull)
	if res.DFModel > 0 {
		res.LLRPValue = distuv.ChiSquared{K: res.DFModel}.Survival(res.LLR)
	} else {
		res.LLRPValue = math.NaN()
		errors.Warn(errors.NewUndefinedMetricWarning("LLR p-value", "model has no regressors besides the constant", res.LLRPValue))
	}
	res.AIC, res.BIC = infoCriteria(res.LogLik, (K-1)*p, n)

	yTrue := mat.NewVecDense(n, nil)
	for i, c := range codes {
		yTrue.SetVec(i, float64(c))
	}
	res.Accuracy, _ = metrics.Accuracy(yTrue, metrics.ArgMax(P))
	res.LogLoss, _ = metrics.LogLoss(codes, P)

	m.results = res
	m.SetFitted()

	logger.Info("MNLogit fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.CategoriesKey, categories,
		log.IterationKey, iters,
		log.LogLikKey, res.LogLik,
		log.PseudoR2Key, res.PseudoR2,
		log.AccuracyKey, res.Accuracy,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

// newton runs Newton-Raphson from zero until the largest absolute step is
// below tol.
func (m *MNLogit) newton(pr *mnlProblem, logger log.Logger) ([]float64, int, error) {
	dim := pr.dim()
	theta := make([]float64, dim)
	grad := make([]float64, dim)
	P := mat.NewDense(pr.n, pr.k, nil)
	step := mat.NewVecDense(dim, nil)

	for iter := 1; iter <= m.cfg.maxIter; iter++ {
		ll := pr.probs(theta, P)
		if math.IsNaN(ll) || math.IsInf(ll, 0) {
			return nil, iter, errors.NewNonConvergenceError(m.Name, string(SolverNewton), iter, "log-likelihood is not finite")
		}
		pr.score(P, grad)

		var chol mat.Cholesky
		if !chol.Factorize(pr.negHessian(P)) {
			return nil, iter, errors.NewNonConvergenceError(m.Name, string(SolverNewton), iter, "Hessian is not positive definite")
		}
		if err := chol.SolveVecTo(step, mat.NewVecDense(dim, grad)); err != nil {
			return nil, iter, errors.NewNonConvergenceError(m.Name, string(SolverNewton), iter, "Hessian is ill-conditioned")
		}

		maxStep := 0.0
		for j := 0; j < dim; j++ {
			theta[j] += step.AtVec(j)
			maxStep = math.Max(maxStep, math.Abs(step.AtVec(j)))
		}
		logger.Debug("newton step", log.IterationKey, iter, log.LogLikKey, ll, "max_step", maxStep)
		if err := errors.CheckNumericalStability("MNLogit.newton", theta, iter); err != nil {
			return nil, iter, errors.Wrap(
				errors.NewNonConvergenceError(m.Name, string(SolverNewton), iter, "parameters are not finite"),
				err.Error())
		}

		if maxStep < m.cfg.tol {
			return theta, iter, nil
		}
	}
	return nil, m.cfg.maxIter, errors.NewNonConvergenceError(m.Name, string(SolverNewton), m.cfg.maxIter, "maximum iterations reached")
}

// bfgs minimizes the mean negative log-likelihood with gonum/optimize.
func (m *MNLogit) bfgs(pr *mnlProblem) ([]float64, int, error) {
	dim := pr.dim()
	P := mat.NewDense(pr.n, pr.k, nil)
	scale := 1 / float64(pr.n)

	problem := optimize.Problem{
		Func: func(theta []float64) float64 {
			return -pr.probs(theta, P) * scale
		},
		Grad: func(grad, theta []float64) {
			pr.probs(theta, P)
			pr.score(P, grad)
			floats.Scale(-scale, grad)
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: m.cfg.tol,
		MajorIterations:   m.cfg.maxIter,
	}

	result, err := optimize.Minimize(problem, make([]float64, dim), settings, &optimize.BFGS{})
	if err != nil {
		iters := 0
		if result != nil {
			iters = result.Stats.MajorIterations
		}
		return nil, iters, errors.Wrap(
			errors.NewNonConvergenceError(m.Name, string(SolverBFGS), iters, err.Error()), "bfgs")
	}
	iters := result.Stats.MajorIterations
	if result.Status == optimize.IterationLimit {
		return nil, iters, errors.NewNonConvergenceError(m.Name, string(SolverBFGS), iters, "maximum iterations reached")
	}
	if err := result.Status.Err(); err != nil {
		return nil, iters, errors.NewNonConvergenceError(m.Name, string(SolverBFGS), iters, err.Error())
	}
	return result.X, iters, nil
}

// Results returns the fitted model.
func (m *MNLogit) Results() (*MNLogitResults, error) {
	if err := m.CheckFitted("MNLogit", "Results"); err != nil {
		return nil, err
	}
	return m.results, nil
}

// Columns returns the exog column names the model was fitted on.
func (r *MNLogitResults) Columns() []string {
	return append([]string(nil), r.ExogNames...)
}

// Classes returns the category labels in equation order.
func (r *MNLogitResults) Classes() []string {
	out := make([]string, len(r.Equations))
	for i, eq := range r.Equations {
		out[i] = eq.Category
	}
	return out
}

// Baseline returns the reference category.
func (r *MNLogitResults) Baseline() string {
	for _, eq := range r.Equations {
		if eq.Role == RoleBaseline {
			return eq.Category
		}
	}
	return ""
}

// Equation returns the equation of category.
func (r *MNLogitResults) Equation(category string) (Equation, bool) {
	for _, eq := range r.Equations {
		if eq.Category == category {
			return eq, true
		}
	}
	return Equation{}, false
}

// Params returns the (K−1)×p coefficient matrix of the contrast equations,
// rows labeled by category and columns by exog name.
func (r *MNLogitResults) Params() *CoefMatrix {
	return r.contrastMatrix(func(eq Equation) []float64 { return eq.Coef })
}

// StdErrors returns the standard errors laid out like Params.
func (r *MNLogitResults) StdErrors() *CoefMatrix {
	return r.contrastMatrix(func(eq Equation) []float64 { return eq.StdErr })
}

func (r *MNLogitResults) contrastMatrix(get func(Equation) []float64) *CoefMatrix {
	p := len(r.ExogNames)
	var rows []string
	var data []float64
	for _, eq := range r.Equations {
		if eq.Role != RoleContrast {
			continue
		}
		rows = append(rows, eq.Category)
		data = append(data, get(eq)...)
	}
	out := &CoefMatrix{Rows: rows, Cols: append([]string(nil), r.ExogNames...)}
	if len(rows) > 0 {
		out.Values = mat.NewDense(len(rows), p, data)
	}
	return out
}

// PredictProba returns the n×K category probabilities of X, columns in
// category order. names must equal ExogNames in name and order.
func (r *MNLogitResults) PredictProba(names []string, X mat.Matrix) (*mat.Dense, error) {
	if !sameNames(names, r.ExogNames) {
		return nil, errors.NewFrameMismatchError(r.Model, r.ExogNames, names)
	}
	n, p := X.Dims()
	if p != len(r.ExogNames) {
		return nil, errors.NewDimensionError("MNLogitResults.PredictProba", len(r.ExogNames), p, 1)
	}
	K := len(r.Equations)
	out := mat.NewDense(n, K, nil)
	eta := make([]float64, K)
	row := make([]float64, p)
	for i := 0; i < n; i++ {
		mat.Row(row, i, X)
		for c, eq := range r.Equations {
			eta[c] = floats.Dot(row, eq.Coef)
		}
		lse := errors.LogSumExp(eta)
		for c := range eta {
			out.Set(i, c, math.Exp(eta[c]-lse))
		}
	}
	return out, nil
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
