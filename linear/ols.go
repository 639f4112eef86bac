// Package linear は線形回帰（OLS）と多項ロジット（MNLogit）のフィッタ、
// およびオッズ比変換を提供する
package linear

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/sleepstat/core/model"
	"github.com/YuminosukeSato/sleepstat/formula"
	"github.com/YuminosukeSato/sleepstat/metrics"
	"github.com/YuminosukeSato/sleepstat/pkg/errors"
	"github.com/YuminosukeSato/sleepstat/pkg/log"
)

// OLS は最小二乗法による線形回帰モデル
type OLS struct {
	model.BaseEstimator
	Name string

	cfg     fitConfig
	results *OLSResults
}

// OLSResults はフィット済みの線形モデル。作成後は変更されない。
type OLSResults struct {
	Model   string
	Formula string
	Names   []string

	Params  []float64
	StdErr  []float64
	TValues []float64
	PValues []float64
	// ConfInt は95%信頼区間 [下限, 上限]
	ConfInt [][2]float64

	NObs    int
	DFModel float64
	DFResid float64

	R2      float64
	AdjR2   float64
	FStat   float64
	FPValue float64
	LogLik  float64
	AIC     float64
	BIC     float64
	RMSE    float64
	MAE     float64
}

// NewOLS は新しい線形回帰モデルを作成する
func NewOLS(name string, opts ...Option) *OLS {
	return &OLS{Name: name, cfg: newFitConfig(opts)}
}

// Fit は計画行列と応答ベクトルでモデルを学習する
//
// 係数は QR 分解による最小二乗解。事前に SVD で数値ランクを確認し、
// ランク落ちの場合は最初に共線となる列を示す SingularDesignError を返す。
func (m *OLS) Fit(d *formula.Design) (res *OLSResults, err error) {
	defer errors.Recover(&err, "OLS.Fit")
	start := time.Now()
	m.Reset()

	if d == nil || d.X == nil || d.Y == nil {
		return nil, errors.NewModelError("OLS.Fit", "empty data", errors.ErrEmptyData)
	}
	n, p := d.X.Dims()
	if n == 0 || p == 0 {
		return nil, errors.NewModelError("OLS.Fit", "empty data", errors.ErrEmptyData)
	}
	if d.Y.Len() != n {
		return nil, errors.NewDimensionError("OLS.Fit", n, d.Y.Len(), 0)
	}
	if len(d.Names) != p {
		return nil, errors.NewDimensionError("OLS.Fit", p, len(d.Names), 1)
	}
	if n <= p {
		return nil, errors.NewValueError("OLS.Fit", "no residual degrees of freedom: need more observations than columns")
	}
	if err := checkRank(m.Name, d.X, d.Names); err != nil {
		return nil, err
	}

	// 最小二乗解
	var qr mat.QR
	qr.Factorize(d.X)
	beta := mat.NewVecDense(p, nil)
	if err := qr.SolveVecTo(beta, false, d.Y); err != nil {
		return nil, errors.NewSingularDesignError(m.Name, d.Names[p-1], p-1, p)
	}

	fitted := mat.NewVecDense(n, nil)
	fitted.MulVec(d.X, beta)

	rss, err := metrics.RSS(d.Y, fitted)
	if err != nil {
		return nil, err
	}
	tss := metrics.TSS(d.Y)

	res = &OLSResults{
		Model:   m.Name,
		Formula: d.Formula,
		Names:   append([]string(nil), d.Names...),
		Params:  append([]float64(nil), beta.RawVector().Data...),
		NObs:    n,
		DFModel: float64(p - 1),
		DFResid: float64(n - p),
	}

	// 係数の標準誤差 sqrt(diag(σ²(XᵀX)⁻¹))
	sigma2 := rss / res.DFResid
	xtxInv, ok := invertSPD(gram(d.X))
	if !ok {
		return nil, errors.NewSingularDesignError(m.Name, d.Names[p-1], p-1, p)
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: res.DFResid}
	q := tDist.Quantile(0.975)
	res.StdErr = make([]float64, p)
	res.TValues = make([]float64, p)
	res.PValues = make([]float64, p)
	res.ConfInt = make([][2]float64, p)
	for j := 0; j < p; j++ {
		se := math.Sqrt(sigma2 * xtxInv.At(j, j))
		res.StdErr[j] = se
		res.TValues[j] = res.Params[j] / se
		res.PValues[j] = studentPValue(res.TValues[j], res.DFResid)
		res.ConfInt[j] = [2]float64{res.Params[j] - q*se, res.Params[j] + q*se}
	}

	// 適合度
	res.R2, err = metrics.R2Score(d.Y, fitted)
	if err != nil {
		res.R2 = math.NaN()
		errors.Warn(errors.NewUndefinedMetricWarning("R-squared", "response has no variance", res.R2))
	}
	res.AdjR2 = 1 - (1-res.R2)*float64(n-1)/res.DFResid

	if res.DFModel == 0 {
		res.FStat, res.FPValue = math.NaN(), math.NaN()
		errors.Warn(errors.NewUndefinedMetricWarning("F-statistic", "model has no regressors besides the intercept", res.FStat))
	} else {
		res.FStat = ((tss - rss) / res.DFModel) / sigma2
		res.FPValue = distuv.F{D1: res.DFModel, D2: res.DFResid}.Survival(res.FStat)
	}

	res.LogLik = -float64(n) / 2 * (math.Log(2*math.Pi) + math.Log(rss/float64(n)) + 1)
	res.AIC, res.BIC = infoCriteria(res.LogLik, p, n)
	res.RMSE, _ = metrics.RMSE(d.Y, fitted)
	res.MAE, _ = metrics.MAE(d.Y, fitted)

	m.results = res
	m.SetFitted()

	m.cfg.logger.Info("OLS fitted",
		log.ModelNameKey, m.Name,
		log.OperationKey, log.OperationFit,
		log.FormulaKey, d.Formula,
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.R2ScoreKey, res.R2,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

// Results はフィット結果を返す
func (m *OLS) Results() (*OLSResults, error) {
	if err := m.CheckFitted("OLS", "Results"); err != nil {
		return nil, err
	}
	return m.results, nil
}

// Coef は名前で係数を引く
func (r *OLSResults) Coef(name string) (float64, bool) {
	for j, n := range r.Names {
		if n == name {
			return r.Params[j], true
		}
	}
	return 0, false
}

// Predict は計画行列 X に対する予測値を返す。X の列は Names と同じ順序。
func (r *OLSResults) Predict(X mat.Matrix) (*mat.VecDense, error) {
	n, p := X.Dims()
	if p != len(r.Params) {
		return nil, errors.NewDimensionError("OLSResults.Predict", len(r.Params), p, 1)
	}
	out := mat.NewVecDense(n, nil)
	out.MulVec(X, mat.NewVecDense(p, r.Params))
	return out, nil
}
