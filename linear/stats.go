package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/sleepstat/pkg/errors"
)

// rankTol is the numerical-rank threshold used by LAPACK-style rank tests.
func rankTol(sv []float64, rows, cols int) float64 {
	if len(sv) == 0 {
		return 0
	}
	return sv[0] * float64(max(rows, cols)) * eps
}

const eps = 2.220446049250313e-16

// numericalRank returns the rank of the first cols columns of X.
func numericalRank(X *mat.Dense, cols int) int {
	rows, _ := X.Dims()
	var svd mat.SVD
	if !svd.Factorize(X.Slice(0, rows, 0, cols), mat.SVDNone) {
		return 0
	}
	sv := svd.Values(nil)
	tol := rankTol(sv, rows, cols)
	rank := 0
	for _, s := range sv {
		if s > tol {
			rank++
		}
	}
	return rank
}

// checkRank returns a SingularDesignError naming the first column that is a
// linear combination of the columns before it.
func checkRank(model string, X *mat.Dense, names []string) error {
	_, p := X.Dims()
	rank := numericalRank(X, p)
	if rank == p {
		return nil
	}
	for j := 1; j <= p; j++ {
		if numericalRank(X, j) < j {
			return errors.NewSingularDesignError(model, names[j-1], rank, p)
		}
	}
	return errors.NewSingularDesignError(model, names[p-1], rank, p)
}

// invertSPD inverts a symmetric positive definite matrix by Cholesky.
func invertSPD(a mat.Symmetric) (*mat.SymDense, bool) {
	var chol mat.Cholesky
	if !chol.Factorize(a) {
		return nil, false
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, false
	}
	return &inv, true
}

// gram returns XᵀX.
func gram(X mat.Matrix) *mat.SymDense {
	_, p := X.Dims()
	g := mat.NewSymDense(p, nil)
	g.SymOuterK(1, X.T())
	return g
}

// normalPValue is the two-sided p value of a z statistic.
func normalPValue(z float64) float64 {
	return 2 * distuv.UnitNormal.Survival(math.Abs(z))
}

// studentPValue is the two-sided p value of a t statistic with df degrees of freedom.
func studentPValue(t, df float64) float64 {
	return 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))
}

// infoCriteria returns AIC and BIC for k estimated parameters and n observations.
func infoCriteria(ll float64, k, n int) (aic, bic float64) {
	aic = -2*ll + 2*float64(k)
	bic = -2*ll + float64(k)*math.Log(float64(n))
	return aic, bic
}
