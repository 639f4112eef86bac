// Package metrics は回帰・分類モデルの評価指標を提供する
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sleepstat/pkg/errors"
)

// checkPair は2つのベクトルが空でなく同じ長さであることを検証する
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "input vectors cannot be nil")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// residuals は yTrue - yPred を返す
func residuals(yTrue, yPred *mat.VecDense) []float64 {
	var diff mat.VecDense
	diff.SubVec(yTrue, yPred)
	return diff.RawVector().Data
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	r := residuals(yTrue, yPred)
	return floats.Dot(r, r) / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Norm(residuals(yTrue, yPred), 1) / float64(n), nil
}

// RSS は残差平方和を返す
func RSS(yTrue, yPred *mat.VecDense) (float64, error) {
	if _, err := checkPair("RSS", yTrue, yPred); err != nil {
		return 0, err
	}
	r := residuals(yTrue, yPred)
	return floats.Dot(r, r), nil
}

// TSS は平均まわりの全変動を返す
func TSS(yTrue *mat.VecDense) float64 {
	n := yTrue.Len()
	if n == 0 {
		return 0
	}
	mean := mat.Sum(yTrue) / float64(n)
	var tss float64
	for i := 0; i < n; i++ {
		d := yTrue.AtVec(i) - mean
		tss += d * d
	}
	return tss
}

// R2Score は決定係数（R²）を計算する
// R² = 1 - RSS/TSS。yTrue に分散がない場合はエラーを返す。
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	rss, err := RSS(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "R2Score")
	}
	tss := TSS(yTrue)
	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}
