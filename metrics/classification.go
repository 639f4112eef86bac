package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sleepstat/pkg/errors"
)

// probEpsilon は log(0) を避けるためのクリップ幅
const probEpsilon = 1e-15

// Accuracy は正解率を計算する
//
// yTrue, yPred はクラスコード（整数）のベクトル。
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ArgMax は各行で確率が最大となる列番号を返す。同値の場合は先頭の列。
func ArgMax(proba mat.Matrix) *mat.VecDense {
	r, c := proba.Dims()
	out := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		best := 0
		for j := 1; j < c; j++ {
			if proba.At(i, j) > proba.At(i, best) {
				best = j
			}
		}
		out.SetVec(i, float64(best))
	}
	return out
}

// LogLoss は多クラスの交差エントロピー（平均負の対数尤度）を計算する
//
// codes[i] は i 行目の正解クラスの列番号。proba は n×K の確率行列。
func LogLoss(codes []int, proba mat.Matrix) (float64, error) {
	r, c := proba.Dims()
	if len(codes) == 0 {
		return 0, errors.NewValueError("LogLoss", "empty input")
	}
	if len(codes) != r {
		return 0, errors.NewDimensionError("LogLoss", r, len(codes), 0)
	}

	loss := 0.0
	for i, k := range codes {
		if k < 0 || k >= c {
			return 0, errors.NewValidationError("codes",
				fmt.Sprintf("class index out of range [0, %d) at row %d", c, i), k)
		}
		p := math.Min(math.Max(proba.At(i, k), probEpsilon), 1-probEpsilon)
		loss -= math.Log(p)
	}
	return loss / float64(len(codes)), nil
}
