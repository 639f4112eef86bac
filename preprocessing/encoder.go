package preprocessing

import (
	"sort"

	"github.com/YuminosukeSato/sleepstat/core/model"
	"github.com/YuminosukeSato/sleepstat/pkg/errors"
)

// LabelEncoder はカテゴリカルな文字列ラベルを整数コードに変換する
// カテゴリはソート順に並び、先頭のカテゴリが基準（baseline）カテゴリとなる
type LabelEncoder struct {
	model.BaseEstimator

	// Categories は学習したカテゴリ一覧（ソート済み）
	Categories []string

	// CategoryToIdx はカテゴリ→コードのマップ
	CategoryToIdx map[string]int
}

// NewLabelEncoder は新しいLabelEncoderを作成する
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{}
}

// Fit はラベルからカテゴリ一覧を学習する
func (e *LabelEncoder) Fit(labels []string) (err error) {
	defer errors.Recover(&err, "LabelEncoder.Fit")
	if len(labels) == 0 {
		return errors.NewModelError("LabelEncoder.Fit", "empty data", errors.ErrEmptyData)
	}

	set := make(map[string]bool)
	for _, l := range labels {
		set[l] = true
	}
	categories := make([]string, 0, len(set))
	for c := range set {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	e.Categories = categories
	e.CategoryToIdx = make(map[string]int, len(categories))
	for idx, c := range categories {
		e.CategoryToIdx[c] = idx
	}

	e.SetFitted()
	return nil
}

// Transform はラベルを整数コードに変換する
// 未知のラベルは ValueError になる
func (e *LabelEncoder) Transform(labels []string) ([]int, error) {
	if err := e.CheckFitted("LabelEncoder", "Transform"); err != nil {
		return nil, err
	}
	codes := make([]int, len(labels))
	for i, l := range labels {
		idx, ok := e.CategoryToIdx[l]
		if !ok {
			return nil, errors.NewValueError("LabelEncoder.Transform", "unknown label "+l)
		}
		codes[i] = idx
	}
	return codes, nil
}

// FitTransform はFitとTransformを続けて実行する
func (e *LabelEncoder) FitTransform(labels []string) ([]int, error) {
	if err := e.Fit(labels); err != nil {
		return nil, err
	}
	return e.Transform(labels)
}

// Baseline は基準カテゴリを返す
func (e *LabelEncoder) Baseline() string {
	if len(e.Categories) == 0 {
		return ""
	}
	return e.Categories[0]
}

// Counts は各カテゴリの出現数をカテゴリ順に返す
func (e *LabelEncoder) Counts(codes []int) []int {
	counts := make([]int, len(e.Categories))
	for _, c := range codes {
		if c >= 0 && c < len(counts) {
			counts[c]++
		}
	}
	return counts
}
