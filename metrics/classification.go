// Package metrics は分類器の評価指標を提供します。
//
// 混同行列、正解率とその二項信頼区間、クラスごとの感度・特異度・適合率・
// 陰性的中率を計算します。分母が0になる未定義の指標は
// UndefinedMetricWarningを発行して0を返します。
package metrics

import (
	"github.com/grainstat/graincv/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// ConfusionMatrix はクラス数kのk×k混同行列。行が実際のクラス、列が予測クラス。
type ConfusionMatrix struct {
	Counts  [][]int
	Classes []string
}

// NewConfusionMatrix は正解ラベルと予測ラベルから混同行列を作成する
func NewConfusionMatrix(yTrue, yPred []int, classes []string) (*ConfusionMatrix, error) {
	if len(yTrue) == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "empty label slice")
	}
	if len(yPred) != len(yTrue) {
		return nil, errors.NewDimensionError("ConfusionMatrix", len(yTrue), len(yPred), 0)
	}

	k := len(classes)
	counts := make([][]int, k)
	for i := range counts {
		counts[i] = make([]int, k)
	}
	for i := range yTrue {
		if yTrue[i] < 0 || yTrue[i] >= k {
			return nil, errors.NewValidationError("yTrue", "class index out of range", yTrue[i])
		}
		if yPred[i] < 0 || yPred[i] >= k {
			return nil, errors.NewValidationError("yPred", "class index out of range", yPred[i])
		}
		counts[yTrue[i]][yPred[i]]++
	}
	return &ConfusionMatrix{Counts: counts, Classes: classes}, nil
}

// Total は全サンプル数を返す
func (cm *ConfusionMatrix) Total() int {
	total := 0
	for _, row := range cm.Counts {
		for _, c := range row {
			total += c
		}
	}
	return total
}

// Correct は対角和（正しく分類されたサンプル数）を返す
func (cm *ConfusionMatrix) Correct() int {
	correct := 0
	for i := range cm.Counts {
		correct += cm.Counts[i][i]
	}
	return correct
}

// Accuracy は正解率を返す
func (cm *ConfusionMatrix) Accuracy() float64 {
	return errors.SafeDivide(float64(cm.Correct()), float64(cm.Total()))
}

// クラスclsの2値分解（TP/FN/FP/TN）
func (cm *ConfusionMatrix) binary(cls int) (tp, fn, fp, tn int) {
	k := len(cm.Counts)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			c := cm.Counts[i][j]
			switch {
			case i == cls && j == cls:
				tp += c
			case i == cls:
				fn += c
			case j == cls:
				fp += c
			default:
				tn += c
			}
		}
	}
	return
}

// Sensitivity はクラスclsの感度（再現率、TP/(TP+FN)）を返す
func (cm *ConfusionMatrix) Sensitivity(cls int) float64 {
	tp, fn, _, _ := cm.binary(cls)
	if tp+fn == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("sensitivity", "no true samples of class "+cm.Classes[cls], 0))
		return 0
	}
	return float64(tp) / float64(tp+fn)
}

// Specificity はクラスclsの特異度（TN/(TN+FP)）を返す
func (cm *ConfusionMatrix) Specificity(cls int) float64 {
	_, _, fp, tn := cm.binary(cls)
	if tn+fp == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("specificity", "no true samples outside class "+cm.Classes[cls], 0))
		return 0
	}
	return float64(tn) / float64(tn+fp)
}

// Precision はクラスclsの適合率（陽性的中率、TP/(TP+FP)）を返す
func (cm *ConfusionMatrix) Precision(cls int) float64 {
	tp, _, fp, _ := cm.binary(cls)
	if tp+fp == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted samples of class "+cm.Classes[cls], 0))
		return 0
	}
	return float64(tp) / float64(tp+fp)
}

// NPV はクラスclsの陰性的中率（TN/(TN+FN)）を返す
func (cm *ConfusionMatrix) NPV(cls int) float64 {
	_, fn, _, tn := cm.binary(cls)
	if tn+fn == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("npv", "no predicted samples outside class "+cm.Classes[cls], 0))
		return 0
	}
	return float64(tn) / float64(tn+fn)
}

// Accuracy は正解率を返す
func Accuracy(yTrue, yPred []int) (float64, error) {
	if len(yTrue) == 0 {
		return 0, errors.NewValueError("Accuracy", "empty label slice")
	}
	if len(yPred) != len(yTrue) {
		return 0, errors.NewDimensionError("Accuracy", len(yTrue), len(yPred), 0)
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// ClopperPearson は二項比率の正確な信頼区間を返す
//
// ベータ分布の分位点による正確法（Clopper-Pearson）。successes=0のとき下限は0、
// successes=trialsのとき上限は1になる。
func ClopperPearson(successes, trials int, confidence float64) (lo, hi float64, err error) {
	if trials <= 0 {
		return 0, 0, errors.NewValueError("ClopperPearson", "trials must be positive")
	}
	if successes < 0 || successes > trials {
		return 0, 0, errors.NewValidationError("successes", "must be in [0, trials]", successes)
	}
	if confidence <= 0 || confidence >= 1 {
		return 0, 0, errors.NewValidationError("confidence", "must be in (0, 1)", confidence)
	}

	alpha := 1 - confidence
	s, n := float64(successes), float64(trials)

	lo = 0.0
	if successes > 0 {
		lo = distuv.Beta{Alpha: s, Beta: n - s + 1}.Quantile(alpha / 2)
	}
	hi = 1.0
	if successes < trials {
		hi = distuv.Beta{Alpha: s + 1, Beta: n - s}.Quantile(1 - alpha/2)
	}
	return lo, hi, nil
}
