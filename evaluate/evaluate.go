// Package evaluate は確定済みモデルのホールドアウト評価を提供します。
//
// 評価パーティションは学習側でfitされたスケーラの凍結済み統計量で変換され、
// 混同行列・正解率とその正確な二項信頼区間・クラスごとの指標を持つ
// Reportにまとめられます。評価は一度きりで、モデル選択には使いません。
package evaluate

import (
	"github.com/grainstat/graincv/core/model"
	"github.com/grainstat/graincv/dataset"
	"github.com/grainstat/graincv/metrics"
	"github.com/grainstat/graincv/pkg/errors"
	"github.com/grainstat/graincv/preprocessing"
	"github.com/grainstat/graincv/tune"
)

// DefaultConfidence は正解率の信頼区間の既定の信頼水準
const DefaultConfidence = 0.95

// ClassReport は1クラス分の評価指標
type ClassReport struct {
	Class       string
	Sensitivity float64
	Specificity float64
	Precision   float64
	NPV         float64
}

// Report はホールドアウト評価の結果
type Report struct {
	Family string
	Params string

	Confusion *metrics.ConfusionMatrix
	Accuracy  float64

	// 正解率のClopper-Pearson信頼区間
	Confidence float64
	CILower    float64
	CIUpper    float64

	PerClass []ClassReport
	NTest    int
}

// Evaluate はチューニング済みモデルを評価パーティションで採点する
func Evaluate(result *tune.Result, test *dataset.Table, confidence float64) (*Report, error) {
	report, err := EvaluateModel(result.Model, result.Scaler, test, confidence)
	if err != nil {
		return nil, err
	}
	report.Family = result.Family
	report.Params = result.BestParams.Key()
	return report, nil
}

// EvaluateModel は任意の学習済み分類器とスケーラの組を評価する
func EvaluateModel(clf model.Classifier, scaler preprocessing.Scaler, test *dataset.Table, confidence float64) (*Report, error) {
	if test.NumSamples() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "evaluate.EvaluateModel")
	}
	if confidence == 0 {
		confidence = DefaultConfidence
	}

	scaled, err := scaler.Transform(test.Features())
	if err != nil {
		return nil, errors.Wrap(err, "evaluate: transform test partition")
	}
	predictions, err := clf.Predict(scaled)
	if err != nil {
		return nil, errors.Wrap(err, "evaluate: predict test partition")
	}

	cm, err := metrics.NewConfusionMatrix(test.Labels(), predictions, test.ClassNames())
	if err != nil {
		return nil, err
	}

	lo, hi, err := metrics.ClopperPearson(cm.Correct(), cm.Total(), confidence)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Family:     clf.FamilyName(),
		Params:     clf.Params().Key(),
		Confusion:  cm,
		Accuracy:   cm.Accuracy(),
		Confidence: confidence,
		CILower:    lo,
		CIUpper:    hi,
		NTest:      cm.Total(),
	}
	for cls, name := range test.ClassNames() {
		report.PerClass = append(report.PerClass, ClassReport{
			Class:       name,
			Sensitivity: cm.Sensitivity(cls),
			Specificity: cm.Specificity(cls),
			Precision:   cm.Precision(cls),
			NPV:         cm.NPV(cls),
		})
	}
	return report, nil
}
