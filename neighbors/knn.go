// Package neighbors はk近傍法による分類器を提供します。
//
// ユークリッド距離による多数決で、同数の場合はより小さいクラスインデックスを
// 選びます。学習は参照データの保持のみで、計算コストは予測側に寄ります。
package neighbors

import (
	"encoding/gob"
	"fmt"
	"sort"

	"github.com/grainstat/graincv/core/model"
	"github.com/grainstat/graincv/core/parallel"
	"github.com/grainstat/graincv/pkg/errors"
	"github.com/grainstat/graincv/preprocessing"
)

// FamilyName はモデルファミリの登録名
const FamilyName = "knn"

func init() {
	gob.Register(&KNNClassifier{})
	gob.Register(Params{})
	model.Register(model.Family{
		Name: FamilyName,
		Grid: Grid,
		New: func(p model.Hyperparams, _ uint64) model.Classifier {
			return New(p.(Params).K)
		},
	})
}

// Params はkNNのハイパーパラメータ（近傍数k）
type Params struct {
	K int
}

// Key はグリッド内でのパラメータの識別子を返す
func (p Params) Key() string { return fmt.Sprintf("k=%d", p.K) }

// Complexity は実効的なモデルの柔軟さを返す。kが大きいほど滑らかで単純。
func (p Params) Complexity() float64 { return 1.0 / float64(p.K) }

// Grid は奇数kの候補列を返す（k=1, 3, 5, ...）
//
// 奇数に限定するのは2クラスでの同数票を避けるため。多クラスでも同数は
// 起こり得るが、その場合の解決はPredict側で決定的に行う。
func Grid(budget int) []model.Hyperparams {
	grid := make([]model.Hyperparams, budget)
	for i := 0; i < budget; i++ {
		grid[i] = Params{K: 2*i + 1}
	}
	return grid
}

// KNNClassifier はユークリッド距離によるk近傍分類器
type KNNClassifier struct {
	model.BaseEstimator

	K int

	// 参照データ（学習時のコピー）
	RefX [][]float64
	RefY []int
}

// New は未学習のk近傍分類器を作成する
func New(k int) *KNNClassifier {
	return &KNNClassifier{K: k}
}

// FamilyName はファミリ名を返す
func (c *KNNClassifier) FamilyName() string { return FamilyName }

// Params はこの分類器のハイパーパラメータを返す
func (c *KNNClassifier) Params() model.Hyperparams { return Params{K: c.K} }

// Fit は参照データを保持する
//
// kが参照サンプル数を超える場合はValidationErrorを返します。
func (c *KNNClassifier) Fit(X *preprocessing.Scaled, y []int) error {
	rows, cols := X.Dims()
	if rows == 0 {
		return errors.Wrap(errors.ErrEmptyData, "KNNClassifier.Fit")
	}
	if len(y) != rows {
		return errors.NewDimensionError("KNNClassifier.Fit", rows, len(y), 0)
	}
	if c.K < 1 {
		return errors.NewValidationError("k", "must be at least 1", c.K)
	}
	if c.K > rows {
		return errors.NewValidationError("k", fmt.Sprintf("exceeds %d reference samples", rows), c.K)
	}

	nClasses := 0
	for _, label := range y {
		if label < 0 {
			return errors.NewValidationError("y", "negative class index", label)
		}
		if label+1 > nClasses {
			nClasses = label + 1
		}
	}

	c.RefX = make([][]float64, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		copy(row, X.RawRow(i))
		c.RefX[i] = row
	}
	c.RefY = make([]int, rows)
	copy(c.RefY, y)

	c.SetFitted(cols, nClasses)
	return nil
}

// Predict は各行に対して多数決でクラスを割り当てる
func (c *KNNClassifier) Predict(X *preprocessing.Scaled) ([]int, error) {
	if !c.IsFitted() {
		return nil, errors.NewNotFittedError("KNNClassifier", "Predict")
	}
	rows, cols := X.Dims()
	if cols != c.NumFeatures() {
		return nil, errors.NewDimensionError("KNNClassifier.Predict", c.NumFeatures(), cols, 1)
	}

	predictions := make([]int, rows)
	parallel.ParallelizeWithThreshold(rows, 32, func(start, end int) {
		for i := start; i < end; i++ {
			predictions[i] = c.predictRow(X.RawRow(i))
		}
	})
	return predictions, nil
}

type neighbor struct {
	dist  float64
	index int
}

func (c *KNNClassifier) predictRow(x []float64) int {
	neighbors := make([]neighbor, len(c.RefX))
	for i, ref := range c.RefX {
		var d float64
		for j, v := range x {
			diff := v - ref[j]
			d += diff * diff
		}
		neighbors[i] = neighbor{dist: d, index: i}
	}

	// 距離同点は参照インデックス順で安定させる
	sort.Slice(neighbors, func(a, b int) bool {
		if neighbors[a].dist != neighbors[b].dist {
			return neighbors[a].dist < neighbors[b].dist
		}
		return neighbors[a].index < neighbors[b].index
	})

	votes := make([]int, c.NumClasses())
	for _, nb := range neighbors[:c.K] {
		votes[c.RefY[nb.index]]++
	}

	best := 0
	for cls := 1; cls < len(votes); cls++ {
		if votes[cls] > votes[best] {
			best = cls
		}
	}
	return best
}
