package dataset

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/grainstat/graincv/pkg/errors"
)

// Split は学習/評価のホールドアウト分割（元のTableに対する行インデックス）
type Split struct {
	Train []int
	Test  []int
}

// StratifiedSplit はクラス比率を保ったホールドアウト分割を生成する
//
// クラスごとに round(fraction * count) 件を学習側に割り当てる（両側に最低1件は
// 残るようにクランプする）。同じシードは常に同じ分割を返す。
func StratifiedSplit(y []int, classes []string, fraction float64, seed uint64) (Split, error) {
	if fraction <= 0 || fraction >= 1 {
		return Split{}, errors.NewValidationError("fraction", "must be in (0, 1)", fraction)
	}
	if len(y) == 0 {
		return Split{}, errors.Wrap(errors.ErrEmptyData, "dataset.StratifiedSplit")
	}

	byClass := make([][]int, len(classes))
	for i, label := range y {
		if label < 0 || label >= len(classes) {
			return Split{}, errors.NewValidationError("y", "class index out of range", label)
		}
		byClass[label] = append(byClass[label], i)
	}

	rng := rand.New(rand.NewPCG(seed, seed))

	var split Split
	for cls, indices := range byClass {
		n := len(indices)
		if n < 2 {
			return Split{}, errors.NewPartitionError(classes[cls], n, 2, fraction)
		}

		rng.Shuffle(n, func(a, b int) {
			indices[a], indices[b] = indices[b], indices[a]
		})

		nTrain := int(math.Round(fraction * float64(n)))
		if nTrain < 1 {
			nTrain = 1
		}
		if nTrain > n-1 {
			nTrain = n - 1
		}

		split.Train = append(split.Train, indices[:nTrain]...)
		split.Test = append(split.Test, indices[nTrain:]...)
	}

	sort.Ints(split.Train)
	sort.Ints(split.Test)
	return split, nil
}

// StratifiedSplit はテーブルのラベルに基づくホールドアウト分割を返す
func (t *Table) StratifiedSplit(fraction float64, seed uint64) (Split, error) {
	return StratifiedSplit(t.y, t.schema.Classes, fraction, seed)
}
