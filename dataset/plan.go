package dataset

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/grainstat/graincv/pkg/errors"
)

// Fold は1つのCV foldの学習側と検証側（学習パーティション内の行インデックス）
type Fold struct {
	Train []int
	Val   []int
}

// Plan は繰り返し層化k-fold CVの全fold割り当て
//
// 同一シードから生成したPlanは完全に同一であり、複数のモデル系列が同じ
// リサンプルで評価されることをFingerprintで検証できる。
type Plan struct {
	Folds   int
	Repeats int
	Seed    uint64

	// Assignments[repeat][fold]
	Assignments [][]Fold

	nSamples int
}

// NewPlan は繰り返し層化k-fold計画を生成する
//
// 各repeatはシードから導出した独立の乱数列でクラス内シャッフルを行い、
// クラスごとにサンプルをfoldへ巡回配分する。いずれかのクラスのサンプル数が
// fold数を下回る場合はPartitionErrorを返す。
func NewPlan(y []int, classes []string, folds, repeats int, seed uint64) (*Plan, error) {
	if folds < 2 {
		return nil, errors.NewValidationError("folds", "must be at least 2", folds)
	}
	if repeats < 1 {
		return nil, errors.NewValidationError("repeats", "must be at least 1", repeats)
	}
	if len(y) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "dataset.NewPlan")
	}

	byClass := make([][]int, len(classes))
	for i, label := range y {
		if label < 0 || label >= len(classes) {
			return nil, errors.NewValidationError("y", "class index out of range", label)
		}
		byClass[label] = append(byClass[label], i)
	}
	for cls, indices := range byClass {
		if len(indices) < folds {
			return nil, errors.NewPartitionError(classes[cls], len(indices), folds, 0)
		}
	}

	plan := &Plan{
		Folds:       folds,
		Repeats:     repeats,
		Seed:        seed,
		Assignments: make([][]Fold, repeats),
		nSamples:    len(y),
	}

	for r := 0; r < repeats; r++ {
		rng := rand.New(rand.NewPCG(seed, uint64(r)))

		// foldAssign[i] = サンプルiの所属fold
		foldAssign := make([]int, len(y))
		for _, indices := range byClass {
			shuffled := make([]int, len(indices))
			copy(shuffled, indices)
			rng.Shuffle(len(shuffled), func(a, b int) {
				shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
			})
			for pos, idx := range shuffled {
				foldAssign[idx] = pos % folds
			}
		}

		repeatFolds := make([]Fold, folds)
		for f := 0; f < folds; f++ {
			var fold Fold
			for i, assigned := range foldAssign {
				if assigned == f {
					fold.Val = append(fold.Val, i)
				} else {
					fold.Train = append(fold.Train, i)
				}
			}
			sort.Ints(fold.Train)
			sort.Ints(fold.Val)
			repeatFolds[f] = fold
		}
		plan.Assignments[r] = repeatFolds
	}

	return plan, nil
}

// Fingerprint は計画の構成を一意に識別する文字列を返す
//
// fold数・repeat数・シード・サンプル数のいずれかが異なれば一致しない。
func (p *Plan) Fingerprint() string {
	return fmt.Sprintf("%dx%d/s%d/n%d", p.Folds, p.Repeats, p.Seed, p.nSamples)
}

// NumSamples は計画対象のサンプル数を返す
func (p *Plan) NumSamples() int { return p.nSamples }
