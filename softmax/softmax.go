// Package softmax はL2正則化付き多項ロジスティック回帰（ソフトマックス回帰）を
// 提供します。
//
// 学習はバッチ勾配降下法で、初期重みはシード付き乱数から生成されるため
// 同じシードでの再学習は同じモデルを再現します。最大反復数までに収束条件を
// 満たさない場合はConvergenceWarningを発行しますが、学習自体は失敗しません。
package softmax

import (
	"encoding/gob"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/grainstat/graincv/core/model"
	"github.com/grainstat/graincv/pkg/errors"
	"github.com/grainstat/graincv/preprocessing"
	"gonum.org/v1/gonum/mat"
)

// FamilyName はモデルファミリの登録名
const FamilyName = "softmax"

const (
	// DefaultMaxIter は勾配降下の最大反復数
	DefaultMaxIter = 500
	// DefaultTol は収束判定の損失変化量
	DefaultTol = 1e-6
)

// 学習率の候補は固定で最大6個まで
var learningRates = []float64{0.01, 0.05, 0.1, 0.5}

func init() {
	gob.Register(&Classifier{})
	gob.Register(Params{})
	model.Register(model.Family{
		Name: FamilyName,
		Grid: Grid,
		New: func(p model.Hyperparams, seed uint64) model.Classifier {
			params := p.(Params)
			return New(params.Lambda, params.LR, seed)
		},
	})
}

// Params はソフトマックス回帰のハイパーパラメータ
type Params struct {
	Lambda float64 // L2正則化の強さ
	LR     float64 // 勾配降下の学習率
}

// Key はグリッド内でのパラメータの識別子を返す
func (p Params) Key() string { return fmt.Sprintf("lambda=%g,lr=%g", p.Lambda, p.LR) }

// Complexity は実効的なモデルの柔軟さを返す。正則化が強いほど単純。
func (p Params) Complexity() float64 { return 1.0 / (1.0 + p.Lambda) }

// Grid はlambdaを対数スケールでbudget個、学習率候補との直積で返す
//
// lambdaは[1e-4, 10]を対数等分する。順序はlambda昇順、同一lambda内は
// 学習率昇順で固定される。
func Grid(budget int) []model.Hyperparams {
	lambdas := make([]float64, budget)
	if budget == 1 {
		lambdas[0] = 1e-2
	} else {
		lo, hi := -4.0, 1.0
		step := (hi - lo) / float64(budget-1)
		for i := range lambdas {
			lambdas[i] = math.Pow(10, lo+float64(i)*step)
		}
	}

	grid := make([]model.Hyperparams, 0, budget*len(learningRates))
	for _, lambda := range lambdas {
		for _, lr := range learningRates {
			grid = append(grid, Params{Lambda: lambda, LR: lr})
		}
	}
	return grid
}

// Classifier はソフトマックス回帰分類器
type Classifier struct {
	model.BaseEstimator

	Lambda  float64
	LR      float64
	MaxIter int
	Tol     float64
	Seed    uint64

	// Weights は (特徴量数+1) x クラス数 の行優先。最終行がバイアス。
	Weights []float64
}

// New は未学習のソフトマックス分類器を作成する
func New(lambda, lr float64, seed uint64) *Classifier {
	return &Classifier{
		Lambda:  lambda,
		LR:      lr,
		MaxIter: DefaultMaxIter,
		Tol:     DefaultTol,
		Seed:    seed,
	}
}

// FamilyName はファミリ名を返す
func (c *Classifier) FamilyName() string { return FamilyName }

// Params はこの分類器のハイパーパラメータを返す
func (c *Classifier) Params() model.Hyperparams {
	return Params{Lambda: c.Lambda, LR: c.LR}
}

// Fit はバッチ勾配降下で重みを学習する
//
// 損失は平均交差エントロピー + L2罰則（バイアス行は正則化しない）。
// 損失がNaN/Infになった場合はNumericalInstabilityErrorを返します。
func (c *Classifier) Fit(X *preprocessing.Scaled, y []int) error {
	rows, cols := X.Dims()
	if rows == 0 {
		return errors.Wrap(errors.ErrEmptyData, "softmax.Fit")
	}
	if len(y) != rows {
		return errors.NewDimensionError("softmax.Fit", rows, len(y), 0)
	}
	if c.Lambda < 0 {
		return errors.NewValidationError("lambda", "must be non-negative", c.Lambda)
	}
	if c.LR <= 0 {
		return errors.NewValidationError("lr", "must be positive", c.LR)
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
	if nClasses < 2 {
		return errors.NewValidationError("y", "need at least 2 classes", nClasses)
	}

	d := cols + 1 // バイアス行込み
	w := make([]float64, d*nClasses)
	rng := rand.New(rand.NewPCG(c.Seed, 0))
	for i := range w {
		w[i] = rng.NormFloat64() * 0.01
	}

	probs := make([]float64, rows*nClasses)
	grad := make([]float64, d*nClasses)

	prevLoss := math.Inf(1)
	converged := false
	for iter := 0; iter < c.MaxIter; iter++ {
		loss := c.forward(X, y, w, probs, nClasses)
		if err := errors.CheckScalar("softmax.Fit", loss, iter); err != nil {
			return err
		}

		if math.Abs(prevLoss-loss) < c.Tol {
			converged = true
			break
		}
		prevLoss = loss

		// grad = X^T (P - Y) / n + lambda * W
		for i := range grad {
			grad[i] = 0
		}
		for i := 0; i < rows; i++ {
			row := X.RawRow(i)
			for k := 0; k < nClasses; k++ {
				residual := probs[i*nClasses+k]
				if y[i] == k {
					residual -= 1
				}
				for j := 0; j < cols; j++ {
					grad[j*nClasses+k] += row[j] * residual
				}
				grad[cols*nClasses+k] += residual
			}
		}
		scale := 1.0 / float64(rows)
		for j := 0; j < cols; j++ {
			for k := 0; k < nClasses; k++ {
				idx := j*nClasses + k
				grad[idx] = grad[idx]*scale + c.Lambda*w[idx]
			}
		}
		for k := 0; k < nClasses; k++ {
			idx := cols*nClasses + k
			grad[idx] *= scale
		}

		for i := range w {
			w[i] -= c.LR * grad[i]
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("softmax", c.MaxIter,
			fmt.Sprintf("loss change above tolerance %g after %d iterations", c.Tol, c.MaxIter)))
	}

	c.Weights = w
	c.SetFitted(cols, nClasses)
	return nil
}

// forward はlogitsとソフトマックス確率を計算し、正則化込みの損失を返す
func (c *Classifier) forward(X *preprocessing.Scaled, y []int, w, probs []float64, nClasses int) float64 {
	rows, cols := X.Dims()

	var nll float64
	logits := make([]float64, nClasses)
	for i := 0; i < rows; i++ {
		row := X.RawRow(i)
		for k := 0; k < nClasses; k++ {
			z := w[cols*nClasses+k]
			for j := 0; j < cols; j++ {
				z += row[j] * w[j*nClasses+k]
			}
			logits[k] = z
		}

		lse := errors.LogSumExp(logits)
		nll += lse - logits[y[i]]
		for k := 0; k < nClasses; k++ {
			probs[i*nClasses+k] = errors.StabilizeExp(logits[k] - lse)
		}
	}

	var penalty float64
	for j := 0; j < cols; j++ {
		for k := 0; k < nClasses; k++ {
			v := w[j*nClasses+k]
			penalty += v * v
		}
	}
	return nll/float64(rows) + 0.5*c.Lambda*penalty
}

// Predict は各行に対して最大logitのクラスを返す
func (c *Classifier) Predict(X *preprocessing.Scaled) ([]int, error) {
	scores, err := c.decision(X)
	if err != nil {
		return nil, err
	}
	rows, _ := X.Dims()
	nClasses := c.NumClasses()

	predictions := make([]int, rows)
	for i := 0; i < rows; i++ {
		best := 0
		for k := 1; k < nClasses; k++ {
			if scores[i*nClasses+k] > scores[i*nClasses+best] {
				best = k
			}
		}
		predictions[i] = best
	}
	return predictions, nil
}

// PredictProba は各行のクラス所属確率を返す
func (c *Classifier) PredictProba(X *preprocessing.Scaled) (*mat.Dense, error) {
	scores, err := c.decision(X)
	if err != nil {
		return nil, err
	}
	rows, _ := X.Dims()
	nClasses := c.NumClasses()

	out := mat.NewDense(rows, nClasses, nil)
	logits := make([]float64, nClasses)
	for i := 0; i < rows; i++ {
		copy(logits, scores[i*nClasses:(i+1)*nClasses])
		lse := errors.LogSumExp(logits)
		for k := 0; k < nClasses; k++ {
			out.Set(i, k, errors.StabilizeExp(logits[k]-lse))
		}
	}
	return out, nil
}

func (c *Classifier) decision(X *preprocessing.Scaled) ([]float64, error) {
	if !c.IsFitted() {
		return nil, errors.NewNotFittedError("softmax.Classifier", "Predict")
	}
	rows, cols := X.Dims()
	if cols != c.NumFeatures() {
		return nil, errors.NewDimensionError("softmax.Predict", c.NumFeatures(), cols, 1)
	}
	nClasses := c.NumClasses()

	scores := make([]float64, rows*nClasses)
	for i := 0; i < rows; i++ {
		row := X.RawRow(i)
		for k := 0; k < nClasses; k++ {
			z := c.Weights[cols*nClasses+k]
			for j := 0; j < cols; j++ {
				z += row[j] * c.Weights[j*nClasses+k]
			}
			scores[i*nClasses+k] = z
		}
	}
	return scores, nil
}
