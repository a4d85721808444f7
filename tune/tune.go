// Package tune は繰り返し層化k-fold CVによるハイパーパラメータ探索エンジンです。
//
// 1つのモデルファミリについて、共有されたリサンプリング計画の各セル
// （repeat × fold）で全候補パラメータを評価し、平均正解率が最大の候補を選んで
// 学習パーティション全体で再学習します。各セルではスケーラをfold学習側のみで
// 学習するため、検証側の情報は候補選択に漏れません。
package tune

import (
	"context"
	"math"
	"runtime"
	"time"

	"github.com/grainstat/graincv/core/model"
	"github.com/grainstat/graincv/dataset"
	"github.com/grainstat/graincv/metrics"
	"github.com/grainstat/graincv/pkg/errors"
	"github.com/grainstat/graincv/pkg/log"
	"github.com/grainstat/graincv/preprocessing"
	"golang.org/x/sync/errgroup"
)

// Config はチューニングエンジンの設定
type Config struct {
	// Budget は主ハイパーパラメータの試行数（グリッド生成に渡す）
	Budget int

	// Workers は並列に走るfoldタスクの最大数。0ならruntime.NumCPU()。
	Workers int

	// Seed は乱数の基点。fold内の学習シードはここから導出される。
	Seed uint64

	// ScalingMethod は各foldで使うスケーラ（"standardize" または "range"）
	ScalingMethod string

	Logger log.Logger
}

func (c *Config) setDefaults() {
	if c.Budget <= 0 {
		c.Budget = 10
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.ScalingMethod == "" {
		c.ScalingMethod = "standardize"
	}
	if c.Logger == nil {
		c.Logger = log.GetLogger()
	}
}

// CandidateScore は1候補のCV集計結果
type CandidateScore struct {
	Params model.Hyperparams
	// Mean はNaNセルを除いた平均正解率。全セルがNaNならNaN。
	Mean float64
	// Cells は repeat*folds 個のセルごとの正解率（失敗したfitはNaN）
	Cells []float64
}

// Result は1ファミリのチューニング結果
type Result struct {
	Family     string
	BestParams model.Hyperparams

	// Model は学習パーティション全体で再学習済みの分類器
	Model model.Classifier

	// Scaler は学習パーティション全体でfit済みのスケーラ。評価側の
	// 変換はこの凍結された統計量で行う。
	Scaler preprocessing.Scaler

	// Resamples は選ばれた候補のセルごとの正解率（repeat優先順）
	Resamples []float64

	Candidates []CandidateScore

	// Folds / Repeats はResamplesのセル順（repeat優先）の復元に使う
	Folds   int
	Repeats int

	// PlanFingerprint は使用したリサンプリング計画の識別子。
	// ファミリ間比較の前に一致を検証する。
	PlanFingerprint string
}

// Run は1ファミリのグリッド探索と再学習を実行する
//
// いずれかのセルで全候補のfitが失敗するとFittingFailureErrorを返し、
// 探索全体を中断します。ctxのキャンセルも即座に探索を中断します。
func Run(ctx context.Context, familyName string, train *dataset.Table, plan *dataset.Plan, cfg Config) (*Result, error) {
	cfg.setDefaults()

	family, err := model.Lookup(familyName)
	if err != nil {
		return nil, err
	}
	if plan.NumSamples() != train.NumSamples() {
		return nil, errors.NewDimensionError("tune.Run", plan.NumSamples(), train.NumSamples(), 0)
	}

	grid := family.Grid(cfg.Budget)
	if len(grid) == 0 {
		return nil, errors.NewValidationError("budget", "grid is empty", cfg.Budget)
	}

	logger := cfg.Logger.With(
		log.StageKey, "tune",
		log.FamilyKey, family.Name,
	)
	logger.Info("grid search started",
		log.FoldsKey, plan.Folds,
		log.RepeatsKey, plan.Repeats,
		log.CandidatesKey, len(grid),
		log.WorkersKey, cfg.Workers,
		log.SeedKey, cfg.Seed,
	)
	started := time.Now()

	nCells := plan.Repeats * plan.Folds

	// cells[candidate][cell]: 各タスクは自分のセル列のみ書き込む
	cells := make([][]float64, len(grid))
	for i := range cells {
		cells[i] = make([]float64, nCells)
		for j := range cells[i] {
			cells[i][j] = math.NaN()
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for r := 0; r < plan.Repeats; r++ {
		for f := 0; f < plan.Folds; f++ {
			r, f := r, f
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return errors.Wrap(errors.ErrCancelled, "tune.Run")
				}
				return runCell(gctx, family, grid, train, plan.Assignments[r][f], cells, r, f, plan.Folds, cfg)
			})
		}
	}
	if err := g.Wait(); err != nil {
		logger.Error("grid search aborted", err)
		return nil, err
	}

	candidates := make([]CandidateScore, len(grid))
	for i, params := range grid {
		candidates[i] = CandidateScore{
			Params: params,
			Mean:   nanMean(cells[i]),
			Cells:  cells[i],
		}
	}

	best := selectBest(candidates)
	if best < 0 {
		// runCellがセル単位で全滅を検出するので通常は到達しない
		return nil, errors.NewFittingFailureError(family.Name, -1, -1, len(grid))
	}

	// 選ばれた候補を学習パーティション全体で再学習
	scaler, err := preprocessing.NewScaler(cfg.ScalingMethod)
	if err != nil {
		return nil, err
	}
	if err := scaler.Fit(train.Features()); err != nil {
		return nil, err
	}
	scaled, err := scaler.Transform(train.Features())
	if err != nil {
		return nil, err
	}
	clf := family.New(candidates[best].Params, cfg.Seed)
	if err := clf.Fit(scaled, train.Labels()); err != nil {
		return nil, errors.Wrapf(err, "tune.Run: refit %s", candidates[best].Params.Key())
	}

	logger.Info("grid search complete",
		"best_params", candidates[best].Params.Key(),
		log.AccuracyKey, candidates[best].Mean,
		log.DurationMsKey, time.Since(started).Milliseconds(),
	)

	return &Result{
		Family:          family.Name,
		BestParams:      candidates[best].Params,
		Model:           clf,
		Scaler:          scaler,
		Resamples:       candidates[best].Cells,
		Candidates:      candidates,
		Folds:           plan.Folds,
		Repeats:         plan.Repeats,
		PlanFingerprint: plan.Fingerprint(),
	}, nil
}

// runCell は1つのrepeat×foldセルで全候補を評価する
func runCell(ctx context.Context, family model.Family, grid []model.Hyperparams, train *dataset.Table, fold dataset.Fold, cells [][]float64, repeat, foldIdx, folds int, cfg Config) error {
	foldTrain := train.Subset(fold.Train)
	foldVal := train.Subset(fold.Val)

	scaler, err := preprocessing.NewScaler(cfg.ScalingMethod)
	if err != nil {
		return err
	}
	if err := scaler.Fit(foldTrain.Features()); err != nil {
		return errors.Wrapf(err, "tune: fold %d/%d scaler", repeat, foldIdx)
	}
	scaledTrain, err := scaler.Transform(foldTrain.Features())
	if err != nil {
		return err
	}
	scaledVal, err := scaler.Transform(foldVal.Features())
	if err != nil {
		return err
	}

	cell := repeat*folds + foldIdx
	fitSeed := cfg.Seed + uint64(cell) + 1

	anySucceeded := false
	for c, params := range grid {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCancelled, "tune.runCell")
		}

		clf := family.New(params, fitSeed)
		fitErr := errors.SafeExecute("tune.fit", func() error {
			return clf.Fit(scaledTrain, foldTrain.Labels())
		})
		if fitErr != nil {
			cfg.Logger.Debug("candidate fit failed",
				log.FamilyKey, family.Name,
				log.RepeatKey, repeat,
				log.FoldKey, foldIdx,
				"params", params.Key(),
				"error", fitErr.Error(),
			)
			continue
		}

		predictions, err := clf.Predict(scaledVal)
		if err != nil {
			continue
		}
		accuracy, err := metrics.Accuracy(foldVal.Labels(), predictions)
		if err != nil {
			continue
		}
		cells[c][cell] = accuracy
		anySucceeded = true
	}

	if !anySucceeded {
		return errors.NewFittingFailureError(family.Name, repeat, foldIdx, len(grid))
	}
	return nil
}

// selectBest は平均正解率が最大の候補を返す
//
// 同点は小さいComplexity（より単純なモデル）を優先し、それも同じなら
// グリッド順で先の候補を選ぶ。全候補がNaNなら-1。
func selectBest(candidates []CandidateScore) int {
	best := -1
	for i, c := range candidates {
		if math.IsNaN(c.Mean) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		switch {
		case c.Mean > candidates[best].Mean:
			best = i
		case c.Mean == candidates[best].Mean &&
			c.Params.Complexity() < candidates[best].Params.Complexity():
			best = i
		}
	}
	return best
}

func nanMean(values []float64) float64 {
	var sum float64
	var count int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}
