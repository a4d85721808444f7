// Package pipeline orchestrates the full tuning workflow: load, stratified
// holdout, predictor screening, per-family grid search over a shared
// resampling plan, family comparison, and a single test-set evaluation of
// the winner.
//
// Every random decision derives from one base seed, so a run is fully
// reproducible from its manifest.
package pipeline

import (
	"context"
	"runtime"
	"time"

	"github.com/grainstat/graincv/compare"
	"github.com/grainstat/graincv/dataset"
	"github.com/grainstat/graincv/evaluate"
	"github.com/grainstat/graincv/pkg/errors"
	"github.com/grainstat/graincv/pkg/log"
	"github.com/grainstat/graincv/screen"
	"github.com/grainstat/graincv/tune"
)

// Config collects every knob of a pipeline run.
type Config struct {
	// SplitFraction is the train share of the stratified holdout.
	SplitFraction float64

	// Seed drives the holdout, the resampling plan and every model fit.
	Seed uint64

	Folds   int
	Repeats int

	// GridBudget is the number of values tried for each family's primary
	// hyperparameter.
	GridBudget int

	// Families are tuned in order; the order also breaks winner ties.
	Families []string

	Screen        screen.Config
	Workers       int
	ScalingMethod string

	// Confidence level for the test accuracy interval.
	Confidence float64

	Logger log.Logger
}

// DefaultConfig returns the standard pipeline configuration.
func DefaultConfig() Config {
	return Config{
		SplitFraction: 0.7,
		Seed:          42,
		Folds:         5,
		Repeats:       5,
		GridBudget:    10,
		Families:      []string{"knn", "softmax"},
		Screen:        screen.DefaultConfig(),
		ScalingMethod: "standardize",
		Confidence:    evaluate.DefaultConfidence,
	}
}

// SkippedFamily records a family whose tuning was abandoned.
type SkippedFamily struct {
	Family string
	Reason string
}

// Manifest captures everything needed to reproduce a run.
type Manifest struct {
	Seed            uint64
	SplitFraction   float64
	Folds           int
	Repeats         int
	GridBudget      int
	Workers         int
	ScalingMethod   string
	Families        []string
	PlanFingerprint string
	TrainSize       int
	TestSize        int
	KeptFeatures    []string
}

// Result is the outcome of a full pipeline run.
type Result struct {
	Screening  *screen.Result
	Tuned      []*tune.Result
	Skipped    []SkippedFamily
	Comparison *compare.Comparison
	Winner     *tune.Result
	Evaluation *evaluate.Report
	Manifest   Manifest
}

// RunFile loads a CSV table and runs the pipeline on it.
func RunFile(ctx context.Context, path string, schema dataset.Schema, cfg Config) (*Result, error) {
	table, err := dataset.Load(path, schema)
	if err != nil {
		return nil, err
	}
	return Run(ctx, table, cfg)
}

// Run executes the pipeline on an in-memory table.
//
// A family that fails with FittingFailureError is skipped and the run
// continues with the remaining families; any other error aborts the run.
// At least one family must tune successfully.
func Run(ctx context.Context, table *dataset.Table, cfg Config) (*Result, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.GetLogger()
	}
	if len(cfg.Families) == 0 {
		return nil, errors.NewValidationError("families", "at least one model family required", cfg.Families)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	logger := cfg.Logger
	started := time.Now()

	logger.Info("pipeline started",
		log.StageKey, "load",
		log.SamplesKey, table.NumSamples(),
		log.FeaturesKey, table.NumFeatures(),
		log.ClassesKey, table.NumClasses(),
		log.SeedKey, cfg.Seed,
	)

	// 学習/評価のホールドアウト分割
	split, err := table.StratifiedSplit(cfg.SplitFraction, cfg.Seed)
	if err != nil {
		return nil, err
	}
	train := table.Subset(split.Train)
	test := table.Subset(split.Test)
	logger.Info("holdout split",
		log.StageKey, "partition",
		log.TrainSizeKey, train.NumSamples(),
		log.TestSizeKey, test.NumSamples(),
	)

	// スクリーニングは学習側の統計量のみで決める
	screening, err := screen.Screen(train.Features(), train.FeatureNames(), cfg.Screen)
	if err != nil {
		return nil, err
	}
	for _, d := range screening.Dropped {
		logger.Info("predictor dropped",
			log.StageKey, "screen",
			"predictor", d.Name,
			"reason", string(d.Reason),
		)
	}
	train, err = train.SelectFeatures(screening.Kept)
	if err != nil {
		return nil, err
	}
	test, err = test.SelectFeatures(screening.Kept)
	if err != nil {
		return nil, err
	}
	logger.Info("screening complete",
		log.StageKey, "screen",
		log.FeaturesKey, train.NumFeatures(),
	)

	// 全ファミリが共有するリサンプリング計画
	plan, err := dataset.NewPlan(train.Labels(), train.ClassNames(), cfg.Folds, cfg.Repeats, cfg.Seed)
	if err != nil {
		return nil, err
	}

	result := &Result{Screening: screening}
	tuneCfg := tune.Config{
		Budget:        cfg.GridBudget,
		Workers:       cfg.Workers,
		Seed:          cfg.Seed,
		ScalingMethod: cfg.ScalingMethod,
		Logger:        logger,
	}
	for _, family := range cfg.Families {
		tuned, err := tune.Run(ctx, family, train, plan, tuneCfg)
		if err != nil {
			var ffe *errors.FittingFailureError
			if errors.As(err, &ffe) {
				logger.Warn("family skipped",
					log.StageKey, "tune",
					log.FamilyKey, family,
					"reason", err.Error(),
				)
				result.Skipped = append(result.Skipped, SkippedFamily{Family: family, Reason: err.Error()})
				continue
			}
			return nil, err
		}
		result.Tuned = append(result.Tuned, tuned)
	}
	if len(result.Tuned) == 0 {
		return nil, errors.Newf("graincv: no model family tuned successfully (%d skipped)", len(result.Skipped))
	}

	result.Comparison, err = compare.Combine(result.Tuned...)
	if err != nil {
		return nil, err
	}

	result.Winner = pickWinner(result.Tuned, result.Comparison)
	logger.Info("winner selected",
		log.StageKey, "compare",
		log.FamilyKey, result.Winner.Family,
		"best_params", result.Winner.BestParams.Key(),
	)

	// 評価は勝者に対して一度だけ
	result.Evaluation, err = evaluate.Evaluate(result.Winner, test, cfg.Confidence)
	if err != nil {
		return nil, err
	}
	logger.Info("pipeline complete",
		log.StageKey, "evaluate",
		log.FamilyKey, result.Winner.Family,
		log.AccuracyKey, result.Evaluation.Accuracy,
		log.DurationMsKey, time.Since(started).Milliseconds(),
	)

	result.Manifest = Manifest{
		Seed:            cfg.Seed,
		SplitFraction:   cfg.SplitFraction,
		Folds:           cfg.Folds,
		Repeats:         cfg.Repeats,
		GridBudget:      cfg.GridBudget,
		Workers:         tuneCfg.Workers,
		ScalingMethod:   cfg.ScalingMethod,
		Families:        cfg.Families,
		PlanFingerprint: plan.Fingerprint(),
		TrainSize:       train.NumSamples(),
		TestSize:        test.NumSamples(),
		KeptFeatures:    train.FeatureNames(),
	}
	return result, nil
}

// pickWinner returns the tuned family with the highest mean resample
// accuracy. Ties keep the earlier family in configuration order.
func pickWinner(tuned []*tune.Result, c *compare.Comparison) *tune.Result {
	means := make(map[string]float64, len(c.Summaries))
	for _, s := range c.Summaries {
		means[s.Family] = s.Mean
	}
	best := tuned[0]
	for _, r := range tuned[1:] {
		if means[r.Family] > means[best.Family] {
			best = r
		}
	}
	return best
}
