// Package log defines standard attribute keys for pipeline operations.
//
// Using these keys consistently across stages enables filtering a run's logs
// by stage, model family or resampling coordinates. The keys follow a
// hierarchical naming convention (e.g., "cv.folds", "data.samples").

package log

// Pipeline and model context.
const (
	// StageKey identifies the pipeline stage emitting the record.
	// Standard values: "load", "partition", "screen", "tune", "compare", "evaluate"
	StageKey = "pipeline.stage"

	// FamilyKey identifies the model family being trained or evaluated.
	// Examples: "knn", "softmax"
	FamilyKey = "model.family"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "dataset", "screen", "tune"
	ComponentKey = "ml.component"
)

// Data shape and characteristics.
const (
	// SamplesKey indicates the number of samples (rows) being processed.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns).
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of label classes.
	ClassesKey = "data.classes"

	// TrainSizeKey and TestSizeKey record the partition sizes.
	TrainSizeKey = "data.train_size"
	TestSizeKey  = "data.test_size"
)

// Resampling coordinates and configuration.
const (
	// SeedKey records the random seed controlling a stochastic step.
	SeedKey = "cv.seed"

	// FoldsKey and RepeatsKey describe the resampling plan.
	FoldsKey   = "cv.folds"
	RepeatsKey = "cv.repeats"

	// RepeatKey and FoldKey locate a single resampling cell.
	RepeatKey = "cv.repeat"
	FoldKey   = "cv.fold"

	// CandidatesKey is the number of hyperparameter tuples in the grid.
	CandidatesKey = "cv.candidates"

	// WorkersKey is the bounded worker-pool size.
	WorkersKey = "cv.workers"
)

// Metrics.
const (
	// AccuracyKey is the primary classification metric.
	AccuracyKey = "metric.accuracy"

	// DurationMsKey records elapsed time for an operation in milliseconds.
	DurationMsKey = "duration_ms"
)
