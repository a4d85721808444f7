// Package model defines the capability contract shared by all classifier
// families in the pipeline, together with the hyperparameter grid types the
// tuning engine searches over.
//
// Families form a closed, explicit variant set: each one registers a Family
// descriptor (constructor + grid builder) under its name, and the rest of the
// pipeline only ever talks to the Classifier interface. There is no free-form
// string-keyed option passing.
package model

import (
	"github.com/grainstat/graincv/preprocessing"
)

// Hyperparams is one candidate configuration for a model family.
//
// Implementations are small immutable value types. Complexity orders
// candidates for the selection tie-break: when two candidates have the same
// mean cross-validation score, the one with the smaller Complexity wins
// (smoother kNN, more regularized softmax), and grid order decides beyond
// that.
type Hyperparams interface {
	// Key returns a stable, human-readable identity such as "k=7" or
	// "lambda=0.1,lr=0.3". Used in logs, result tables and reports.
	Key() string

	// Complexity returns a family-specific effective-complexity score.
	// Larger means a more flexible model.
	Complexity() float64
}

// Classifier is the fixed capability contract every model family implements.
//
// Fit and Predict accept *preprocessing.Scaled rather than a raw matrix:
// scaled features can only be produced by a scaler fit on some training
// subset, so un-preprocessed data cannot reach a model by construction.
type Classifier interface {
	// Fit trains the classifier. y holds class indices in [0, nClasses).
	Fit(X *preprocessing.Scaled, y []int) error

	// Predict returns a class index for each row of X.
	Predict(X *preprocessing.Scaled) ([]int, error)

	// FamilyName identifies the family, e.g. "knn".
	FamilyName() string

	// Params returns the hyperparameters this classifier was built with.
	Params() Hyperparams
}

// Family describes one registered model family.
type Family struct {
	// Name identifies the family in configuration, logs and reports.
	Name string

	// Grid builds the candidate list for a given budget, the number of
	// values tried for the primary hyperparameter. Must be deterministic
	// and ordered.
	Grid func(budget int) []Hyperparams

	// New constructs an untrained classifier for one candidate. seed feeds
	// any internal randomness of the trainer so that refits reproduce.
	New func(p Hyperparams, seed uint64) Classifier
}
