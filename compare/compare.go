// Package compare collects the resampling distributions of tuned model
// families into one long-format table and summarizes them side by side.
//
// Families are only comparable when they were evaluated on the identical
// resampling plan. Combine verifies the plan fingerprints and refuses to mix
// results from different plans.
package compare

import (
	"math"
	"sort"

	"github.com/grainstat/graincv/pkg/errors"
	"github.com/grainstat/graincv/tune"
	"gonum.org/v1/gonum/stat"
)

// Observation is one resample accuracy of one family.
type Observation struct {
	Family   string
	Repeat   int
	Fold     int
	Accuracy float64
}

// Summary describes the accuracy distribution of one family.
type Summary struct {
	Family string
	N      int // resamples with a defined score
	Mean   float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Comparison holds the combined resampling results of several families.
type Comparison struct {
	Observations []Observation
	Summaries    []Summary
	Fingerprint  string
}

// Combine merges tuning results into a comparison.
//
// All results must share the same resampling plan fingerprint; otherwise a
// MismatchedResamplingPlanError identifying the offending pair is returned.
func Combine(results ...*tune.Result) (*Comparison, error) {
	if len(results) == 0 {
		return nil, errors.NewValueError("compare.Combine", "no results to combine")
	}

	first := results[0]
	for _, r := range results[1:] {
		if r.PlanFingerprint != first.PlanFingerprint {
			return nil, errors.NewMismatchedResamplingPlanError(
				first.Family, r.Family, first.PlanFingerprint, r.PlanFingerprint)
		}
	}

	c := &Comparison{Fingerprint: first.PlanFingerprint}
	for _, r := range results {
		for cell, accuracy := range r.Resamples {
			c.Observations = append(c.Observations, Observation{
				Family:   r.Family,
				Repeat:   cell / r.Folds,
				Fold:     cell % r.Folds,
				Accuracy: accuracy,
			})
		}
		c.Summaries = append(c.Summaries, summarize(r.Family, r.Resamples))
	}
	return c, nil
}

// Paired returns the per-resample accuracy differences familyA - familyB.
//
// Cells where either family has no defined score are skipped. The two
// families see the same fold of the same repeat in each pair, so the
// differences are paired observations.
func (c *Comparison) Paired(familyA, familyB string) ([]float64, error) {
	type cellKey struct{ repeat, fold int }

	a := make(map[cellKey]float64)
	b := make(map[cellKey]float64)
	for _, obs := range c.Observations {
		switch obs.Family {
		case familyA:
			a[cellKey{obs.Repeat, obs.Fold}] = obs.Accuracy
		case familyB:
			b[cellKey{obs.Repeat, obs.Fold}] = obs.Accuracy
		}
	}
	if len(a) == 0 {
		return nil, errors.NewValidationError("familyA", "no observations for family", familyA)
	}
	if len(b) == 0 {
		return nil, errors.NewValidationError("familyB", "no observations for family", familyB)
	}

	keys := make([]cellKey, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].repeat != keys[j].repeat {
			return keys[i].repeat < keys[j].repeat
		}
		return keys[i].fold < keys[j].fold
	})

	var diffs []float64
	for _, k := range keys {
		va, vb := a[k], b[k]
		if math.IsNaN(va) || math.IsNaN(vb) {
			continue
		}
		diffs = append(diffs, va-vb)
	}
	return diffs, nil
}

// MeanDiff returns the mean paired difference familyA - familyB.
func (c *Comparison) MeanDiff(familyA, familyB string) (float64, error) {
	diffs, err := c.Paired(familyA, familyB)
	if err != nil {
		return 0, err
	}
	if len(diffs) == 0 {
		return 0, errors.NewValueError("compare.MeanDiff", "no comparable resamples")
	}
	return stat.Mean(diffs, nil), nil
}

func summarize(family string, resamples []float64) Summary {
	defined := make([]float64, 0, len(resamples))
	for _, v := range resamples {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	s := Summary{Family: family, N: len(defined)}
	if len(defined) == 0 {
		s.Mean = math.NaN()
		s.Min, s.Q1, s.Median, s.Q3, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}

	sort.Float64s(defined)
	s.Mean = stat.Mean(defined, nil)
	s.Min = defined[0]
	s.Max = defined[len(defined)-1]
	s.Q1 = stat.Quantile(0.25, stat.Empirical, defined, nil)
	s.Median = stat.Quantile(0.5, stat.Empirical, defined, nil)
	s.Q3 = stat.Quantile(0.75, stat.Empirical, defined, nil)
	return s
}
