// Package screen implements predictor quality screening: near-zero-variance
// detection and greedy elimination of highly correlated predictors.
//
// Screening statistics are computed on the training partition only. The
// resulting column selection is then applied unchanged to every other
// partition so that no information from held-out data leaks into the choice.
package screen

import (
	"math"
	"sort"

	"github.com/grainstat/graincv/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Default cutoffs follow the conventional 95/5 frequency ratio and 10%
// uniqueness thresholds for degenerate predictors, and 0.75 for pairwise
// correlation.
const (
	DefaultFreqCut    = 19.0
	DefaultUniqueCut  = 10.0
	DefaultCorrCutoff = 0.75
)

// Config controls the screening thresholds.
type Config struct {
	FreqCut    float64 // most-common / second-most-common frequency ratio cutoff
	UniqueCut  float64 // percent-unique cutoff (values below are suspect)
	CorrCutoff float64 // absolute pairwise correlation cutoff
}

// DefaultConfig returns the standard screening thresholds.
func DefaultConfig() Config {
	return Config{
		FreqCut:    DefaultFreqCut,
		UniqueCut:  DefaultUniqueCut,
		CorrCutoff: DefaultCorrCutoff,
	}
}

// PredictorStats holds the per-predictor screening diagnostics.
type PredictorStats struct {
	Name          string
	FreqRatio     float64
	PercentUnique float64
	ZeroVar       bool
	NearZeroVar   bool
}

// DropReason records why a predictor was eliminated.
type DropReason string

const (
	DroppedZeroVar     DropReason = "zero variance"
	DroppedNearZeroVar DropReason = "near-zero variance"
	DroppedCorrelated  DropReason = "high correlation"
)

// Drop identifies one eliminated predictor.
type Drop struct {
	Column int
	Name   string
	Reason DropReason
	// With names the partner predictor for correlation drops.
	With string
}

// Result is the outcome of a screening pass.
type Result struct {
	Stats   []PredictorStats
	Dropped []Drop
	Kept    []int // surviving column indices, ascending
}

// NearZeroVar computes the frequency-ratio and uniqueness diagnostics for
// every column of x.
//
// A predictor with a single distinct value has zero variance and a frequency
// ratio of 0. A predictor is near-zero-variance when its frequency ratio
// exceeds freqCut and its percent of unique values falls below uniqueCut,
// or when it has zero variance.
func NearZeroVar(x mat.Matrix, names []string, freqCut, uniqueCut float64) []PredictorStats {
	rows, cols := x.Dims()
	stats := make([]PredictorStats, cols)

	for j := 0; j < cols; j++ {
		counts := make(map[float64]int)
		for i := 0; i < rows; i++ {
			counts[x.At(i, j)]++
		}

		var first, second int
		for _, c := range counts {
			if c > first {
				first, second = c, first
			} else if c > second {
				second = c
			}
		}

		s := PredictorStats{
			Name:          names[j],
			PercentUnique: 100 * float64(len(counts)) / float64(rows),
		}
		if len(counts) <= 1 {
			s.ZeroVar = true
		} else {
			s.FreqRatio = float64(first) / float64(second)
		}
		s.NearZeroVar = s.ZeroVar || (s.FreqRatio > freqCut && s.PercentUnique < uniqueCut)
		stats[j] = s
	}
	return stats
}

// FindCorrelation greedily selects columns to remove so that no surviving
// pair has absolute correlation above cutoff.
//
// At each step the remaining pair with the highest absolute correlation above
// the cutoff is considered, and the member with the larger mean absolute
// correlation against all other survivors is removed. Ties go to the lower
// column index. Returned indices are ascending.
func FindCorrelation(corr *mat.SymDense, cutoff float64) []int {
	n := corr.SymmetricDim()
	alive := make([]bool, n)
	for i := range alive {
		alive[i] = true
	}

	var removed []int
	for {
		bestI, bestJ := -1, -1
		bestAbs := cutoff
		for i := 0; i < n; i++ {
			if !alive[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !alive[j] {
					continue
				}
				abs := math.Abs(corr.At(i, j))
				if abs > bestAbs {
					bestAbs = abs
					bestI, bestJ = i, j
				}
			}
		}
		if bestI < 0 {
			break
		}

		meanI := meanAbsCorr(corr, alive, bestI)
		meanJ := meanAbsCorr(corr, alive, bestJ)
		drop := bestI
		if meanJ > meanI {
			drop = bestJ
		}
		alive[drop] = false
		removed = append(removed, drop)
	}

	sort.Ints(removed)
	return removed
}

func meanAbsCorr(corr *mat.SymDense, alive []bool, col int) float64 {
	n := corr.SymmetricDim()
	var sum float64
	var count int
	for k := 0; k < n; k++ {
		if k == col || !alive[k] {
			continue
		}
		sum += math.Abs(corr.At(col, k))
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// Screen runs the full screening pass on a feature matrix.
//
// Zero and near-zero-variance predictors are dropped first, then high
// correlation is eliminated among the survivors. The correlation step needs
// at least two surviving predictors; with fewer it is skipped.
func Screen(x mat.Matrix, names []string, cfg Config) (*Result, error) {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "screen.Screen")
	}
	if len(names) != cols {
		return nil, errors.NewDimensionError("screen.Screen", cols, len(names), 1)
	}
	if cfg.CorrCutoff <= 0 || cfg.CorrCutoff >= 1 {
		return nil, errors.NewValidationError("CorrCutoff", "must be in (0, 1)", cfg.CorrCutoff)
	}

	result := &Result{
		Stats: NearZeroVar(x, names, cfg.FreqCut, cfg.UniqueCut),
	}

	var survivors []int
	for j, s := range result.Stats {
		if s.ZeroVar {
			result.Dropped = append(result.Dropped, Drop{Column: j, Name: s.Name, Reason: DroppedZeroVar})
			continue
		}
		if s.NearZeroVar {
			result.Dropped = append(result.Dropped, Drop{Column: j, Name: s.Name, Reason: DroppedNearZeroVar})
			continue
		}
		survivors = append(survivors, j)
	}
	if len(survivors) == 0 {
		return nil, errors.NewValidationError("x", "all predictors are near-zero-variance", cols)
	}

	if len(survivors) >= 2 {
		sub := mat.NewDense(rows, len(survivors), nil)
		for sj, j := range survivors {
			for i := 0; i < rows; i++ {
				sub.Set(i, sj, x.At(i, j))
			}
		}
		corr := mat.NewSymDense(len(survivors), nil)
		stat.CorrelationMatrix(corr, sub, nil)

		removed := FindCorrelation(corr, cfg.CorrCutoff)
		for _, sj := range removed {
			result.Dropped = append(result.Dropped, Drop{
				Column: survivors[sj],
				Name:   names[survivors[sj]],
				Reason: DroppedCorrelated,
				With:   strongestPartner(corr, sj, names, survivors),
			})
		}
		for _, sj := range removed {
			survivors[sj] = -1
		}
	}

	for _, j := range survivors {
		if j >= 0 {
			result.Kept = append(result.Kept, j)
		}
	}
	if len(result.Kept) == 0 {
		return nil, errors.NewValidationError("x", "correlation elimination removed every predictor", cols)
	}
	sort.Ints(result.Kept)
	return result, nil
}

func strongestPartner(corr *mat.SymDense, col int, names []string, survivors []int) string {
	best := -1
	bestAbs := 0.0
	for k := 0; k < corr.SymmetricDim(); k++ {
		if k == col {
			continue
		}
		if abs := math.Abs(corr.At(col, k)); abs > bestAbs {
			bestAbs = abs
			best = k
		}
	}
	if best < 0 {
		return ""
	}
	return names[survivors[best]]
}
