// Package preprocessing は学習用の特徴量変換を提供します。
//
// 変換統計（平均、標準偏差、最小・最大）は必ず学習側サブセットのみから
// 推定されます。変換結果は *Scaled 型でのみ表現され、Scaled はこの
// パッケージの学習済みスケーラーからしか生成できないため、未変換の
// 特徴量をモデルに渡す経路は型レベルで存在しません。
package preprocessing

import (
	"fmt"
	"math"

	"github.com/grainstat/graincv/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Scaled は学習済みスケーラーが生成した特徴量行列です。
// mat.Matrixを実装しますが、このパッケージ外では構築できません。
type Scaled struct {
	data *mat.Dense
}

func newScaled(data *mat.Dense) *Scaled {
	return &Scaled{data: data}
}

// Dims は行列の次元を返す
func (s *Scaled) Dims() (r, c int) { return s.data.Dims() }

// At は(i, j)要素を返す
func (s *Scaled) At(i, j int) float64 { return s.data.At(i, j) }

// T は転置行列を返す
func (s *Scaled) T() mat.Matrix { return s.data.T() }

// RawRow は i 行目をスライスとして返す（コピーなし）
func (s *Scaled) RawRow(i int) []float64 {
	return s.data.RawRowView(i)
}

// Scaler は学習側サブセットに束縛された特徴量変換です。
type Scaler interface {
	// Fit は訓練データから変換統計を計算する
	Fit(X mat.Matrix) error

	// Transform は学習済みの統計でデータを変換する
	Transform(X mat.Matrix) (*Scaled, error)

	// NumFeatures は学習時の特徴量数を返す
	NumFeatures() int
}

// NewScaler は名前からスケーラーを生成します。
// 認識する名前: "standardize"（中心化＋スケーリング）, "range"（[0,1]スケーリング）
func NewScaler(method string) (Scaler, error) {
	switch method {
	case "standardize", "":
		return NewStandardScaler(true, true), nil
	case "range":
		return NewRangeScaler([2]float64{0.0, 1.0}), nil
	default:
		return nil, errors.NewValidationError("preprocess", "unknown scaling method", method)
	}
}

// StandardScaler はデータを平均0、標準偏差1に変換する標準化スケーラー
type StandardScaler struct {
	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool

	fitted bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(XTrain)
//	XScaled, err := scaler.Transform(XTest)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// Fit は訓練データから統計情報（平均、標準偏差）を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "StandardScaler.Fit")
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	// 平均を計算
	if s.WithMean {
		for j := 0; j < c; j++ {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.Mean[j] = sum / float64(r)
		}
	}

	// 標準偏差を計算
	if s.WithStd {
		for j := 0; j < c; j++ {
			sumSquares := 0.0
			for i := 0; i < r; i++ {
				diff := X.At(i, j) - s.Mean[j]
				sumSquares += diff * diff
			}
			variance := sumSquares / float64(r)
			s.Scale[j] = math.Sqrt(variance)

			// 標準偏差が0に近い場合は1に設定（ゼロ除算を避ける）
			if math.Abs(s.Scale[j]) < 1e-8 {
				s.Scale[j] = 1.0
			}
		}
	} else {
		for j := 0; j < c; j++ {
			s.Scale[j] = 1.0
		}
	}

	s.fitted = true
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (*Scaled, error) {
	if !s.fitted {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}

	return newScaled(result), nil
}

// NumFeatures は学習時の特徴量数を返す
func (s *StandardScaler) NumFeatures() int { return s.NFeatures }

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.fitted {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}

// RangeScaler はデータを指定した範囲（デフォルト[0,1]）にスケーリングする
type RangeScaler struct {
	// DataMin は学習データの最小値
	DataMin []float64

	// DataMax は学習データの最大値
	DataMax []float64

	// Scale は各特徴量のスケール (max - min)
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64

	fitted bool
}

// NewRangeScaler は新しいRangeScalerを作成する
func NewRangeScaler(featureRange [2]float64) *RangeScaler {
	return &RangeScaler{
		FeatureRange: featureRange,
	}
}

// Fit は訓練データから最小値・最大値を計算する
func (m *RangeScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "RangeScaler.Fit")
	}

	m.NFeatures = c
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		minVal := X.At(0, j)
		maxVal := X.At(0, j)

		for i := 1; i < r; i++ {
			val := X.At(i, j)
			if val < minVal {
				minVal = val
			}
			if val > maxVal {
				maxVal = val
			}
		}

		m.DataMin[j] = minVal
		m.DataMax[j] = maxVal

		dataRange := maxVal - minVal
		if math.Abs(dataRange) < 1e-8 {
			// 定数特徴量の場合、スケールを1に設定
			m.Scale[j] = 1.0
		} else {
			m.Scale[j] = dataRange
		}
	}

	m.fitted = true
	return nil
}

// Transform は学習済みの統計情報を使ってデータをスケーリングする
func (m *RangeScaler) Transform(X mat.Matrix) (*Scaled, error) {
	if !m.fitted {
		return nil, errors.NewNotFittedError("RangeScaler", "Transform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("RangeScaler.Transform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	width := m.FeatureRange[1] - m.FeatureRange[0]
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			val := X.At(i, j)
			scaled := (val-m.DataMin[j])/m.Scale[j]*width + m.FeatureRange[0]
			result.Set(i, j, scaled)
		}
	}

	return newScaled(result), nil
}

// NumFeatures は学習時の特徴量数を返す
func (m *RangeScaler) NumFeatures() int { return m.NFeatures }

// String はスケーラーの文字列表現を返す
func (m *RangeScaler) String() string {
	if !m.fitted {
		return fmt.Sprintf("RangeScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	return fmt.Sprintf("RangeScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], m.NFeatures)
}
