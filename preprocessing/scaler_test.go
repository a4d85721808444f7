package preprocessing

import (
	"math"
	"testing"

	"github.com/grainstat/graincv/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func TestStandardScalerFitTransform(t *testing.T) {
	// 2特徴量、既知の平均・分散
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})

	scaler := NewStandardScaler(true, true)
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	wantMean := []float64{2.5, 25}
	for j, m := range wantMean {
		if math.Abs(scaler.Mean[j]-m) > 1e-12 {
			t.Errorf("Mean[%d] = %v, want %v", j, scaler.Mean[j], m)
		}
	}

	scaled, err := scaler.Transform(X)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	// 変換後は各列の平均0、標準偏差1
	r, c := scaled.Dims()
	for j := 0; j < c; j++ {
		sum, sumSq := 0.0, 0.0
		for i := 0; i < r; i++ {
			v := scaled.At(i, j)
			sum += v
			sumSq += v * v
		}
		mean := sum / float64(r)
		variance := sumSq/float64(r) - mean*mean
		if math.Abs(mean) > 1e-12 {
			t.Errorf("column %d: mean = %v, want 0", j, mean)
		}
		if math.Abs(variance-1) > 1e-9 {
			t.Errorf("column %d: variance = %v, want 1", j, variance)
		}
	}
}

func TestStandardScalerFrozenStatistics(t *testing.T) {
	train := mat.NewDense(3, 1, []float64{0, 1, 2})
	other := mat.NewDense(2, 1, []float64{10, 20})

	scaler := NewStandardScaler(true, true)
	if err := scaler.Fit(train); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	// 変換は訓練側の統計のみを使う（テスト側で再推定しない）
	scaled, err := scaler.Transform(other)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	sd := math.Sqrt(2.0 / 3.0)
	want := []float64{(10 - 1) / sd, (20 - 1) / sd}
	for i, w := range want {
		if math.Abs(scaled.At(i, 0)-w) > 1e-9 {
			t.Errorf("scaled[%d] = %v, want %v", i, scaled.At(i, 0), w)
		}
	}
}

func TestStandardScalerNotFitted(t *testing.T) {
	scaler := NewStandardScaler(true, true)
	_, err := scaler.Transform(mat.NewDense(1, 1, []float64{1}))
	if err == nil {
		t.Fatal("Expected NotFittedError, got nil")
	}

	var notFitted *errors.NotFittedError
	if !errors.As(err, &notFitted) {
		t.Errorf("Expected NotFittedError, got %T", err)
	}
}

func TestStandardScalerDimensionMismatch(t *testing.T) {
	scaler := NewStandardScaler(true, true)
	if err := scaler.Fit(mat.NewDense(2, 3, nil)); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	_, err := scaler.Transform(mat.NewDense(2, 2, nil))
	if err == nil {
		t.Fatal("Expected DimensionError, got nil")
	}
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("Expected DimensionError, got %T", err)
	}
}

func TestStandardScalerConstantFeature(t *testing.T) {
	// 定数列はスケール1で変換され、ゼロ除算を起こさない
	X := mat.NewDense(3, 1, []float64{5, 5, 5})
	scaler := NewStandardScaler(true, true)
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	scaled, err := scaler.Transform(X)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if v := scaled.At(i, 0); v != 0 {
			t.Errorf("scaled[%d] = %v, want 0", i, v)
		}
	}
}

func TestRangeScaler(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		0, -1,
		5, 0,
		10, 1,
	})

	scaler := NewRangeScaler([2]float64{0, 1})
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	scaled, err := scaler.Transform(X)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	want := [][]float64{
		{0, 0},
		{0.5, 0.5},
		{1, 1},
	}
	for i := range want {
		for j := range want[i] {
			if math.Abs(scaled.At(i, j)-want[i][j]) > 1e-12 {
				t.Errorf("scaled[%d][%d] = %v, want %v", i, j, scaled.At(i, j), want[i][j])
			}
		}
	}
}

func TestNewScaler(t *testing.T) {
	tests := []struct {
		method  string
		wantErr bool
	}{
		{method: "standardize"},
		{method: ""},
		{method: "range"},
		{method: "pca", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("method="+tt.method, func(t *testing.T) {
			_, err := NewScaler(tt.method)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewScaler(%q) error = %v, wantErr %v", tt.method, err, tt.wantErr)
			}
		})
	}
}
