package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewDataSchemaError(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		column  string
		row     int
		message string
		wantMsg string
	}{
		{
			name:    "missing column",
			path:    "seeds.csv",
			column:  "area",
			row:     0,
			message: "column not found in header",
			wantMsg: `graincv: data schema violation in "seeds.csv", column "area": column not found in header`,
		},
		{
			name:    "bad cell",
			path:    "seeds.csv",
			column:  "perimeter",
			row:     12,
			message: "not a number",
			wantMsg: `graincv: data schema violation in "seeds.csv", column "perimeter", row 12: not a number`,
		},
		{
			name:    "file level",
			path:    "seeds.csv",
			column:  "",
			row:     0,
			message: "empty table",
			wantMsg: `graincv: data schema violation in "seeds.csv": empty table`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDataSchemaError(tt.path, tt.column, tt.row, tt.message)

			// 基本的なエラーメッセージの確認
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			// DataSchemaError型にキャスト可能か確認
			var schemaErr *DataSchemaError
			if !As(err, &schemaErr) {
				t.Error("Error should be castable to *DataSchemaError")
			}
		})
	}
}

func TestNewPartitionError(t *testing.T) {
	err := NewPartitionError("Rosa", 1, 2, 0.7)

	want := `graincv: cannot stratify class "Rosa": 1 samples, need at least 2 for fraction 0.700`
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var partErr *PartitionError
	if !As(err, &partErr) {
		t.Error("Error should be castable to *PartitionError")
	}
	if partErr.Class != "Rosa" || partErr.Count != 1 {
		t.Errorf("PartitionError fields not preserved: %+v", partErr)
	}
}

func TestNewFittingFailureError(t *testing.T) {
	err := NewFittingFailureError("softmax", 2, 4, 10)

	want := "graincv: tuning softmax: all 10 candidates failed in repeat 2, fold 4"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var fitErr *FittingFailureError
	if !As(err, &fitErr) {
		t.Error("Error should be castable to *FittingFailureError")
	}
}

func TestNewMismatchedResamplingPlanError(t *testing.T) {
	err := NewMismatchedResamplingPlanError("knn", "softmax", "5x5/s42", "10x5/s42")

	if !strings.Contains(err.Error(), "resampling plans differ") {
		t.Errorf("unexpected message: %v", err.Error())
	}

	var planErr *MismatchedResamplingPlanError
	if !As(err, &planErr) {
		t.Error("Error should be castable to *MismatchedResamplingPlanError")
	}
	if planErr.FingerprintA != "5x5/s42" || planErr.FingerprintB != "10x5/s42" {
		t.Errorf("fingerprints not preserved: %+v", planErr)
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 7, 6, 1)

	// 基本的なエラーメッセージの確認
	want := "graincv: Predict: dimension mismatch on axis 1 (features). Expected 7, got 6"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	// DimensionError型にキャスト可能か確認
	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("StandardScaler", "Transform")

	// 基本的なエラーメッセージの確認
	want := "graincv: StandardScaler: this model is not fitted yet. Call Fit() before using Transform()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	// NotFittedError型にキャスト可能か確認
	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewConvergenceWarning(t *testing.T) {
	warn := NewConvergenceWarning("GradientDescent", 1000, "loss did not decrease")

	// 基本的なエラーメッセージの確認
	want := "GradientDescent failed to converge after 1000 iterations: loss did not decrease"
	if warn.Error() != want {
		t.Errorf("Error() = %v, want %v", warn.Error(), want)
	}

	// ConvergenceWarning型へのキャストのみ確認
	var convWarn *ConvergenceWarning
	if !As(warn, &convWarn) {
		t.Error("Warning should be castable to *ConvergenceWarning")
	}
}

func TestWarnHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) { captured = w })
	defer SetWarningHandler(nil)

	w := NewConvergenceWarning("GradientDescent", 50, "")
	Warn(w)

	if captured == nil {
		t.Fatal("Expected warning handler to be invoked")
	}
	if !strings.Contains(captured.Error(), "50 iterations") {
		t.Errorf("unexpected warning: %v", captured)
	}
}

func TestWrapAndIs(t *testing.T) {
	// 元のエラー
	baseErr := ErrEmptyData

	// ラップ
	wrapped := Wrap(baseErr, "in dataset.Load")

	// Is関数でチェック
	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	// エラーメッセージの確認
	if !strings.Contains(wrapped.Error(), "in dataset.Load") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWrapf(t *testing.T) {
	// 元のエラー
	baseErr := ErrCancelled

	// フォーマット付きラップ
	wrapped := Wrapf(baseErr, "in %s: repeat %d, fold %d", "tune", 3, 1)

	// Is関数でチェック
	if !Is(wrapped, ErrCancelled) {
		t.Error("Expected Is(wrapped, ErrCancelled) to be true")
	}

	// エラーメッセージの確認
	expectedMsg := "in tune: repeat 3, fold 1"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestErrorChaining(t *testing.T) {
	// エラーチェーンの作成
	err1 := fmt.Errorf("base error")
	err2 := Wrap(err1, "wrapped once")
	err3 := Wrap(err2, "wrapped twice")

	// チェーン全体を確認
	if !strings.Contains(err3.Error(), "base error") {
		t.Error("Expected error chain to contain base error")
	}

	// スタックトレースの確認（詳細表示）
	formatted := fmt.Sprintf("%+v", err3)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected detailed error to contain stack trace")
	}
}
