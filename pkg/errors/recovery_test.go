package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestRecover_WithPanic tests the Recover function when a panic occurs
func TestRecover_WithPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "fold fit")
		panic("test panic message")
	}

	err := testFunc()

	if err == nil {
		t.Fatal("Expected error from recovered panic, got nil")
	}

	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}
	if panicErr.Operation != "fold fit" {
		t.Errorf("Operation = %q, want %q", panicErr.Operation, "fold fit")
	}
	if !strings.Contains(panicErr.StackTrace, "recovery_test.go") {
		t.Error("Expected stack trace to contain test file")
	}
}

// TestRecover_WithoutPanic verifies Recover is a no-op on the happy path
func TestRecover_WithoutPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "fold fit")
		return nil
	}

	if err := testFunc(); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

// TestRecover_WithExistingError verifies the original error is preserved
// when a panic happens after an error was already set
func TestRecover_WithExistingError(t *testing.T) {
	original := fmt.Errorf("original failure")
	testFunc := func() (err error) {
		defer Recover(&err, "fold fit")
		err = original
		panic("followup panic")
	}

	err := testFunc()
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !errors.Is(err, original) {
		t.Error("Expected wrapped error to preserve the original error")
	}
	if !strings.Contains(err.Error(), "followup panic") {
		t.Errorf("Expected panic info in message, got %v", err)
	}
}

func TestSafeExecute(t *testing.T) {
	tests := []struct {
		name    string
		fn      func() error
		wantErr string // empty means nil
		isPanic bool
	}{
		{
			name: "success",
			fn:   func() error { return nil },
		},
		{
			name:    "function error passes through",
			fn:      func() error { return fmt.Errorf("fit diverged") },
			wantErr: "fit diverged",
		},
		{
			name:    "panic converted to error",
			fn:      func() error { panic("index out of range") },
			wantErr: "panic in candidate fit: index out of range",
			isPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SafeExecute("candidate fit", tt.fn)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected nil, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error() = %v, want substring %q", err, tt.wantErr)
			}
			if tt.isPanic {
				var panicErr *PanicError
				if !errors.As(err, &panicErr) {
					t.Errorf("Expected PanicError, got %T", err)
				}
			}
		})
	}
}

// TestRecover_DifferentPanicTypes verifies non-string panic values survive
func TestRecover_DifferentPanicTypes(t *testing.T) {
	values := []interface{}{
		42,
		fmt.Errorf("panicked with error"),
		struct{ Code int }{Code: 7},
		nil,
	}

	for _, v := range values {
		func() {
			defer func() {
				_ = recover() // swallow re-panics from nil panic values on old runtimes
			}()
			err := SafeExecute("candidate fit", func() error { panic(v) })
			if v == nil {
				return
			}
			if err == nil {
				t.Errorf("panic(%v): expected error, got nil", v)
			}
		}()
	}
}
