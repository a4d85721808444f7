package dataset

import (
	"reflect"
	"testing"

	"github.com/grainstat/graincv/pkg/errors"
)

func TestNewPlanShape(t *testing.T) {
	y := balancedLabels()
	plan, err := NewPlan(y, []string{"a", "b", "c"}, 5, 5, 42)
	if err != nil {
		t.Fatalf("NewPlan failed: %v", err)
	}

	if len(plan.Assignments) != 5 {
		t.Fatalf("repeats = %d, want 5", len(plan.Assignments))
	}
	for r, folds := range plan.Assignments {
		if len(folds) != 5 {
			t.Fatalf("repeat %d has %d folds, want 5", r, len(folds))
		}
		for f, fold := range folds {
			if len(fold.Train)+len(fold.Val) != len(y) {
				t.Errorf("repeat %d fold %d: Train+Val = %d, want %d",
					r, f, len(fold.Train)+len(fold.Val), len(y))
			}
		}
	}
}

func TestNewPlanValFoldsPartition(t *testing.T) {
	y := balancedLabels()
	plan, err := NewPlan(y, []string{"a", "b", "c"}, 5, 2, 1)
	if err != nil {
		t.Fatalf("NewPlan failed: %v", err)
	}

	// 各repeatでVal foldは重複なく全サンプルを被覆する
	for r, folds := range plan.Assignments {
		seen := make(map[int]bool)
		for _, fold := range folds {
			for _, i := range fold.Val {
				if seen[i] {
					t.Fatalf("repeat %d: sample %d in multiple val folds", r, i)
				}
				seen[i] = true
			}
		}
		if len(seen) != len(y) {
			t.Errorf("repeat %d: val folds cover %d samples, want %d", r, len(seen), len(y))
		}
	}
}

func TestNewPlanStratified(t *testing.T) {
	y := balancedLabels()
	plan, err := NewPlan(y, []string{"a", "b", "c"}, 5, 1, 9)
	if err != nil {
		t.Fatalf("NewPlan failed: %v", err)
	}

	// 70件/クラスを5 foldに割ると各foldのValにクラスごと14件
	for f, fold := range plan.Assignments[0] {
		counts := make([]int, 3)
		for _, i := range fold.Val {
			counts[y[i]]++
		}
		for cls, count := range counts {
			if count != 14 {
				t.Errorf("fold %d class %d: val count = %d, want 14", f, cls, count)
			}
		}
	}
}

func TestNewPlanDeterministic(t *testing.T) {
	y := balancedLabels()
	classes := []string{"a", "b", "c"}

	first, err := NewPlan(y, classes, 5, 3, 42)
	if err != nil {
		t.Fatalf("NewPlan failed: %v", err)
	}
	second, err := NewPlan(y, classes, 5, 3, 42)
	if err != nil {
		t.Fatalf("NewPlan failed: %v", err)
	}
	if !reflect.DeepEqual(first.Assignments, second.Assignments) {
		t.Error("Same seed produced different plans")
	}

	// repeat間では割り当てが変わる
	if reflect.DeepEqual(first.Assignments[0], first.Assignments[1]) {
		t.Error("Consecutive repeats produced identical fold assignments")
	}
}

func TestPlanFingerprint(t *testing.T) {
	y := balancedLabels()
	classes := []string{"a", "b", "c"}

	plan, err := NewPlan(y, classes, 5, 5, 42)
	if err != nil {
		t.Fatalf("NewPlan failed: %v", err)
	}
	if got := plan.Fingerprint(); got != "5x5/s42/n210" {
		t.Errorf("Fingerprint = %q, want %q", got, "5x5/s42/n210")
	}

	same, _ := NewPlan(y, classes, 5, 5, 42)
	if plan.Fingerprint() != same.Fingerprint() {
		t.Error("Identical plans have different fingerprints")
	}

	other, _ := NewPlan(y, classes, 10, 5, 42)
	if plan.Fingerprint() == other.Fingerprint() {
		t.Error("Plans with different fold counts share a fingerprint")
	}
}

func TestNewPlanErrors(t *testing.T) {
	y := balancedLabels()
	classes := []string{"a", "b", "c"}

	if _, err := NewPlan(y, classes, 1, 5, 1); err == nil {
		t.Error("Expected error for folds < 2")
	}
	if _, err := NewPlan(y, classes, 5, 0, 1); err == nil {
		t.Error("Expected error for repeats < 1")
	}
	if _, err := NewPlan(nil, classes, 5, 5, 1); err == nil {
		t.Error("Expected error for empty labels")
	}

	// クラス1が3件しかないのに5 foldは層化できない
	small := []int{0, 0, 0, 0, 0, 0, 1, 1, 1}
	_, err := NewPlan(small, []string{"big", "tiny"}, 5, 1, 1)
	if err == nil {
		t.Fatal("Expected error for class smaller than fold count")
	}
	var partErr *errors.PartitionError
	if !errors.As(err, &partErr) {
		t.Fatalf("Expected PartitionError, got %T", err)
	}
}
