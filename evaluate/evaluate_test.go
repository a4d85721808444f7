package evaluate

import (
	"math"
	"testing"

	"github.com/grainstat/graincv/dataset"
	"github.com/grainstat/graincv/neighbors"
	"github.com/grainstat/graincv/preprocessing"
	"github.com/grainstat/graincv/tune"
	"gonum.org/v1/gonum/mat"
)

func clusterTable(t *testing.T, n int, shift float64) *dataset.Table {
	t.Helper()
	schema := dataset.Schema{
		Features: []string{"f1", "f2"},
		Label:    "class",
		Classes:  []string{"neg", "pos"},
	}
	x := mat.NewDense(n, 2, nil)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		cls := i % 2
		base := float64(cls) * 10
		x.Set(i, 0, base+shift+float64(i%3)*0.1)
		x.Set(i, 1, base+shift-float64(i%3)*0.1)
		y[i] = cls
	}
	table, err := dataset.New(schema, x, y)
	if err != nil {
		t.Fatalf("dataset.New failed: %v", err)
	}
	return table
}

func fitted(t *testing.T, train *dataset.Table) (*neighbors.KNNClassifier, preprocessing.Scaler) {
	t.Helper()
	scaler, err := preprocessing.NewScaler("standardize")
	if err != nil {
		t.Fatalf("NewScaler failed: %v", err)
	}
	if err := scaler.Fit(train.Features()); err != nil {
		t.Fatalf("Scaler fit failed: %v", err)
	}
	scaled, err := scaler.Transform(train.Features())
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	clf := neighbors.New(3)
	if err := clf.Fit(scaled, train.Labels()); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	return clf, scaler
}

func TestEvaluateModel(t *testing.T) {
	train := clusterTable(t, 40, 0)
	test := clusterTable(t, 20, 0.05)
	clf, scaler := fitted(t, train)

	report, err := EvaluateModel(clf, scaler, test, 0.95)
	if err != nil {
		t.Fatalf("EvaluateModel failed: %v", err)
	}

	if report.NTest != 20 {
		t.Errorf("NTest = %d, want 20", report.NTest)
	}
	// クラスタは大きく離れているので完全分類になる
	if report.Accuracy != 1 {
		t.Errorf("Accuracy = %v, want 1", report.Accuracy)
	}
	if report.CIUpper != 1 {
		t.Errorf("CIUpper = %v, want 1 for perfect accuracy", report.CIUpper)
	}
	if report.CILower <= 0 || report.CILower >= 1 {
		t.Errorf("CILower = %v, want interior bound", report.CILower)
	}
	if len(report.PerClass) != 2 {
		t.Fatalf("len(PerClass) = %d, want 2", len(report.PerClass))
	}
	for _, pc := range report.PerClass {
		if pc.Sensitivity != 1 || pc.Precision != 1 {
			t.Errorf("Class %s: sensitivity=%v precision=%v, want 1/1", pc.Class, pc.Sensitivity, pc.Precision)
		}
	}
	if report.Family != neighbors.FamilyName {
		t.Errorf("Family = %q, want %q", report.Family, neighbors.FamilyName)
	}
}

func TestEvaluateFromTuneResult(t *testing.T) {
	train := clusterTable(t, 40, 0)
	test := clusterTable(t, 20, 0.05)
	clf, scaler := fitted(t, train)

	result := &tune.Result{
		Family:     neighbors.FamilyName,
		BestParams: neighbors.Params{K: 3},
		Model:      clf,
		Scaler:     scaler,
	}
	report, err := Evaluate(result, test, 0)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if report.Confidence != DefaultConfidence {
		t.Errorf("Confidence = %v, want default %v", report.Confidence, DefaultConfidence)
	}
	if report.Params != "k=3" {
		t.Errorf("Params = %q, want %q", report.Params, "k=3")
	}
}

func TestEvaluateAccuracyMatchesConfusion(t *testing.T) {
	train := clusterTable(t, 40, 0)
	test := clusterTable(t, 30, 0.05)
	clf, scaler := fitted(t, train)

	report, err := EvaluateModel(clf, scaler, test, 0.95)
	if err != nil {
		t.Fatalf("EvaluateModel failed: %v", err)
	}
	want := float64(report.Confusion.Correct()) / float64(report.Confusion.Total())
	if math.Abs(report.Accuracy-want) > 1e-12 {
		t.Errorf("Accuracy = %v, want %v", report.Accuracy, want)
	}
}
