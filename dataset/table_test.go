package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grainstat/graincv/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seeds.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write temp CSV: %v", err)
	}
	return path
}

const validCSV = `area,perimeter,compactness,kernel_length,kernel_width,asymmetry,groove_length,variety
15.26,14.84,0.8710,5.763,3.312,2.221,5.220,Kama
20.71,17.23,0.8763,6.579,3.814,4.451,6.451,Rosa
11.87,13.02,0.8795,5.132,2.953,3.597,5.132,Canadian
14.88,14.57,0.8811,5.554,3.333,1.018,4.956,Kama
`

func TestLoad(t *testing.T) {
	path := writeTempCSV(t, validCSV)

	table, err := Load(path, DefaultSchema())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if table.NumSamples() != 4 {
		t.Errorf("NumSamples = %d, want 4", table.NumSamples())
	}
	if table.NumFeatures() != 7 {
		t.Errorf("NumFeatures = %d, want 7", table.NumFeatures())
	}
	if table.NumClasses() != 3 {
		t.Errorf("NumClasses = %d, want 3", table.NumClasses())
	}

	wantLabels := []int{0, 1, 2, 0}
	for i, want := range wantLabels {
		if table.Labels()[i] != want {
			t.Errorf("Labels[%d] = %d, want %d", i, table.Labels()[i], want)
		}
	}

	if got := table.Features().At(1, 0); got != 20.71 {
		t.Errorf("Features(1,0) = %v, want 20.71", got)
	}
	if got := table.Features().At(2, 6); got != 5.132 {
		t.Errorf("Features(2,6) = %v, want 5.132", got)
	}
}

func TestLoadColumnOrderIndependent(t *testing.T) {
	// ヘッダの列順序はスキーマと一致しなくてよい
	reordered := `variety,groove_length,area,perimeter,compactness,kernel_length,kernel_width,asymmetry
Rosa,6.451,20.71,17.23,0.8763,6.579,3.814,4.451
`
	path := writeTempCSV(t, reordered)

	table, err := Load(path, DefaultSchema())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := table.Features().At(0, 0); got != 20.71 {
		t.Errorf("area = %v, want 20.71", got)
	}
	if got := table.Features().At(0, 6); got != 6.451 {
		t.Errorf("groove_length = %v, want 6.451", got)
	}
	if table.Labels()[0] != 1 {
		t.Errorf("label = %d, want 1 (Rosa)", table.Labels()[0])
	}
}

func TestLoadSchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing column",
			content: `area,perimeter,compactness,kernel_length,kernel_width,asymmetry,variety
15.26,14.84,0.8710,5.763,3.312,2.221,Kama
`,
		},
		{
			name: "non-numeric value",
			content: `area,perimeter,compactness,kernel_length,kernel_width,asymmetry,groove_length,variety
abc,14.84,0.8710,5.763,3.312,2.221,5.220,Kama
`,
		},
		{
			name: "unknown class",
			content: `area,perimeter,compactness,kernel_length,kernel_width,asymmetry,groove_length,variety
15.26,14.84,0.8710,5.763,3.312,2.221,5.220,Durum
`,
		},
		{
			name: "empty table",
			content: `area,perimeter,compactness,kernel_length,kernel_width,asymmetry,groove_length,variety
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempCSV(t, tt.content)
			_, err := Load(path, DefaultSchema())
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			var schemaErr *errors.DataSchemaError
			if !errors.As(err, &schemaErr) {
				t.Errorf("Expected DataSchemaError, got %T: %v", err, err)
			}
		})
	}
}

func TestSubset(t *testing.T) {
	path := writeTempCSV(t, validCSV)
	table, err := Load(path, DefaultSchema())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	sub := table.Subset([]int{2, 0})
	if sub.NumSamples() != 2 {
		t.Fatalf("NumSamples = %d, want 2", sub.NumSamples())
	}
	if got := sub.Features().At(0, 0); got != 11.87 {
		t.Errorf("row 0 area = %v, want 11.87", got)
	}
	if sub.Labels()[0] != 2 || sub.Labels()[1] != 0 {
		t.Errorf("labels = %v, want [2 0]", sub.Labels())
	}
}

func TestClassCounts(t *testing.T) {
	x := mat.NewDense(5, 7, nil)
	y := []int{0, 0, 1, 2, 2}
	table, err := New(DefaultSchema(), x, y)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	counts := table.ClassCounts()
	want := []int{2, 1, 2}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("ClassCounts[%d] = %d, want %d", i, counts[i], want[i])
		}
	}
}

func TestNewValidation(t *testing.T) {
	x := mat.NewDense(3, 7, nil)

	if _, err := New(DefaultSchema(), x, []int{0, 1}); err == nil {
		t.Error("Expected error for label length mismatch")
	}
	if _, err := New(DefaultSchema(), x, []int{0, 1, 5}); err == nil {
		t.Error("Expected error for class index out of range")
	}
	if _, err := New(DefaultSchema(), mat.NewDense(3, 4, nil), []int{0, 1, 2}); err == nil {
		t.Error("Expected error for feature count mismatch")
	}
}
