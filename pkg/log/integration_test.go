package log

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

// TestLoggerInterface tests the Logger interface implementation
func TestLoggerInterface(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, "fit")
	testLogger.Warn("warning message", "warning_code", "TEST_WARNING")

	testErr := fmt.Errorf("test error")
	testLogger.Error("error message", "error", testErr, "error_code", "TEST_ERROR")

	// Verify output was captured
	output := buffer.String()
	if output == "" {
		t.Fatal("Expected log output, got empty string")
	}

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("Failed to parse log entries: %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("Expected 4 log entries, got %d", len(entries))
	}
	if entries[0]["level"] != "DEBUG" || entries[3]["level"] != "ERROR" {
		t.Errorf("Unexpected levels: %v, %v", entries[0]["level"], entries[3]["level"])
	}
}

// TestLoggerWith verifies contextual field chaining
func TestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(
		StageKey, "tune",
		FamilyKey, "knn",
	)

	contextLogger.Info("contextual message", OperationKey, "fit")

	if !testLogger.ContainsField(StageKey, "tune") {
		t.Error("Expected stage field from With")
	}
	if !testLogger.ContainsField(FamilyKey, "knn") {
		t.Error("Expected family field from With")
	}
	if !testLogger.ContainsField(OperationKey, "fit") {
		t.Error("Expected operation field from call site")
	}
}

// TestLoggerEnabled verifies level filtering
func TestLoggerEnabled(t *testing.T) {
	ctx := context.Background()
	testLogger, buffer := NewTestLogger(LevelInfo)

	if testLogger.Enabled(ctx, LevelDebug) {
		t.Error("Debug should be disabled at Info level")
	}
	if !testLogger.Enabled(ctx, LevelWarn) {
		t.Error("Warn should be enabled at Info level")
	}

	testLogger.Debug("should be dropped")
	if buffer.Len() != 0 {
		t.Error("Debug message should not have been captured")
	}
}

// TestPipelineAttributeKeys verifies the standard key set round-trips
// through a JSON log entry
func TestPipelineAttributeKeys(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	testLogger.Info("tuning cell complete",
		StageKey, "tune",
		FamilyKey, "softmax",
		RepeatKey, 2,
		FoldKey, 4,
		SamplesKey, 118,
		FeaturesKey, 7,
		AccuracyKey, 0.93,
		DurationMsKey, 250,
	)

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("Failed to parse log entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	// JSON numbers decode as float64
	want := map[string]interface{}{
		StageKey:    "tune",
		FamilyKey:   "softmax",
		RepeatKey:   2.0,
		FoldKey:     4.0,
		SamplesKey:  118.0,
		FeaturesKey: 7.0,
		AccuracyKey: 0.93,
	}
	for k, v := range want {
		if entries[0][k] != v {
			t.Errorf("entry[%q] = %v, want %v", k, entries[0][k], v)
		}
	}
}

// TestLoggerProviderIntegration tests the LoggerProvider interface
func TestLoggerProviderIntegration(t *testing.T) {
	provider, buffer := NewTestLoggerProvider(LevelDebug)

	logger := provider.GetLogger()
	logger.Info("from default logger")

	namedLogger := provider.GetLoggerWithName("screen")
	namedLogger.Info("from named logger")

	if buffer.Len() == 0 {
		t.Fatal("Expected captured output")
	}
	testLogger := provider.GetLogger().(*TestLogger)
	if !testLogger.ContainsField("component", "screen") {
		t.Error("Expected component field from named logger")
	}
}

// TestConcurrentLogging verifies the test logger tolerates concurrent writers,
// mirroring how tuning workers log from multiple goroutines
func TestConcurrentLogging(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			testLogger.Info("worker message", WorkersKey, worker)
		}(i)
	}
	wg.Wait()

	if !testLogger.ContainsMessage("worker message") {
		t.Error("Expected worker messages to be captured")
	}
}
