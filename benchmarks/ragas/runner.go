// ABOUTME: Benchmark runner executing scenarios against a fresh assistant each
// ABOUTME: Builds the index in a temp directory, asks, records, then scores

package ragas

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/harper/ragmem/internal/assistant"
)

// BenchmarkRunner executes RAGAS benchmark scenarios
type BenchmarkRunner struct {
	backend   assistant.Backend
	metrics   *MetricsCalculator
	logger    *zap.Logger
	chunkSize int
	overlap   int
	// Clock stamps memory entries; nil uses the current time
	Clock func() time.Time
}

// NewBenchmarkRunner creates a runner over the given model backend
func NewBenchmarkRunner(backend assistant.Backend, logger *zap.Logger) *BenchmarkRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BenchmarkRunner{
		backend: backend,
		metrics: NewMetricsCalculator(),
		logger:  logger,
	}
}

// WithChunking overrides the chunk size and overlap used for every scenario
func (r *BenchmarkRunner) WithChunking(size, overlap int) *BenchmarkRunner {
	r.chunkSize = size
	r.overlap = overlap
	return r
}

// RunTest executes a single scenario in an isolated workspace
func (r *BenchmarkRunner) RunTest(ctx context.Context, scenario Scenario) (TestResult, error) {
	workDir, err := os.MkdirTemp("", "ragmem-bench-*")
	if err != nil {
		return TestResult{}, fmt.Errorf("failed to create workspace: %w", err)
	}
	defer os.RemoveAll(workDir)

	docsDir := filepath.Join(workDir, "docs")
	if err := os.MkdirAll(docsDir, 0o755); err != nil {
		return TestResult{}, fmt.Errorf("failed to create docs dir: %w", err)
	}
	for name, content := range scenario.Documents {
		if err := os.WriteFile(filepath.Join(docsDir, name), []byte(content), 0o644); err != nil {
			return TestResult{}, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	asst := assistant.New(assistant.Options{
		Backend:      r.backend,
		IndexDir:     filepath.Join(workDir, "index"),
		DocsDir:      docsDir,
		MemoryDir:    workDir,
		ChunkSize:    r.chunkSize,
		ChunkOverlap: r.overlap,
		Clock:        r.Clock,
		Logger:       r.logger.Named(scenario.ID),
	})

	if _, err := asst.IndexDocuments(ctx, "", true); err != nil {
		return TestResult{}, fmt.Errorf("index: %w", err)
	}

	var observed Observation
	observed.Answer, err = asst.Answer(ctx, scenario.Question, scenario.K)
	if err != nil {
		return TestResult{}, fmt.Errorf("answer: %w", err)
	}

	if scenario.Exchange != nil {
		observed.Memories, err = asst.RecordConversation(ctx, scenario.Exchange.UserMessage, scenario.Exchange.AssistantMessage)
		if err != nil {
			return TestResult{}, fmt.Errorf("record conversation: %w", err)
		}
	}

	result := r.metrics.EvaluateTest(scenario, observed)
	r.logger.Info("Scenario finished",
		zap.String("test_id", scenario.ID),
		zap.String("status", result.Status),
		zap.Float64("overall", result.OverallScore),
	)
	return result, nil
}

// RunAllTests executes every scenario. A scenario that errors is recorded as
// FAIL with its error message and the run continues.
func (r *BenchmarkRunner) RunAllTests(ctx context.Context) []TestResult {
	scenarios := GetAllTests()
	results := make([]TestResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		result, err := r.RunTest(ctx, scenario)
		if err != nil {
			r.logger.Warn("Scenario errored", zap.String("test_id", scenario.ID), zap.Error(err))
			result = TestResult{
				TestID:       scenario.ID,
				TestName:     scenario.Name,
				Status:       StatusFail,
				ErrorMessage: err.Error(),
			}
		}
		results = append(results, result)
	}

	return results
}

// Summary is the exported benchmark report
type Summary struct {
	Timestamp  string       `json:"timestamp"`
	TotalTests int          `json:"total_tests"`
	Passed     int          `json:"passed"`
	Failed     int          `json:"failed"`
	Results    []TestResult `json:"results"`
}

// Summarize counts passes and failures
func Summarize(results []TestResult, now time.Time) Summary {
	summary := Summary{
		Timestamp:  now.Format(time.RFC3339),
		TotalTests: len(results),
		Results:    results,
	}
	for _, result := range results {
		if result.Status == StatusPass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	return summary
}

// ExportResults writes the summary as indented JSON
func ExportResults(summary Summary, outputPath string) error {
	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, jsonData, 0o644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}
