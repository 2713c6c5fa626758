// ABOUTME: Tests for the benchmark runner against a scripted provider
// ABOUTME: Each scenario runs in its own temp workspace

package ragas

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/ragmem/internal/llm/llmtest"
	"github.com/harper/ragmem/internal/models"
)

func TestRunTest_GroundedAnswer(t *testing.T) {
	provider := llmtest.NewProvider("Refunds are issued within 30 days of purchase (handbook.txt).")
	runner := NewBenchmarkRunner(provider, nil)

	result, err := runner.RunTest(context.Background(), GetRefundWindow())
	require.NoError(t, err)

	assert.Equal(t, StatusPass, result.Status)
	assert.Equal(t, 1.0, result.FaithfulnessScore)
	assert.Equal(t, 1.0, result.ContextRecallScore)
	assert.True(t, result.RefusalCorrect)
	assert.Equal(t, 1, provider.ScriptedGenerator.Calls())
}

func TestRunTest_Refusal(t *testing.T) {
	provider := llmtest.NewProvider(models.RefusalText)

	result, err := NewBenchmarkRunner(provider, nil).RunTest(context.Background(), GetUnanswerable())
	require.NoError(t, err)
	assert.Equal(t, StatusPass, result.Status)
	assert.True(t, result.RefusalCorrect)
}

func TestRunTest_HallucinatedAnswerFails(t *testing.T) {
	provider := llmtest.NewProvider("Employees get 12 weeks of parental leave.")

	result, err := NewBenchmarkRunner(provider, nil).RunTest(context.Background(), GetUnanswerable())
	require.NoError(t, err)
	assert.Equal(t, StatusFail, result.Status)
	assert.False(t, result.RefusalCorrect)
	assert.Equal(t, 0.0, result.FaithfulnessScore)
}

func TestRunTest_MemoryWrite(t *testing.T) {
	provider := llmtest.NewProvider(
		"Expense reports are due by the fifth business day of the following month (handbook.txt).",
		`{"should_write": true, "target": "USER", "summary": "Prefers weekly summaries on Mondays", "confidence": 0.9}`,
	)
	runner := NewBenchmarkRunner(provider, nil)
	runner.Clock = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }

	result, err := runner.RunTest(context.Background(), GetUserPreference())
	require.NoError(t, err)
	assert.Equal(t, StatusPass, result.Status, result.Details)
	assert.Equal(t, 1.0, result.MemoryScore)
	assert.Equal(t, 2, provider.ScriptedGenerator.Calls())
}

func TestRunTest_SmallTalkWrittenFails(t *testing.T) {
	provider := llmtest.NewProvider(
		"The Starter plan costs 49 dollars per month (pricing.txt).",
		`{"should_write": true, "target": "USER", "summary": "Said thanks", "confidence": 0.8}`,
	)

	result, err := NewBenchmarkRunner(provider, nil).RunTest(context.Background(), GetSmallTalk())
	require.NoError(t, err)
	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, 0.0, result.MemoryScore)
}

func TestRunAllTests_ErrorsBecomeFailures(t *testing.T) {
	provider := llmtest.NewProvider()
	provider.ScriptedGenerator.Err = errors.New("model unavailable")

	results := NewBenchmarkRunner(provider, nil).WithChunking(200, 20).RunAllTests(context.Background())
	require.Len(t, results, len(GetAllTests()))
	for _, r := range results {
		assert.Equal(t, StatusFail, r.Status)
		assert.Contains(t, r.ErrorMessage, "model unavailable")
	}
}

func TestExportResults(t *testing.T) {
	results := []TestResult{
		{TestID: "a", Status: StatusPass},
		{TestID: "b", Status: StatusFail},
		{TestID: "c", Status: StatusPass},
	}
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	summary := Summarize(results, now)
	assert.Equal(t, 2, summary.Passed)
	assert.Equal(t, 1, summary.Failed)

	path := filepath.Join(t.TempDir(), "out", "results.json")
	require.NoError(t, ExportResults(summary, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Summary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "2026-03-02T09:00:00Z", got.Timestamp)
	assert.Equal(t, 3, got.TotalTests)
	assert.Equal(t, "b", got.Results[1].TestID)
}
