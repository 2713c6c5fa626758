// ABOUTME: Tests for the deterministic benchmark metrics
// ABOUTME: Covers faithfulness, context recall, refusal and memory scoring

package ragas

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harper/ragmem/internal/models"
)

func TestCalculateFaithfulness(t *testing.T) {
	m := NewMetricsCalculator()

	tests := []struct {
		name      string
		response  string
		expected  []string
		forbidden []string
		want      float64
	}{
		{"all expected present", "Refunds take 30 DAYS.", []string{"30 days"}, nil, 1.0},
		{"missing expected", "Refunds take a while.", []string{"30 days"}, nil, 0.5},
		{"forbidden present", "Twenty seats, or three seats.", []string{"twenty"}, []string{"three seats"}, 0.5},
		{"missing and forbidden", "Three seats.", []string{"twenty"}, []string{"three seats"}, 0.0},
		{"nothing required", "anything", nil, nil, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detail := m.CalculateFaithfulness(tt.response, tt.expected, tt.forbidden)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, detail)
		})
	}
}

func TestCalculateContextRecall(t *testing.T) {
	m := NewMetricsCalculator()

	got, _ := m.CalculateContextRecall(nil, nil)
	assert.Equal(t, 1.0, got)

	got, _ = m.CalculateContextRecall(
		[]string{"Refunds are issued within 30 days of purchase.", "Growth plan costs 199 dollars"},
		[]string{"refunds are issued", "growth plan"},
	)
	assert.Equal(t, 1.0, got)

	got, detail := m.CalculateContextRecall(
		[]string{"Refunds are issued within 30 days of purchase."},
		[]string{"refunds are issued", "growth plan"},
	)
	assert.Equal(t, 0.5, got)
	assert.Contains(t, detail, "growth plan")
}

func TestCalculateRefusalCorrectness(t *testing.T) {
	m := NewMetricsCalculator()
	refusal := models.Answer{Text: models.RefusalText}
	answer := models.Answer{Text: "Refunds take 30 days."}

	tests := []struct {
		name   string
		answer models.Answer
		expect bool
		want   bool
	}{
		{"expected refusal", refusal, true, true},
		{"missing refusal", answer, true, false},
		{"unexpected refusal", refusal, false, false},
		{"expected answer", answer, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := m.CalculateRefusalCorrectness(tt.answer, tt.expect)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateMemoryPrecision(t *testing.T) {
	m := NewMetricsCalculator()
	monday := models.MemoryEntry{Target: models.TargetUser, Summary: "Prefers weekly summaries on Mondays"}
	invoices := models.MemoryEntry{Target: models.TargetCompany, Summary: "Invoices go out on the 1st"}
	wantMonday := []ExpectedMemory{{Target: models.TargetUser, Contains: "monday"}}

	tests := []struct {
		name     string
		written  []models.MemoryEntry
		expected []ExpectedMemory
		want     float64
	}{
		{"nothing expected nothing written", nil, nil, 1.0},
		{"nothing expected something written", []models.MemoryEntry{monday}, nil, 0.0},
		{"expected written", []models.MemoryEntry{monday}, wantMonday, 1.0},
		{"expected missing", nil, wantMonday, 0.0},
		{"wrong target", []models.MemoryEntry{{Target: models.TargetCompany, Summary: monday.Summary}}, wantMonday, 0.0},
		{"expected plus extra", []models.MemoryEntry{monday, invoices}, wantMonday, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := m.CalculateMemoryPrecision(tt.written, tt.expected)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateTest(t *testing.T) {
	m := NewMetricsCalculator()
	scenario := GetRefundWindow()

	pass := m.EvaluateTest(scenario, Observation{
		Answer: models.Answer{
			Text:      "Refunds are issued within 30 days (handbook.txt).",
			Citations: []models.Citation{{Source: "handbook.txt", Snippet: "Refunds are issued within 30 days of purchase"}},
		},
	})
	assert.Equal(t, StatusPass, pass.Status)
	assert.Equal(t, 1.0, pass.OverallScore)
	assert.Equal(t, 1, pass.Details["citations"])

	fail := m.EvaluateTest(scenario, Observation{Answer: models.Answer{Text: models.RefusalText}})
	assert.Equal(t, StatusFail, fail.Status)
	assert.False(t, fail.RefusalCorrect)
	assert.Equal(t, 0.0, fail.ContextRecallScore)
}

func TestGetTest(t *testing.T) {
	for _, id := range TestIDs() {
		scenario, err := GetTest(id)
		assert.NoError(t, err)
		assert.Equal(t, id, scenario.ID)
		assert.NotEmpty(t, scenario.Documents)
	}

	_, err := GetTest("7a")
	assert.ErrorContains(t, err, "unknown test ID")
	assert.Len(t, GetAllTests(), len(TestIDs()))
}
