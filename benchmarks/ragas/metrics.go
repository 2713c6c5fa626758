// ABOUTME: RAGAS-style metrics for grounded answers and memory writes
// ABOUTME: Deterministic scoring against ground truth, no judge model involved

package ragas

import (
	"fmt"
	"strings"

	"github.com/harper/ragmem/internal/models"
)

// PassThreshold is the minimum score every metric needs for a PASS
const PassThreshold = 0.9

// MetricsCalculator computes RAGAS scores for benchmark scenarios
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateFaithfulness computes faithfulness score (0.0-1.0)
// Faithfulness = Does the response state what the documents say and nothing they contradict?
func (m *MetricsCalculator) CalculateFaithfulness(
	response string,
	expectedInResponse []string,
	forbiddenInResponse []string,
) (float64, string) {
	responseUpper := strings.ToUpper(response)

	missingItems := []string{}
	for _, expected := range expectedInResponse {
		if !strings.Contains(responseUpper, strings.ToUpper(expected)) {
			missingItems = append(missingItems, expected)
		}
	}

	forbiddenFound := []string{}
	for _, forbidden := range forbiddenInResponse {
		if strings.Contains(responseUpper, strings.ToUpper(forbidden)) {
			forbiddenFound = append(forbiddenFound, forbidden)
		}
	}

	switch {
	case len(missingItems) == 0 && len(forbiddenFound) == 0:
		return 1.0, "Perfect faithfulness - response matches expected ground truth"
	case len(missingItems) > 0 && len(forbiddenFound) > 0:
		return 0.0, fmt.Sprintf(
			"Faithfulness failure - missing expected items: %v, forbidden items found: %v",
			missingItems, forbiddenFound,
		)
	case len(missingItems) > 0:
		return 0.5, fmt.Sprintf("Partial faithfulness - missing expected items: %v", missingItems)
	default:
		return 0.5, fmt.Sprintf("Partial faithfulness - forbidden items found: %v", forbiddenFound)
	}
}

// CalculateContextRecall computes context recall score (0.0-1.0)
// Context Recall = Did the cited chunks contain the passages the answer needs?
func (m *MetricsCalculator) CalculateContextRecall(
	retrievedContext []string,
	expectedContextItems []string,
) (float64, string) {
	if len(expectedContextItems) == 0 {
		return 1.0, "No context retrieval required"
	}

	allContext := strings.ToUpper(strings.Join(retrievedContext, " "))

	foundCount := 0
	missingItems := []string{}
	for _, expectedItem := range expectedContextItems {
		if strings.Contains(allContext, strings.ToUpper(expectedItem)) {
			foundCount++
		} else {
			missingItems = append(missingItems, expectedItem)
		}
	}

	recall := float64(foundCount) / float64(len(expectedContextItems))
	if recall == 1.0 {
		return 1.0, "Perfect context recall - all expected items retrieved"
	}

	return recall, fmt.Sprintf("Partial context recall (%.2f) - missing items: %v", recall, missingItems)
}

// CalculateRefusalCorrectness checks that the fixed refusal appears exactly when expected
func (m *MetricsCalculator) CalculateRefusalCorrectness(answer models.Answer, expectRefusal bool) (bool, string) {
	refused := answer.IsRefusal()
	switch {
	case expectRefusal && refused:
		return true, "Refused as expected"
	case expectRefusal:
		return false, "Expected the refusal but the model answered"
	case refused:
		return false, "Refused a question the documents answer"
	default:
		return true, "Answered as expected"
	}
}

// CalculateMemoryPrecision scores the entries written for an exchange (0.0-1.0).
// With nothing expected, any write scores 0. Otherwise it is the share of
// expected facts found, halved when unexpected entries were also written.
func (m *MetricsCalculator) CalculateMemoryPrecision(
	written []models.MemoryEntry,
	expected []ExpectedMemory,
) (float64, string) {
	if len(expected) == 0 {
		if len(written) == 0 {
			return 1.0, "Nothing written, as expected"
		}
		return 0.0, fmt.Sprintf("Unexpected memory writes: %d", len(written))
	}

	matched := make([]bool, len(written))
	found := 0
	missing := []string{}
	for _, want := range expected {
		hit := false
		for i, entry := range written {
			if matched[i] || entry.Target != want.Target {
				continue
			}
			if strings.Contains(strings.ToUpper(entry.Summary), strings.ToUpper(want.Contains)) {
				matched[i] = true
				hit = true
				break
			}
		}
		if hit {
			found++
		} else {
			missing = append(missing, fmt.Sprintf("%s:%s", want.Target, want.Contains))
		}
	}

	extra := 0
	for _, ok := range matched {
		if !ok {
			extra++
		}
	}

	score := float64(found) / float64(len(expected))
	if extra > 0 {
		score /= 2
	}

	if score == 1.0 {
		return 1.0, "All expected memories written"
	}
	return score, fmt.Sprintf("Memory precision %.2f - missing: %v, unexpected: %d", score, missing, extra)
}

// EvaluateTest runs full RAGAS evaluation for a scenario
func (m *MetricsCalculator) EvaluateTest(scenario Scenario, observed Observation) TestResult {
	truth := scenario.GroundTruth

	faithfulness, faithfulnessDetail := m.CalculateFaithfulness(
		observed.Answer.Text,
		truth.ExpectedInResponse,
		truth.ForbiddenInResponse,
	)

	snippets := make([]string, 0, len(observed.Answer.Citations))
	for _, c := range observed.Answer.Citations {
		snippets = append(snippets, c.Snippet)
	}
	recall, recallDetail := m.CalculateContextRecall(snippets, truth.ExpectedContextItems)

	refusalOK, refusalDetail := m.CalculateRefusalCorrectness(observed.Answer, truth.ExpectRefusal)

	memory, memoryDetail := 1.0, "No exchange recorded"
	if scenario.Exchange != nil {
		memory, memoryDetail = m.CalculateMemoryPrecision(observed.Memories, truth.ExpectedMemories)
	}

	overallScore := (faithfulness + recall + memory) / 3.0

	status := StatusFail
	if faithfulness >= PassThreshold && recall >= PassThreshold && memory >= PassThreshold && refusalOK {
		status = StatusPass
	}

	return TestResult{
		TestID:             scenario.ID,
		TestName:           scenario.Name,
		FaithfulnessScore:  faithfulness,
		ContextRecallScore: recall,
		MemoryScore:        memory,
		RefusalCorrect:     refusalOK,
		OverallScore:       overallScore,
		Status:             status,
		Details: map[string]any{
			"faithfulness_detail": faithfulnessDetail,
			"recall_detail":       recallDetail,
			"refusal_detail":      refusalDetail,
			"memory_detail":       memoryDetail,
			"final_response":      truncate(observed.Answer.Text, 200),
			"citations":           len(observed.Answer.Citations),
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
