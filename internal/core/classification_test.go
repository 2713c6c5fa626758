package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/ragmem/internal/models"
)

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Verdict
	}{
		{
			name: "single fact",
			raw:  `{"should_write": true, "target": "USER", "summary": "User is a Project Finance Analyst", "confidence": 0.9}`,
			want: []Verdict{{Kind: Fact, Target: models.TargetUser, Summary: "User is a Project Finance Analyst", Confidence: 0.9}},
		},
		{
			name: "nothing to store",
			raw:  `{"should_write": false}`,
			want: []Verdict{{Kind: NoFact}},
		},
		{
			name: "array with lowercase target",
			raw:  `[{"should_write": true, "target": "company", "summary": "Asset Management interfaces with Project Finance", "confidence": 0.8}, {"should_write": false}]`,
			want: []Verdict{
				{Kind: Fact, Target: models.TargetCompany, Summary: "Asset Management interfaces with Project Finance", Confidence: 0.8},
				{Kind: NoFact},
			},
		},
		{
			name: "code fence",
			raw:  "```json\n{\"should_write\": true, \"target\": \"USER\", \"summary\": \"Prefers weekly summaries\", \"confidence\": 0.75}\n```",
			want: []Verdict{{Kind: Fact, Target: models.TargetUser, Summary: "Prefers weekly summaries", Confidence: 0.75}},
		},
		{
			name: "unknown target",
			raw:  `{"should_write": true, "target": "TEAM", "summary": "x", "confidence": 0.99}`,
			want: []Verdict{{Kind: NoFact}},
		},
		{
			name: "blank summary",
			raw:  `{"should_write": true, "target": "USER", "summary": "  ", "confidence": 0.99}`,
			want: []Verdict{{Kind: NoFact}},
		},
		{
			name: "bad array element does not drop valid facts",
			raw:  `[{"should_write": true, "target": "USER", "summary": "User is a Project Finance Analyst", "confidence": 0.9}, "n/a", {"should_write": true, "target": "USER", "summary": "x", "confidence": "high"}, null]`,
			want: []Verdict{
				{Kind: Fact, Target: models.TargetUser, Summary: "User is a Project Finance Analyst", Confidence: 0.9},
				{Kind: NoFact},
				{Kind: NoFact},
				{Kind: NoFact},
			},
		},
		{
			name: "confidence above one",
			raw:  `{"should_write": true, "target": "USER", "summary": "Likes tea", "confidence": 1.7}`,
			want: []Verdict{{Kind: NoFact}},
		},
		{
			name: "negative confidence",
			raw:  `[{"should_write": true, "target": "COMPANY", "summary": "Invoices monthly", "confidence": -0.2}]`,
			want: []Verdict{{Kind: NoFact}},
		},
		{
			name: "multiline summary collapsed",
			raw:  `{"should_write": true, "target": "USER", "summary": "Works on\n  solar projects", "confidence": 0.9}`,
			want: []Verdict{{Kind: Fact, Target: models.TargetUser, Summary: "Works on solar projects", Confidence: 0.9}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseClassification(tt.raw))
		})
	}
}

func TestParseClassification_Malformed(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"should_write": tru`, `"just a string"`, "```\n```"} {
		assert.Nil(t, ParseClassification(raw), "input %q", raw)
	}
}

func TestParseClassification_EmptyArray(t *testing.T) {
	got := ParseClassification("[]")
	require.NotNil(t, got)
	assert.Empty(t, got)
}
