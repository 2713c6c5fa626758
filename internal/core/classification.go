// ABOUTME: Parses the model's memory classification into tagged verdicts
// ABOUTME: Malformed output yields no verdicts rather than an error
package core

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/harper/ragmem/internal/models"
)

// VerdictKind tags a classification verdict
type VerdictKind int

const (
	// NoFact means nothing should be stored
	NoFact VerdictKind = iota
	// Fact means a candidate entry was proposed
	Fact
)

// Verdict is one parsed classification item
type Verdict struct {
	Kind       VerdictKind
	Target     models.MemoryTarget
	Summary    string
	Confidence float64
}

type classificationItem struct {
	ShouldWrite bool    `json:"should_write"`
	Target      string  `json:"target"`
	Summary     string  `json:"summary"`
	Confidence  float64 `json:"confidence"`
}

// ParseClassification accepts a single JSON object or an array of objects,
// optionally wrapped in a markdown code fence. An array element that is not
// a well-formed item becomes NoFact without affecting its siblings.
func ParseClassification(raw string) []Verdict {
	payload := stripCodeFence(raw)
	if payload == "" {
		return nil
	}

	switch payload[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal([]byte(payload), &elems); err != nil {
			return nil
		}
		verdicts := make([]Verdict, 0, len(elems))
		for _, elem := range elems {
			var item classificationItem
			if err := json.Unmarshal(elem, &item); err != nil {
				verdicts = append(verdicts, Verdict{Kind: NoFact})
				continue
			}
			verdicts = append(verdicts, item.verdict())
		}
		return verdicts
	case '{':
		var item classificationItem
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil
		}
		return []Verdict{item.verdict()}
	default:
		return nil
	}
}

func (i classificationItem) verdict() Verdict {
	if !i.ShouldWrite {
		return Verdict{Kind: NoFact}
	}
	if math.IsNaN(i.Confidence) || i.Confidence < 0 || i.Confidence > 1 {
		return Verdict{Kind: NoFact}
	}
	target, err := models.ParseMemoryTarget(i.Target)
	if err != nil {
		return Verdict{Kind: NoFact}
	}
	summary := strings.Join(strings.Fields(i.Summary), " ")
	if summary == "" {
		return Verdict{Kind: NoFact}
	}
	return Verdict{
		Kind:       Fact,
		Target:     target,
		Summary:    summary,
		Confidence: i.Confidence,
	}
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
