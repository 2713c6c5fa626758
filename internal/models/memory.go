// ABOUTME: Memory entry types for the USER and COMPANY append-only logs
// ABOUTME: Entries are created only by the memory extractor above the confidence gate
package models

import (
	"fmt"
	"strings"
	"time"
)

// MemoryTarget selects which log an entry belongs to
type MemoryTarget string

const (
	TargetUser    MemoryTarget = "USER"
	TargetCompany MemoryTarget = "COMPANY"
)

// IsValid checks if the target is one of the two known logs
func (t MemoryTarget) IsValid() bool {
	return t == TargetUser || t == TargetCompany
}

// ParseMemoryTarget matches a target name case-insensitively
func ParseMemoryTarget(s string) (MemoryTarget, error) {
	t := MemoryTarget(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown memory target %q", s)
	}
	return t, nil
}

// MemoryEntry is one durable fact written to a memory log
type MemoryEntry struct {
	Target     MemoryTarget `json:"target"`
	Summary    string       `json:"summary"`
	Confidence float64      `json:"confidence,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

// MemoryDateLayout is the date format used in log lines
const MemoryDateLayout = "2006-01-02"

// Line renders the entry as a log bullet line without the trailing newline
func (e MemoryEntry) Line() string {
	return fmt.Sprintf("- [%s] %s", e.Timestamp.Format(MemoryDateLayout), e.Summary)
}
