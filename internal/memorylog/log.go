// ABOUTME: Append-only Markdown memory log with a fixed header comment block
// ABOUTME: Each entry is one "- [YYYY-MM-DD] summary" bullet line
package memorylog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/harper/ragmem/internal/models"
)

const (
	UserFileName    = "USER_MEMORY.md"
	CompanyFileName = "COMPANY_MEMORY.md"

	// UserHeader is written when USER_MEMORY.md is created or reset
	UserHeader = `# USER MEMORY

<!--
Append only high-signal, user-specific facts worth remembering.
Do NOT dump raw conversation.
Avoid secrets or sensitive information.
-->
`

	// CompanyHeader is written when COMPANY_MEMORY.md is created or reset
	CompanyHeader = `# COMPANY MEMORY

<!--
Append reusable org-wide learnings that could help colleagues too.
Do NOT dump raw conversation.
Avoid secrets or sensitive information.
-->
`
)

var entryLine = regexp.MustCompile(`^- \[(\d{4}-\d{2}-\d{2})\] (.+)$`)

// Log is one append-only memory file
type Log struct {
	target models.MemoryTarget
	path   string
	header string
	mu     sync.Mutex
}

// NewLog creates a Log for target at path. The file is created lazily.
func NewLog(target models.MemoryTarget, path, header string) *Log {
	return &Log{target: target, path: path, header: header}
}

// Path returns the file location
func (l *Log) Path() string { return l.path }

// Target returns which log this is
func (l *Log) Target() models.MemoryTarget { return l.target }

// Append writes one bullet line, creating the file with its header if needed.
// Existing content is never rewritten.
func (l *Log) Append(entry models.MemoryEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensure(); err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", l.path, err)
	}
	if _, err := f.WriteString(entry.Line() + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append to %s: %w", l.path, err)
	}
	return f.Close()
}

// Reset rewrites the file to its header, dropping every entry
func (l *Log) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}
	if err := os.WriteFile(l.path, []byte(l.header), 0o644); err != nil {
		return fmt.Errorf("reset %s: %w", l.path, err)
	}
	return nil
}

// Entries parses the bullet lines back into entries, in file order.
// A missing file has no entries. Lines that are not bullets are skipped.
func (l *Log) Entries() ([]models.MemoryEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.MemoryEntry{}, nil
		}
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	defer f.Close()

	entries := []models.MemoryEntry{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := entryLine.FindStringSubmatch(strings.TrimRight(scanner.Text(), "\r"))
		if m == nil {
			continue
		}
		ts, err := time.Parse(models.MemoryDateLayout, m[1])
		if err != nil {
			continue
		}
		entries = append(entries, models.MemoryEntry{
			Target:    l.target,
			Summary:   m[2],
			Timestamp: ts,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}
	return entries, nil
}

// Content returns the raw file text, or the header if the file does not exist yet
func (l *Log) Content() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l.header, nil
		}
		return "", fmt.Errorf("read %s: %w", l.path, err)
	}
	return string(data), nil
}

// ensure creates the file with its header when absent. Caller holds mu.
func (l *Log) ensure() error {
	if _, err := os.Stat(l.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", l.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}
	if err := os.WriteFile(l.path, []byte(l.header), 0o644); err != nil {
		return fmt.Errorf("create %s: %w", l.path, err)
	}
	return nil
}
