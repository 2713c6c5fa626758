// ABOUTME: Store pairs the USER and COMPANY logs and routes entries by target
// ABOUTME: The two logs live side by side in one memory directory
package memorylog

import (
	"fmt"
	"path/filepath"

	"github.com/harper/ragmem/internal/models"
)

// Store holds both memory logs
type Store struct {
	dir     string
	user    *Log
	company *Log
}

// NewStore creates a Store rooted at dir
func NewStore(dir string) *Store {
	return &Store{
		dir:     dir,
		user:    NewLog(models.TargetUser, filepath.Join(dir, UserFileName), UserHeader),
		company: NewLog(models.TargetCompany, filepath.Join(dir, CompanyFileName), CompanyHeader),
	}
}

// Dir returns the memory directory
func (s *Store) Dir() string { return s.dir }

// Log returns the log for target
func (s *Store) Log(target models.MemoryTarget) (*Log, error) {
	switch target {
	case models.TargetUser:
		return s.user, nil
	case models.TargetCompany:
		return s.company, nil
	default:
		return nil, fmt.Errorf("unknown memory target %q", target)
	}
}

// Append routes entry to the log named by its target
func (s *Store) Append(entry models.MemoryEntry) error {
	log, err := s.Log(entry.Target)
	if err != nil {
		return err
	}
	return log.Append(entry)
}

// Entries returns the parsed entries of one log
func (s *Store) Entries(target models.MemoryTarget) ([]models.MemoryEntry, error) {
	log, err := s.Log(target)
	if err != nil {
		return nil, err
	}
	return log.Entries()
}

// Content returns the raw Markdown of one log
func (s *Store) Content(target models.MemoryTarget) (string, error) {
	log, err := s.Log(target)
	if err != nil {
		return "", err
	}
	return log.Content()
}

// Reset restores both logs to their headers
func (s *Store) Reset() error {
	for _, log := range []*Log{s.user, s.company} {
		if err := log.Reset(); err != nil {
			return err
		}
	}
	return nil
}
