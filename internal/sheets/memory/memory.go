package memory

import (
	"context"
	"fmt"
	"sync"

	"ricorrenze/internal/core"
	"ricorrenze/internal/sheets"
)

// Store is an in-memory sheet used when no spreadsheet is configured.
type Store struct {
	mu   sync.Mutex
	rows []core.ItemRecurrenceInfo
	keys map[string]int
}

var _ sheets.Exporter = (*Store)(nil)

func New() *Store {
	return &Store{keys: make(map[string]int)}
}

// AppendOccurrence stores the occurrence and returns a synthetic row reference.
func (s *Store) AppendOccurrence(_ context.Context, info core.ItemRecurrenceInfo) (string, error) {
	if info.ScheduledTransactionID == "" {
		return "", fmt.Errorf("occurrence has no scheduled transaction id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, info)
	s.keys[sheets.RowKey(info.ScheduledTransactionID, info.OccurrenceIndex)] = len(s.rows)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) HasOccurrence(_ context.Context, info core.ItemRecurrenceInfo) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[sheets.RowKey(info.ScheduledTransactionID, info.OccurrenceIndex)]
	return ok, nil
}

// Rows returns a copy of the exported rows in insertion order.
func (s *Store) Rows() []core.ItemRecurrenceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ItemRecurrenceInfo(nil), s.rows...)
}
