// Package memory is an in-process record store used by default and in tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/relaygate/relaygate/internal/domain"
	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
)

type table struct {
	nextID int64
	order  []int64
	rows   map[int64]map[string]any
}

// Store keeps records per target with a per-target id sequence starting at 1
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{tables: make(map[string]*table)}
}

func (s *Store) table(target string) *table {
	t, ok := s.tables[target]
	if !ok {
		t = &table{rows: make(map[int64]map[string]any)}
		s.tables[target] = t
	}
	return t
}

// Insert stores a copy of data under a fresh id. A caller supplied id is replaced.
func (s *Store) Insert(ctx context.Context, target string, data map[string]any) (*domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(target)
	t.nextID++
	id := t.nextID

	row := maps.Clone(data)
	if row == nil {
		row = make(map[string]any)
	}
	row[domain.IDField] = id
	t.rows[id] = row
	t.order = append(t.order, id)

	return &domain.Record{ID: id, Data: maps.Clone(row)}, nil
}

// Update merges data into every record matching filter. The stored id is never changed.
func (s *Store) Update(ctx context.Context, target string, filter domain.Filter, data map[string]any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[target]
	if !ok {
		return 0, nil
	}

	var n int64
	for _, id := range t.order {
		row := t.rows[id]
		if !matches(row, filter) {
			continue
		}
		for k, v := range data {
			if k == domain.IDField {
				continue
			}
			row[k] = v
		}
		n++
	}
	return n, nil
}

// Delete removes every record matching filter
func (s *Store) Delete(ctx context.Context, target string, filter domain.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[target]
	if !ok {
		return 0, nil
	}

	kept := t.order[:0]
	var n int64
	for _, id := range t.order {
		if matches(t.rows[id], filter) {
			delete(t.rows, id)
			n++
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
	return n, nil
}

// List returns the records of target in insertion order
func (s *Store) List(ctx context.Context, target string) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[target]
	if !ok {
		return []domain.Record{}, nil
	}

	records := make([]domain.Record, 0, len(t.order))
	for _, id := range t.order {
		records = append(records, domain.Record{ID: id, Data: maps.Clone(t.rows[id])})
	}
	return records, nil
}

// Get returns one record or a NotFound error
func (s *Store) Get(ctx context.Context, target string, id any) (*domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, ok := domain.ParseRecordID(id)
	if !ok {
		return nil, apperrors.NotFound(fmt.Sprintf("%s/%v", target, id))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[target]
	if !ok {
		return nil, apperrors.NotFound(fmt.Sprintf("%s/%v", target, id))
	}
	row, ok := t.rows[key]
	if !ok {
		return nil, apperrors.NotFound(fmt.Sprintf("%s/%v", target, id))
	}
	return &domain.Record{ID: key, Data: maps.Clone(row)}, nil
}

// Ping always succeeds
func (s *Store) Ping(context.Context) error {
	return nil
}

// matches reports whether every filter field equals the row's field. The id
// field compares numerically so 1, 1.0 and "1" select the same record.
func matches(row map[string]any, filter domain.Filter) bool {
	for k, want := range filter {
		got, ok := row[k]
		if !ok {
			return false
		}
		if k == domain.IDField {
			a, okA := domain.ParseRecordID(got)
			b, okB := domain.ParseRecordID(want)
			if !okA || !okB || a != b {
				return false
			}
			continue
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
