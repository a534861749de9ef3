package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nao1215/reviewscan/internal/model"
)

// Persister writes the rows of a run to a destination.
type Persister interface {
	// Persist writes rows. It is called once per run.
	Persist(ctx context.Context, rows []model.OutputRow) error

	// Name identifies the destination in logs and errors.
	Name() string
}

// ResultSink accumulates output rows in insertion order.
// Append is safe for concurrent use.
type ResultSink struct {
	rows []model.OutputRow
	keys map[string]struct{}
	mu   sync.Mutex
}

// NewResultSink creates an empty ResultSink.
func NewResultSink() *ResultSink {
	return &ResultSink{keys: make(map[string]struct{})}
}

// Append adds rows and returns how many were added. A row whose link and
// review position are already present is dropped.
func (s *ResultSink) Append(rows ...model.OutputRow) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, r := range rows {
		key := r.Key()
		if _, ok := s.keys[key]; ok {
			continue
		}
		s.keys[key] = struct{}{}
		s.rows = append(s.rows, r)
		added++
	}
	return added
}

// Rows returns a copy of the accumulated rows.
func (s *ResultSink) Rows() []model.OutputRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.OutputRow(nil), s.rows...)
}

// Len returns the number of accumulated rows.
func (s *ResultSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Persist hands the accumulated rows to every persister.
// All persisters run even if one fails; their errors are joined.
func (s *ResultSink) Persist(ctx context.Context, persisters ...Persister) error {
	rows := s.Rows()

	var errs []error
	for _, p := range persisters {
		if err := p.Persist(ctx, rows); err != nil {
			errs = append(errs, fmt.Errorf("failed to persist to %s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
