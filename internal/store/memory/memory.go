// Package memory is an in-process record store used for local runs and tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"finsight/internal/core"
	"finsight/internal/store"
)

type key struct {
	user string
	kind core.Kind
}

type Store struct {
	mu    sync.RWMutex
	items map[key][]core.Record
	now   func() time.Time
}

var _ store.RecordStore = (*Store)(nil)

func New() *Store {
	return &Store{items: make(map[key][]core.Record), now: time.Now}
}

// WithClock replaces the time source used for default dates and edit stamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Seed inserts records as-is, keeping their IDs and dates. Missing IDs are
// generated. It is meant for fixtures and demo data.
func (s *Store) Seed(userID string, records ...core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		k := key{userID, r.Kind}
		s.items[k] = append(s.items[k], r)
	}
}

func (s *Store) Create(_ context.Context, userID string, r core.Record) (core.Record, error) {
	if err := r.Validate(); err != nil {
		return core.Record{}, err
	}
	now := s.now()
	r.ID = uuid.NewString()
	if r.Date.IsZero() {
		r.Date = now
	}
	r.UpdatedAt = time.Time{}

	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{userID, r.Kind}
	s.items[k] = append(s.items[k], r)
	return r, nil
}

func (s *Store) ListAll(_ context.Context, userID string, kind core.Kind) ([]core.Record, error) {
	if !kind.Valid() {
		return nil, core.ErrInvalidKind
	}
	s.mu.RLock()
	out := slices.Clone(s.items[key{userID, kind}])
	s.mu.RUnlock()

	// Zero dates sort last, matching the SQLite store.
	slices.SortStableFunc(out, func(a, b core.Record) int {
		return b.Date.Compare(a.Date)
	})
	return out, nil
}

func (s *Store) Update(_ context.Context, userID string, kind core.Kind, id string, patch core.RecordPatch) (core.Record, error) {
	if err := patch.Validate(kind); err != nil {
		return core.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.items[key{userID, kind}]
	i := slices.IndexFunc(list, func(r core.Record) bool { return r.ID == id })
	if i < 0 {
		return core.Record{}, store.ErrNotFound
	}
	updated := patch.Apply(list[i])
	updated.UpdatedAt = s.now()
	list[i] = updated
	return updated, nil
}

func (s *Store) Delete(_ context.Context, userID string, kind core.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{userID, kind}
	s.items[k] = slices.DeleteFunc(s.items[k], func(r core.Record) bool { return r.ID == id })
	return nil
}
