// Package memory is an in-process summary mirror for tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"sync"

	"finsight/internal/core"
)

type Mirror struct {
	mu     sync.Mutex
	tabs   map[string]core.MonthSummary
	writes int
}

func New() *Mirror {
	return &Mirror{tabs: make(map[string]core.MonthSummary)}
}

// WriteMonthSummary replaces the user's summary.
func (m *Mirror) WriteMonthSummary(_ context.Context, userID string, s core.MonthSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Categories = append([]core.CategoryAmount(nil), s.Categories...)
	m.tabs[userID] = s
	m.writes++
	return nil
}

// ReadMonthSummary returns the last summary written for the user.
func (m *Mirror) ReadMonthSummary(_ context.Context, userID string) (core.MonthSummary, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.tabs[userID]
	if !ok {
		return core.MonthSummary{}, false, nil
	}
	s.Categories = append([]core.CategoryAmount(nil), s.Categories...)
	return s, true, nil
}

// Writes counts successful writes.
func (m *Mirror) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
