// Package storage persists convergence records to the configured backends.
package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chrissnell/windaep/internal/study"
)

// Store is a record storage backend. Save must replace whatever the store
// holds for the record's run.
type Store interface {
	Name() string
	Save(ctx context.Context, r *study.Record) error
	Close() error
}

// Manager fans a record out to every configured store
type Manager struct {
	stores []Store
	health *HealthTracker
	logger *zap.SugaredLogger
}

var _ study.Persister = (*Manager)(nil)

// NewManager returns a Manager writing to stores
func NewManager(logger *zap.SugaredLogger, stores ...Store) *Manager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Manager{stores: stores, health: NewHealthTracker(), logger: logger}
}

// Add registers another store
func (m *Manager) Add(s Store) {
	m.stores = append(m.stores, s)
}

// Stores returns the names of the registered stores
func (m *Manager) Stores() []string {
	names := make([]string, len(m.stores))
	for i, s := range m.stores {
		names[i] = s.Name()
	}
	return names
}

// Persist writes r to every store. Every store is attempted even when an
// earlier one fails.
func (m *Manager) Persist(ctx context.Context, r *study.Record) error {
	var errs []error
	for _, s := range m.stores {
		err := s.Save(ctx, r)
		m.health.Record(s.Name(), r.Len(), err)
		if err != nil {
			m.logger.Errorw("could not persist record", "store", s.Name(), "run_id", r.RunID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		m.logger.Debugw("record persisted", "store", s.Name(), "iterations", r.Len())
	}
	return errors.Join(errs...)
}

// Health returns the save health of every store written to so far
func (m *Manager) Health() map[string]Health {
	return m.health.All()
}

// Close closes every store. Stores whose last save failed are reported.
func (m *Manager) Close() error {
	var errs []error
	for _, s := range m.stores {
		if h, ok := m.health.Get(s.Name()); ok && h.Status != StatusHealthy {
			m.logger.Warnw("store is unhealthy", "store", s.Name(), "failures", h.Failures,
				"saves", h.Saves, "last_error", h.Error)
		}
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
