// Package coretest provides an in-memory core.Store for tests.
package coretest

import (
	"context"
	"sync"

	"github.com/JonMunkholm/stmtimport/internal/database"
	"github.com/JonMunkholm/stmtimport/internal/ledger/ledgertest"
	"github.com/JonMunkholm/stmtimport/internal/strategy"
)

// Store adds strategy storage to ledgertest.Repo. Misses return
// database.ErrNotFound like the Postgres store.
type Store struct {
	*ledgertest.Repo

	mu         sync.Mutex
	nextID     int64
	strategies []*strategy.Strategy
}

func New() *Store {
	return &Store{Repo: ledgertest.New()}
}

func (m *Store) ListStrategies(ctx context.Context) ([]*strategy.Strategy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*strategy.Strategy(nil), m.strategies...), nil
}

func (m *Store) GetStrategy(ctx context.Context, id int64) (*strategy.Strategy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.strategies {
		if st.ID == id {
			return st, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *Store) CreateStrategy(ctx context.Context, st *strategy.Strategy) (*strategy.Strategy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	st.ID = m.nextID
	m.strategies = append(m.strategies, st)
	return st, nil
}

func (m *Store) UpdateStrategy(ctx context.Context, st *strategy.Strategy) (*strategy.Strategy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, old := range m.strategies {
		if old.ID == st.ID {
			m.strategies[i] = st
			return st, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *Store) DeleteStrategy(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, st := range m.strategies {
		if st.ID == id {
			m.strategies = append(m.strategies[:i], m.strategies[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}
