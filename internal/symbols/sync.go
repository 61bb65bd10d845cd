package symbols

import "sync"

// SyncTable is a Table safe for concurrent use.
type SyncTable struct {
	mu    sync.RWMutex
	table *Table
}

// NewSyncTable wraps t; t must not be used directly afterwards. A fresh
// table is created when t is nil.
func NewSyncTable(t *Table) *SyncTable {
	if t == nil {
		t = NewTable()
	}
	return &SyncTable{table: t}
}

// Define is Table.Define under the write lock.
func (s *SyncTable) Define(name string, hidden bool) (Symbol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Define(name, hidden)
}

// Resolve is Table.Resolve under the read lock.
func (s *SyncTable) Resolve(name string) (Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Resolve(name)
}

// Hidden is Table.Hidden under the read lock.
func (s *SyncTable) Hidden(sym Symbol) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Hidden(sym)
}

// Name implements Names.
func (s *SyncTable) Name(sym Symbol) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Name(sym)
}

// Snapshot returns an independent copy of the current table.
func (s *SyncTable) Snapshot() *Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Clone()
}
