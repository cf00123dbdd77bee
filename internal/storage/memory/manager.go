// Package memory implements the storage interfaces on in-process maps.
// It backs unit tests and throwaway dev runs; nothing survives a restart.
package memory

import (
	"context"

	"github.com/rferrell/papertrade/internal/interfaces"
)

// Manager implements interfaces.StorageManager with in-memory stores.
type Manager struct {
	ledgerStore *LedgerStore
	marketStore *MarketStore
}

// NewManager creates an empty in-memory storage manager.
func NewManager() *Manager {
	return &Manager{
		ledgerStore: NewLedgerStore(),
		marketStore: NewMarketStore(),
	}
}

func (m *Manager) Ledger() interfaces.LedgerStore {
	return m.ledgerStore
}

func (m *Manager) Market() interfaces.MarketStore {
	return m.marketStore
}

func (m *Manager) Ping(_ context.Context) error {
	return nil
}

func (m *Manager) Close() error {
	return nil
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
