// Package badger implements the storage interfaces on an embedded
// BadgerHold database. It is the default backend and needs no external
// services.
package badger

import (
	"context"
	"fmt"
	"os"

	"github.com/timshannon/badgerhold/v4"

	"github.com/rferrell/papertrade/internal/common"
	"github.com/rferrell/papertrade/internal/interfaces"
)

// Manager implements interfaces.StorageManager using BadgerHold.
type Manager struct {
	db     *badgerhold.Store
	logger *common.Logger

	ledgerStore *LedgerStore
	marketStore *MarketStore
}

// NewManager opens the embedded database at path.
func NewManager(logger *common.Logger, path string) (*Manager, error) {
	if path == "" {
		path = "data/papertrade"
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data path %s: %w", path, err)
	}

	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db at %s: %w", path, err)
	}

	logger.Info().Str("path", path).Msg("Badger storage opened")

	m := &Manager{
		db:     db,
		logger: logger,
	}
	m.ledgerStore = NewLedgerStore(db, logger)
	m.marketStore = NewMarketStore(db, logger)

	return m, nil
}

func (m *Manager) Ledger() interfaces.LedgerStore {
	return m.ledgerStore
}

func (m *Manager) Market() interfaces.MarketStore {
	return m.marketStore
}

func (m *Manager) Ping(_ context.Context) error {
	if m.db == nil {
		return fmt.Errorf("badger db not open")
	}
	return nil
}

func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
