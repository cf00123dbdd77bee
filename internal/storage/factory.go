// Package storage provides ledger and market persistence with pluggable
// backends.
package storage

import (
	"fmt"

	"github.com/rferrell/papertrade/internal/common"
	"github.com/rferrell/papertrade/internal/interfaces"
	"github.com/rferrell/papertrade/internal/storage/badger"
	"github.com/rferrell/papertrade/internal/storage/memory"
	"github.com/rferrell/papertrade/internal/storage/surrealdb"
)

// Driver constants.
const (
	DriverSurrealDB = "surrealdb"
	DriverBadger    = "badger"
	DriverMemory    = "memory"
)

// NewManager creates a storage manager for the configured driver.
// Supported drivers: "surrealdb", "badger" (embedded, default), and
// "memory" for tests and throwaway runs.
func NewManager(logger *common.Logger, config *common.Config) (interfaces.StorageManager, error) {
	driver := config.Storage.Driver
	if driver == "" {
		driver = DriverBadger
	}

	switch driver {
	case DriverSurrealDB:
		return surrealdb.NewManager(logger, config)

	case DriverBadger:
		return badger.NewManager(logger, config.Storage.Path)

	case DriverMemory:
		return memory.NewManager(), nil

	default:
		return nil, fmt.Errorf("unknown storage driver: %s (supported: surrealdb, badger, memory)", driver)
	}
}
