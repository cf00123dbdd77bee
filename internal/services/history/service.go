// Package history serves the read side of the trade ledger.
package history

import (
	"context"
	"sort"
	"strings"

	"github.com/rferrell/papertrade/internal/common"
	"github.com/rferrell/papertrade/internal/interfaces"
	"github.com/rferrell/papertrade/internal/models"
)

// DefaultLimit caps trade listings when the caller does not ask for one.
const DefaultLimit = 100

// Service implements interfaces.HistoryService.
type Service struct {
	logger  *common.Logger
	storage interfaces.StorageManager
}

// NewService creates a trade history service.
func NewService(logger *common.Logger, storage interfaces.StorageManager) *Service {
	return &Service{logger: logger, storage: storage}
}

// Trades returns recent trades for an account, newest first. A symbol
// narrows the listing; limit <= 0 applies DefaultLimit.
func (s *Service) Trades(ctx context.Context, accountName, symbol string, limit int) ([]*models.TradeRecord, error) {
	if _, err := s.storage.Ledger().GetAccount(ctx, accountName); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol != "" {
		return s.storage.Ledger().ListTradesBySymbol(ctx, accountName, symbol, limit)
	}
	return s.storage.Ledger().ListTrades(ctx, accountName, limit)
}

// AllTrades merges every account's trades into one listing, newest first.
func (s *Service) AllTrades(ctx context.Context, limit int) ([]*models.TradeRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	accounts, err := s.storage.Ledger().ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	var all []*models.TradeRecord
	for _, account := range accounts {
		trades, err := s.storage.Ledger().ListTrades(ctx, account.Name, limit)
		if err != nil {
			return nil, err
		}
		all = append(all, trades...)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].TradeTime.After(all[j].TradeTime)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Ensure Service implements HistoryService
var _ interfaces.HistoryService = (*Service)(nil)
