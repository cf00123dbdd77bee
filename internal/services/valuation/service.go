// Package valuation recomputes account values on a schedule and keeps the
// value history within its retention window.
package valuation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rferrell/papertrade/internal/common"
	"github.com/rferrell/papertrade/internal/interfaces"
	"github.com/rferrell/papertrade/internal/models"
)

// Service implements interfaces.ValuationService.
type Service struct {
	logger    *common.Logger
	storage   interfaces.StorageManager
	market    interfaces.MarketService
	retention time.Duration
}

// NewService creates a valuation service with the given retention window.
func NewService(logger *common.Logger, storage interfaces.StorageManager, market interfaces.MarketService, retention time.Duration) *Service {
	return &Service{
		logger:    logger,
		storage:   storage,
		market:    market,
		retention: retention,
	}
}

// RunCycle revalues every account at current prices and appends a value
// point for each. A failing account or symbol is logged and skipped.
func (s *Service) RunCycle(ctx context.Context) error {
	accounts, err := s.storage.Ledger().ListAccounts(ctx)
	if err != nil {
		return err
	}

	revalued := 0
	for _, account := range accounts {
		if err := s.revalueAccount(ctx, account); err != nil {
			s.logger.Warn().Str("account", account.Name).Err(err).Msg("Account valuation failed, skipping")
			continue
		}
		revalued++
	}

	s.logger.Debug().Int("revalued", revalued).Int("accounts", len(accounts)).Msg("Valuation cycle finished")
	return nil
}

func (s *Service) revalueAccount(ctx context.Context, account *models.Account) error {
	holdings, err := s.storage.Ledger().ListHoldings(ctx, account.Name)
	if err != nil {
		return err
	}

	total := account.BalanceDecimal()
	for _, h := range holdings {
		quote, err := s.market.ResolvePrice(ctx, h.Symbol)
		if err != nil {
			s.logger.Warn().Str("account", account.Name).Str("symbol", h.Symbol).Err(err).Msg("No price for held symbol, leaving it out of the total")
			continue
		}
		total = total.Add(h.QuantityDecimal().Mul(quote.PriceDecimal()))
	}

	now := time.Now().UTC()
	account.SetTotalValue(total)
	account.UpdatedAt = now
	if err := s.storage.Ledger().UpdateAccount(ctx, account); err != nil {
		return err
	}

	point := &models.ValuePoint{
		ID:          uuid.New().String(),
		AccountName: account.Name,
		TotalValue:  total.String(),
		RecordedAt:  now,
	}
	return s.storage.Ledger().SaveValuePoint(ctx, point)
}

// PruneHistory removes value points and quotes older than the retention
// window and returns the total number of records deleted.
func (s *Service) PruneHistory(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.retention)

	points, err := s.storage.Ledger().PruneValuePoints(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	quotes, err := s.storage.Market().PruneQuotes(ctx, cutoff)
	if err != nil {
		return points, err
	}

	if points+quotes > 0 {
		s.logger.Info().Int("value_points", points).Int("quotes", quotes).Time("cutoff", cutoff).Msg("History pruned")
	}
	return points + quotes, nil
}

func (s *Service) History(ctx context.Context, accountName string, since time.Time) ([]*models.ValuePoint, error) {
	if _, err := s.storage.Ledger().GetAccount(ctx, accountName); err != nil {
		return nil, err
	}
	return s.storage.Ledger().ListValuePoints(ctx, accountName, since)
}

// ValueChartPNG renders an account's value history as a PNG line chart.
func (s *Service) ValueChartPNG(ctx context.Context, accountName string, since time.Time) ([]byte, error) {
	points, err := s.History(ctx, accountName, since)
	if err != nil {
		return nil, err
	}
	return RenderValueChart(accountName, points)
}

// Ensure Service implements ValuationService
var _ interfaces.ValuationService = (*Service)(nil)
