package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/rferrell/papertrade/internal/common"
	"github.com/rferrell/papertrade/internal/models"
)

// MarketStore implements interfaces.MarketStore using SurrealDB.
type MarketStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewMarketStore creates a market store on an open SurrealDB connection.
func NewMarketStore(db *surrealdb.DB, logger *common.Logger) *MarketStore {
	return &MarketStore{db: db, logger: logger}
}

func (s *MarketStore) SaveQuote(ctx context.Context, quote *models.Quote) error {
	sql := "UPSERT $rid CONTENT $data"
	vars := map[string]any{"rid": surrealmodels.NewRecordID("quote", quote.ID), "data": quote}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Quote](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save quote after retries: %w", lastErr)
}

func (s *MarketStore) LatestQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	sql := "SELECT * FROM quote WHERE symbol = $symbol ORDER BY observed_at DESC LIMIT 1"
	vars := map[string]any{"symbol": symbol}

	results, err := surrealdb.Query[[]models.Quote](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest quote for '%s': %w", symbol, err)
	}

	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return &(*results)[0].Result[0], nil
	}
	return nil, nil
}

func (s *MarketStore) LatestQuotes(ctx context.Context) ([]*models.Quote, error) {
	sql := "SELECT * FROM quote ORDER BY observed_at DESC"

	results, err := surrealdb.Query[[]models.Quote](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}

	seen := make(map[string]bool)
	var quotes []*models.Quote
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			q := &(*results)[0].Result[i]
			if seen[q.Symbol] {
				continue
			}
			seen[q.Symbol] = true
			quotes = append(quotes, q)
		}
	}
	return quotes, nil
}

func (s *MarketStore) QuoteHistory(ctx context.Context, symbol string, since time.Time) ([]*models.Quote, error) {
	sql := "SELECT * FROM quote WHERE symbol = $symbol AND observed_at >= $since ORDER BY observed_at"
	vars := map[string]any{"symbol": symbol, "since": since}

	results, err := surrealdb.Query[[]models.Quote](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote history for '%s': %w", symbol, err)
	}

	var quotes []*models.Quote
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			quotes = append(quotes, &(*results)[0].Result[i])
		}
	}
	return quotes, nil
}

func (s *MarketStore) PruneQuotes(ctx context.Context, before time.Time) (int, error) {
	sql := "DELETE quote WHERE observed_at < $cutoff RETURN BEFORE"
	vars := map[string]any{"cutoff": before}

	results, err := surrealdb.Query[[]models.Quote](ctx, s.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("failed to prune quotes: %w", err)
	}

	count := 0
	if results != nil && len(*results) > 0 {
		count = len((*results)[0].Result)
	}

	if count > 0 {
		s.logger.Debug().Int("count", count).Msg("Stale quotes pruned")
	}
	return count, nil
}
