package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/rferrell/papertrade/internal/common"
	"github.com/rferrell/papertrade/internal/models"
)

// MarketStore implements interfaces.MarketStore using BadgerHold.
type MarketStore struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewMarketStore creates a market store on an open BadgerHold database.
func NewMarketStore(db *badgerhold.Store, logger *common.Logger) *MarketStore {
	return &MarketStore{db: db, logger: logger}
}

func (s *MarketStore) SaveQuote(_ context.Context, quote *models.Quote) error {
	if err := s.db.Upsert(quote.ID, quote); err != nil {
		return fmt.Errorf("failed to save quote for '%s': %w", quote.Symbol, err)
	}
	return nil
}

func (s *MarketStore) LatestQuote(_ context.Context, symbol string) (*models.Quote, error) {
	query := badgerhold.Where("Symbol").Eq(symbol).SortBy("ObservedAt").Reverse().Limit(1)

	var quotes []models.Quote
	if err := s.db.Find(&quotes, query); err != nil {
		return nil, fmt.Errorf("failed to get latest quote for '%s': %w", symbol, err)
	}
	if len(quotes) == 0 {
		return nil, nil
	}
	return &quotes[0], nil
}

func (s *MarketStore) LatestQuotes(_ context.Context) ([]*models.Quote, error) {
	var all []models.Quote
	if err := s.db.Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}

	latest := make(map[string]*models.Quote)
	for i := range all {
		q := &all[i]
		if cur, ok := latest[q.Symbol]; !ok || q.ObservedAt.After(cur.ObservedAt) {
			latest[q.Symbol] = q
		}
	}

	result := make([]*models.Quote, 0, len(latest))
	for _, q := range latest {
		result = append(result, q)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Symbol < result[j].Symbol })
	return result, nil
}

func (s *MarketStore) QuoteHistory(_ context.Context, symbol string, since time.Time) ([]*models.Quote, error) {
	query := badgerhold.Where("Symbol").Eq(symbol).And("ObservedAt").Ge(since).SortBy("ObservedAt")

	var quotes []models.Quote
	if err := s.db.Find(&quotes, query); err != nil {
		return nil, fmt.Errorf("failed to get quote history for '%s': %w", symbol, err)
	}
	result := make([]*models.Quote, len(quotes))
	for i := range quotes {
		result[i] = &quotes[i]
	}
	return result, nil
}

func (s *MarketStore) PruneQuotes(_ context.Context, before time.Time) (int, error) {
	var quotes []models.Quote
	if err := s.db.Find(&quotes, badgerhold.Where("ObservedAt").Lt(before)); err != nil {
		return 0, fmt.Errorf("failed to find stale quotes: %w", err)
	}

	for _, q := range quotes {
		if err := s.db.Delete(q.ID, models.Quote{}); err != nil && err != badgerhold.ErrNotFound {
			return 0, fmt.Errorf("failed to prune quote '%s': %w", q.ID, err)
		}
	}

	if len(quotes) > 0 {
		s.logger.Debug().Int("count", len(quotes)).Msg("Stale quotes pruned")
	}
	return len(quotes), nil
}
