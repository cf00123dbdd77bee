// Package market collects quotes from the exchange and serves price
// lookups with a live-then-stored resolution order.
package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"

	"github.com/rferrell/papertrade/internal/common"
	"github.com/rferrell/papertrade/internal/interfaces"
	"github.com/rferrell/papertrade/internal/models"
)

const (
	// cacheTTL bounds how long a quote can serve as a live-price stand-in
	// before the stored history becomes the fallback of record.
	cacheTTL = 5 * time.Minute

	cacheMaxCost = 1 << 20
)

// Service implements interfaces.MarketService.
type Service struct {
	logger  *common.Logger
	client  interfaces.BinanceClient
	storage interfaces.StorageManager
	symbols []string
	cache   *ristretto.Cache
}

// NewService creates a market service tracking the given symbols.
func NewService(logger *common.Logger, client interfaces.BinanceClient, storage interfaces.StorageManager, symbols []string) (*Service, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     cacheMaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create quote cache: %w", err)
	}

	return &Service{
		logger:  logger,
		client:  client,
		storage: storage,
		symbols: symbols,
		cache:   cache,
	}, nil
}

func (s *Service) cacheQuote(quote *models.Quote) {
	s.cache.SetWithTTL(quote.Symbol, quote, 1, cacheTTL)
}

func (s *Service) cachedQuote(symbol string) *models.Quote {
	if v, ok := s.cache.Get(symbol); ok {
		if quote, ok := v.(*models.Quote); ok {
			return quote
		}
	}
	return nil
}

// CollectQuotes polls the 24h ticker for every configured symbol and
// stores each observation. A failing symbol is logged and skipped; the
// call errors only when no symbol could be collected.
func (s *Service) CollectQuotes(ctx context.Context) error {
	if len(s.symbols) == 0 {
		return nil
	}

	collected := 0
	for _, symbol := range s.symbols {
		quote, err := s.client.GetTicker24h(ctx, symbol)
		if err != nil {
			s.logger.Warn().Str("symbol", symbol).Err(err).Msg("Ticker fetch failed, skipping symbol")
			continue
		}

		quote.ID = uuid.New().String()
		if err := s.storage.Market().SaveQuote(ctx, quote); err != nil {
			s.logger.Warn().Str("symbol", symbol).Err(err).Msg("Quote save failed")
			continue
		}

		s.cacheQuote(quote)
		collected++
	}

	s.logger.Debug().Int("collected", collected).Int("symbols", len(s.symbols)).Msg("Quote collection cycle finished")

	if collected == 0 {
		return fmt.Errorf("%w: no symbol could be collected", models.ErrUpstreamFailure)
	}
	return nil
}

// ResolvePrice returns a price for a symbol: live from the exchange first,
// then the recent cache, then the latest stored observation.
func (s *Service) ResolvePrice(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, models.ErrQuoteUnavailable
	}

	quote, err := s.client.GetPrice(ctx, symbol)
	if err == nil && quote.PriceDecimal().IsPositive() {
		s.cacheQuote(quote)
		return quote, nil
	}
	if err != nil {
		s.logger.Debug().Str("symbol", symbol).Err(err).Msg("Live price fetch failed, falling back to stored quote")
	}

	if cached := s.cachedQuote(symbol); cached != nil {
		stored := *cached
		stored.Source = models.QuoteSourceStored
		return &stored, nil
	}

	latest, err := s.storage.Market().LatestQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if latest == nil || !latest.PriceDecimal().IsPositive() {
		return nil, models.ErrQuoteUnavailable
	}

	stored := *latest
	stored.Source = models.QuoteSourceStored
	return &stored, nil
}

func (s *Service) LatestAll(ctx context.Context) ([]*models.Quote, error) {
	return s.storage.Market().LatestQuotes(ctx)
}

func (s *Service) History(ctx context.Context, symbol string, since time.Time) ([]*models.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	return s.storage.Market().QuoteHistory(ctx, symbol, since)
}

// PriceChartPNG renders the stored price history for a symbol.
func (s *Service) PriceChartPNG(ctx context.Context, symbol string, since time.Time) ([]byte, error) {
	quotes, err := s.History(ctx, symbol, since)
	if err != nil {
		return nil, err
	}
	return RenderPriceChart(symbol, quotes)
}

// Ensure Service implements MarketService
var _ interfaces.MarketService = (*Service)(nil)
