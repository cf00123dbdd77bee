package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rferrell/papertrade/internal/models"
)

// MarketStore implements interfaces.MarketStore with in-memory maps.
type MarketStore struct {
	mu     sync.RWMutex
	quotes map[string]models.Quote
}

// NewMarketStore creates an empty in-memory market store.
func NewMarketStore() *MarketStore {
	return &MarketStore{quotes: make(map[string]models.Quote)}
}

func (s *MarketStore) SaveQuote(_ context.Context, quote *models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[quote.ID] = *quote
	return nil
}

func (s *MarketStore) LatestQuote(_ context.Context, symbol string) (*models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.Quote
	for id := range s.quotes {
		quote := s.quotes[id]
		if quote.Symbol != symbol {
			continue
		}
		if latest == nil || quote.ObservedAt.After(latest.ObservedAt) {
			latest = &quote
		}
	}
	return latest, nil
}

func (s *MarketStore) LatestQuotes(_ context.Context) ([]*models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := make(map[string]*models.Quote)
	for id := range s.quotes {
		quote := s.quotes[id]
		if cur, ok := latest[quote.Symbol]; !ok || quote.ObservedAt.After(cur.ObservedAt) {
			latest[quote.Symbol] = &quote
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
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*models.Quote
	for id := range s.quotes {
		quote := s.quotes[id]
		if quote.Symbol == symbol && !quote.ObservedAt.Before(since) {
			result = append(result, &quote)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ObservedAt.Before(result[j].ObservedAt) })
	return result, nil
}

func (s *MarketStore) PruneQuotes(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id, quote := range s.quotes {
		if quote.ObservedAt.Before(before) {
			delete(s.quotes, id)
			count++
		}
	}
	return count, nil
}
