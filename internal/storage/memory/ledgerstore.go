package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rferrell/papertrade/internal/models"
)

type holdingID struct {
	account string
	symbol  string
}

// LedgerStore implements interfaces.LedgerStore with in-memory maps.
type LedgerStore struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
	holdings map[holdingID]models.Holding
	trades   map[string]models.TradeRecord
	points   map[string]models.ValuePoint
}

// NewLedgerStore creates an empty in-memory ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		accounts: make(map[string]models.Account),
		holdings: make(map[holdingID]models.Holding),
		trades:   make(map[string]models.TradeRecord),
		points:   make(map[string]models.ValuePoint),
	}
}

func (s *LedgerStore) CreateAccount(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.Name]; ok {
		return models.ErrAccountExists
	}
	s.accounts[account.Name] = *account
	return nil
}

func (s *LedgerStore) GetAccount(_ context.Context, name string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[name]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return &account, nil
}

func (s *LedgerStore) ListAccounts(_ context.Context) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*models.Account, 0, len(s.accounts))
	for name := range s.accounts {
		account := s.accounts[name]
		result = append(result, &account)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *LedgerStore) UpdateAccount(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.Name]; !ok {
		return models.ErrAccountNotFound
	}
	s.accounts[account.Name] = *account
	return nil
}

func (s *LedgerStore) DeleteAccount(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[name]; !ok {
		return false, nil
	}
	for id := range s.holdings {
		if id.account == name {
			delete(s.holdings, id)
		}
	}
	for id, t := range s.trades {
		if t.AccountName == name {
			delete(s.trades, id)
		}
	}
	delete(s.accounts, name)
	return true, nil
}

func (s *LedgerStore) ResetAccount(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.Name] = *account
	for id := range s.holdings {
		if id.account == account.Name {
			delete(s.holdings, id)
		}
	}
	return nil
}

func (s *LedgerStore) GetHolding(_ context.Context, accountName, symbol string) (*models.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	holding, ok := s.holdings[holdingID{accountName, symbol}]
	if !ok {
		return nil, nil
	}
	return &holding, nil
}

func (s *LedgerStore) ListHoldings(_ context.Context, accountName string) ([]*models.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*models.Holding
	for id := range s.holdings {
		if id.account == accountName {
			holding := s.holdings[id]
			result = append(result, &holding)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Symbol < result[j].Symbol })
	return result, nil
}

func (s *LedgerStore) ApplyTrade(_ context.Context, mut *models.TradeMutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[mut.Account.Name] = mut.Account
	if mut.Holding != nil {
		s.holdings[holdingID{mut.Holding.AccountName, mut.Holding.Symbol}] = *mut.Holding
	}
	if mut.DeleteHolding {
		delete(s.holdings, holdingID{mut.Account.Name, mut.HoldingSymbol})
	}
	s.trades[mut.Trade.ID] = mut.Trade
	return nil
}

func (s *LedgerStore) ListTrades(_ context.Context, accountName string, limit int) ([]*models.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterTrades(func(t *models.TradeRecord) bool {
		return t.AccountName == accountName
	}, limit), nil
}

func (s *LedgerStore) ListTradesBySymbol(_ context.Context, accountName, symbol string, limit int) ([]*models.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterTrades(func(t *models.TradeRecord) bool {
		return t.AccountName == accountName && t.Symbol == symbol
	}, limit), nil
}

func (s *LedgerStore) filterTrades(match func(*models.TradeRecord) bool, limit int) []*models.TradeRecord {
	var result []*models.TradeRecord
	for id := range s.trades {
		trade := s.trades[id]
		if match(&trade) {
			result = append(result, &trade)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TradeTime.After(result[j].TradeTime) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func (s *LedgerStore) SaveValuePoint(_ context.Context, point *models.ValuePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[point.ID] = *point
	return nil
}

func (s *LedgerStore) ListValuePoints(_ context.Context, accountName string, since time.Time) ([]*models.ValuePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*models.ValuePoint
	for id := range s.points {
		point := s.points[id]
		if point.AccountName == accountName && !point.RecordedAt.Before(since) {
			result = append(result, &point)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RecordedAt.Before(result[j].RecordedAt) })
	return result, nil
}

func (s *LedgerStore) PruneValuePoints(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id, point := range s.points {
		if point.RecordedAt.Before(before) {
			delete(s.points, id)
			count++
		}
	}
	return count, nil
}
