package badger

import (
	"context"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/rferrell/papertrade/internal/common"
	"github.com/rferrell/papertrade/internal/models"
)

// holdingSep is the composite key separator for holding records. A null
// byte cannot appear in account names or symbols, so keys never collide.
const holdingSep = "\x00"

// LedgerStore implements interfaces.LedgerStore using BadgerHold.
type LedgerStore struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewLedgerStore creates a ledger store on an open BadgerHold database.
func NewLedgerStore(db *badgerhold.Store, logger *common.Logger) *LedgerStore {
	return &LedgerStore{db: db, logger: logger}
}

func holdingKey(accountName, symbol string) string {
	return accountName + holdingSep + symbol
}

// --- Accounts ---

func (s *LedgerStore) CreateAccount(_ context.Context, account *models.Account) error {
	if err := s.db.Insert(account.Name, account); err != nil {
		if err == badgerhold.ErrKeyExists {
			return models.ErrAccountExists
		}
		return fmt.Errorf("failed to create account '%s': %w", account.Name, err)
	}
	s.logger.Debug().Str("account", account.Name).Msg("Account created")
	return nil
}

func (s *LedgerStore) GetAccount(_ context.Context, name string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Get(name, &account); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account '%s': %w", name, err)
	}
	return &account, nil
}

func (s *LedgerStore) ListAccounts(_ context.Context) ([]*models.Account, error) {
	var accounts []models.Account
	if err := s.db.Find(&accounts, nil); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	result := make([]*models.Account, len(accounts))
	for i := range accounts {
		result[i] = &accounts[i]
	}
	return result, nil
}

func (s *LedgerStore) UpdateAccount(_ context.Context, account *models.Account) error {
	if err := s.db.Update(account.Name, account); err != nil {
		if err == badgerhold.ErrNotFound {
			return models.ErrAccountNotFound
		}
		return fmt.Errorf("failed to update account '%s': %w", account.Name, err)
	}
	return nil
}

func (s *LedgerStore) DeleteAccount(ctx context.Context, name string) (bool, error) {
	if _, err := s.GetAccount(ctx, name); err != nil {
		if err == models.ErrAccountNotFound {
			return false, nil
		}
		return false, err
	}

	holdings, err := s.ListHoldings(ctx, name)
	if err != nil {
		return false, err
	}

	var trades []models.TradeRecord
	if err := s.db.Find(&trades, badgerhold.Where("AccountName").Eq(name)); err != nil {
		return false, fmt.Errorf("failed to find trades for '%s': %w", name, err)
	}

	err = s.db.Badger().Update(func(tx *badgerdb.Txn) error {
		for _, h := range holdings {
			if err := s.db.TxDelete(tx, holdingKey(h.AccountName, h.Symbol), models.Holding{}); err != nil && err != badgerhold.ErrNotFound {
				return err
			}
		}
		for _, t := range trades {
			if err := s.db.TxDelete(tx, t.ID, models.TradeRecord{}); err != nil && err != badgerhold.ErrNotFound {
				return err
			}
		}
		return s.db.TxDelete(tx, name, models.Account{})
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete account '%s': %w", name, err)
	}

	s.logger.Debug().Str("account", name).Int("trades", len(trades)).Msg("Account deleted with holdings and trades")
	return true, nil
}

func (s *LedgerStore) ResetAccount(ctx context.Context, account *models.Account) error {
	holdings, err := s.ListHoldings(ctx, account.Name)
	if err != nil {
		return err
	}

	err = s.db.Badger().Update(func(tx *badgerdb.Txn) error {
		if err := s.db.TxUpsert(tx, account.Name, account); err != nil {
			return err
		}
		for _, h := range holdings {
			if err := s.db.TxDelete(tx, holdingKey(h.AccountName, h.Symbol), models.Holding{}); err != nil && err != badgerhold.ErrNotFound {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset account '%s': %w", account.Name, err)
	}
	return nil
}

// --- Holdings ---

func (s *LedgerStore) GetHolding(_ context.Context, accountName, symbol string) (*models.Holding, error) {
	var holding models.Holding
	if err := s.db.Get(holdingKey(accountName, symbol), &holding); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get holding '%s/%s': %w", accountName, symbol, err)
	}
	return &holding, nil
}

func (s *LedgerStore) ListHoldings(_ context.Context, accountName string) ([]*models.Holding, error) {
	var holdings []models.Holding
	if err := s.db.Find(&holdings, badgerhold.Where("AccountName").Eq(accountName)); err != nil {
		return nil, fmt.Errorf("failed to list holdings for '%s': %w", accountName, err)
	}
	result := make([]*models.Holding, len(holdings))
	for i := range holdings {
		result[i] = &holdings[i]
	}
	return result, nil
}

// --- Trades ---

func (s *LedgerStore) ApplyTrade(_ context.Context, mut *models.TradeMutation) error {
	err := s.db.Badger().Update(func(tx *badgerdb.Txn) error {
		if err := s.db.TxUpsert(tx, mut.Account.Name, &mut.Account); err != nil {
			return err
		}
		if mut.Holding != nil {
			if err := s.db.TxUpsert(tx, holdingKey(mut.Holding.AccountName, mut.Holding.Symbol), mut.Holding); err != nil {
				return err
			}
		}
		if mut.DeleteHolding {
			if err := s.db.TxDelete(tx, holdingKey(mut.Account.Name, mut.HoldingSymbol), models.Holding{}); err != nil && err != badgerhold.ErrNotFound {
				return err
			}
		}
		return s.db.TxInsert(tx, mut.Trade.ID, &mut.Trade)
	})
	if err != nil {
		return fmt.Errorf("failed to apply trade for '%s': %w", mut.Account.Name, err)
	}

	s.logger.Debug().
		Str("account", mut.Account.Name).
		Str("symbol", mut.Trade.Symbol).
		Str("side", mut.Trade.Side).
		Msg("Trade applied")
	return nil
}

func (s *LedgerStore) ListTrades(_ context.Context, accountName string, limit int) ([]*models.TradeRecord, error) {
	query := badgerhold.Where("AccountName").Eq(accountName).SortBy("TradeTime").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var trades []models.TradeRecord
	if err := s.db.Find(&trades, query); err != nil {
		return nil, fmt.Errorf("failed to list trades for '%s': %w", accountName, err)
	}
	result := make([]*models.TradeRecord, len(trades))
	for i := range trades {
		result[i] = &trades[i]
	}
	return result, nil
}

func (s *LedgerStore) ListTradesBySymbol(_ context.Context, accountName, symbol string, limit int) ([]*models.TradeRecord, error) {
	query := badgerhold.Where("AccountName").Eq(accountName).And("Symbol").Eq(symbol).SortBy("TradeTime").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var trades []models.TradeRecord
	if err := s.db.Find(&trades, query); err != nil {
		return nil, fmt.Errorf("failed to list trades for '%s/%s': %w", accountName, symbol, err)
	}
	result := make([]*models.TradeRecord, len(trades))
	for i := range trades {
		result[i] = &trades[i]
	}
	return result, nil
}

// --- Value history ---

func (s *LedgerStore) SaveValuePoint(_ context.Context, point *models.ValuePoint) error {
	if err := s.db.Insert(point.ID, point); err != nil {
		return fmt.Errorf("failed to save value point for '%s': %w", point.AccountName, err)
	}
	return nil
}

func (s *LedgerStore) ListValuePoints(_ context.Context, accountName string, since time.Time) ([]*models.ValuePoint, error) {
	query := badgerhold.Where("AccountName").Eq(accountName).And("RecordedAt").Ge(since).SortBy("RecordedAt")

	var points []models.ValuePoint
	if err := s.db.Find(&points, query); err != nil {
		return nil, fmt.Errorf("failed to list value points for '%s': %w", accountName, err)
	}
	result := make([]*models.ValuePoint, len(points))
	for i := range points {
		result[i] = &points[i]
	}
	return result, nil
}

func (s *LedgerStore) PruneValuePoints(_ context.Context, before time.Time) (int, error) {
	var points []models.ValuePoint
	if err := s.db.Find(&points, badgerhold.Where("RecordedAt").Lt(before)); err != nil {
		return 0, fmt.Errorf("failed to find stale value points: %w", err)
	}

	for _, p := range points {
		if err := s.db.Delete(p.ID, models.ValuePoint{}); err != nil && err != badgerhold.ErrNotFound {
			return 0, fmt.Errorf("failed to prune value point '%s': %w", p.ID, err)
		}
	}
	return len(points), nil
}
