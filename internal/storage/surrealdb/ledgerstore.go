package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/rferrell/papertrade/internal/common"
	"github.com/rferrell/papertrade/internal/models"
)

// LedgerStore implements interfaces.LedgerStore using SurrealDB.
type LedgerStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewLedgerStore creates a ledger store on an open SurrealDB connection.
func NewLedgerStore(db *surrealdb.DB, logger *common.Logger) *LedgerStore {
	return &LedgerStore{db: db, logger: logger}
}

func accountRID(name string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID("account", name)
}

func holdingRID(accountName, symbol string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID("holding", accountName+"/"+symbol)
}

// --- Accounts ---

func (s *LedgerStore) CreateAccount(ctx context.Context, account *models.Account) error {
	// CREATE refuses an existing record id, so concurrent creates of the
	// same name resolve server-side with exactly one winner.
	sql := "CREATE $rid CONTENT $data"
	vars := map[string]any{"rid": accountRID(account.Name), "data": account}

	if _, err := surrealdb.Query[[]models.Account](ctx, s.db, sql, vars); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return models.ErrAccountExists
		}
		return fmt.Errorf("failed to create account '%s': %w", account.Name, err)
	}

	s.logger.Debug().Str("account", account.Name).Msg("Account created")
	return nil
}

func (s *LedgerStore) GetAccount(ctx context.Context, name string) (*models.Account, error) {
	account, err := surrealdb.Select[models.Account](ctx, s.db, accountRID(name))
	if err != nil {
		return nil, fmt.Errorf("failed to select account '%s': %w", name, err)
	}
	if account == nil || account.Name == "" {
		return nil, models.ErrAccountNotFound
	}
	return account, nil
}

func (s *LedgerStore) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	results, err := surrealdb.Query[[]models.Account](ctx, s.db, "SELECT * FROM account ORDER BY name", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	var accounts []*models.Account
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			accounts = append(accounts, &(*results)[0].Result[i])
		}
	}
	return accounts, nil
}

func (s *LedgerStore) UpdateAccount(ctx context.Context, account *models.Account) error {
	if _, err := s.GetAccount(ctx, account.Name); err != nil {
		return err
	}

	sql := "UPSERT $rid CONTENT $data"
	vars := map[string]any{"rid": accountRID(account.Name), "data": account}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Account](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to update account after retries: %w", lastErr)
}

func (s *LedgerStore) DeleteAccount(ctx context.Context, name string) (bool, error) {
	if _, err := s.GetAccount(ctx, name); err != nil {
		if err == models.ErrAccountNotFound {
			return false, nil
		}
		return false, err
	}

	sql := `BEGIN TRANSACTION;
DELETE holding WHERE account_name = $name;
DELETE trade WHERE account_name = $name;
DELETE $rid;
COMMIT TRANSACTION;`
	vars := map[string]any{"name": name, "rid": accountRID(name)}

	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return false, fmt.Errorf("failed to delete account '%s': %w", name, err)
	}

	s.logger.Debug().Str("account", name).Msg("Account deleted with holdings and trades")
	return true, nil
}

func (s *LedgerStore) ResetAccount(ctx context.Context, account *models.Account) error {
	sql := `BEGIN TRANSACTION;
UPSERT $rid CONTENT $data;
DELETE holding WHERE account_name = $name;
COMMIT TRANSACTION;`
	vars := map[string]any{
		"rid":  accountRID(account.Name),
		"data": account,
		"name": account.Name,
	}

	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to reset account '%s': %w", account.Name, err)
	}
	return nil
}

// --- Holdings ---

func (s *LedgerStore) GetHolding(ctx context.Context, accountName, symbol string) (*models.Holding, error) {
	holding, err := surrealdb.Select[models.Holding](ctx, s.db, holdingRID(accountName, symbol))
	if err != nil {
		return nil, fmt.Errorf("failed to select holding '%s/%s': %w", accountName, symbol, err)
	}
	if holding == nil || holding.Symbol == "" {
		return nil, nil
	}
	return holding, nil
}

func (s *LedgerStore) ListHoldings(ctx context.Context, accountName string) ([]*models.Holding, error) {
	sql := "SELECT * FROM holding WHERE account_name = $name ORDER BY symbol"
	vars := map[string]any{"name": accountName}

	results, err := surrealdb.Query[[]models.Holding](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings for '%s': %w", accountName, err)
	}

	var holdings []*models.Holding
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			holdings = append(holdings, &(*results)[0].Result[i])
		}
	}
	return holdings, nil
}

// --- Trades ---

func (s *LedgerStore) ApplyTrade(ctx context.Context, mut *models.TradeMutation) error {
	var stmts []string
	vars := map[string]any{
		"account_rid": accountRID(mut.Account.Name),
		"account":     mut.Account,
		"trade_rid":   surrealmodels.NewRecordID("trade", mut.Trade.ID),
		"trade":       mut.Trade,
	}

	stmts = append(stmts, "UPSERT $account_rid CONTENT $account;")
	if mut.Holding != nil {
		vars["holding_rid"] = holdingRID(mut.Holding.AccountName, mut.Holding.Symbol)
		vars["holding"] = mut.Holding
		stmts = append(stmts, "UPSERT $holding_rid CONTENT $holding;")
	}
	if mut.DeleteHolding {
		vars["deleted_rid"] = holdingRID(mut.Account.Name, mut.HoldingSymbol)
		stmts = append(stmts, "DELETE $deleted_rid;")
	}
	stmts = append(stmts, "UPSERT $trade_rid CONTENT $trade;")

	sql := "BEGIN TRANSACTION;\n" + strings.Join(stmts, "\n") + "\nCOMMIT TRANSACTION;"

	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to apply trade for '%s': %w", mut.Account.Name, err)
	}

	s.logger.Debug().
		Str("account", mut.Account.Name).
		Str("symbol", mut.Trade.Symbol).
		Str("side", mut.Trade.Side).
		Msg("Trade applied")
	return nil
}

func (s *LedgerStore) ListTrades(ctx context.Context, accountName string, limit int) ([]*models.TradeRecord, error) {
	sql := "SELECT * FROM trade WHERE account_name = $name ORDER BY trade_time DESC"
	vars := map[string]any{"name": accountName}
	if limit > 0 {
		sql += " LIMIT $limit"
		vars["limit"] = limit
	}

	results, err := surrealdb.Query[[]models.TradeRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades for '%s': %w", accountName, err)
	}

	var trades []*models.TradeRecord
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			trades = append(trades, &(*results)[0].Result[i])
		}
	}
	return trades, nil
}

func (s *LedgerStore) ListTradesBySymbol(ctx context.Context, accountName, symbol string, limit int) ([]*models.TradeRecord, error) {
	sql := "SELECT * FROM trade WHERE account_name = $name AND symbol = $symbol ORDER BY trade_time DESC"
	vars := map[string]any{"name": accountName, "symbol": symbol}
	if limit > 0 {
		sql += " LIMIT $limit"
		vars["limit"] = limit
	}

	results, err := surrealdb.Query[[]models.TradeRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades for '%s/%s': %w", accountName, symbol, err)
	}

	var trades []*models.TradeRecord
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			trades = append(trades, &(*results)[0].Result[i])
		}
	}
	return trades, nil
}

// --- Value history ---

func (s *LedgerStore) SaveValuePoint(ctx context.Context, point *models.ValuePoint) error {
	sql := "UPSERT $rid CONTENT $data"
	vars := map[string]any{"rid": surrealmodels.NewRecordID("value_point", point.ID), "data": point}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.ValuePoint](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save value point after retries: %w", lastErr)
}

func (s *LedgerStore) ListValuePoints(ctx context.Context, accountName string, since time.Time) ([]*models.ValuePoint, error) {
	sql := "SELECT * FROM value_point WHERE account_name = $name AND recorded_at >= $since ORDER BY recorded_at"
	vars := map[string]any{"name": accountName, "since": since}

	results, err := surrealdb.Query[[]models.ValuePoint](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list value points for '%s': %w", accountName, err)
	}

	var points []*models.ValuePoint
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			points = append(points, &(*results)[0].Result[i])
		}
	}
	return points, nil
}

func (s *LedgerStore) PruneValuePoints(ctx context.Context, before time.Time) (int, error) {
	sql := "DELETE value_point WHERE recorded_at < $cutoff RETURN BEFORE"
	vars := map[string]any{"cutoff": before}

	results, err := surrealdb.Query[[]models.ValuePoint](ctx, s.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("failed to prune value points: %w", err)
	}

	count := 0
	if results != nil && len(*results) > 0 {
		count = len((*results)[0].Result)
	}
	return count, nil
}
