package interfaces

import (
	"context"
	"time"

	"github.com/rferrell/papertrade/internal/models"
)

// StorageManager provides access to the backing stores. Implementations
// exist for SurrealDB and embedded Badger.
type StorageManager interface {
	Ledger() LedgerStore
	Market() MarketStore
	Ping(ctx context.Context) error
	Close() error
}

// LedgerStore persists accounts, holdings, trades, and value history.
// ApplyTrade, ResetAccount, and DeleteAccount are atomic: partial writes
// never become visible.
type LedgerStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, name string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error

	// DeleteAccount removes the account with its holdings and trades.
	// Returns false when no such account exists.
	DeleteAccount(ctx context.Context, name string) (bool, error)

	// ResetAccount upserts the account row and deletes all its holdings in
	// one transaction. Trade history is untouched.
	ResetAccount(ctx context.Context, account *models.Account) error

	GetHolding(ctx context.Context, accountName, symbol string) (*models.Holding, error)
	ListHoldings(ctx context.Context, accountName string) ([]*models.Holding, error)

	// ApplyTrade persists one trade mutation: the account row, the holding
	// upsert or delete, and the trade record, all or nothing.
	ApplyTrade(ctx context.Context, mut *models.TradeMutation) error

	ListTrades(ctx context.Context, accountName string, limit int) ([]*models.TradeRecord, error)
	ListTradesBySymbol(ctx context.Context, accountName, symbol string, limit int) ([]*models.TradeRecord, error)

	SaveValuePoint(ctx context.Context, point *models.ValuePoint) error
	ListValuePoints(ctx context.Context, accountName string, since time.Time) ([]*models.ValuePoint, error)

	// PruneValuePoints deletes points recorded before the cutoff and
	// returns how many were removed.
	PruneValuePoints(ctx context.Context, before time.Time) (int, error)
}

// MarketStore persists market quote observations.
type MarketStore interface {
	SaveQuote(ctx context.Context, quote *models.Quote) error

	// LatestQuote returns the most recent observation for a symbol, by
	// observation time. Nil when the symbol has never been observed.
	LatestQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// LatestQuotes returns the most recent observation per symbol.
	LatestQuotes(ctx context.Context) ([]*models.Quote, error)

	QuoteHistory(ctx context.Context, symbol string, since time.Time) ([]*models.Quote, error)

	// PruneQuotes deletes observations older than the cutoff and returns
	// how many were removed.
	PruneQuotes(ctx context.Context, before time.Time) (int, error)
}
