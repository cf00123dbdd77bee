package interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rferrell/papertrade/internal/models"
)

// LedgerService owns account lifecycle and trade execution. Trades against
// the same account are serialized; the cash conservation rule (balance
// movement equals trade notional) holds across every operation.
type LedgerService interface {
	CreateAccount(ctx context.Context, name string, openingBalance decimal.Decimal) (*models.Account, error)

	// GetAccount returns the account with its holdings. When priced is
	// true the view carries the total value at the latest known quotes.
	GetAccount(ctx context.Context, name string, priced bool) (*models.AccountView, error)

	ListAccounts(ctx context.Context) ([]*models.Account, error)

	// ExecuteTrade resolves the current price, validates funds or holding,
	// and applies the trade atomically.
	ExecuteTrade(ctx context.Context, req *models.TradeRequest) (*models.TradeRecord, error)

	// ResetAccount is an idempotent upsert: sets the balance and clears
	// holdings while preserving trade history, creating the account when
	// it does not exist yet.
	ResetAccount(ctx context.Context, name string, balance decimal.Decimal) (*models.Account, error)

	// DeleteAccount removes the account and everything under it. Returns
	// false when the account does not exist.
	DeleteAccount(ctx context.Context, name string) (bool, error)

	// Distribution returns each held symbol's share of total portfolio
	// value as percentages summing to 100.
	Distribution(ctx context.Context, name string) ([]models.DistributionSlice, error)
}

// MarketService collects and serves market quotes.
type MarketService interface {
	// CollectQuotes polls the exchange for all configured symbols and
	// stores the observations. One symbol failing does not stop the rest.
	CollectQuotes(ctx context.Context) error

	// ResolvePrice returns a usable price for a symbol: live from the
	// exchange when reachable, otherwise the latest stored observation.
	ResolvePrice(ctx context.Context, symbol string) (*models.Quote, error)

	LatestAll(ctx context.Context) ([]*models.Quote, error)
	History(ctx context.Context, symbol string, since time.Time) ([]*models.Quote, error)

	// PriceChartPNG renders a price history line chart.
	PriceChartPNG(ctx context.Context, symbol string, since time.Time) ([]byte, error)
}

// ValuationService snapshots account values and maintains history.
type ValuationService interface {
	// RunCycle revalues every account and records a value point for each.
	// Per-account failures are logged and skipped.
	RunCycle(ctx context.Context) error

	// PruneHistory deletes value points and quotes older than the
	// retention window, returning the number removed.
	PruneHistory(ctx context.Context) (int, error)

	History(ctx context.Context, accountName string, since time.Time) ([]*models.ValuePoint, error)

	// ValueChartPNG renders an account value history line chart.
	ValueChartPNG(ctx context.Context, accountName string, since time.Time) ([]byte, error)
}

// AdvisorService produces trading advice from market and account state.
type AdvisorService interface {
	// Advise generates narrative advice for an account, delegating to a
	// completion provider and falling back to the heuristic when none is
	// reachable.
	Advise(ctx context.Context, accountName string) (*models.Advice, error)

	// Strategy generates a market-wide strategy overview across all tracked
	// symbols, with no account context.
	Strategy(ctx context.Context) (*models.Advice, error)

	// DetailedAdvice generates per-symbol analysis across the market, with
	// risk levels and target prices.
	DetailedAdvice(ctx context.Context) (*models.Advice, error)

	// Signal returns a single BUY/SELL/HOLD call for one symbol.
	Signal(ctx context.Context, symbol string) (string, error)

	// Recommendations runs the heuristic decision table over the account's
	// positions and current tickers.
	Recommendations(ctx context.Context, accountName string) ([]models.Recommendation, error)

	// QuickSignals classifies each tracked symbol by 24h momentum, biased
	// by the account's holdings when an account name is given.
	QuickSignals(ctx context.Context, accountName string) ([]models.SymbolSignal, error)
}

// HistoryService serves the trade ledger read side.
type HistoryService interface {
	// Trades returns recent trades for an account, newest first, filtered
	// by symbol when one is given.
	Trades(ctx context.Context, accountName, symbol string, limit int) ([]*models.TradeRecord, error)

	// AllTrades merges every account's trades into one listing, newest
	// first.
	AllTrades(ctx context.Context, limit int) ([]*models.TradeRecord, error)
}
