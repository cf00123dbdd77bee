// Package models defines data structures for the paper-trading server.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade sides. A trade record is append-only and never mutated.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Account is a simulated trading account. Money fields are persisted as
// decimal strings; arithmetic goes through the decimal accessors so values
// never touch binary floating point.
type Account struct {
	Name       string    `json:"name"`
	Balance    string    `json:"balance"`
	TotalValue string    `json:"total_value"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BalanceDecimal returns the cash balance as a decimal.
func (a *Account) BalanceDecimal() decimal.Decimal {
	return MustDecimal(a.Balance)
}

// SetBalance stores the cash balance from a decimal.
func (a *Account) SetBalance(d decimal.Decimal) {
	a.Balance = d.String()
}

// TotalValueDecimal returns the derived total value as a decimal.
func (a *Account) TotalValueDecimal() decimal.Decimal {
	return MustDecimal(a.TotalValue)
}

// SetTotalValue stores the derived total value from a decimal.
func (a *Account) SetTotalValue(d decimal.Decimal) {
	a.TotalValue = d.String()
}

// Holding is one (account, symbol) position: quantity held plus the
// cumulative cost basis paid for it. Deleted when quantity reaches zero.
type Holding struct {
	AccountName string    `json:"account_name"`
	Symbol      string    `json:"symbol"`
	Quantity    string    `json:"quantity"`
	CostBasis   string    `json:"cost_basis"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// QuantityDecimal returns the held quantity as a decimal.
func (h *Holding) QuantityDecimal() decimal.Decimal {
	return MustDecimal(h.Quantity)
}

// CostBasisDecimal returns the cumulative cost basis as a decimal.
func (h *Holding) CostBasisDecimal() decimal.Decimal {
	return MustDecimal(h.CostBasis)
}

// TradeRecord is one immutable ledger entry. Amount is the notional
// (price × quantity) at execution time.
type TradeRecord struct {
	ID          string    `json:"trade_id"`
	AccountName string    `json:"account_name"`
	Symbol      string    `json:"symbol"`
	Side        string    `json:"side"`
	Price       string    `json:"price"`
	Quantity    string    `json:"quantity"`
	Amount      string    `json:"amount"`
	Strategy    string    `json:"strategy"`
	TradeTime   time.Time `json:"trade_time"`
}

// AmountDecimal returns the notional as a decimal.
func (t *TradeRecord) AmountDecimal() decimal.Decimal {
	return MustDecimal(t.Amount)
}

// ValuePoint is one append-only account-value observation, pruned by age.
type ValuePoint struct {
	ID          string    `json:"point_id"`
	AccountName string    `json:"account_name"`
	TotalValue  string    `json:"total_value"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// TotalValueDecimal returns the recorded total value as a decimal.
func (p *ValuePoint) TotalValueDecimal() decimal.Decimal {
	return MustDecimal(p.TotalValue)
}

// AccountView is the read model returned by account lookups: the account
// row plus its holdings and, when pricing was requested, the total value
// at the latest known quotes.
type AccountView struct {
	Account     Account   `json:"account"`
	Holdings    []Holding `json:"holdings"`
	PricedValue string    `json:"priced_value,omitempty"`
}

// DistributionSlice is one symbol's share of a portfolio, as a percentage
// rounded to 2 decimal places (half-up).
type DistributionSlice struct {
	Symbol  string `json:"symbol"`
	Value   string `json:"value"`
	Percent string `json:"percent"`
}

// TradeMutation is the atomic unit a trade applies to the ledger store:
// the account row with its new balance, the holding upsert or delete, and
// the trade record to append. Either all three persist or none do.
type TradeMutation struct {
	Account       Account
	Holding       *Holding // upsert when non-nil
	DeleteHolding bool     // delete the (account, HoldingSymbol) row
	HoldingSymbol string
	Trade         TradeRecord
}

// TradeRequest is the inbound shape for trade execution. Quantity arrives
// as a decimal string and the price is resolved server-side.
type TradeRequest struct {
	AccountName string `json:"account_name"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	Quantity    string `json:"quantity"`
	Strategy    string `json:"strategy,omitempty"`
}

// MustDecimal parses a stored decimal string, treating empty as zero.
// Stored values are only ever written via decimal.String, so a parse
// failure indicates store corruption and maps to zero rather than a panic.
func MustDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
