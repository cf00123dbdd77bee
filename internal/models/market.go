package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote sources, recorded on price resolutions so callers can tell a live
// upstream price from a stored observation.
const (
	QuoteSourceLive   = "live"
	QuoteSourceStored = "stored"
)

// Quote is one market observation for a symbol. Numeric fields keep the
// upstream decimal-string form.
type Quote struct {
	ID            string    `json:"quote_id"`
	Symbol        string    `json:"symbol"`
	Pair          string    `json:"pair"`
	Price         string    `json:"price"`
	Change24h     string    `json:"change_24h"`
	ChangePercent string    `json:"change_percent"`
	HighPrice     string    `json:"high_price"`
	LowPrice      string    `json:"low_price"`
	Volume        string    `json:"volume"`
	Source        string    `json:"source"`
	ObservedAt    time.Time `json:"observed_at"`
}

// PriceDecimal returns the quote price as a decimal.
func (q *Quote) PriceDecimal() decimal.Decimal {
	return MustDecimal(q.Price)
}

// ChangePercentFloat returns the 24h change percentage as a float for
// threshold comparisons. Stored form stays the upstream string.
func (q *Quote) ChangePercentFloat() float64 {
	return MustDecimal(q.ChangePercent).InexactFloat64()
}
