package models

import "time"

// Advice actions.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// Advice is a generated trading commentary for an account, either from an
// upstream completion model or the built-in heuristic.
type Advice struct {
	AccountName string    `json:"account_name"`
	Provider    string    `json:"provider"`
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Recommendation is one actionable line of heuristic advice: what to do
// with a symbol and at what size.
type Recommendation struct {
	Symbol   string `json:"symbol"`
	Action   string `json:"action"`
	Quantity string `json:"quantity,omitempty"`
	Amount   string `json:"amount,omitempty"`
	Reason   string `json:"reason"`
}

// SymbolSignal is a quick per-symbol momentum reading derived from the
// 24h change, without account context.
type SymbolSignal struct {
	Symbol        string `json:"symbol"`
	Signal        string `json:"signal"`
	ChangePercent string `json:"change_percent"`
}
