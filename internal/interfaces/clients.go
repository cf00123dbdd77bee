// Package interfaces defines the contracts between clients, services,
// storage, and the HTTP layer.
package interfaces

import (
	"context"

	"github.com/rferrell/papertrade/internal/models"
)

// BinanceClient fetches spot market data from the exchange API.
type BinanceClient interface {
	// GetPrice returns the current price for one symbol.
	GetPrice(ctx context.Context, symbol string) (*models.Quote, error)

	// GetTicker24h returns the rolling 24h ticker for one symbol.
	GetTicker24h(ctx context.Context, symbol string) (*models.Quote, error)

	// GetTickers24h returns 24h tickers for a set of symbols in one call.
	GetTickers24h(ctx context.Context, symbols []string) ([]*models.Quote, error)
}

// CompletionClient is a text-completion provider used for trading advice.
type CompletionClient interface {
	// Name identifies the provider in logs and responses.
	Name() string

	// Complete sends a system and user prompt and returns the model text.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
