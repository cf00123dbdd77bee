package surrealdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rferrell/papertrade/internal/models"
)

func newQuote(id, symbol, price string, observedAt time.Time) *models.Quote {
	return &models.Quote{
		ID:         id,
		Symbol:     symbol,
		Pair:       symbol + "USDT",
		Price:      price,
		Source:     models.QuoteSourceLive,
		ObservedAt: observedAt,
	}
}

func TestMarketStoreLatestQuote(t *testing.T) {
	store := NewMarketStore(testDB(t), testLogger())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.SaveQuote(ctx, newQuote("q1", "BTC", "100", now.Add(-2*time.Minute))))
	require.NoError(t, store.SaveQuote(ctx, newQuote("q2", "BTC", "105", now)))
	require.NoError(t, store.SaveQuote(ctx, newQuote("q3", "BTC", "102", now.Add(-time.Minute))))

	latest, err := store.LatestQuote(ctx, "BTC")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "105", latest.Price)
}

func TestMarketStoreLatestQuoteUnknown(t *testing.T) {
	store := NewMarketStore(testDB(t), testLogger())

	latest, err := store.LatestQuote(context.Background(), "DOGE")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestMarketStoreLatestQuotes(t *testing.T) {
	store := NewMarketStore(testDB(t), testLogger())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.SaveQuote(ctx, newQuote("q1", "BTC", "100", now.Add(-time.Minute))))
	require.NoError(t, store.SaveQuote(ctx, newQuote("q2", "BTC", "105", now)))
	require.NoError(t, store.SaveQuote(ctx, newQuote("q3", "ETH", "50", now)))

	latest, err := store.LatestQuotes(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)

	bySymbol := map[string]string{}
	for _, q := range latest {
		bySymbol[q.Symbol] = q.Price
	}
	assert.Equal(t, "105", bySymbol["BTC"])
	assert.Equal(t, "50", bySymbol["ETH"])
}

func TestMarketStoreQuoteHistory(t *testing.T) {
	store := NewMarketStore(testDB(t), testLogger())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.SaveQuote(ctx, newQuote("q1", "BTC", "90", now.Add(-48*time.Hour))))
	require.NoError(t, store.SaveQuote(ctx, newQuote("q2", "BTC", "95", now.Add(-12*time.Hour))))
	require.NoError(t, store.SaveQuote(ctx, newQuote("q3", "BTC", "100", now)))
	require.NoError(t, store.SaveQuote(ctx, newQuote("q4", "ETH", "50", now)))

	history, err := store.QuoteHistory(ctx, "BTC", now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "95", history[0].Price)
	assert.Equal(t, "100", history[1].Price)
}

func TestMarketStorePruneQuotes(t *testing.T) {
	store := NewMarketStore(testDB(t), testLogger())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.SaveQuote(ctx, newQuote("q1", "BTC", "90", now.Add(-48*time.Hour))))
	require.NoError(t, store.SaveQuote(ctx, newQuote("q2", "ETH", "45", now.Add(-48*time.Hour))))
	require.NoError(t, store.SaveQuote(ctx, newQuote("q3", "BTC", "100", now)))

	pruned, err := store.PruneQuotes(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, pruned)

	latest, err := store.LatestQuotes(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "BTC", latest[0].Symbol)
}
