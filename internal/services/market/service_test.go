package market

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rferrell/papertrade/internal/common"
	"github.com/rferrell/papertrade/internal/models"
	"github.com/rferrell/papertrade/internal/storage/memory"
)

// stubBinance serves canned tickers and can be told to fail per symbol.
type stubBinance struct {
	prices  map[string]string
	failing map[string]bool
}

func (c *stubBinance) quote(symbol string) (*models.Quote, error) {
	if c.failing[symbol] {
		return nil, fmt.Errorf("connection refused")
	}
	price, ok := c.prices[symbol]
	if !ok {
		return nil, fmt.Errorf("unknown symbol %s", symbol)
	}
	return &models.Quote{
		Symbol:     symbol,
		Pair:       symbol + "USDT",
		Price:      price,
		Source:     models.QuoteSourceLive,
		ObservedAt: time.Now().UTC(),
	}, nil
}

func (c *stubBinance) GetPrice(_ context.Context, symbol string) (*models.Quote, error) {
	return c.quote(symbol)
}

func (c *stubBinance) GetTicker24h(_ context.Context, symbol string) (*models.Quote, error) {
	return c.quote(symbol)
}

func (c *stubBinance) GetTickers24h(ctx context.Context, symbols []string) ([]*models.Quote, error) {
	var quotes []*models.Quote
	for _, s := range symbols {
		q, err := c.quote(s)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

func newTestService(t *testing.T, client *stubBinance, symbols []string) (*Service, *memory.Manager) {
	t.Helper()
	storage := memory.NewManager()
	svc, err := NewService(common.NewSilentLogger(), client, storage, symbols)
	require.NoError(t, err)
	return svc, storage
}

func TestCollectQuotes_SavesObservations(t *testing.T) {
	client := &stubBinance{prices: map[string]string{"BTC": "64000", "ETH": "3200"}}
	svc, storage := newTestService(t, client, []string{"BTC", "ETH"})

	require.NoError(t, svc.CollectQuotes(context.Background()))

	quotes, err := storage.Market().LatestQuotes(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.NotEmpty(t, quotes[0].ID)
}

func TestCollectQuotes_SkipsFailingSymbol(t *testing.T) {
	client := &stubBinance{
		prices:  map[string]string{"BTC": "64000", "ETH": "3200"},
		failing: map[string]bool{"ETH": true},
	}
	svc, storage := newTestService(t, client, []string{"BTC", "ETH"})

	require.NoError(t, svc.CollectQuotes(context.Background()))

	btc, err := storage.Market().LatestQuote(context.Background(), "BTC")
	require.NoError(t, err)
	require.NotNil(t, btc)

	eth, err := storage.Market().LatestQuote(context.Background(), "ETH")
	require.NoError(t, err)
	assert.Nil(t, eth)
}

func TestCollectQuotes_AllFailing(t *testing.T) {
	client := &stubBinance{
		prices:  map[string]string{"BTC": "64000"},
		failing: map[string]bool{"BTC": true},
	}
	svc, _ := newTestService(t, client, []string{"BTC"})

	err := svc.CollectQuotes(context.Background())
	assert.ErrorIs(t, err, models.ErrUpstreamFailure)
}

func TestResolvePrice_Live(t *testing.T) {
	client := &stubBinance{prices: map[string]string{"BTC": "64000"}}
	svc, _ := newTestService(t, client, []string{"BTC"})

	quote, err := svc.ResolvePrice(context.Background(), "btc")
	require.NoError(t, err)
	assert.Equal(t, "BTC", quote.Symbol)
	assert.Equal(t, models.QuoteSourceLive, quote.Source)
	assert.Equal(t, "64000", quote.Price)
}

func TestResolvePrice_FallsBackToStored(t *testing.T) {
	client := &stubBinance{failing: map[string]bool{"BTC": true}}
	svc, storage := newTestService(t, client, []string{"BTC"})

	require.NoError(t, storage.Market().SaveQuote(context.Background(), &models.Quote{
		ID:         "q1",
		Symbol:     "BTC",
		Price:      "63000",
		Source:     models.QuoteSourceLive,
		ObservedAt: time.Now().UTC().Add(-time.Hour),
	}))

	quote, err := svc.ResolvePrice(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, "63000", quote.Price)
	assert.Equal(t, models.QuoteSourceStored, quote.Source)
}

func TestResolvePrice_PrefersNewestStored(t *testing.T) {
	client := &stubBinance{failing: map[string]bool{"BTC": true}}
	svc, storage := newTestService(t, client, []string{"BTC"})

	now := time.Now().UTC()
	require.NoError(t, storage.Market().SaveQuote(context.Background(), &models.Quote{
		ID: "old", Symbol: "BTC", Price: "60000", ObservedAt: now.Add(-2 * time.Hour),
	}))
	require.NoError(t, storage.Market().SaveQuote(context.Background(), &models.Quote{
		ID: "new", Symbol: "BTC", Price: "61000", ObservedAt: now.Add(-time.Hour),
	}))

	quote, err := svc.ResolvePrice(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, "61000", quote.Price)
}

func TestResolvePrice_Unavailable(t *testing.T) {
	client := &stubBinance{failing: map[string]bool{"BTC": true}}
	svc, _ := newTestService(t, client, []string{"BTC"})

	_, err := svc.ResolvePrice(context.Background(), "BTC")
	assert.ErrorIs(t, err, models.ErrQuoteUnavailable)

	_, err = svc.ResolvePrice(context.Background(), "  ")
	assert.ErrorIs(t, err, models.ErrQuoteUnavailable)
}

func TestHistory(t *testing.T) {
	client := &stubBinance{}
	svc, storage := newTestService(t, client, nil)

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		require.NoError(t, storage.Market().SaveQuote(context.Background(), &models.Quote{
			ID:         fmt.Sprintf("q%d", i),
			Symbol:     "BTC",
			Price:      "60000",
			ObservedAt: now.Add(time.Duration(-i) * time.Hour),
		}))
	}

	history, err := svc.History(context.Background(), "btc", now.Add(-90*time.Minute))
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestRenderPriceChart(t *testing.T) {
	now := time.Now().UTC()
	quotes := []*models.Quote{
		{Symbol: "BTC", Price: "60000", ObservedAt: now.Add(-2 * time.Hour)},
		{Symbol: "BTC", Price: "61000", ObservedAt: now.Add(-time.Hour)},
		{Symbol: "BTC", Price: "60500", ObservedAt: now},
	}

	png, err := RenderPriceChart("BTC", quotes)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")), "output should be a PNG")
}

func TestRenderPriceChart_TooFewPoints(t *testing.T) {
	_, err := RenderPriceChart("BTC", []*models.Quote{{Symbol: "BTC", Price: "1", ObservedAt: time.Now()}})
	assert.Error(t, err)
}
