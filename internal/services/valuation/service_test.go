package valuation

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rferrell/papertrade/internal/common"
	"github.com/rferrell/papertrade/internal/models"
	"github.com/rferrell/papertrade/internal/storage/memory"
)

// stubMarket resolves prices from a fixed table.
type stubMarket struct {
	prices map[string]string
}

func (m *stubMarket) ResolvePrice(_ context.Context, symbol string) (*models.Quote, error) {
	price, ok := m.prices[symbol]
	if !ok {
		return nil, models.ErrQuoteUnavailable
	}
	return &models.Quote{Symbol: symbol, Price: price, ObservedAt: time.Now().UTC()}, nil
}

func (m *stubMarket) CollectQuotes(context.Context) error { return nil }
func (m *stubMarket) LatestAll(context.Context) ([]*models.Quote, error) {
	return nil, nil
}
func (m *stubMarket) History(context.Context, string, time.Time) ([]*models.Quote, error) {
	return nil, nil
}
func (m *stubMarket) PriceChartPNG(context.Context, string, time.Time) ([]byte, error) {
	return nil, nil
}

func seedAccount(t *testing.T, storage *memory.Manager, name, balance string) {
	t.Helper()
	account := &models.Account{Name: name, Balance: balance, TotalValue: balance}
	require.NoError(t, storage.Ledger().CreateAccount(context.Background(), account))
}

func seedHolding(t *testing.T, storage *memory.Manager, name, symbol, quantity string) {
	t.Helper()
	require.NoError(t, storage.Ledger().ApplyTrade(context.Background(), &models.TradeMutation{
		Account: models.Account{Name: name, Balance: mustBalance(t, storage, name)},
		Holding: &models.Holding{AccountName: name, Symbol: symbol, Quantity: quantity, CostBasis: "0"},
		Trade:   models.TradeRecord{ID: name + "-" + symbol, AccountName: name, Symbol: symbol, Side: models.SideBuy},
	}))
}

func mustBalance(t *testing.T, storage *memory.Manager, name string) string {
	t.Helper()
	account, err := storage.Ledger().GetAccount(context.Background(), name)
	require.NoError(t, err)
	return account.Balance
}

func TestRunCycle_RecomputesTotalValue(t *testing.T) {
	storage := memory.NewManager()
	seedAccount(t, storage, "alice", "100")
	seedHolding(t, storage, "alice", "BTC", "2")

	svc := NewService(common.NewSilentLogger(), storage, &stubMarket{prices: map[string]string{"BTC": "50"}}, 30*24*time.Hour)
	require.NoError(t, svc.RunCycle(context.Background()))

	account, err := storage.Ledger().GetAccount(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "200", account.TotalValue)

	points, err := storage.Ledger().ListValuePoints(context.Background(), "alice", time.Time{})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "200", points[0].TotalValue)
}

func TestRunCycle_MissingPriceSkipsSymbol(t *testing.T) {
	storage := memory.NewManager()
	seedAccount(t, storage, "alice", "100")
	seedHolding(t, storage, "alice", "BTC", "2")
	seedHolding(t, storage, "alice", "DOGE", "1000")

	svc := NewService(common.NewSilentLogger(), storage, &stubMarket{prices: map[string]string{"BTC": "50"}}, 30*24*time.Hour)
	require.NoError(t, svc.RunCycle(context.Background()))

	// DOGE has no price; its contribution is left out, cycle still runs.
	account, err := storage.Ledger().GetAccount(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "200", account.TotalValue)
}

func TestRunCycle_MultipleAccounts(t *testing.T) {
	storage := memory.NewManager()
	seedAccount(t, storage, "alice", "100")
	seedAccount(t, storage, "bob", "300")

	svc := NewService(common.NewSilentLogger(), storage, &stubMarket{prices: map[string]string{}}, 30*24*time.Hour)
	require.NoError(t, svc.RunCycle(context.Background()))

	for _, name := range []string{"alice", "bob"} {
		points, err := storage.Ledger().ListValuePoints(context.Background(), name, time.Time{})
		require.NoError(t, err)
		assert.Len(t, points, 1, "account %s", name)
	}
}

func TestPruneHistory(t *testing.T) {
	storage := memory.NewManager()
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, storage.Ledger().SaveValuePoint(ctx, &models.ValuePoint{
		ID: "old", AccountName: "alice", TotalValue: "100", RecordedAt: now.Add(-40 * 24 * time.Hour),
	}))
	require.NoError(t, storage.Ledger().SaveValuePoint(ctx, &models.ValuePoint{
		ID: "recent", AccountName: "alice", TotalValue: "110", RecordedAt: now.Add(-time.Hour),
	}))
	require.NoError(t, storage.Market().SaveQuote(ctx, &models.Quote{
		ID: "stale", Symbol: "BTC", Price: "1", ObservedAt: now.Add(-40 * 24 * time.Hour),
	}))

	svc := NewService(common.NewSilentLogger(), storage, &stubMarket{}, 30*24*time.Hour)
	removed, err := svc.PruneHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	seedAccount(t, storage, "alice", "100")
	points, err := svc.History(ctx, "alice", time.Time{})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "recent", points[0].ID)
}

func TestHistory_UnknownAccount(t *testing.T) {
	storage := memory.NewManager()
	svc := NewService(common.NewSilentLogger(), storage, &stubMarket{}, 30*24*time.Hour)

	_, err := svc.History(context.Background(), "ghost", time.Time{})
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestRenderValueChart(t *testing.T) {
	now := time.Now().UTC()
	points := []*models.ValuePoint{
		{AccountName: "alice", TotalValue: "100", RecordedAt: now.Add(-2 * time.Hour)},
		{AccountName: "alice", TotalValue: "105", RecordedAt: now.Add(-time.Hour)},
		{AccountName: "alice", TotalValue: "103", RecordedAt: now},
	}

	png, err := RenderValueChart("alice", points)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
