package surrealdb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rferrell/papertrade/internal/models"
)

func newAccount(name, balance string) *models.Account {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Account{
		Name:       name,
		Balance:    balance,
		TotalValue: balance,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestLedgerStoreCreateGetAccount(t *testing.T) {
	store := NewLedgerStore(testDB(t), testLogger())
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, newAccount("alice", "10000")))

	got, err := store.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, "10000", got.Balance)
}

func TestLedgerStoreCreateAccountDuplicate(t *testing.T) {
	store := NewLedgerStore(testDB(t), testLogger())
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, newAccount("alice", "10000")))

	err := store.CreateAccount(ctx, newAccount("alice", "500"))
	assert.ErrorIs(t, err, models.ErrAccountExists)
}

func TestLedgerStoreCreateAccountConcurrent(t *testing.T) {
	store := NewLedgerStore(testDB(t), testLogger())
	ctx := context.Background()

	const racers = 8
	errs := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.CreateAccount(ctx, newAccount("alice", "10000"))
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
		} else {
			assert.ErrorIs(t, err, models.ErrAccountExists)
		}
	}
	assert.Equal(t, 1, created, "exactly one concurrent create should win")
}

func TestLedgerStoreGetAccountNotFound(t *testing.T) {
	store := NewLedgerStore(testDB(t), testLogger())

	_, err := store.GetAccount(context.Background(), "nobody")
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestLedgerStoreApplyTrade(t *testing.T) {
	store := NewLedgerStore(testDB(t), testLogger())
	ctx := context.Background()

	account := newAccount("alice", "10000")
	require.NoError(t, store.CreateAccount(ctx, account))

	account.Balance = "9500"
	mut := &models.TradeMutation{
		Account: *account,
		Holding: &models.Holding{
			AccountName: "alice",
			Symbol:      "BTC",
			Quantity:    "5",
			CostBasis:   "500",
			UpdatedAt:   time.Now().UTC().Truncate(time.Second),
		},
		Trade: models.TradeRecord{
			ID:          "t1",
			AccountName: "alice",
			Symbol:      "BTC",
			Side:        models.SideBuy,
			Price:       "100",
			Quantity:    "5",
			Amount:      "500",
			TradeTime:   time.Now().UTC().Truncate(time.Second),
		},
	}
	require.NoError(t, store.ApplyTrade(ctx, mut))

	got, err := store.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "9500", got.Balance)

	holding, err := store.GetHolding(ctx, "alice", "BTC")
	require.NoError(t, err)
	require.NotNil(t, holding)
	assert.Equal(t, "5", holding.Quantity)
	assert.Equal(t, "500", holding.CostBasis)

	trades, err := store.ListTrades(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, models.SideBuy, trades[0].Side)
}

func TestLedgerStoreApplyTradeDeletesHolding(t *testing.T) {
	store := NewLedgerStore(testDB(t), testLogger())
	ctx := context.Background()

	account := newAccount("alice", "10000")
	require.NoError(t, store.CreateAccount(ctx, account))

	buy := &models.TradeMutation{
		Account: *account,
		Holding: &models.Holding{AccountName: "alice", Symbol: "BTC", Quantity: "5", CostBasis: "500"},
		Trade:   models.TradeRecord{ID: "t1", AccountName: "alice", Symbol: "BTC", Side: models.SideBuy, TradeTime: time.Now().UTC()},
	}
	require.NoError(t, store.ApplyTrade(ctx, buy))

	sell := &models.TradeMutation{
		Account:       *account,
		DeleteHolding: true,
		HoldingSymbol: "BTC",
		Trade:         models.TradeRecord{ID: "t2", AccountName: "alice", Symbol: "BTC", Side: models.SideSell, TradeTime: time.Now().UTC()},
	}
	require.NoError(t, store.ApplyTrade(ctx, sell))

	holding, err := store.GetHolding(ctx, "alice", "BTC")
	require.NoError(t, err)
	assert.Nil(t, holding)

	trades, err := store.ListTrades(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Len(t, trades, 2)
}

func TestLedgerStoreListTradesBySymbol(t *testing.T) {
	store := NewLedgerStore(testDB(t), testLogger())
	ctx := context.Background()

	account := newAccount("alice", "10000")
	require.NoError(t, store.CreateAccount(ctx, account))

	base := time.Now().UTC().Truncate(time.Second)
	for i, symbol := range []string{"BTC", "ETH", "BTC"} {
		mut := &models.TradeMutation{
			Account: *account,
			Trade: models.TradeRecord{
				ID:          uuid.New().String(),
				AccountName: "alice",
				Symbol:      symbol,
				Side:        models.SideBuy,
				TradeTime:   base.Add(time.Duration(i) * time.Second),
			},
		}
		require.NoError(t, store.ApplyTrade(ctx, mut))
	}

	trades, err := store.ListTradesBySymbol(ctx, "alice", "BTC", 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	// Newest first.
	assert.True(t, !trades[0].TradeTime.Before(trades[1].TradeTime))
}

func TestLedgerStoreDeleteAccountCascades(t *testing.T) {
	store := NewLedgerStore(testDB(t), testLogger())
	ctx := context.Background()

	account := newAccount("alice", "10000")
	require.NoError(t, store.CreateAccount(ctx, account))
	mut := &models.TradeMutation{
		Account: *account,
		Holding: &models.Holding{AccountName: "alice", Symbol: "BTC", Quantity: "1", CostBasis: "100"},
		Trade:   models.TradeRecord{ID: "t1", AccountName: "alice", Symbol: "BTC", Side: models.SideBuy, TradeTime: time.Now().UTC()},
	}
	require.NoError(t, store.ApplyTrade(ctx, mut))

	deleted, err := store.DeleteAccount(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = store.GetAccount(ctx, "alice")
	assert.ErrorIs(t, err, models.ErrAccountNotFound)

	holdings, err := store.ListHoldings(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, holdings)

	trades, err := store.ListTrades(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Empty(t, trades)

	deleted, err = store.DeleteAccount(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestLedgerStoreResetAccount(t *testing.T) {
	store := NewLedgerStore(testDB(t), testLogger())
	ctx := context.Background()

	account := newAccount("alice", "10000")
	require.NoError(t, store.CreateAccount(ctx, account))
	mut := &models.TradeMutation{
		Account: *account,
		Holding: &models.Holding{AccountName: "alice", Symbol: "BTC", Quantity: "1", CostBasis: "100"},
		Trade:   models.TradeRecord{ID: "t1", AccountName: "alice", Symbol: "BTC", Side: models.SideBuy, TradeTime: time.Now().UTC()},
	}
	require.NoError(t, store.ApplyTrade(ctx, mut))

	require.NoError(t, store.ResetAccount(ctx, newAccount("alice", "5000")))

	got, err := store.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "5000", got.Balance)

	holdings, err := store.ListHoldings(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, holdings)

	// Trade history survives a reset.
	trades, err := store.ListTrades(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestLedgerStoreValuePoints(t *testing.T) {
	store := NewLedgerStore(testDB(t), testLogger())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	points := []*models.ValuePoint{
		{ID: "p1", AccountName: "alice", TotalValue: "100", RecordedAt: now.Add(-48 * time.Hour)},
		{ID: "p2", AccountName: "alice", TotalValue: "110", RecordedAt: now.Add(-24 * time.Hour)},
		{ID: "p3", AccountName: "alice", TotalValue: "120", RecordedAt: now},
	}
	for _, p := range points {
		require.NoError(t, store.SaveValuePoint(ctx, p))
	}

	listed, err := store.ListValuePoints(ctx, "alice", now.Add(-30*time.Hour))
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	pruned, err := store.PruneValuePoints(ctx, now.Add(-30*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	remaining, err := store.ListValuePoints(ctx, "alice", now.Add(-72*time.Hour))
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}
