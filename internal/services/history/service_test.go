package history

import (
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

func seedTrades(t *testing.T, storage *memory.Manager, count int, symbol string) {
	t.Helper()
	ctx := context.Background()
	account := models.Account{Name: "alice", Balance: "1000"}
	now := time.Now().UTC()
	for i := 0; i < count; i++ {
		require.NoError(t, storage.Ledger().ApplyTrade(ctx, &models.TradeMutation{
			Account: account,
			Trade: models.TradeRecord{
				ID:          fmt.Sprintf("%s-%d", symbol, i),
				AccountName: "alice",
				Symbol:      symbol,
				Side:        models.SideBuy,
				TradeTime:   now.Add(time.Duration(i) * time.Minute),
			},
		}))
	}
}

func TestTrades_NewestFirst(t *testing.T) {
	storage := memory.NewManager()
	require.NoError(t, storage.Ledger().CreateAccount(context.Background(), &models.Account{Name: "alice", Balance: "1000"}))
	seedTrades(t, storage, 3, "BTC")

	svc := NewService(common.NewSilentLogger(), storage)
	trades, err := svc.Trades(context.Background(), "alice", "", 0)
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, "BTC-2", trades[0].ID)
	assert.Equal(t, "BTC-0", trades[2].ID)
}

func TestTrades_SymbolFilterAndLimit(t *testing.T) {
	storage := memory.NewManager()
	require.NoError(t, storage.Ledger().CreateAccount(context.Background(), &models.Account{Name: "alice", Balance: "1000"}))
	seedTrades(t, storage, 5, "BTC")
	seedTrades(t, storage, 2, "ETH")

	svc := NewService(common.NewSilentLogger(), storage)

	trades, err := svc.Trades(context.Background(), "alice", "eth", 0)
	require.NoError(t, err)
	assert.Len(t, trades, 2)

	trades, err = svc.Trades(context.Background(), "alice", "BTC", 3)
	require.NoError(t, err)
	assert.Len(t, trades, 3)
}

func TestTrades_UnknownAccount(t *testing.T) {
	svc := NewService(common.NewSilentLogger(), memory.NewManager())

	_, err := svc.Trades(context.Background(), "ghost", "", 0)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}
