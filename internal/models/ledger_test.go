package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMustDecimal(t *testing.T) {
	assert.True(t, MustDecimal("").IsZero())
	assert.True(t, MustDecimal("garbage").IsZero())
	assert.Equal(t, "10000.5", MustDecimal("10000.50").String())
}

func TestAccountBalanceRoundTrip(t *testing.T) {
	a := Account{Name: "alice"}
	a.SetBalance(decimal.RequireFromString("10000.00"))

	assert.Equal(t, "10000", a.Balance)
	assert.True(t, a.BalanceDecimal().Equal(decimal.NewFromInt(10000)))
}

func TestHoldingDecimals(t *testing.T) {
	h := Holding{Quantity: "0.5", CostBasis: "21000.25"}

	assert.True(t, h.QuantityDecimal().Equal(decimal.RequireFromString("0.5")))
	assert.True(t, h.CostBasisDecimal().Equal(decimal.RequireFromString("21000.25")))
}

func TestQuoteChangePercentFloat(t *testing.T) {
	q := Quote{ChangePercent: "-3.271"}
	assert.InDelta(t, -3.271, q.ChangePercentFloat(), 1e-9)

	empty := Quote{}
	assert.Zero(t, empty.ChangePercentFloat())
}
