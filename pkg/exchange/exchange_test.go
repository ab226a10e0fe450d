package exchange

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExchange(mutate func(*Config)) *Exchange {
	cfg := DefaultConfig()
	cfg.Shock.Probability = 0 // tests control shocks explicitly
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg, nil)
}

func mustSubmit(t *testing.T, x *Exchange, side Side, qty int64, typ OrderType, price decimal.NullDecimal) OrderResult {
	t.Helper()
	res, err := x.SubmitOrder(side, qty, typ, price)
	require.NoError(t, err)
	return res
}

func TestSubmitOrderValidation(t *testing.T) {
	tests := []struct {
		name  string
		side  Side
		qty   int64
		typ   OrderType
		price decimal.NullDecimal
	}{
		{"zero quantity", Buy, 0, Market, decimal.NullDecimal{}},
		{"negative quantity", Sell, -5, Market, decimal.NullDecimal{}},
		{"limit without price", Buy, 10, Limit, decimal.NullDecimal{}},
		{"limit with zero price", Buy, 10, Limit, nd("0")},
		{"limit with negative price", Sell, 10, Limit, nd("-1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := newTestExchange(nil)
			_, err := x.SubmitOrder(tt.side, tt.qty, tt.typ, tt.price)
			require.ErrorIs(t, err, ErrInvalidOrder)
			assert.Equal(t, int64(0), x.Book().BidDepth(), "failed validation must not touch the book")
			assert.Equal(t, int64(0), x.Book().AskDepth())
			assert.Empty(t, x.Trades())
		})
	}
}

func TestParseValidation(t *testing.T) {
	_, err := ParseSide("hold")
	assert.ErrorIs(t, err, ErrInvalidOrder)
	_, err = ParseOrderType("stop")
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestOrderIDsAreMonotonic(t *testing.T) {
	x := newTestExchange(nil)
	a := mustSubmit(t, x, Buy, 5, Limit, nd("99"))
	b := mustSubmit(t, x, Sell, 5, Limit, nd("101"))
	c := mustSubmit(t, x, Buy, 1, Market, decimal.NullDecimal{})
	assert.Less(t, a.ID, b.ID)
	assert.Less(t, b.ID, c.ID)
}

func TestMarketOrderFillsAndReportsUnfilled(t *testing.T) {
	x := newTestExchange(nil)
	mustSubmit(t, x, Sell, 5, Limit, nd("100.00"))
	mustSubmit(t, x, Sell, 7, Limit, nd("100.10"))

	res := mustSubmit(t, x, Buy, 20, Market, decimal.NullDecimal{})

	assert.Equal(t, StatusExecuted, res.Status)
	assert.Equal(t, int64(12), res.Filled)
	assert.Equal(t, int64(8), res.Unfilled)
	assert.Equal(t, int64(0), x.Book().AskDepth())
	assert.Equal(t, int64(0), x.Book().BidDepth(), "market remainder never rests")

	trades := x.Trades()
	require.Len(t, trades, 2)
	assert.True(t, trades[0].Price.Equal(d("100.00")))
	assert.Equal(t, int64(5), trades[0].Qty)
	assert.True(t, trades[1].Price.Equal(d("100.10")))
	assert.Equal(t, int64(7), trades[1].Qty)
}

func TestCrossingLimitExecutesImmediately(t *testing.T) {
	x := newTestExchange(nil)
	mustSubmit(t, x, Sell, 5, Limit, nd("100.00"))

	res := mustSubmit(t, x, Buy, 8, Limit, nd("100.50"))

	assert.Equal(t, StatusResting, res.Status)
	assert.Equal(t, int64(5), res.Filled)
	assert.Equal(t, int64(3), res.Unfilled)

	// the remainder rests at the limit price on the buy side; the book is
	// never observably crossed
	bid, ok := x.Book().BestBid()
	require.True(t, ok)
	assert.Equal(t, int64(10050), bid)
	_, ok = x.Book().BestAsk()
	assert.False(t, ok)
}

func TestRestingLimitResult(t *testing.T) {
	x := newTestExchange(nil)

	res := mustSubmit(t, x, Sell, 9, Limit, nd("101.25"))

	assert.Equal(t, StatusResting, res.Status)
	assert.Equal(t, int64(0), res.Filled)
	assert.Equal(t, int64(9), res.Unfilled)
	assert.Equal(t, int64(9), x.Book().AskDepth())
}

func TestMidAndSpreadAbsence(t *testing.T) {
	x := newTestExchange(nil)

	assert.False(t, x.Mid().Valid, "empty book has no mid")
	assert.False(t, x.Spread().Valid)

	mustSubmit(t, x, Buy, 10, Limit, nd("99.50"))
	mid := x.Mid()
	require.True(t, mid.Valid, "single-sided book falls back to that side's best")
	assert.True(t, mid.Decimal.Equal(d("99.50")))
	assert.False(t, x.Spread().Valid, "spread needs both sides")

	mustSubmit(t, x, Sell, 10, Limit, nd("100.50"))
	mid = x.Mid()
	require.True(t, mid.Valid)
	assert.True(t, mid.Decimal.Equal(d("100")), "mid %s", mid.Decimal)
	spread := x.Spread()
	require.True(t, spread.Valid)
	assert.True(t, spread.Decimal.Equal(d("1")), "spread %s", spread.Decimal)
}

func TestGetSnapshotOrdering(t *testing.T) {
	x := newTestExchange(nil)
	mustSubmit(t, x, Buy, 1, Limit, nd("99.00"))
	mustSubmit(t, x, Buy, 2, Limit, nd("99.50"))
	mustSubmit(t, x, Buy, 3, Limit, nd("98.00"))
	mustSubmit(t, x, Sell, 4, Limit, nd("101.00"))
	mustSubmit(t, x, Sell, 5, Limit, nd("100.50"))

	snap := x.GetSnapshot(2)

	require.Len(t, snap.Bids, 2)
	assert.True(t, snap.Bids[0].Price.Equal(d("99.50")), "bids best-to-worst")
	assert.True(t, snap.Bids[1].Price.Equal(d("99.00")))

	require.Len(t, snap.Asks, 2)
	assert.True(t, snap.Asks[0].Price.Equal(d("100.50")), "asks best-to-worst")
	assert.True(t, snap.Asks[1].Price.Equal(d("101.00")))
}

func TestSnapshotAggregatesPerPrice(t *testing.T) {
	x := newTestExchange(nil)
	mustSubmit(t, x, Sell, 5, Limit, nd("100.00"))
	mustSubmit(t, x, Sell, 3, Limit, nd("100.00"))

	snap := x.GetSnapshot(5)

	require.Len(t, snap.Asks, 1)
	assert.Equal(t, int64(8), snap.Asks[0].Qty)
}

func TestVWAPCumulative(t *testing.T) {
	x := newTestExchange(nil)
	assert.False(t, x.VWAP().Valid, "no volume, no vwap")

	mustSubmit(t, x, Sell, 10, Limit, nd("100"))
	mustSubmit(t, x, Sell, 10, Limit, nd("110"))
	mustSubmit(t, x, Buy, 15, Market, decimal.NullDecimal{})

	// (100*10 + 110*5) / 15 = 103.33...
	vwap := x.VWAP()
	require.True(t, vwap.Valid)
	want := d("100").Mul(d("10")).Add(d("110").Mul(d("5"))).Div(d("15"))
	assert.True(t, vwap.Decimal.Equal(want), "vwap %s", vwap.Decimal)
}

func TestStepDriftRekeysLevels(t *testing.T) {
	x := newTestExchange(nil)
	mustSubmit(t, x, Sell, 20, Limit, nd("100.00"))

	res := x.Step(false)

	// direction of the drift is random; magnitude and quantity are not
	ask, ok := x.Book().BestAsk()
	require.True(t, ok)
	moved := ask - 10000
	if moved < 0 {
		moved = -moved
	}
	assert.Equal(t, int64(5), moved, "base drift is one 0.05 shift")
	assert.Equal(t, int64(20), x.Book().AskDepth(), "drift preserves quantities")
	assert.Equal(t, int64(1), res.Step)
	assert.False(t, res.Shock)
}

func TestStepShockAmplifiesDrift(t *testing.T) {
	x := newTestExchange(func(c *Config) {
		c.Shock.Probability = 1
		c.Shock.ReplenishQty = 50
		c.Shock.WidenTicks = 20
	})
	mustSubmit(t, x, Sell, 20, Limit, nd("100.00"))

	res := x.Step(false)
	require.True(t, res.Shock)

	// the original level moved by 5*5 ticks and halved to 10; one widened
	// quote of 50 rests 20 ticks beyond it
	snap := x.GetSnapshot(5)
	require.Len(t, snap.Asks, 2)
	assert.Equal(t, int64(10), snap.Asks[0].Qty)
	assert.Equal(t, int64(50), snap.Asks[1].Qty)

	best, _ := x.Book().BestAsk()
	moved := best - 10000
	if moved < 0 {
		moved = -moved
	}
	assert.Equal(t, int64(25), moved, "shock amplifies the 5-tick drift by 5")
	worst := snap.Asks[1].Price
	assert.True(t, worst.Sub(snap.Asks[0].Price).Equal(d("0.20")))
}

func TestStepCountsAndRecentTrades(t *testing.T) {
	x := newTestExchange(nil)
	mustSubmit(t, x, Sell, 10, Limit, nd("100"))

	res1 := x.Step(false)
	assert.Empty(t, res1.Trades)

	mustSubmit(t, x, Buy, 4, Market, decimal.NullDecimal{})
	res2 := x.Step(false)

	assert.Equal(t, int64(2), res2.Step)
	assert.Equal(t, int64(2), x.CurrentStep())
	assert.Empty(t, res2.Trades, "trades executed between steps belong to the earlier step index")

	trades := x.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, int64(1), trades[0].Step)
}

func TestStepResultCarriesLedgerState(t *testing.T) {
	x := newTestExchange(nil)
	mustSubmit(t, x, Sell, 10, Limit, nd("100"))
	mustSubmit(t, x, Buy, 10, Market, decimal.NullDecimal{})

	res := x.Step(false)

	assert.Equal(t, int64(10), res.Position)
	assert.True(t, res.Realized.IsZero())
}

// Determinism without stimulus: the same seed must reproduce the same drift
// and shock sequence exactly.
func TestStepDeterminismSeeded(t *testing.T) {
	run := func() []string {
		x := newTestExchange(func(c *Config) {
			c.Seed = 7
			c.Shock.Probability = 0.25
		})
		mustSubmit(t, x, Buy, 30, Limit, nd("99.90"))
		mustSubmit(t, x, Sell, 30, Limit, nd("100.10"))

		var out []string
		for i := 0; i < 200; i++ {
			res := x.Step(false)
			out = append(out, fmt.Sprintf("%d|%s|%s|%d|%d|%v",
				res.Step, renderNull(res.Mid), renderNull(res.Spread),
				res.BidDepth, res.AskDepth, res.Shock))
		}
		return out
	}

	assert.Equal(t, run(), run())
}

func renderNull(v decimal.NullDecimal) string {
	if !v.Valid {
		return "-"
	}
	return v.Decimal.String()
}
