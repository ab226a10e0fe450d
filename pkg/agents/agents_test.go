package agents

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhyunpark/microlob/pkg/exchange"
)

func newTestExchange(seed int64, shockProb float64) *exchange.Exchange {
	cfg := exchange.DefaultConfig()
	cfg.Seed = seed
	cfg.Shock.Probability = shockProb
	return exchange.New(cfg, nil)
}

func TestMakerQuotesAroundFallbackMid(t *testing.T) {
	ex := newTestExchange(1, 0)
	b := New(nil)

	b.Step(ex, false)

	// empty book, so the maker anchors on the fallback mid of 100
	bid, ok := ex.Book().BestBid()
	require.True(t, ok)
	assert.Equal(t, int64(9995), bid)

	ask, ok := ex.Book().BestAsk()
	require.True(t, ok)
	assert.Equal(t, int64(10005), ask)

	for _, depth := range []int64{ex.Book().BidDepth(), ex.Book().AskDepth()} {
		assert.GreaterOrEqual(t, depth, b.Maker.MinQty)
		assert.LessOrEqual(t, depth, b.Maker.MaxQty)
	}
}

func TestMakerQuotesAroundBookMid(t *testing.T) {
	ex := newTestExchange(1, 0)
	_, err := ex.SubmitOrder(exchange.Buy, 10, exchange.Limit,
		decimal.NullDecimal{Decimal: decimal.RequireFromString("199.95"), Valid: true})
	require.NoError(t, err)
	_, err = ex.SubmitOrder(exchange.Sell, 10, exchange.Limit,
		decimal.NullDecimal{Decimal: decimal.RequireFromString("200.05"), Valid: true})
	require.NoError(t, err)
	b := New(nil)

	b.Step(ex, false)

	// mid is 200, so the new quotes land at 199.95 and 200.05, joining the
	// resting levels instead of anchoring on the fallback
	bid, _ := ex.Book().BestBid()
	assert.Equal(t, int64(19995), bid)
	ask, _ := ex.Book().BestAsk()
	assert.Equal(t, int64(20005), ask)
}

func TestMakerStressQuotesWiderAndSmaller(t *testing.T) {
	ex := newTestExchange(1, 0)
	b := New(nil)

	b.Step(ex, true)

	// half-spread 0.05 * 2.5 = 0.125, so the quoted spread is 0.25 wide
	bid, ok := ex.Book().BestBid()
	require.True(t, ok)
	ask, ok := ex.Book().BestAsk()
	require.True(t, ok)
	assert.Equal(t, int64(25), ask-bid)

	assert.Equal(t, b.Maker.StressQty, ex.Book().BidDepth())
	assert.Equal(t, b.Maker.StressQty, ex.Book().AskDepth())
}

func TestRetailFlowProbability(t *testing.T) {
	t.Run("prob zero never trades on a fresh book", func(t *testing.T) {
		ex := newTestExchange(1, 0)
		b := New(nil)
		b.Retail.Prob = 0

		b.Step(ex, false)

		assert.Empty(t, ex.Trades(), "maker quotes alone never cross")
	})

	t.Run("prob one trades against the fresh quotes", func(t *testing.T) {
		ex := newTestExchange(1, 0)
		b := New(nil)
		b.Retail.Prob = 1

		b.Step(ex, false)

		assert.NotEmpty(t, ex.Trades())
	})
}

// Two runs with the same seed must be indistinguishable, including the bot
// order flow and every fill it produces.
func TestSeededRunsAreIdentical(t *testing.T) {
	run := func() []string {
		ex := newTestExchange(99, 0.25)
		ex.SetStimulus(New(nil))

		var out []string
		for i := 0; i < 300; i++ {
			res := ex.Step(true)
			line := fmt.Sprintf("%d|%s|%s|%d|%d|%v|%s",
				res.Step, renderNull(res.Mid), renderNull(res.Spread),
				res.BidDepth, res.AskDepth, res.Shock, renderNull(res.VWAP))
			for _, tr := range res.Trades {
				line += fmt.Sprintf("|%s x %d", tr.Price, tr.Qty)
			}
			out = append(out, line)
		}
		rep := ex.PnLReport()
		out = append(out, fmt.Sprintf("pnl %d %s %s", rep.Position, rep.Realized, rep.Total))
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
