// Package agents provides the bot order flow that drives the simulation:
// a market maker that re-quotes around the mid each step and a retail flow
// that occasionally crosses the spread with market orders. All randomness
// comes from the exchange's generator so a seed fully determines a run.
package agents

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uhyunpark/microlob/pkg/exchange"
)

// MakerConfig tunes the market maker's quoting.
type MakerConfig struct {
	HalfSpread  decimal.Decimal // quote distance from mid, e.g. 0.05
	MinQty      int64           // per-quote size range
	MaxQty      int64
	StressWiden decimal.Decimal // half-spread multiplier on shock steps, e.g. 2.5
	StressQty   int64           // fixed, smaller quote size on shock steps
}

// RetailConfig tunes the probabilistic retail flow.
type RetailConfig struct {
	Prob   float64 // per-step probability of one market order
	MinQty int64
	MaxQty int64
}

// Bots bundles both agents behind the exchange's Stimulus hook.
type Bots struct {
	Maker       MakerConfig
	Retail      RetailConfig
	FallbackMid decimal.Decimal // quoting anchor while the book is empty
	log         *zap.SugaredLogger
}

// New returns bots with the default parameter set.
func New(log *zap.SugaredLogger) *Bots {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Bots{
		Maker: MakerConfig{
			HalfSpread:  decimal.New(5, -2), // 0.05
			MinQty:      5,
			MaxQty:      15,
			StressWiden: decimal.New(25, -1), // 2.5
			StressQty:   5,
		},
		Retail: RetailConfig{
			Prob:   0.20,
			MinQty: 3,
			MaxQty: 20,
		},
		FallbackMid: decimal.NewFromInt(100),
		log:         log,
	}
}

var _ exchange.Stimulus = (*Bots)(nil)

// Step quotes one bid and one ask around the mid, then rolls the retail
// flow. On shock steps the maker quotes wider and smaller. Submission
// errors cannot occur for well-formed quotes; they are logged and skipped
// rather than aborting the step.
func (b *Bots) Step(ex *exchange.Exchange, shocked bool) {
	rng := ex.Rand()

	mid := b.FallbackMid
	if m := ex.Mid(); m.Valid {
		mid = m.Decimal
	}

	half := b.Maker.HalfSpread
	if shocked {
		half = half.Mul(b.Maker.StressWiden)
	}

	quote := func(side exchange.Side, price decimal.Decimal) {
		qty := b.Maker.StressQty
		if !shocked {
			qty = b.Maker.MinQty + rng.Int63n(b.Maker.MaxQty-b.Maker.MinQty+1)
		}
		_, err := ex.SubmitOrder(side, qty, exchange.Limit,
			decimal.NullDecimal{Decimal: price, Valid: true})
		if err != nil {
			b.log.Warnw("maker_quote_rejected", "side", side.String(), "price", price, "err", err)
		}
	}
	quote(exchange.Buy, mid.Sub(half))
	quote(exchange.Sell, mid.Add(half))

	if rng.Float64() < b.Retail.Prob {
		side := exchange.Buy
		if rng.Intn(2) == 1 {
			side = exchange.Sell
		}
		qty := b.Retail.MinQty + rng.Int63n(b.Retail.MaxQty-b.Retail.MinQty+1)
		if _, err := ex.SubmitOrder(side, qty, exchange.Market, decimal.NullDecimal{}); err != nil {
			b.log.Warnw("retail_order_rejected", "side", side.String(), "err", err)
		}
	}
}
