package exchange

import "math/rand"

// ShockConfig tunes the liquidity shock model.
type ShockConfig struct {
	Probability  float64 // per-step Bernoulli probability
	DepthFactor  float64 // resting quantities are scaled by this, floored
	WidenTicks   int64   // new quote distance beyond each pre-shock best
	ReplenishQty int64   // quantity of each post-shock quote
}

// ShockModel perturbs the book when a shock fires: resting depth on both
// sides shrinks and one wider quote appears beyond each pre-shock best
// price, simulating liquidity withdrawal and a wider quoted spread.
//
// The generator is injected so runs are reproducible; the model draws
// exactly once per step regardless of book state.
type ShockModel struct {
	cfg ShockConfig
	rng *rand.Rand
}

// NewShockModel builds a shock model over the run's shared generator.
func NewShockModel(cfg ShockConfig, rng *rand.Rand) *ShockModel {
	return &ShockModel{cfg: cfg, rng: rng}
}

// Draw runs the per-step Bernoulli trial. A draw on an empty book can still
// come up true; Apply is then a no-op, and the step is reported as shocked.
func (m *ShockModel) Draw() bool {
	return m.rng.Float64() < m.cfg.Probability
}

// Apply executes the shock side effects on the book. The widened quotes are
// anchored to the best prices as they stood before the depth scaling, and
// each side's quote is skipped when that side was empty. nextID allocates
// order ids for the replenishment entries so they queue like any other
// resting order. Safe on an empty book: both sides stay empty.
func (m *ShockModel) Apply(bk *Book, nextID func() int64) {
	bestAsk, haveAsk := bk.asks.bestTicks()
	bestBid, haveBid := bk.bids.bestTicks()

	bk.bids.scale(m.cfg.DepthFactor)
	bk.asks.scale(m.cfg.DepthFactor)

	if haveAsk {
		bk.asks.addLimit(bestAsk+m.cfg.WidenTicks, m.cfg.ReplenishQty, nextID())
	}
	if haveBid {
		bk.bids.addLimit(bestBid-m.cfg.WidenTicks, m.cfg.ReplenishQty, nextID())
	}
}
