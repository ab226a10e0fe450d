package exchange

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config tunes one simulation run. Prices are decimals on a tick grid; all
// internal book keys are integer ticks derived from TickSize.
type Config struct {
	TickSize      decimal.Decimal // price grid, e.g. 0.01
	Seed          int64           // seed for the run's single generator
	Shock         ShockConfig
	DriftStep     decimal.Decimal // per-step drift magnitude, e.g. 0.05
	DriftShockX   int64           // drift amplification on shock steps
	SnapshotDepth int             // default top-N for snapshots
}

// DefaultConfig is the standard parameter set: penny ticks, a 10% shock
// probability and a 0.05 per-step drift.
func DefaultConfig() Config {
	return Config{
		TickSize: decimal.New(1, -2), // 0.01
		Seed:     1,
		Shock: ShockConfig{
			Probability:  0.10,
			DepthFactor:  0.5,
			WidenTicks:   20, // 0.20
			ReplenishQty: 50,
		},
		DriftStep:     decimal.New(5, -2), // 0.05
		DriftShockX:   5,
		SnapshotDepth: 5,
	}
}

// Stimulus submits orders through the public order-entry API during a step.
// Implementations must draw randomness from the exchange's generator (Rand)
// to keep runs reproducible.
type Stimulus interface {
	Step(ex *Exchange, shocked bool)
}

// BookLevel is one aggregated price level in a snapshot.
type BookLevel struct {
	Price decimal.Decimal `json:"price"`
	Qty   int64           `json:"qty"`
}

// BookSnapshot is a derived, read-only top-of-book view, best-to-worst on
// both sides. It is recomputed on demand and never stored.
type BookSnapshot struct {
	Bids []BookLevel `json:"bids"` // highest price first
	Asks []BookLevel `json:"asks"` // lowest price first
}

// StepResult is the immutable outcome of one simulation tick.
type StepResult struct {
	Step     int64               `json:"step"`
	Mid      decimal.NullDecimal `json:"mid"`
	Spread   decimal.NullDecimal `json:"spread"`
	BidDepth int64               `json:"bid_depth"`
	AskDepth int64               `json:"ask_depth"`
	Position int64               `json:"position"`
	Realized decimal.Decimal     `json:"realized"`
	Shock    bool                `json:"shock"`
	VWAP     decimal.NullDecimal `json:"vwap"`
	Trades   []Trade             `json:"trades"` // fills executed during this step
}

// Exchange is the owned aggregate for one run: book, ledger, trade log,
// shock model and step counter. It is single-threaded by contract: no two
// order submissions or steps may run concurrently. Independent instances
// are fully isolated, so parallel scenarios each get their own Exchange.
type Exchange struct {
	cfg Config
	log *zap.SugaredLogger
	rng *rand.Rand

	book   *Book
	ledger *Ledger
	shock  *ShockModel

	trades    []Trade
	stepIdx   int64
	lastShock bool
	orderSeq  int64

	// cumulative VWAP terms over the whole trade log
	sumPV decimal.Decimal
	sumV  int64

	tradeMark int // trade log length at the start of the current step

	stimulus Stimulus
}

// New builds an exchange for one run. A nil logger disables logging.
func New(cfg Config, log *zap.SugaredLogger) *Exchange {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.TickSize.IsZero() {
		cfg.TickSize = decimal.New(1, -2)
	}
	if cfg.SnapshotDepth <= 0 {
		cfg.SnapshotDepth = 5
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	return &Exchange{
		cfg:    cfg,
		log:    log,
		rng:    rng,
		book:   NewBook(),
		ledger: NewLedger(),
		shock:  NewShockModel(cfg.Shock, rng),
		sumPV:  decimal.Zero,
	}
}

// SetStimulus attaches the bot order flow invoked on stimulus-enabled steps.
func (x *Exchange) SetStimulus(s Stimulus) { x.stimulus = s }

// Rand exposes the run's single seedable generator so collaborating
// stimulus code shares the same deterministic stream.
func (x *Exchange) Rand() *rand.Rand { return x.rng }

// Book exposes the price-level book for read-side collaborators.
func (x *Exchange) Book() *Book { return x.book }

// Ledger exposes the position ledger.
func (x *Exchange) Ledger() *Ledger { return x.ledger }

func (x *Exchange) nextOrderID() int64 {
	x.orderSeq++
	return x.orderSeq
}

func (x *Exchange) toTicks(p decimal.Decimal) int64 {
	return p.DivRound(x.cfg.TickSize, 0).IntPart()
}

func (x *Exchange) toPrice(ticks int64) decimal.Decimal {
	return x.cfg.TickSize.Mul(decimal.NewFromInt(ticks))
}

// SubmitOrder validates and executes one order. Market orders walk the
// opposing side and report filled/unfilled; limit orders execute any
// crossing quantity immediately and rest the remainder on their own side.
// Validation failures leave the book untouched.
func (x *Exchange) SubmitOrder(side Side, qty int64, typ OrderType, price decimal.NullDecimal) (OrderResult, error) {
	if qty <= 0 {
		return OrderResult{}, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidOrder, qty)
	}
	if typ == Limit {
		if !price.Valid {
			return OrderResult{}, fmt.Errorf("%w: limit order requires a price", ErrInvalidOrder)
		}
		if !price.Decimal.IsPositive() {
			return OrderResult{}, fmt.Errorf("%w: limit price must be positive, got %s", ErrInvalidOrder, price.Decimal)
		}
	}

	id := x.nextOrderID()
	res := OrderResult{ID: id, Side: side, SideName: side.String(), Qty: qty, Price: price}

	switch typ {
	case Market:
		fills := x.book.matchMarket(side, qty)
		filled := x.recordFills(side, fills)
		res.Status = StatusExecuted
		res.Filled = filled
		res.Unfilled = qty - filled
	case Limit:
		limitTicks := x.toTicks(price.Decimal)
		fills := x.book.matchLimit(side, qty, limitTicks)
		filled := x.recordFills(side, fills)
		if rest := qty - filled; rest > 0 {
			x.book.AddLimit(side, limitTicks, rest, id)
			res.Status = StatusResting
		} else {
			res.Status = StatusExecuted
		}
		res.Filled = filled
		res.Unfilled = qty - filled
	default:
		return OrderResult{}, fmt.Errorf("%w: unknown order type %d", ErrInvalidOrder, typ)
	}

	x.log.Debugw("order_processed",
		"id", res.ID, "side", side.String(), "type", typ.String(),
		"qty", qty, "filled", res.Filled, "status", string(res.Status))
	return res, nil
}

// recordFills appends each fill to the trade log and applies it to the
// ledger in the exact order the matcher produced it.
func (x *Exchange) recordFills(side Side, fills []Fill) int64 {
	var filled int64
	for _, f := range fills {
		price := x.toPrice(f.PriceTicks)
		x.trades = append(x.trades, Trade{Step: x.stepIdx, Price: price, Qty: f.Qty, Side: side})
		x.ledger.ApplyFill(side, price, f.Qty)
		x.sumPV = x.sumPV.Add(price.Mul(decimal.NewFromInt(f.Qty)))
		x.sumV += f.Qty
		filled += f.Qty
	}
	return filled
}

// Mid returns the mid price: the midpoint when both sides are populated,
// the populated side's best when only one is, unset when the book is empty.
func (x *Exchange) Mid() decimal.NullDecimal {
	bid, haveBid := x.book.BestBid()
	ask, haveAsk := x.book.BestAsk()
	switch {
	case haveBid && haveAsk:
		mid := x.toPrice(bid).Add(x.toPrice(ask)).Div(decimal.NewFromInt(2))
		return decimal.NullDecimal{Decimal: mid, Valid: true}
	case haveBid:
		return decimal.NullDecimal{Decimal: x.toPrice(bid), Valid: true}
	case haveAsk:
		return decimal.NullDecimal{Decimal: x.toPrice(ask), Valid: true}
	default:
		return decimal.NullDecimal{}
	}
}

// Spread returns best ask minus best bid, unset unless both sides rest.
func (x *Exchange) Spread() decimal.NullDecimal {
	bid, haveBid := x.book.BestBid()
	ask, haveAsk := x.book.BestAsk()
	if !haveBid || !haveAsk {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: x.toPrice(ask).Sub(x.toPrice(bid)), Valid: true}
}

// VWAP returns the cumulative volume-weighted average price over the whole
// trade log, unset while nothing has traded.
func (x *Exchange) VWAP() decimal.NullDecimal {
	if x.sumV == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: x.sumPV.Div(decimal.NewFromInt(x.sumV)), Valid: true}
}

// GetSnapshot returns the top `levels` aggregated price levels per side,
// best-to-worst.
func (x *Exchange) GetSnapshot(levels int) BookSnapshot {
	if levels <= 0 {
		levels = x.cfg.SnapshotDepth
	}
	snap := BookSnapshot{
		Bids: make([]BookLevel, 0, levels),
		Asks: make([]BookLevel, 0, levels),
	}
	for _, lv := range x.book.bids.topLevels(levels) {
		snap.Bids = append(snap.Bids, BookLevel{Price: x.toPrice(lv[0]), Qty: lv[1]})
	}
	for _, lv := range x.book.asks.topLevels(levels) {
		snap.Asks = append(snap.Asks, BookLevel{Price: x.toPrice(lv[0]), Qty: lv[1]})
	}
	return snap
}

// PnLReport marks the ledger against the current mid.
func (x *Exchange) PnLReport() PnLReport {
	return x.ledger.Report(x.Mid())
}

// Trades returns the append-only trade log.
func (x *Exchange) Trades() []Trade { return x.trades }

// RecentTrades returns up to n most recent trades, oldest first.
func (x *Exchange) RecentTrades(n int) []Trade {
	if n <= 0 || n > len(x.trades) {
		n = len(x.trades)
	}
	return x.trades[len(x.trades)-n:]
}

// CurrentStep returns the number of completed simulation steps.
func (x *Exchange) CurrentStep() int64 { return x.stepIdx }

// LastShock reports whether the most recent step drew a shock.
func (x *Exchange) LastShock() bool { return x.lastShock }

// Step advances the simulation one tick. The sequence is fixed: draw the
// shock flag, apply the (possibly amplified) uniform price drift to every
// resting level, apply shock side effects, run the stimulus generator, then
// assemble the step result. Each step completes fully before the next.
func (x *Exchange) Step(stimulusEnabled bool) StepResult {
	x.stepIdx++
	x.tradeMark = len(x.trades)

	shocked := x.shock.Draw()

	driftTicks := x.toTicks(x.cfg.DriftStep)
	if x.rng.Intn(2) == 0 {
		driftTicks = -driftTicks
	}
	if shocked {
		driftTicks *= x.cfg.DriftShockX
	}
	x.book.Shift(driftTicks)

	if shocked {
		x.shock.Apply(x.book, x.nextOrderID)
	}
	x.lastShock = shocked

	if stimulusEnabled && x.stimulus != nil {
		x.stimulus.Step(x, shocked)
	}

	stepTrades := make([]Trade, len(x.trades)-x.tradeMark)
	copy(stepTrades, x.trades[x.tradeMark:])

	res := StepResult{
		Step:     x.stepIdx,
		Mid:      x.Mid(),
		Spread:   x.Spread(),
		BidDepth: x.book.BidDepth(),
		AskDepth: x.book.AskDepth(),
		Position: x.ledger.Position(),
		Realized: x.ledger.Realized(),
		Shock:    shocked,
		VWAP:     x.VWAP(),
		Trades:   stepTrades,
	}

	x.log.Debugw("sim_step",
		"step", res.Step, "shock", shocked, "drift_ticks", driftTicks,
		"bid_depth", res.BidDepth, "ask_depth", res.AskDepth,
		"trades", len(stepTrades))
	return res
}
