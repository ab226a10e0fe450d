package exchange

import (
	"fmt"

	"github.com/tidwall/btree"
)

// Prices inside the book are integer ticks (price / tick size). Keeping the
// keys integral makes the ordered map exact under drift re-keying and keeps
// best-price lookups at the tree extremes instead of re-sorting keys.

// entry is one resting order's claim at a price level. Entries at the same
// price are consumed strictly in arrival order.
type entry struct {
	qty  int64
	id   int64
	side Side
}

// level carries the FIFO queue at one price plus the cached aggregate so
// depth queries never walk queues.
type level struct {
	qty   int64
	queue []entry
}

// bookSide is one side of the book: an ordered map from price ticks to level.
// Invariant: a depleted level is deleted, never left at zero quantity.
type bookSide struct {
	side   Side
	levels *btree.Map[int64, *level]
}

func newBookSide(side Side) *bookSide {
	return &bookSide{side: side, levels: btree.NewMap[int64, *level](32)}
}

// addLimit appends qty at price, creating the level if absent.
func (b *bookSide) addLimit(priceTicks, qty, orderID int64) {
	if qty <= 0 {
		panic(fmt.Sprintf("exchange: addLimit with non-positive qty %d", qty))
	}
	lv, ok := b.levels.Get(priceTicks)
	if !ok {
		lv = &level{}
		b.levels.Set(priceTicks, lv)
	}
	lv.queue = append(lv.queue, entry{qty: qty, id: orderID, side: b.side})
	lv.qty += qty
}

// bestTicks returns the best price: max key for bids, min key for asks.
func (b *bookSide) bestTicks() (int64, bool) {
	if b.side == Buy {
		k, _, ok := b.levels.Max()
		return k, ok
	}
	k, _, ok := b.levels.Min()
	return k, ok
}

// depthAt returns the resting quantity at a price, zero if the level is absent.
func (b *bookSide) depthAt(priceTicks int64) int64 {
	if lv, ok := b.levels.Get(priceTicks); ok {
		return lv.qty
	}
	return 0
}

// totalDepth sums resting quantity across the whole side.
func (b *bookSide) totalDepth() int64 {
	var depth int64
	b.levels.Scan(func(_ int64, lv *level) bool {
		depth += lv.qty
		return true
	})
	return depth
}

// consume removes qty from the front of the level's queue and returns the
// per-entry breakdown in arrival order. The caller guarantees the level
// exists and holds at least qty; anything else is a matcher bug and panics.
func (b *bookSide) consume(priceTicks, qty int64) []int64 {
	lv, ok := b.levels.Get(priceTicks)
	if !ok {
		panic(fmt.Sprintf("exchange: consume at missing price level %d", priceTicks))
	}
	if qty <= 0 || qty > lv.qty {
		panic(fmt.Sprintf("exchange: level %d underflow: resting=%d consume=%d", priceTicks, lv.qty, qty))
	}
	var takes []int64
	remaining := qty
	for remaining > 0 {
		head := &lv.queue[0]
		take := min(head.qty, remaining)
		head.qty -= take
		remaining -= take
		takes = append(takes, take)
		if head.qty == 0 {
			lv.queue = lv.queue[1:]
		}
	}
	lv.qty -= qty
	if lv.qty == 0 {
		b.levels.Delete(priceTicks)
	}
	return takes
}

// shift re-keys every level by delta ticks. Quantities and queue order are
// preserved; only the price keys move.
func (b *bookSide) shift(deltaTicks int64) {
	if deltaTicks == 0 || b.levels.Len() == 0 {
		return
	}
	shifted := btree.NewMap[int64, *level](32)
	b.levels.Scan(func(k int64, lv *level) bool {
		shifted.Set(k+deltaTicks, lv)
		return true
	})
	b.levels = shifted
}

// scale multiplies every resting quantity by factor, flooring to integer.
// Entries that floor to zero are dropped; fully depleted levels are pruned.
func (b *bookSide) scale(factor float64) {
	var drop []int64
	b.levels.Scan(func(k int64, lv *level) bool {
		kept := lv.queue[:0]
		var total int64
		for _, e := range lv.queue {
			e.qty = int64(float64(e.qty) * factor)
			if e.qty > 0 {
				kept = append(kept, e)
				total += e.qty
			}
		}
		lv.queue = kept
		lv.qty = total
		if total == 0 {
			drop = append(drop, k)
		}
		return true
	})
	for _, k := range drop {
		b.levels.Delete(k)
	}
}

// topLevels returns up to n levels best-to-worst as (ticks, qty) pairs.
func (b *bookSide) topLevels(n int) [][2]int64 {
	out := make([][2]int64, 0, n)
	iter := func(k int64, lv *level) bool {
		out = append(out, [2]int64{k, lv.qty})
		return len(out) < n
	}
	if b.side == Buy {
		b.levels.Reverse(iter)
	} else {
		b.levels.Scan(iter)
	}
	return out
}

// Book is the two-sided price-level book. All prices are in ticks; the
// Exchange owns the tick-to-decimal conversion.
type Book struct {
	bids *bookSide
	asks *bookSide
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{bids: newBookSide(Buy), asks: newBookSide(Sell)}
}

func (bk *Book) sideFor(s Side) *bookSide {
	if s == Buy {
		return bk.bids
	}
	return bk.asks
}

// BestBid returns the highest bid in ticks, false if no bids rest.
func (bk *Book) BestBid() (int64, bool) { return bk.bids.bestTicks() }

// BestAsk returns the lowest ask in ticks, false if no asks rest.
func (bk *Book) BestAsk() (int64, bool) { return bk.asks.bestTicks() }

// BidDepth is the total resting quantity on the bid side.
func (bk *Book) BidDepth() int64 { return bk.bids.totalDepth() }

// AskDepth is the total resting quantity on the ask side.
func (bk *Book) AskDepth() int64 { return bk.asks.totalDepth() }

// AddLimit rests qty at priceTicks on the given side.
func (bk *Book) AddLimit(s Side, priceTicks, qty, orderID int64) {
	bk.sideFor(s).addLimit(priceTicks, qty, orderID)
}

// Shift applies a uniform drift of deltaTicks to every level on both sides.
func (bk *Book) Shift(deltaTicks int64) {
	bk.bids.shift(deltaTicks)
	bk.asks.shift(deltaTicks)
}
