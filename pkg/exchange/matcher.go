package exchange

// Fill is one execution against a single resting entry: (price, quantity)
// in the exact order the walk produced it.
type Fill struct {
	PriceTicks int64
	Qty        int64
}

// matchMarket walks the opposing side in price priority until qty is filled
// or the side is exhausted. A buy consumes asks from the lowest price up, a
// sell consumes bids from the highest price down; within a price, entries
// fill strictly in arrival order. Unfilled remainder is simply reported;
// a market order never rests.
func (bk *Book) matchMarket(side Side, qty int64) []Fill {
	return bk.match(side, qty, 0, false)
}

// matchLimit is the crossing half of limit-order handling: it consumes the
// opposing side only while the best price crosses limitTicks. The caller
// rests whatever remains.
func (bk *Book) matchLimit(side Side, qty, limitTicks int64) []Fill {
	return bk.match(side, qty, limitTicks, true)
}

func (bk *Book) match(side Side, qty, limitTicks int64, bounded bool) []Fill {
	opp := bk.sideFor(side.Opposite())
	var fills []Fill
	remaining := qty
	for remaining > 0 {
		best, ok := opp.bestTicks()
		if !ok {
			break
		}
		if bounded {
			if side == Buy && best > limitTicks {
				break
			}
			if side == Sell && best < limitTicks {
				break
			}
		}
		take := min(remaining, opp.depthAt(best))
		for _, part := range opp.consume(best, take) {
			fills = append(fills, Fill{PriceTicks: best, Qty: part})
		}
		remaining -= take
	}
	return fills
}
