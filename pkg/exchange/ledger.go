package exchange

import "github.com/shopspring/decimal"

// Ledger tracks the running position, weighted average cost basis and
// cumulative realized PnL. It starts flat, is mutated exactly once per fill
// in fill order, and is never reset during a run.
//
// Cost-basis handling is asymmetric: buys re-weight the average cost, but a
// sell that opens or extends a short establishes no basis, and realized PnL
// accrues only while the position is long. A buy that closes a short exactly
// back to flat resets the average cost to zero.
type Ledger struct {
	position int64
	avgCost  decimal.Decimal
	realized decimal.Decimal
}

// NewLedger returns a flat ledger: position 0, no cost basis, zero PnL.
func NewLedger() *Ledger {
	return &Ledger{}
}

// ApplyFill records one executed fill from the taker's perspective.
func (l *Ledger) ApplyFill(side Side, price decimal.Decimal, qty int64) {
	q := decimal.NewFromInt(qty)
	switch side {
	case Buy:
		newPos := l.position + qty
		if newPos == 0 {
			// Short closed exactly to flat: average cost is undefined.
			l.avgCost = decimal.Zero
		} else {
			pos := decimal.NewFromInt(l.position)
			l.avgCost = l.avgCost.Mul(pos).
				Add(price.Mul(q)).
				Div(decimal.NewFromInt(newPos))
		}
		l.position = newPos
	case Sell:
		if l.position > 0 {
			closed := decimal.NewFromInt(min(l.position, qty))
			l.realized = l.realized.Add(price.Sub(l.avgCost).Mul(closed))
		}
		l.position -= qty
	}
}

// Position returns the signed net position, positive meaning long.
func (l *Ledger) Position() int64 { return l.position }

// Realized returns cumulative realized PnL.
func (l *Ledger) Realized() decimal.Decimal { return l.realized }

// PnLReport is a pure mark-to-market view of the ledger. AvgCost is unset
// while flat; Unrealized is zero when flat or when no mark price exists.
type PnLReport struct {
	Position   int64               `json:"position"`
	AvgCost    decimal.NullDecimal `json:"avg_cost"`
	MarkPrice  decimal.NullDecimal `json:"mid_price"`
	Unrealized decimal.Decimal     `json:"unrealized"`
	Realized   decimal.Decimal     `json:"realized"`
	Total      decimal.Decimal     `json:"total"`
}

// Report marks the open position against the supplied price. It has no side
// effects.
func (l *Ledger) Report(mark decimal.NullDecimal) PnLReport {
	rep := PnLReport{
		Position:   l.position,
		MarkPrice:  mark,
		Unrealized: decimal.Zero,
		Realized:   l.realized,
	}
	if l.position != 0 {
		rep.AvgCost = decimal.NullDecimal{Decimal: l.avgCost, Valid: true}
		if mark.Valid {
			rep.Unrealized = mark.Decimal.Sub(l.avgCost).
				Mul(decimal.NewFromInt(l.position))
		}
	}
	rep.Total = rep.Realized.Add(rep.Unrealized)
	return rep
}
