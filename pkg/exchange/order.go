package exchange

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Side of an order: Buy rests on (or consumes against) bids, Sell on asks.
type Side int8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the side a taker order executes against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// ParseSide parses "buy" or "sell".
func ParseSide(s string) (Side, error) {
	switch s {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("%w: unknown side %q", ErrInvalidOrder, s)
	}
}

// OrderType selects immediate execution (Market) or resting intent (Limit).
type OrderType int8

const (
	Market OrderType = iota
	Limit
)

func (t OrderType) String() string {
	if t == Market {
		return "market"
	}
	return "limit"
}

// ParseOrderType parses "market" or "limit".
func ParseOrderType(s string) (OrderType, error) {
	switch s {
	case "market":
		return Market, nil
	case "limit":
		return Limit, nil
	default:
		return 0, fmt.Errorf("%w: unknown order type %q", ErrInvalidOrder, s)
	}
}

// ErrInvalidOrder is returned for rejected order submissions: non-positive
// quantity, a limit order without a price, or an unparseable side/type.
// The book is never touched before validation passes.
var ErrInvalidOrder = errors.New("invalid order")

// OrderStatus is the terminal state of a submission.
type OrderStatus string

const (
	// StatusExecuted: the order ran against the book (fully, partially, or
	// not at all for a market order hitting an empty side); nothing rests.
	StatusExecuted OrderStatus = "executed"
	// StatusResting: a limit order left unfilled quantity on its own side.
	StatusResting OrderStatus = "resting"
)

// OrderResult reports the outcome of SubmitOrder.
type OrderResult struct {
	ID       int64               `json:"id"`
	Status   OrderStatus         `json:"status"`
	Side     Side                `json:"-"`
	SideName string              `json:"side"`
	Qty      int64               `json:"qty"`
	Price    decimal.NullDecimal `json:"price,omitempty"` // limit price, unset for market
	Filled   int64               `json:"filled"`
	Unfilled int64               `json:"unfilled"`
}

// Trade is one realized fill. The log is append-only and insertion order is
// execution order.
type Trade struct {
	Step  int64           `json:"step"`
	Price decimal.Decimal `json:"price"`
	Qty   int64           `json:"size"`
	Side  Side            `json:"-"` // aggressor side
}
