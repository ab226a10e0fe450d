package api

// API response types for REST endpoints and WebSocket messages. Prices are
// rendered as decimal strings; absent mid/spread/vwap are null.

// ==============================
// REST Types
// ==============================

// OrderbookResponse is the top-N book view, best-to-worst on both sides.
type OrderbookResponse struct {
	Step int64        `json:"step"`
	Bids []PriceLevel `json:"bids"` // sorted high to low
	Asks []PriceLevel `json:"asks"` // sorted low to high
}

// PriceLevel is one aggregated [price, size] tuple.
type PriceLevel struct {
	Price string `json:"price"`
	Size  int64  `json:"size"`
}

// TradeInfo is one executed fill.
type TradeInfo struct {
	Step  int64  `json:"step"`
	Price string `json:"price"`
	Size  int64  `json:"size"`
	Side  string `json:"side"` // aggressor side
}

// PnLResponse mirrors the ledger report.
type PnLResponse struct {
	Position   int64   `json:"position"`
	AvgCost    *string `json:"avg_cost"`  // null while flat
	MidPrice   *string `json:"mid_price"` // null while the book is empty
	Unrealized string  `json:"unrealized"`
	Realized   string  `json:"realized"`
	Total      string  `json:"total"`
}

// SubmitOrderRequest is the order-entry payload.
type SubmitOrderRequest struct {
	Side  string `json:"side"`            // "buy" | "sell"
	Type  string `json:"type"`            // "market" | "limit"
	Qty   int64  `json:"qty"`             // positive
	Price string `json:"price,omitempty"` // required for limit
}

// SubmitOrderResponse reports the submission outcome.
type SubmitOrderResponse struct {
	ID       int64   `json:"id"`
	Status   string  `json:"status"` // "executed" | "resting"
	Side     string  `json:"side"`
	Qty      int64   `json:"qty"`
	Price    *string `json:"price,omitempty"`
	Filled   int64   `json:"filled"`
	Unfilled int64   `json:"unfilled"`
}

// StepRequest advances the simulation one tick.
type StepRequest struct {
	Stimulus *bool `json:"stimulus,omitempty"` // defaults to the server's bots setting
}

// StepResponse is one tick's outcome.
type StepResponse struct {
	Step     int64   `json:"step"`
	Mid      *string `json:"mid"`
	Spread   *string `json:"spread"`
	BidDepth int64   `json:"bid_depth"`
	AskDepth int64   `json:"ask_depth"`
	Position int64   `json:"position"`
	Realized string  `json:"realized"`
	Shock    bool    `json:"shock"`
	VWAP     *string `json:"vwap"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ==============================
// WebSocket Types
// ==============================

// WSSubscribeRequest subscribes or unsubscribes channels.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" | "unsubscribe"
	Channels []string `json:"channels"`
}

// StepUpdate is broadcast on the "steps" channel after every tick.
type StepUpdate struct {
	Type string       `json:"type"` // "step"
	Data StepResponse `json:"data"`
}

// TradeUpdate is broadcast on the "trades" channel for each fill in a tick.
type TradeUpdate struct {
	Type string    `json:"type"` // "trade"
	Data TradeInfo `json:"data"`
}
