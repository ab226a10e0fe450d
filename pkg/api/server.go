// Package api exposes a running simulation over REST and WebSocket. The
// exchange core is single-threaded by contract, so every handler takes the
// server mutex: HTTP is the only concurrency boundary, the core never sees
// two calls at once.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uhyunpark/microlob/pkg/exchange"
)

// Server serializes access to one Exchange instance.
type Server struct {
	mu     sync.Mutex
	ex     *exchange.Exchange
	bots   bool // default stimulus setting for /step
	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger
}

// NewServer wraps an exchange. botsDefault controls whether /step runs the
// stimulus generator when the request does not say.
func NewServer(ex *exchange.Exchange, botsDefault bool, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		ex:     ex,
		bots:   botsDefault,
		router: mux.NewRouter(),
		hub:    NewHub(),
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/orderbook", s.handleGetOrderbook).Methods("GET")
	api.HandleFunc("/trades", s.handleGetTrades).Methods("GET")
	api.HandleFunc("/pnl", s.handleGetPnL).Methods("GET")
	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/step", s.handleStep).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.log.Infow("api_server_starting", "addr", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	levels := 0
	if v := r.URL.Query().Get("levels"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid levels", v)
			return
		}
		levels = n
	}

	s.mu.Lock()
	snap := s.ex.GetSnapshot(levels)
	step := s.ex.CurrentStep()
	s.mu.Unlock()

	resp := OrderbookResponse{
		Step: step,
		Bids: make([]PriceLevel, len(snap.Bids)),
		Asks: make([]PriceLevel, len(snap.Asks)),
	}
	for i, lv := range snap.Bids {
		resp.Bids[i] = PriceLevel{Price: lv.Price.String(), Size: lv.Qty}
	}
	for i, lv := range snap.Asks {
		resp.Asks[i] = PriceLevel{Price: lv.Price.String(), Size: lv.Qty}
	}
	respondJSON(w, resp)
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	trades := s.ex.RecentTrades(50)
	s.mu.Unlock()

	resp := make([]TradeInfo, len(trades))
	for i, tr := range trades {
		resp[i] = tradeInfo(tr)
	}
	respondJSON(w, resp)
}

func (s *Server) handleGetPnL(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rep := s.ex.PnLReport()
	s.mu.Unlock()

	respondJSON(w, PnLResponse{
		Position:   rep.Position,
		AvgCost:    nullString(rep.AvgCost),
		MidPrice:   nullString(rep.MarkPrice),
		Unrealized: rep.Unrealized.String(),
		Realized:   rep.Realized.String(),
		Total:      rep.Total.String(),
	})
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	side, err := exchange.ParseSide(req.Side)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order", err.Error())
		return
	}
	typ, err := exchange.ParseOrderType(req.Type)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order", err.Error())
		return
	}

	var price decimal.NullDecimal
	if req.Price != "" {
		d, err := decimal.NewFromString(req.Price)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid price", err.Error())
			return
		}
		price = decimal.NullDecimal{Decimal: d, Valid: true}
	}

	s.mu.Lock()
	res, err := s.ex.SubmitOrder(side, req.Qty, typ, price)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, exchange.ErrInvalidOrder) {
			respondError(w, http.StatusBadRequest, "invalid order", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "order failed", err.Error())
		return
	}

	resp := SubmitOrderResponse{
		ID:       res.ID,
		Status:   string(res.Status),
		Side:     res.SideName,
		Qty:      res.Qty,
		Filled:   res.Filled,
		Unfilled: res.Unfilled,
	}
	if res.Price.Valid {
		p := res.Price.Decimal.String()
		resp.Price = &p
	}
	respondJSON(w, resp)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	stimulus := s.bots
	if r.Body != nil {
		var req StepRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Stimulus != nil {
			stimulus = *req.Stimulus
		}
	}

	s.mu.Lock()
	res := s.ex.Step(stimulus)
	s.mu.Unlock()

	resp := stepResponse(res)
	respondJSON(w, resp)

	// fan out to subscribers after responding
	s.hub.BroadcastToChannel("steps", StepUpdate{Type: "step", Data: resp})
	for _, tr := range res.Trades {
		s.hub.BroadcastToChannel("trades", TradeUpdate{Type: "trade", Data: tradeInfo(tr)})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Helpers
// ==============================

func tradeInfo(tr exchange.Trade) TradeInfo {
	return TradeInfo{
		Step:  tr.Step,
		Price: tr.Price.String(),
		Size:  tr.Qty,
		Side:  tr.Side.String(),
	}
}

func stepResponse(res exchange.StepResult) StepResponse {
	return StepResponse{
		Step:     res.Step,
		Mid:      nullString(res.Mid),
		Spread:   nullString(res.Spread),
		BidDepth: res.BidDepth,
		AskDepth: res.AskDepth,
		Position: res.Position,
		Realized: res.Realized.String(),
		Shock:    res.Shock,
		VWAP:     nullString(res.VWAP),
	}
}

func nullString(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: errMsg, Message: message})
}
