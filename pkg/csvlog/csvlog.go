// Package csvlog writes the simulator's persisted artifacts: an append-only
// record of every step's snapshot and of every individual trade. Both files
// are row-oriented and header-first; the column order is a contract with
// downstream tooling and must not change.
package csvlog

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/microlob/pkg/exchange"
)

var snapshotHeader = []string{"step", "mid", "spread", "bid_depth", "ask_depth", "shock", "vwap"}

var tradeHeader = []string{"step", "price", "size", "vwap"}

// nullStr renders an absent decimal as an empty cell, never as zero.
func nullStr(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// SnapshotWriter appends one row per simulation step.
type SnapshotWriter struct {
	f *os.File
	w *csv.Writer
}

// NewSnapshotWriter truncates path and writes the header row.
func NewSnapshotWriter(path string) (*SnapshotWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(snapshotHeader); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()
	return &SnapshotWriter{f: f, w: w}, nil
}

// Append writes one step result.
func (s *SnapshotWriter) Append(res exchange.StepResult) error {
	row := []string{
		strconv.FormatInt(res.Step, 10),
		nullStr(res.Mid),
		nullStr(res.Spread),
		strconv.FormatInt(res.BidDepth, 10),
		strconv.FormatInt(res.AskDepth, 10),
		strconv.FormatBool(res.Shock),
		nullStr(res.VWAP),
	}
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *SnapshotWriter) Close() error {
	s.w.Flush()
	return s.f.Close()
}

// TradeWriter appends one row per executed fill, tagged with the prevailing
// cumulative VWAP at that step.
type TradeWriter struct {
	f *os.File
	w *csv.Writer
}

// NewTradeWriter truncates path and writes the header row.
func NewTradeWriter(path string) (*TradeWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(tradeHeader); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()
	return &TradeWriter{f: f, w: w}, nil
}

// Append writes one trade row.
func (t *TradeWriter) Append(tr exchange.Trade, vwap decimal.NullDecimal) error {
	row := []string{
		strconv.FormatInt(tr.Step, 10),
		tr.Price.String(),
		strconv.FormatInt(tr.Qty, 10),
		nullStr(vwap),
	}
	if err := t.w.Write(row); err != nil {
		return err
	}
	t.w.Flush()
	return t.w.Error()
}

func (t *TradeWriter) Close() error {
	t.w.Flush()
	return t.f.Close()
}
