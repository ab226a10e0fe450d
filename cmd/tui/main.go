// Interactive terminal for the simulator: view the book, place orders,
// advance steps, inspect PnL and recent trades, toggle the bot flow.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/microlob/params"
	"github.com/uhyunpark/microlob/pkg/agents"
	"github.com/uhyunpark/microlob/pkg/exchange"
)

const menu = `
============================================================
 MARKET MICROSTRUCTURE SIMULATOR - INTERACTIVE TERMINAL
============================================================
(1) View Order Book
(2) Place Order (Market / Limit)
(3) Advance Simulation Step
(4) View PnL & Recent Trades
(5) Toggle Bots (On/Off)
(6) Quit
------------------------------------------------------------
`

type tui struct {
	ex   *exchange.Exchange
	in   *bufio.Scanner
	bots bool
}

func main() {
	cfg := params.LoadFromEnv("")

	tick, err := decimal.NewFromString(cfg.Sim.TickSize)
	if err != nil {
		log.Fatalf("tick size: %v", err)
	}
	drift, err := decimal.NewFromString(cfg.Sim.DriftStep)
	if err != nil {
		log.Fatalf("drift step: %v", err)
	}
	widen, err := decimal.NewFromString(cfg.Shock.Widen)
	if err != nil {
		log.Fatalf("shock widen: %v", err)
	}

	ex := exchange.New(exchange.Config{
		TickSize: tick,
		Seed:     cfg.Sim.Seed,
		Shock: exchange.ShockConfig{
			Probability:  cfg.Shock.Probability,
			DepthFactor:  cfg.Shock.DepthFactor,
			WidenTicks:   widen.DivRound(tick, 0).IntPart(),
			ReplenishQty: cfg.Shock.ReplenishQty,
		},
		DriftStep:     drift,
		DriftShockX:   cfg.Sim.DriftShockX,
		SnapshotDepth: cfg.Sim.SnapshotDepth,
	}, nil)

	bots := agents.New(nil)
	bots.Retail.Prob = cfg.Bots.RetailProb
	ex.SetStimulus(bots)

	t := &tui{ex: ex, in: bufio.NewScanner(os.Stdin), bots: cfg.Bots.Enabled}
	t.run()
}

func (t *tui) run() {
	for {
		fmt.Print(menu)
		switch t.prompt("Enter choice: ") {
		case "1":
			t.showBook()
		case "2":
			t.placeOrder()
		case "3":
			t.advance()
		case "4":
			t.showPnL()
		case "5":
			t.bots = !t.bots
			fmt.Printf("\nBots Enabled: %v\n", t.bots)
		case "6":
			fmt.Println("\nExiting simulator...")
			return
		default:
			fmt.Println("Invalid choice. Try again.")
		}
	}
}

func (t *tui) prompt(label string) string {
	fmt.Print(label)
	if !t.in.Scan() {
		return "6"
	}
	return strings.TrimSpace(t.in.Text())
}

func (t *tui) showBook() {
	snap := t.ex.GetSnapshot(5)
	fmt.Println("\n--- ORDER BOOK (Top Levels) ---")
	fmt.Printf("Step: %d  Last Shock: %v\n", t.ex.CurrentStep(), t.ex.LastShock())
	fmt.Println("BID                 | ASK")
	fmt.Println("----------------------------------------")
	for i := 0; i < 5; i++ {
		bid, ask := "-", "-"
		if i < len(snap.Bids) {
			bid = fmt.Sprintf("%4d@%-8s", snap.Bids[i].Qty, snap.Bids[i].Price)
		}
		if i < len(snap.Asks) {
			ask = fmt.Sprintf("%-8s@%4d", snap.Asks[i].Price, snap.Asks[i].Qty)
		}
		fmt.Printf("%-19s | %s\n", bid, ask)
	}
	fmt.Println("----------------------------------------")
}

func (t *tui) placeOrder() {
	fmt.Println("\n--- PLACE ORDER ---")
	side, err := exchange.ParseSide(t.prompt("Side (buy/sell): "))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	typ, err := exchange.ParseOrderType(t.prompt("Type (market/limit): "))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	qty, err := strconv.ParseInt(t.prompt("Quantity: "), 10, 64)
	if err != nil {
		fmt.Println("Error: invalid quantity")
		return
	}

	var price decimal.NullDecimal
	if typ == exchange.Limit {
		d, err := decimal.NewFromString(t.prompt("Limit Price: "))
		if err != nil {
			fmt.Println("Error: invalid price")
			return
		}
		price = decimal.NullDecimal{Decimal: d, Valid: true}
	}

	res, err := t.ex.SubmitOrder(side, qty, typ, price)
	if err != nil {
		fmt.Println("Order rejected:", err)
		return
	}
	fmt.Printf("Order Response: id=%d status=%s filled=%d unfilled=%d\n",
		res.ID, res.Status, res.Filled, res.Unfilled)
}

func (t *tui) advance() {
	res := t.ex.Step(t.bots)
	fmt.Println("\n--- MARKET UPDATED ---")
	fmt.Printf("Step       : %d\n", res.Step)
	fmt.Printf("Mid-Price  : %s\n", renderNull(res.Mid))
	fmt.Printf("Spread     : %s\n", renderNull(res.Spread))
	fmt.Printf("Position   : %d\n", res.Position)
	fmt.Printf("Realized   : %s\n", res.Realized.StringFixed(2))
	fmt.Printf("Shock      : %v\n", res.Shock)
	fmt.Println("------------------------------------------------------------")
}

func (t *tui) showPnL() {
	rep := t.ex.PnLReport()
	fmt.Println("\n--- PnL REPORT ---")
	fmt.Printf("Position     : %d shares\n", rep.Position)
	fmt.Printf("Avg Cost     : %s\n", renderNull(rep.AvgCost))
	fmt.Printf("Mid Price    : %s\n", renderNull(rep.MarkPrice))
	fmt.Printf("Unrealized   : %s\n", rep.Unrealized.StringFixed(2))
	fmt.Printf("Realized     : %s\n", rep.Realized.StringFixed(2))
	fmt.Println("-----------------------------------")
	fmt.Printf("TOTAL PnL    : %s\n", rep.Total.StringFixed(2))
	fmt.Println("-----------------------------------")

	fmt.Println("\n--- RECENT TRADES ---")
	trades := t.ex.RecentTrades(10)
	if len(trades) == 0 {
		fmt.Println("No trades yet.")
		return
	}
	for _, tr := range trades {
		fmt.Printf("step=%d %s %d @ %s\n", tr.Step, tr.Side, tr.Qty, tr.Price)
	}
}

func renderNull(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}
