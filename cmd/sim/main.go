// Batch simulation runner. Advances the exchange a configured number of
// steps with the bot flow enabled, appending every step snapshot and every
// trade to CSV artifacts under the data dir. With API_ENABLED=true it
// instead serves the simulation over REST/WebSocket and lets clients drive
// the steps.
package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/uhyunpark/microlob/params"
	"github.com/uhyunpark/microlob/pkg/agents"
	"github.com/uhyunpark/microlob/pkg/api"
	"github.com/uhyunpark/microlob/pkg/csvlog"
	"github.com/uhyunpark/microlob/pkg/exchange"
	"github.com/uhyunpark/microlob/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("")

	var logger *zap.Logger
	var err error
	if cfg.Output.LogFile != "" {
		logger, err = util.NewFileLogger(cfg.Output.LogFile, zapcore.InfoLevel)
	} else {
		logger, err = util.NewLogger(zapcore.InfoLevel)
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	exCfg, err := exchangeConfig(cfg)
	if err != nil {
		sugar.Fatalw("bad_config", "err", err)
	}

	ex := exchange.New(exCfg, sugar)
	bots := agents.New(sugar)
	bots.Retail.Prob = cfg.Bots.RetailProb
	ex.SetStimulus(bots)

	runID := uuid.New().String()
	sugar.Infow("run_started",
		"run_id", runID,
		"seed", cfg.Sim.Seed,
		"steps", cfg.Sim.Steps,
		"bots", cfg.Bots.Enabled,
		"shock_probability", cfg.Shock.Probability)

	if cfg.API.Enabled {
		srv := api.NewServer(ex, cfg.Bots.Enabled, sugar)
		if err := srv.Start(cfg.API.Addr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
		return
	}

	if err := os.MkdirAll(cfg.Output.DataDir, 0755); err != nil {
		sugar.Fatalw("data_dir_failed", "dir", cfg.Output.DataDir, "err", err)
	}

	snaps, err := csvlog.NewSnapshotWriter(filepath.Join(cfg.Output.DataDir, "book_snapshots.csv"))
	if err != nil {
		sugar.Fatalw("snapshot_writer_failed", "err", err)
	}
	defer snaps.Close()

	trades, err := csvlog.NewTradeWriter(filepath.Join(cfg.Output.DataDir, "trades.csv"))
	if err != nil {
		sugar.Fatalw("trade_writer_failed", "err", err)
	}
	defer trades.Close()

	for i := 0; i < cfg.Sim.Steps; i++ {
		res := ex.Step(cfg.Bots.Enabled)

		if err := snaps.Append(res); err != nil {
			sugar.Fatalw("snapshot_append_failed", "step", res.Step, "err", err)
		}
		for _, tr := range res.Trades {
			if err := trades.Append(tr, res.VWAP); err != nil {
				sugar.Fatalw("trade_append_failed", "step", res.Step, "err", err)
			}
		}

		sugar.Infow("sim_step",
			"step", res.Step,
			"mid", renderNull(res.Mid),
			"spread", renderNull(res.Spread),
			"shock", res.Shock,
			"trades", len(res.Trades))
	}

	rep := ex.PnLReport()
	sugar.Infow("run_complete",
		"run_id", runID,
		"position", rep.Position,
		"realized", rep.Realized.String(),
		"unrealized", rep.Unrealized.String(),
		"total", rep.Total.String(),
		"data_dir", cfg.Output.DataDir)
}

func exchangeConfig(cfg params.Config) (exchange.Config, error) {
	tick, err := decimal.NewFromString(cfg.Sim.TickSize)
	if err != nil {
		return exchange.Config{}, err
	}
	drift, err := decimal.NewFromString(cfg.Sim.DriftStep)
	if err != nil {
		return exchange.Config{}, err
	}
	widen, err := decimal.NewFromString(cfg.Shock.Widen)
	if err != nil {
		return exchange.Config{}, err
	}

	return exchange.Config{
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
	}, nil
}

func renderNull(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}
