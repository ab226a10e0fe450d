package params

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Sim struct {
	Seed          int64
	Steps         int
	SnapshotDepth int
	TickSize      string // decimal, e.g. "0.01"
	DriftStep     string // decimal, e.g. "0.05"
	DriftShockX   int64
}

type Shock struct {
	Probability  float64
	DepthFactor  float64
	Widen        string // decimal, e.g. "0.20"
	ReplenishQty int64
}

type Bots struct {
	Enabled    bool
	RetailProb float64
}

type Output struct {
	DataDir string
	LogFile string
}

type API struct {
	Enabled bool
	Addr    string
}

type Config struct {
	Sim    Sim
	Shock  Shock
	Bots   Bots
	Output Output
	API    API
}

func Default() Config {
	return Config{
		Sim: Sim{
			Seed:          1,
			Steps:         20,
			SnapshotDepth: 5,
			TickSize:      "0.01",
			DriftStep:     "0.05",
			DriftShockX:   5,
		},
		Shock: Shock{
			Probability:  0.10,
			DepthFactor:  0.5,
			Widen:        "0.20",
			ReplenishQty: 50,
		},
		Bots: Bots{
			Enabled:    true,
			RetailProb: 0.20,
		},
		Output: Output{
			DataDir: "data",
			LogFile: "", // console only
		},
		API: API{
			Enabled: false,
			Addr:    ":8080",
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("SIM_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Sim.Seed = n
		}
	}
	if v := os.Getenv("SIM_STEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sim.Steps = n
		}
	}
	if v := os.Getenv("SIM_SNAPSHOT_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sim.SnapshotDepth = n
		}
	}
	if v := os.Getenv("SIM_TICK_SIZE"); v != "" {
		cfg.Sim.TickSize = v
	}
	if v := os.Getenv("SIM_DRIFT_STEP"); v != "" {
		cfg.Sim.DriftStep = v
	}
	if v := os.Getenv("SIM_DRIFT_SHOCK_MULT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Sim.DriftShockX = n
		}
	}

	if v := os.Getenv("SHOCK_PROBABILITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Shock.Probability = f
		}
	}
	if v := os.Getenv("SHOCK_DEPTH_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Shock.DepthFactor = f
		}
	}
	if v := os.Getenv("SHOCK_WIDEN"); v != "" {
		cfg.Shock.Widen = v
	}
	if v := os.Getenv("SHOCK_REPLENISH_QTY"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Shock.ReplenishQty = n
		}
	}

	if v := os.Getenv("BOTS_ENABLED"); v != "" {
		cfg.Bots.Enabled = v == "true"
	}
	if v := os.Getenv("BOTS_RETAIL_PROB"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Bots.RetailProb = f
		}
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Output.DataDir = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Output.LogFile = v
	}

	if v := os.Getenv("API_ENABLED"); v != "" {
		cfg.API.Enabled = v == "true"
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.API.Addr = v
	}

	return cfg
}
