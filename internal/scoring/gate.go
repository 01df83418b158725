package scoring

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/RJDCTM/autotrader/internal/models"
)

// GateConfig holds the trend-gate thresholds. The gate is a hard boolean
// filter, not a score contributor.
type GateConfig struct {
	MinPrice        float64 `envconfig:"MIN_PRICE" default:"5.0"`
	MinAvgVolume    int64   `envconfig:"MIN_AVG_VOLUME" default:"200000"`
	MaxExtensionPct float64 `envconfig:"MAX_EXTENSION_PCT" default:"10.0"`
}

// Gate filters snapshots by trend before any ranking happens.
type Gate struct {
	cfg GateConfig
}

func NewGate(cfg GateConfig) *Gate {
	return &Gate{cfg: cfg}
}

// Evaluate returns true only when every trend condition holds: price above
// all three EMAs, extension within bounds, and the price/liquidity floors
// met. Any missing or NaN input fails the gate — fail closed.
func (g *Gate) Evaluate(snap models.FeatureSnapshot) bool {
	if snap.Ticker == "" {
		return false
	}
	if !snap.Price.IsPositive() {
		return false
	}
	// A zero EMA means the feature pipeline could not compute it.
	if !snap.EMA20.IsPositive() || !snap.EMA50.IsPositive() || !snap.EMA200.IsPositive() {
		return false
	}
	if math.IsNaN(snap.ExtensionPct) || anyNaN(snap.Scores) {
		return false
	}
	if !snap.Price.GreaterThan(snap.EMA20) ||
		!snap.Price.GreaterThan(snap.EMA50) ||
		!snap.Price.GreaterThan(snap.EMA200) {
		return false
	}
	if snap.ExtensionPct > g.cfg.MaxExtensionPct {
		return false
	}
	if snap.Price.LessThan(decimal.NewFromFloat(g.cfg.MinPrice)) {
		return false
	}
	if snap.AvgVolume < g.cfg.MinAvgVolume {
		return false
	}
	return true
}

func anyNaN(s models.SubScores) bool {
	return math.IsNaN(s.Options) || math.IsNaN(s.DarkPool) ||
		math.IsNaN(s.Volume) || math.IsNaN(s.Momentum)
}
