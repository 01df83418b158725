package scoring

import (
	"fmt"

	"github.com/RJDCTM/autotrader/internal/models"
)

// ActionThresholds are the score cut-offs for each action tier. Boundary
// values belong to the higher tier (inclusive lower bound).
type ActionThresholds struct {
	StrongBuy  float64 `envconfig:"STRONG_BUY" default:"40.0"`
	BuyDip     float64 `envconfig:"BUY_DIP" default:"30.0"`
	Accumulate float64 `envconfig:"ACCUMULATE" default:"20.0"`
}

func (t ActionThresholds) Validate() error {
	if t.StrongBuy < 0 || t.BuyDip < 0 || t.Accumulate < 0 {
		return fmt.Errorf("action thresholds must be >= 0")
	}
	if !(t.StrongBuy > t.BuyDip && t.BuyDip > t.Accumulate) {
		return fmt.Errorf("action thresholds must be strictly descending: strong_buy=%.1f buy_dip=%.1f accumulate=%.1f",
			t.StrongBuy, t.BuyDip, t.Accumulate)
	}
	return nil
}

// AssignAction maps a composite score to an action and its urgency.
// Conviction does not shift the tier; it flows through to sizing.
func AssignAction(score float64, t ActionThresholds) (models.Action, models.Urgency) {
	switch {
	case score >= t.StrongBuy:
		return models.ActionStrongBuy, models.UrgencyHigh
	case score >= t.BuyDip:
		return models.ActionBuyDip, models.UrgencyMedium
	case score >= t.Accumulate:
		return models.ActionAccumulate, models.UrgencyLow
	default:
		return models.ActionMonitor, models.UrgencyLow
	}
}
