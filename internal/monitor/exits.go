package monitor

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RJDCTM/autotrader/internal/models"
)

// ExitConfig holds the exit-trigger thresholds. These rules run on every
// monitoring tick, independently of the trailing-stop machine.
type ExitConfig struct {
	HardStopLossPct       float64 `envconfig:"HARD_STOP_LOSS_PCT" default:"-7.0"`
	TrimHeavyExtensionPct float64 `envconfig:"TRIM_HEAVY_EXTENSION_PCT" default:"12.0"`
	TrimLightExtensionPct float64 `envconfig:"TRIM_LIGHT_EXTENSION_PCT" default:"8.0"`
	DecayScore            float64 `envconfig:"DECAY_SCORE" default:"25.0"`
	MinHoldHours          int     `envconfig:"MIN_HOLD_HOURS" default:"24"` // one trading day
}

func (c ExitConfig) Validate() error {
	if c.HardStopLossPct > 0 {
		return fmt.Errorf("hard stop loss must be <= 0, got %.1f", c.HardStopLossPct)
	}
	if c.TrimLightExtensionPct < 0 || c.TrimHeavyExtensionPct <= c.TrimLightExtensionPct {
		return fmt.Errorf("extension trims must satisfy 0 <= light < heavy")
	}
	if c.MinHoldHours < 0 {
		return fmt.Errorf("min hold hours must be >= 0")
	}
	return nil
}

// snapView carries the refreshed per-snapshot inputs for the exit rules.
// A nil view means no fresh snapshot existed for the ticker this tick.
type snapView struct {
	passedGate   bool
	score        float64
	extensionPct float64
}

// EvaluateExits runs the advisory exit rules for one position against its
// refreshed snapshot evaluation. When several rules fire the highest
// urgency wins; ties go to the earlier rule. Returns nil when nothing
// fires. Execution is the collaborator's call; this only reports.
func EvaluateExits(pos *models.Position, price decimal.Decimal, passedGate bool, score float64, extensionPct float64, now time.Time, cfg ExitConfig) *models.ExitSignal {
	return evaluate(pos, price, &snapView{passedGate: passedGate, score: score, extensionPct: extensionPct}, now, cfg)
}

// EvaluateBaselineExits runs only the snapshot-independent rules: the hard
// stop-loss backstop and the maximum holding period. Price and entry are
// always in hand, so these run even when the ticker is missing from the
// latest universe (first tick after a restart, or dropped from the watch
// list while held).
func EvaluateBaselineExits(pos *models.Position, price decimal.Decimal, now time.Time, cfg ExitConfig) *models.ExitSignal {
	return evaluate(pos, price, nil, now, cfg)
}

func evaluate(pos *models.Position, price decimal.Decimal, snap *snapView, now time.Time, cfg ExitConfig) *models.ExitSignal {
	pnlPct := 0.0
	if pos.EntryPrice.IsPositive() {
		pnlPct, _ = price.Sub(pos.EntryPrice).Div(pos.EntryPrice).Mul(decimal.NewFromInt(100)).Float64()
	}
	held := now.Sub(pos.EntryTime)

	var best *models.ExitSignal
	consider := func(kind models.SignalKind, urgency models.Urgency, reason string) {
		if best == nil || urgency > best.Urgency {
			sig := models.NewExitSignal(pos.Ticker, kind, urgency, reason, price, now)
			best = &sig
		}
	}

	if pnlPct <= cfg.HardStopLossPct {
		consider(models.SignalFullExit, models.UrgencyHigh,
			fmt.Sprintf("unrealized P&L %.1f%% at or below hard stop %.1f%%", pnlPct, cfg.HardStopLossPct))
	}
	if snap != nil {
		if !snap.passedGate {
			consider(models.SignalFullExit, models.UrgencyHigh, "trend gate no longer passes")
		}
		if snap.extensionPct >= cfg.TrimHeavyExtensionPct {
			consider(models.SignalTrimHalf, models.UrgencyMedium,
				fmt.Sprintf("extension %.1f%% above 20 EMA, trim half", snap.extensionPct))
		} else if snap.extensionPct >= cfg.TrimLightExtensionPct {
			consider(models.SignalTrimQuarter, models.UrgencyLow,
				fmt.Sprintf("extension %.1f%% above 20 EMA, trim quarter", snap.extensionPct))
		}
		if snap.passedGate && snap.score < cfg.DecayScore && held >= time.Duration(cfg.MinHoldHours)*time.Hour {
			consider(models.SignalScoreDecay, models.UrgencyMedium,
				fmt.Sprintf("composite score decayed to %.1f after %dh held", snap.score, int(held.Hours())))
		}
	}
	if pos.Params.MaxHoldDays > 0 && held >= time.Duration(pos.Params.MaxHoldDays)*24*time.Hour {
		consider(models.SignalMaxHold, models.UrgencyMedium,
			fmt.Sprintf("held %dd, max hold %dd reached", int(held.Hours()/24), pos.Params.MaxHoldDays))
	}

	return best
}
