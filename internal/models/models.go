package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Phase is the profit-lock stage of an open position. The values form a
// total order (Initial < T1Hit < T2Hit < Runaway) and a position's phase
// only ever moves forward, even if price retraces.
type Phase int

const (
	PhaseInitial Phase = iota
	PhaseT1Hit
	PhaseT2Hit
	PhaseRunaway
)

var phaseNames = map[Phase]string{
	PhaseInitial: "INITIAL",
	PhaseT1Hit:   "T1_HIT",
	PhaseT2Hit:   "T2_HIT",
	PhaseRunaway: "RUNAWAY",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalJSON persists the phase by name so the state file stays readable.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Phase) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for ph, n := range phaseNames {
		if n == name {
			*p = ph
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", name)
}

// StrategyBucket selects the parameter set a position trades under.
// The set is closed; anything else is rejected at position creation.
type StrategyBucket string

const (
	BucketMomentumBreakout StrategyBucket = "momentum_breakout"
	BucketSwing            StrategyBucket = "swing"
	BucketMeanReversion    StrategyBucket = "mean_reversion"
	BucketSectorETF        StrategyBucket = "sector_etf"
	BucketEarningsRun      StrategyBucket = "earnings_run"
)

// BucketParams are the per-bucket risk parameters attached to a position
// at creation. Percent fields are whole percents (5.0 = 5%), trail fields
// are fractions of the gain from entry.
type BucketParams struct {
	StopPct         float64 `json:"stop_pct"`
	Target1Pct      float64 `json:"target1_pct"`
	Target2Pct      float64 `json:"target2_pct"`
	BreakevenBuffer float64 `json:"breakeven_buffer"` // e.g. 0.002 = entry +0.2%
	T2Trail         float64 `json:"t2_trail"`
	RunawayTrail    float64 `json:"runaway_trail"`
	RunawayMult     float64 `json:"runaway_mult"` // runaway target = entry + mult * T2 gain
	MaxHoldDays     int     `json:"max_hold_days"`
}

// Position is one open long trade, keyed by ticker. It is mutated only by
// the trailing-stop machine on monitoring ticks.
type Position struct {
	Ticker     string          `json:"ticker"`
	Bucket     StrategyBucket  `json:"bucket"`
	Sector     string          `json:"sector,omitempty"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	EntryTime  time.Time       `json:"entry_time"`
	Quantity   decimal.Decimal `json:"quantity"`
	Params     BucketParams    `json:"params"`
	Phase      Phase           `json:"phase"`
	PeakPrice  decimal.Decimal `json:"peak_price"` // highest price since entry, never decreases
	StopPrice  decimal.Decimal `json:"stop_price"` // ratchets up only once phase >= T1_HIT
}

// CostBasis returns quantity * entry price.
func (p *Position) CostBasis() decimal.Decimal {
	return p.Quantity.Mul(p.EntryPrice)
}

// PortfolioState is the session-scoped shared state every guardrail check
// reads. The engine never mutates it speculatively; fills are written back
// by the execution collaborator via the engine's confirm calls.
type PortfolioState struct {
	Version          string               `json:"version"`
	Equity           decimal.Decimal      `json:"equity"`
	StartingEquity   decimal.Decimal      `json:"starting_equity"` // equity at session start, halt baseline
	DailyRealizedPnL decimal.Decimal      `json:"daily_realized_pnl"`
	TradesToday      int                  `json:"trades_today"`
	Positions        map[string]*Position `json:"positions"`
	LastSync         string               `json:"last_sync,omitempty"`
}

// SectorExposure sums open cost basis per sector.
func (s *PortfolioState) SectorExposure() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s.Positions))
	for _, p := range s.Positions {
		out[p.Sector] = out[p.Sector].Add(p.CostBasis())
	}
	return out
}

// DailyPnLPct is the realized day P&L as a percent of session-start equity.
func (s *PortfolioState) DailyPnLPct() float64 {
	if s.StartingEquity.IsZero() {
		return 0
	}
	pct, _ := s.DailyRealizedPnL.Div(s.StartingEquity).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}
