package risk

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RJDCTM/autotrader/internal/models"
)

// BreakerConfig bounds portfolio-level exposure and the entry window.
// Loss thresholds are negative percentages of session-start equity.
type BreakerConfig struct {
	DailyLossHaltPct     float64 `envconfig:"DAILY_LOSS_HALT_PCT" default:"-3.0"`
	DailyLossReducePct   float64 `envconfig:"DAILY_LOSS_REDUCE_PCT" default:"-2.0"`
	ReduceScale          float64 `envconfig:"REDUCE_SCALE" default:"0.5"`
	MaxTradesPerDay      int     `envconfig:"MAX_TRADES_PER_DAY" default:"6"`
	MaxOpenPositions     int     `envconfig:"MAX_OPEN_POSITIONS" default:"10"`
	MaxSectorExposurePct float64 `envconfig:"MAX_SECTOR_EXPOSURE_PCT" default:"25.0"`
	SessionOpen          string  `envconfig:"SESSION_OPEN" default:"09:30"`
	SessionClose         string  `envconfig:"SESSION_CLOSE" default:"16:00"`
	NoEntryOpenMins      int     `envconfig:"NO_ENTRY_OPEN_MINS" default:"15"`
	NoEntryCloseMins     int     `envconfig:"NO_ENTRY_CLOSE_MINS" default:"30"`
}

func (c BreakerConfig) Validate() error {
	if c.DailyLossHaltPct > 0 || c.DailyLossReducePct > 0 {
		return fmt.Errorf("daily loss thresholds must be <= 0")
	}
	if c.DailyLossHaltPct > c.DailyLossReducePct {
		return fmt.Errorf("halt threshold (%.1f) must be at or below reduce threshold (%.1f)",
			c.DailyLossHaltPct, c.DailyLossReducePct)
	}
	if c.ReduceScale <= 0 || c.ReduceScale > 1 {
		return fmt.Errorf("reduce scale must be in (0,1], got %.2f", c.ReduceScale)
	}
	if c.MaxTradesPerDay <= 0 || c.MaxOpenPositions <= 0 {
		return fmt.Errorf("trade and position caps must be > 0")
	}
	if c.MaxSectorExposurePct < 0 || c.NoEntryOpenMins < 0 || c.NoEntryCloseMins < 0 {
		return fmt.Errorf("sector cap and blackout windows must be >= 0")
	}
	open, err := parseClock(c.SessionOpen)
	if err != nil {
		return fmt.Errorf("session_open: %w", err)
	}
	close_, err := parseClock(c.SessionClose)
	if err != nil {
		return fmt.Errorf("session_close: %w", err)
	}
	if close_ <= open {
		return fmt.Errorf("session close %s must be after open %s", c.SessionClose, c.SessionOpen)
	}
	return nil
}

// Decision is the breaker's verdict on a proposed entry. A denial carries
// the reason; an allowance carries the sizing scale (1.0, or the reduce
// scale while the soft-reduce latch is set).
type Decision struct {
	Allowed   bool
	SizeScale float64
	Reason    string
}

func deny(reason string) Decision {
	return Decision{Allowed: false, SizeScale: 0, Reason: reason}
}

// Breaker is the process-wide entry guard. The halt and reduce latches are
// session-scoped: once set they stay set even if P&L recovers intraday,
// and only StartSession clears them.
type Breaker struct {
	cfg       BreakerConfig
	openMins  int
	closeMins int

	halted     bool
	haltReason string
	reduced    bool
}

func NewBreaker(cfg BreakerConfig) (*Breaker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	open, _ := parseClock(cfg.SessionOpen)
	close_, _ := parseClock(cfg.SessionClose)
	return &Breaker{cfg: cfg, openMins: open, closeMins: close_}, nil
}

// StartSession clears the halt/reduce latches at the start of a trading
// day. This is the only way they reset.
func (b *Breaker) StartSession() {
	b.halted = false
	b.haltReason = ""
	b.reduced = false
}

// Halted reports whether the session-wide entry halt is latched.
func (b *Breaker) Halted() bool {
	return b.halted
}

// MayEnter runs every blocking condition against a proposed entry.
// projectedCost is the cost basis the entry would add to the candidate's
// sector. Checks run in severity order and the first failure wins.
func (b *Breaker) MayEnter(portfolio *models.PortfolioState, sector string, projectedCost decimal.Decimal, now time.Time) Decision {
	pnlPct := portfolio.DailyPnLPct()
	if pnlPct <= b.cfg.DailyLossHaltPct {
		b.halted = true
		b.haltReason = fmt.Sprintf("daily loss %.2f%% breached halt threshold %.1f%%", pnlPct, b.cfg.DailyLossHaltPct)
	}
	if pnlPct <= b.cfg.DailyLossReducePct {
		b.reduced = true
	}

	if b.halted {
		return deny("halted: " + b.haltReason)
	}
	if portfolio.TradesToday >= b.cfg.MaxTradesPerDay {
		return deny(fmt.Sprintf("daily trade cap reached (%d/%d)", portfolio.TradesToday, b.cfg.MaxTradesPerDay))
	}
	if len(portfolio.Positions) >= b.cfg.MaxOpenPositions {
		return deny(fmt.Sprintf("max open positions reached (%d/%d)", len(portfolio.Positions), b.cfg.MaxOpenPositions))
	}
	if reason := b.checkSector(portfolio, sector, projectedCost); reason != "" {
		return deny(reason)
	}
	if reason := b.checkEntryWindow(now); reason != "" {
		return deny(reason)
	}

	if b.reduced {
		return Decision{Allowed: true, SizeScale: b.cfg.ReduceScale, Reason: "soft reduce active"}
	}
	return Decision{Allowed: true, SizeScale: 1.0}
}

func (b *Breaker) checkSector(portfolio *models.PortfolioState, sector string, projectedCost decimal.Decimal) string {
	if sector == "" || !portfolio.Equity.IsPositive() {
		return ""
	}
	projected := portfolio.SectorExposure()[sector].Add(projectedCost)
	pct, _ := projected.Div(portfolio.Equity).Mul(decimal.NewFromInt(100)).Float64()
	if pct > b.cfg.MaxSectorExposurePct {
		return fmt.Sprintf("sector %s exposure would reach %.1f%% (cap %.1f%%)", sector, pct, b.cfg.MaxSectorExposurePct)
	}
	return ""
}

func (b *Breaker) checkEntryWindow(now time.Time) string {
	mins := now.Hour()*60 + now.Minute()
	if mins < b.openMins+b.cfg.NoEntryOpenMins {
		return fmt.Sprintf("entry blackout: first %d minutes of session", b.cfg.NoEntryOpenMins)
	}
	if mins > b.closeMins-b.cfg.NoEntryCloseMins {
		return fmt.Sprintf("entry blackout: last %d minutes of session", b.cfg.NoEntryCloseMins)
	}
	return ""
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}
