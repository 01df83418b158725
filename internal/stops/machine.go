// Package stops implements the four-phase trailing-stop ratchet that owns
// each open position's lifecycle: INITIAL -> T1_HIT -> T2_HIT -> RUNAWAY.
// Long side only; short positions are a documented extension point.
package stops

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/RJDCTM/autotrader/internal/models"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// TickResult reports what one price update did to a position.
type TickResult struct {
	Phase         models.Phase
	PhaseChanged  bool
	Stop          decimal.Decimal
	StopRaised    bool
	StopTriggered bool // price at/below the stop; exit is signaled, not executed here
}

// NewPosition creates a position in phase INITIAL with the fixed
// protective stop entry * (1 - stop_pct/100). Pass override to replace the
// bucket defaults with per-ticker tuned parameters.
func NewPosition(ticker string, bucket models.StrategyBucket, sector string, entry, qty decimal.Decimal, entryTime time.Time, override *models.BucketParams) (*models.Position, error) {
	if ticker == "" {
		return nil, &models.StateError{Ticker: ticker, Op: "create", Reason: "empty ticker"}
	}
	if !entry.IsPositive() || !qty.IsPositive() {
		return nil, &models.StateError{Ticker: ticker, Op: "create", Reason: "entry price and quantity must be positive"}
	}
	params, err := ParamsFor(bucket)
	if err != nil {
		return nil, err
	}
	if override != nil {
		params = *override
	}

	stop := entry.Mul(one.Sub(decimal.NewFromFloat(params.StopPct).Div(hundred)))
	return &models.Position{
		Ticker:     ticker,
		Bucket:     bucket,
		Sector:     sector,
		EntryPrice: entry,
		EntryTime:  entryTime,
		Quantity:   qty,
		Params:     params,
		Phase:      models.PhaseInitial,
		PeakPrice:  entry,
		StopPrice:  stop,
	}, nil
}

// Update advances the machine with one observed price. In order: the peak
// favorable price is raised, unmet phase transitions are checked (a large
// gap can pass through several in one tick), the stop is recomputed from
// the current phase's formula against the updated peak, and finally the
// new stop is clamped to never fall below the previous one. Applying the
// same tick twice is a no-op: peak and stop are already maximal.
func Update(pos *models.Position, price decimal.Decimal) (TickResult, error) {
	if pos == nil {
		return TickResult{}, &models.StateError{Op: "update", Reason: "nil position"}
	}
	if !price.IsPositive() {
		return TickResult{}, &models.InputError{Ticker: pos.Ticker, Reason: "non-positive price"}
	}

	prevPhase := pos.Phase
	prevStop := pos.StopPrice

	if price.GreaterThan(pos.PeakPrice) {
		pos.PeakPrice = price
	}

	entry := pos.EntryPrice
	t1Target := targetPrice(entry, pos.Params.Target1Pct)
	t2Target := targetPrice(entry, pos.Params.Target2Pct)
	// Runaway fires once the gain stretches RunawayMult times the T2 gain.
	runawayTarget := entry.Add(t2Target.Sub(entry).Mul(decimal.NewFromFloat(pos.Params.RunawayMult)))

	if pos.Phase < models.PhaseT1Hit && price.GreaterThanOrEqual(t1Target) {
		pos.Phase = models.PhaseT1Hit
	}
	if pos.Phase < models.PhaseT2Hit && pos.Phase >= models.PhaseT1Hit && price.GreaterThanOrEqual(t2Target) {
		pos.Phase = models.PhaseT2Hit
	}
	if pos.Phase < models.PhaseRunaway && pos.Phase >= models.PhaseT2Hit && price.GreaterThanOrEqual(runawayTarget) {
		pos.Phase = models.PhaseRunaway
	}

	// Stop only ever moves up.
	computed := stopFor(pos)
	if computed.GreaterThan(pos.StopPrice) {
		pos.StopPrice = computed
	}

	return TickResult{
		Phase:         pos.Phase,
		PhaseChanged:  pos.Phase != prevPhase,
		Stop:          pos.StopPrice,
		StopRaised:    pos.StopPrice.GreaterThan(prevStop),
		StopTriggered: price.LessThanOrEqual(pos.StopPrice),
	}, nil
}

// stopFor applies the current phase's stop formula against the running
// peak. Before T1 the stop is the fixed protective stop, not a trail.
func stopFor(pos *models.Position) decimal.Decimal {
	entry := pos.EntryPrice
	gain := pos.PeakPrice.Sub(entry)
	switch pos.Phase {
	case models.PhaseT1Hit:
		return entry.Mul(one.Add(decimal.NewFromFloat(pos.Params.BreakevenBuffer)))
	case models.PhaseT2Hit:
		return entry.Add(gain.Mul(decimal.NewFromFloat(pos.Params.T2Trail)))
	case models.PhaseRunaway:
		return entry.Add(gain.Mul(decimal.NewFromFloat(pos.Params.RunawayTrail)))
	default:
		return entry.Mul(one.Sub(decimal.NewFromFloat(pos.Params.StopPct).Div(hundred)))
	}
}

func targetPrice(entry decimal.Decimal, pct float64) decimal.Decimal {
	return entry.Mul(one.Add(decimal.NewFromFloat(pct).Div(hundred)))
}
