package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/RJDCTM/autotrader/internal/models"
)

// SizerConfig caps a single entry by both position value and risked
// dollars, with an ATR-derived stop distance.
type SizerConfig struct {
	MaxPositionPct float64 `envconfig:"MAX_POSITION_PCT" default:"5.0"`
	MaxRiskPct     float64 `envconfig:"MAX_RISK_PCT" default:"2.0"`
	ATRStopMult    float64 `envconfig:"ATR_STOP_MULT" default:"2.0"`
	FullScaleScore float64 `envconfig:"FULL_SCALE_SCORE" default:"50.0"`
	MidScaleScore  float64 `envconfig:"MID_SCALE_SCORE" default:"40.0"`
	WhaleBonus     float64 `envconfig:"WHALE_BONUS" default:"1.25"`
}

func (c SizerConfig) Validate() error {
	if c.MaxPositionPct <= 0 || c.MaxRiskPct <= 0 || c.ATRStopMult <= 0 {
		return fmt.Errorf("sizer percentages and atr multiplier must be > 0")
	}
	if c.WhaleBonus < 1.0 {
		return fmt.Errorf("whale bonus must be >= 1.0, got %.2f", c.WhaleBonus)
	}
	return nil
}

// Sizing is the share quantity for a proposed entry. NoPosition means the
// signal sized below one share and is suppressed, which is not an error.
type Sizing struct {
	Shares     decimal.Decimal
	NoPosition bool
}

type Sizer struct {
	cfg SizerConfig
}

func NewSizer(cfg SizerConfig) *Sizer {
	return &Sizer{cfg: cfg}
}

// Size converts an actionable signal into a share quantity. The base is
// the lesser of the risk-budget shares and the position-value shares; the
// score scale discounts weaker signals and the whale bonus claws part of
// that discount back, never past the base itself. sizeScale comes from the
// circuit breaker (1.0 normally, 0.5 under soft reduce).
func (s *Sizer) Size(score float64, conviction models.Conviction, atr, price, equity decimal.Decimal, sizeScale float64) (Sizing, error) {
	if !equity.IsPositive() {
		return Sizing{}, &models.SizingError{Reason: "insufficient equity"}
	}
	if !atr.IsPositive() {
		return Sizing{}, &models.SizingError{Reason: "non-positive ATR"}
	}
	if !price.IsPositive() {
		return Sizing{}, &models.SizingError{Reason: "non-positive price"}
	}

	maxPositionValue := equity.Mul(decimal.NewFromFloat(s.cfg.MaxPositionPct / 100))
	maxRiskValue := equity.Mul(decimal.NewFromFloat(s.cfg.MaxRiskPct / 100))
	stopDistance := atr.Mul(decimal.NewFromFloat(s.cfg.ATRStopMult))

	sharesFromRisk := maxRiskValue.Div(stopDistance).Floor()
	sharesFromPosition := maxPositionValue.Div(price).Floor()
	baseShares := decimal.Min(sharesFromRisk, sharesFromPosition)
	if sizeScale > 0 && sizeScale < 1 {
		baseShares = baseShares.Mul(decimal.NewFromFloat(sizeScale)).Floor()
	}

	scale := 0.50
	switch {
	case score >= s.cfg.FullScaleScore:
		scale = 1.00
	case score >= s.cfg.MidScaleScore:
		scale = 0.75
	}
	bonus := 1.00
	if conviction == models.ConvictionWhale {
		bonus = s.cfg.WhaleBonus
	}

	final := baseShares.
		Mul(decimal.NewFromFloat(scale)).
		Mul(decimal.NewFromFloat(bonus)).
		Floor()
	// The bonus can offset the scale discount but never exceed the base.
	final = decimal.Min(final, baseShares)

	if final.IsZero() || final.IsNegative() {
		return Sizing{NoPosition: true}, nil
	}
	return Sizing{Shares: final}, nil
}
