package scoring

import (
	"fmt"
	"math"

	"github.com/RJDCTM/autotrader/internal/models"
)

// weightSumEpsilon bounds float drift when checking that weights sum to 1.
const weightSumEpsilon = 1e-9

// Weights are the composite ranking weights over the four flow sub-scores.
// They must sum to exactly 1.0; anything else is a fatal startup error.
type Weights struct {
	Options  float64 `envconfig:"OPTIONS" default:"0.30"`
	DarkPool float64 `envconfig:"DARKPOOL" default:"0.25"`
	Volume   float64 `envconfig:"VOLUME" default:"0.25"`
	Momentum float64 `envconfig:"MOMENTUM" default:"0.20"`
}

func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"options": w.Options, "darkpool": w.DarkPool,
		"volume": w.Volume, "momentum": w.Momentum,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("weights.%s must be >= 0, got %v", name, v)
		}
	}
	sum := w.Options + w.DarkPool + w.Volume + w.Momentum
	if math.Abs(sum-1.0) > weightSumEpsilon {
		return fmt.Errorf("weights must sum to 1.0, got %.6f", sum)
	}
	return nil
}

// Scorer ranks gate-passing snapshots by weighted flow. Sub-scores arrive
// pre-normalized; no further normalization happens here. The same snapshot
// always produces the same score.
type Scorer struct {
	w Weights
}

// NewScorer validates the weights up front so a bad configuration can
// never reach the ranking path.
func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{w: w}, nil
}

// Score computes the composite rank score. Callers must gate first.
func (s *Scorer) Score(snap models.FeatureSnapshot) float64 {
	sc := snap.Scores
	return s.w.Options*sc.Options +
		s.w.DarkPool*sc.DarkPool +
		s.w.Volume*sc.Volume +
		s.w.Momentum*sc.Momentum
}
