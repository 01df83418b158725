package scoring

import "github.com/RJDCTM/autotrader/internal/models"

// ConvictionConfig sets the per-signal strength threshold used when
// counting strong sub-scores. The same threshold applies to all four.
type ConvictionConfig struct {
	StrongThreshold float64 `envconfig:"STRONG_THRESHOLD" default:"70.0"`
}

// Classify labels flow conviction by counting sub-scores at or above the
// strength threshold. The whale check runs before the generic moderate
// check: whale is the stricter subset and would otherwise be swallowed.
func Classify(scores models.SubScores, cfg ConvictionConfig) models.Conviction {
	t := cfg.StrongThreshold
	strong := 0
	for _, v := range []float64{scores.Options, scores.DarkPool, scores.Volume, scores.Momentum} {
		if v >= t {
			strong++
		}
	}
	institutional := scores.Options >= t || scores.DarkPool >= t

	switch {
	case strong >= 2 && institutional:
		return models.ConvictionWhale
	case strong >= 2:
		return models.ConvictionModerate
	case strong >= 1:
		return models.ConvictionLight
	default:
		return models.ConvictionWeak
	}
}
