package stops

import (
	"github.com/RJDCTM/autotrader/internal/models"
)

// Default phase parameters per strategy bucket. Tighter stops for the
// short-fuse buckets (earnings), looser trails for mean reversion.
var bucketDefaults = map[models.StrategyBucket]models.BucketParams{
	models.BucketMomentumBreakout: {
		StopPct: 5.0, Target1Pct: 3.0, Target2Pct: 6.0,
		BreakevenBuffer: 0.002, T2Trail: 0.50, RunawayTrail: 0.70, RunawayMult: 2.0,
		MaxHoldDays: 5,
	},
	models.BucketSwing: {
		StopPct: 5.0, Target1Pct: 4.0, Target2Pct: 8.0,
		BreakevenBuffer: 0.002, T2Trail: 0.50, RunawayTrail: 0.70, RunawayMult: 2.0,
		MaxHoldDays: 10,
	},
	models.BucketMeanReversion: {
		StopPct: 4.0, Target1Pct: 3.0, Target2Pct: 5.0,
		BreakevenBuffer: 0.002, T2Trail: 0.50, RunawayTrail: 0.65, RunawayMult: 2.0,
		MaxHoldDays: 3,
	},
	models.BucketSectorETF: {
		StopPct: 5.0, Target1Pct: 4.0, Target2Pct: 8.0,
		BreakevenBuffer: 0.002, T2Trail: 0.50, RunawayTrail: 0.70, RunawayMult: 2.0,
		MaxHoldDays: 14,
	},
	models.BucketEarningsRun: {
		StopPct: 3.0, Target1Pct: 2.5, Target2Pct: 5.0,
		BreakevenBuffer: 0.002, T2Trail: 0.45, RunawayTrail: 0.60, RunawayMult: 2.0,
		MaxHoldDays: 2,
	},
}

// ParamsFor returns the validated default parameters for a bucket. Unknown
// buckets are a configuration error surfaced at position creation.
func ParamsFor(bucket models.StrategyBucket) (models.BucketParams, error) {
	params, ok := bucketDefaults[bucket]
	if !ok {
		return models.BucketParams{}, &models.StateError{
			Ticker: "", Op: "params", Reason: "unknown strategy bucket " + string(bucket),
		}
	}
	return params, nil
}
