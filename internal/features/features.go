// Package features turns raw per-ticker inputs (daily bars plus flow
// metrics) into the FeatureSnapshot the decision pipeline consumes.
// Sub-scores come out normalized to 0-100 so the composite scorer never
// has to rescale anything.
package features

import (
	"time"

	talib "github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"

	"github.com/RJDCTM/autotrader/internal/models"
)

// minBars is what the 200-day EMA needs; fewer bars fail closed.
const minBars = 200

const atrPeriod = 14

// FlowMetrics are the raw institutional-flow observations for one ticker.
type FlowMetrics struct {
	OIChangeSkew      float64 `json:"oi_change_skew"` // net call - put open-interest change, contracts
	PutCallRatio      float64 `json:"put_call_ratio"`
	CallVolSurge      float64 `json:"call_vol_surge"` // call volume vs its average, x
	DarkPoolBuyPct    float64 `json:"darkpool_buy_pct"` // % of dark-pool volume that printed buy-side
	DarkPoolNotionalM float64 `json:"darkpool_notional_m"` // dark-pool $ notional, millions
	DarkPoolPrints    float64 `json:"darkpool_prints"`
	RelVolume         float64 `json:"rel_volume"` // today's volume vs average, x
	PerfWeek          float64 `json:"perf_week"` // % returns over the window
	PerfMonth         float64 `json:"perf_month"`
	PerfQuarter       float64 `json:"perf_quarter"`
}

// RawInput bundles everything needed to build one snapshot.
type RawInput struct {
	Ticker string
	Sector string
	Bars   []models.Bar // oldest first, daily
	Flow   FlowMetrics
	AsOf   time.Time
}

// Build computes trend features and the four flow sub-scores. An input
// without enough history returns an InputError so the ticker fails the
// gate downstream instead of scoring on garbage.
func Build(in RawInput) (models.FeatureSnapshot, error) {
	if in.Ticker == "" {
		return models.FeatureSnapshot{}, &models.InputError{Reason: "empty ticker"}
	}
	if len(in.Bars) < minBars {
		return models.FeatureSnapshot{}, &models.InputError{
			Ticker: in.Ticker,
			Reason: "insufficient history for trend features",
		}
	}

	closes := make([]float64, len(in.Bars))
	highs := make([]float64, len(in.Bars))
	lows := make([]float64, len(in.Bars))
	var volSum int64
	for i, b := range in.Bars {
		closes[i] = b.Close.InexactFloat64()
		highs[i] = b.High.InexactFloat64()
		lows[i] = b.Low.InexactFloat64()
		volSum += b.Volume
	}

	ema20 := last(talib.Ema(closes, 20))
	ema50 := last(talib.Ema(closes, 50))
	ema200 := last(talib.Ema(closes, 200))
	atr := last(talib.Atr(highs, lows, closes, atrPeriod))
	rsi := last(talib.Rsi(closes, 14))

	price := in.Bars[len(in.Bars)-1].Close
	extension := 0.0
	if ema20 > 0 {
		extension = (price.InexactFloat64() - ema20) / ema20 * 100
	}

	avgVolume := volSum / int64(len(in.Bars))
	volRatio := 0.0
	if avgVolume > 0 {
		volRatio = float64(in.Bars[len(in.Bars)-1].Volume) / float64(avgVolume)
	}

	return models.FeatureSnapshot{
		Ticker:       in.Ticker,
		Sector:       in.Sector,
		Price:        price,
		EMA20:        decimal.NewFromFloat(ema20),
		EMA50:        decimal.NewFromFloat(ema50),
		EMA200:       decimal.NewFromFloat(ema200),
		ExtensionPct: extension,
		AvgVolume:    avgVolume,
		ATR:          decimal.NewFromFloat(atr),
		Scores: models.SubScores{
			Options:  optionsScore(in.Flow),
			DarkPool: darkPoolScore(in.Flow),
			Volume:   volumeScore(in.Flow, volRatio),
			Momentum: momentumScore(in.Flow, rsi),
		},
		AsOf: in.AsOf,
	}, nil
}

// optionsScore weighs open-interest skew, put/call ratio and call volume
// surge. 5000 net call contracts maxes the skew component; PCR 0.5 is very
// bullish, 1.5 bearish.
func optionsScore(f FlowMetrics) float64 {
	score := clip(f.OIChangeSkew/5000, -1, 1) * 50
	score += clip((1.0-f.PutCallRatio)/0.5, -1, 1) * 30
	score += clip(f.CallVolSurge/3.0, 0, 1) * 20
	return clip(score, 0, 100)
}

// darkPoolScore: 50% buy-side is neutral, 70% strong; notional and print
// count add institutional-attention weight.
func darkPoolScore(f FlowMetrics) float64 {
	score := clip((f.DarkPoolBuyPct-50)/20, -1, 1) * 50
	score += clip(f.DarkPoolNotionalM/100, 0, 1) * 30
	score += clip(f.DarkPoolPrints/500, 0, 1) * 20
	return clip(score, 0, 100)
}

// volumeScore blends the flow feed's relative volume with the bar-derived
// volume ratio (today's volume over the average), 60/40, when both are
// available. On either ramp 1.0x is neutral and 3.0x and above is full
// confirmation.
func volumeScore(f FlowMetrics, volRatio float64) float64 {
	relScore := clip((f.RelVolume-0.5)/2.5, 0, 1) * 100
	ratioScore := clip((clip(volRatio, 0, 10)-0.5)/2.5, 0, 1) * 100
	switch {
	case f.RelVolume > 0 && volRatio > 0:
		return clip(0.6*relScore+0.4*ratioScore, 0, 100)
	case volRatio > 0:
		return ratioScore
	default:
		return relScore
	}
}

// momentumScore blends three performance windows with an RSI bonus whose
// sweet spot is 50-70.
func momentumScore(f FlowMetrics, rsi float64) float64 {
	score := clip(f.PerfWeek/10, -1, 1) * 30
	score += clip(f.PerfQuarter/25, -1, 1) * 35
	score += clip(f.PerfMonth/15, -1, 1) * 25
	switch {
	case rsi >= 50 && rsi <= 70:
		score += 10
	case rsi > 70 && rsi <= 80:
		score += 5
	case rsi < 40:
		score -= 8
	}
	return clip(score, 0, 100)
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func last(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return vals[len(vals)-1]
}
