package scoring

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RJDCTM/autotrader/internal/models"
)

func defaultGate() GateConfig {
	return GateConfig{MinPrice: 5.0, MinAvgVolume: 200000, MaxExtensionPct: 10.0}
}

func defaultWeights() Weights {
	return Weights{Options: 0.30, DarkPool: 0.25, Volume: 0.25, Momentum: 0.20}
}

// passingSnap is a snapshot that clears every gate condition.
func passingSnap() models.FeatureSnapshot {
	return models.FeatureSnapshot{
		Ticker:       "NVDA",
		Price:        decimal.NewFromFloat(50.00),
		EMA20:        decimal.NewFromFloat(48.00),
		EMA50:        decimal.NewFromFloat(45.00),
		EMA200:       decimal.NewFromFloat(40.00),
		ExtensionPct: 4.17,
		AvgVolume:    1_000_000,
		ATR:          decimal.NewFromFloat(2.0),
		Scores:       models.SubScores{Options: 60, DarkPool: 60, Volume: 60, Momentum: 60},
	}
}

func TestGateEvaluate(t *testing.T) {
	gate := NewGate(defaultGate())

	tests := []struct {
		name   string
		mutate func(*models.FeatureSnapshot)
		want   bool
	}{
		{"all conditions met", func(s *models.FeatureSnapshot) {}, true},
		{"price below ema50", func(s *models.FeatureSnapshot) {
			s.EMA50 = decimal.NewFromFloat(51.00)
		}, false},
		{"price below ema200", func(s *models.FeatureSnapshot) {
			s.EMA200 = decimal.NewFromFloat(55.00)
		}, false},
		{"overextended", func(s *models.FeatureSnapshot) {
			s.ExtensionPct = 10.01
		}, false},
		{"extension at boundary passes", func(s *models.FeatureSnapshot) {
			s.ExtensionPct = 10.0
		}, true},
		{"penny stock", func(s *models.FeatureSnapshot) {
			s.Price = decimal.NewFromFloat(4.99)
			s.EMA20 = decimal.NewFromFloat(4.50)
			s.EMA50 = decimal.NewFromFloat(4.20)
			s.EMA200 = decimal.NewFromFloat(4.00)
		}, false},
		{"illiquid", func(s *models.FeatureSnapshot) {
			s.AvgVolume = 199_999
		}, false},
		{"missing ema fails closed", func(s *models.FeatureSnapshot) {
			s.EMA200 = decimal.Zero
		}, false},
		{"nan extension fails closed", func(s *models.FeatureSnapshot) {
			s.ExtensionPct = math.NaN()
		}, false},
		{"nan sub-score fails closed", func(s *models.FeatureSnapshot) {
			s.Scores.DarkPool = math.NaN()
		}, false},
		{"empty ticker", func(s *models.FeatureSnapshot) {
			s.Ticker = ""
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := passingSnap()
			tt.mutate(&snap)
			assert.Equal(t, tt.want, gate.Evaluate(snap))
		})
	}
}

func TestWeightsValidate(t *testing.T) {
	require.NoError(t, defaultWeights().Validate())

	bad := defaultWeights()
	bad.Momentum = 0.10 // sum 0.90
	assert.Error(t, bad.Validate())

	neg := defaultWeights()
	neg.Options = -0.30
	assert.Error(t, neg.Validate())
}

func TestScorerWeightedSum(t *testing.T) {
	scorer, err := NewScorer(defaultWeights())
	require.NoError(t, err)

	snap := passingSnap()
	snap.Scores = models.SubScores{Options: 80, DarkPool: 60, Volume: 40, Momentum: 20}
	// .30*80 + .25*60 + .25*40 + .20*20
	assert.InDelta(t, 53.0, scorer.Score(snap), 1e-9)
}

func TestClassifyConviction(t *testing.T) {
	cfg := ConvictionConfig{StrongThreshold: 70.0}

	tests := []struct {
		name   string
		scores models.SubScores
		want   models.Conviction
	}{
		{"whale via options", models.SubScores{Options: 80, DarkPool: 20, Volume: 80, Momentum: 20}, models.ConvictionWhale},
		{"whale via darkpool", models.SubScores{Options: 20, DarkPool: 75, Volume: 20, Momentum: 90}, models.ConvictionWhale},
		{"moderate without institutional", models.SubScores{Options: 20, DarkPool: 20, Volume: 80, Momentum: 80}, models.ConvictionModerate},
		{"light", models.SubScores{Options: 20, DarkPool: 20, Volume: 80, Momentum: 20}, models.ConvictionLight},
		{"weak", models.SubScores{Options: 60, DarkPool: 60, Volume: 60, Momentum: 60}, models.ConvictionWeak},
		{"threshold is inclusive", models.SubScores{Options: 70, DarkPool: 70, Volume: 0, Momentum: 0}, models.ConvictionWhale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.scores, cfg))
		})
	}
}

func TestAssignAction(t *testing.T) {
	th := ActionThresholds{StrongBuy: 40, BuyDip: 30, Accumulate: 20}

	tests := []struct {
		score      float64
		wantAction models.Action
		wantUrg    models.Urgency
	}{
		{40.0, models.ActionStrongBuy, models.UrgencyHigh},
		{39.99, models.ActionBuyDip, models.UrgencyMedium},
		{30.0, models.ActionBuyDip, models.UrgencyMedium},
		{29.99, models.ActionAccumulate, models.UrgencyLow},
		{20.0, models.ActionAccumulate, models.UrgencyLow},
		{19.99, models.ActionMonitor, models.UrgencyLow},
		{0, models.ActionMonitor, models.UrgencyLow},
	}

	for _, tt := range tests {
		action, urg := AssignAction(tt.score, th)
		assert.Equal(t, tt.wantAction, action, "score %.2f", tt.score)
		assert.Equal(t, tt.wantUrg, urg, "score %.2f", tt.score)
	}
}

func TestActionThresholdsValidate(t *testing.T) {
	assert.NoError(t, ActionThresholds{StrongBuy: 40, BuyDip: 30, Accumulate: 20}.Validate())
	assert.Error(t, ActionThresholds{StrongBuy: 30, BuyDip: 30, Accumulate: 20}.Validate())
	assert.Error(t, ActionThresholds{StrongBuy: 40, BuyDip: 20, Accumulate: 30}.Validate())
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(defaultGate(), defaultWeights(),
		ConvictionConfig{StrongThreshold: 70}, ActionThresholds{StrongBuy: 40, BuyDip: 30, Accumulate: 20})
	require.NoError(t, err)
	return p
}

func TestPipelineGateShortCircuits(t *testing.T) {
	p := newTestPipeline(t)

	snap := passingSnap()
	snap.Scores = models.SubScores{Options: 100, DarkPool: 100, Volume: 100, Momentum: 100}
	snap.EMA50 = decimal.NewFromFloat(60.00) // below trend, gate fails

	res := p.Evaluate(snap)
	assert.False(t, res.PassedGate)
	assert.Equal(t, models.ActionNone, res.Action)
	assert.Zero(t, res.Score)
}

func TestEvaluateUniverseOrdering(t *testing.T) {
	p := newTestPipeline(t)

	strong := passingSnap()
	strong.Ticker = "AAA"
	strong.Scores = models.SubScores{Options: 90, DarkPool: 90, Volume: 90, Momentum: 90}

	weak := passingSnap()
	weak.Ticker = "BBB"
	weak.Scores = models.SubScores{Options: 10, DarkPool: 10, Volume: 10, Momentum: 10}

	failed := passingSnap()
	failed.Ticker = "CCC"
	failed.EMA200 = decimal.NewFromFloat(99.00)

	results := p.EvaluateUniverse([]models.FeatureSnapshot{failed, weak, strong})
	require.Len(t, results, 3)
	assert.Equal(t, "AAA", results[0].Ticker)
	assert.Equal(t, "BBB", results[1].Ticker)
	assert.Equal(t, "CCC", results[2].Ticker)
	assert.False(t, results[2].PassedGate)
}
