package stops

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RJDCTM/autotrader/internal/models"
)

func mustPosition(t *testing.T, bucket models.StrategyBucket, entry string) *models.Position {
	t.Helper()
	pos, err := NewPosition("NVDA", bucket, "Technology",
		decimal.RequireFromString(entry), decimal.NewFromInt(10), time.Now(), nil)
	require.NoError(t, err)
	return pos
}

func tick(t *testing.T, pos *models.Position, price string) TickResult {
	t.Helper()
	res, err := Update(pos, decimal.RequireFromString(price))
	require.NoError(t, err)
	return res
}

func TestNewPositionInitialStop(t *testing.T) {
	pos := mustPosition(t, models.BucketSwing, "54.33")

	assert.Equal(t, models.PhaseInitial, pos.Phase)
	// 54.33 * 0.95, exact
	assert.True(t, pos.StopPrice.Equal(decimal.RequireFromString("51.6135")),
		"got %s", pos.StopPrice)
	assert.True(t, pos.PeakPrice.Equal(pos.EntryPrice))
}

func TestNewPositionRejectsBadInput(t *testing.T) {
	_, err := NewPosition("", models.BucketSwing, "", decimal.NewFromInt(10), decimal.NewFromInt(1), time.Now(), nil)
	var stateErr *models.StateError
	assert.True(t, errors.As(err, &stateErr))

	_, err = NewPosition("NVDA", models.StrategyBucket("scalping"), "", decimal.NewFromInt(10), decimal.NewFromInt(1), time.Now(), nil)
	assert.True(t, errors.As(err, &stateErr))

	_, err = NewPosition("NVDA", models.BucketSwing, "", decimal.Zero, decimal.NewFromInt(1), time.Now(), nil)
	assert.Error(t, err)
}

func TestT1BoundaryIsInclusive(t *testing.T) {
	// Swing T1 is +4%: 54.33 * 1.04 = 56.5032.
	pos := mustPosition(t, models.BucketSwing, "54.33")

	res := tick(t, pos, "56.50")
	assert.Equal(t, models.PhaseInitial, res.Phase)
	assert.False(t, res.PhaseChanged)

	res = tick(t, pos, "56.51")
	assert.Equal(t, models.PhaseT1Hit, res.Phase)
	assert.True(t, res.PhaseChanged)
	// Breakeven plus buffer: 54.33 * 1.002.
	assert.True(t, res.Stop.Equal(decimal.RequireFromString("54.43866")), "got %s", res.Stop)
}

func TestGapCascadesThroughPhases(t *testing.T) {
	// Swing on 54.33: T2 at 58.6764, runaway at 54.33 + 2*4.3464 = 63.0228.
	pos := mustPosition(t, models.BucketSwing, "54.33")

	res := tick(t, pos, "63.03")
	assert.Equal(t, models.PhaseRunaway, res.Phase)
	assert.True(t, res.PhaseChanged)
	// Trail 70% of the 8.70 gain: 54.33 + 6.09.
	assert.True(t, res.Stop.Equal(decimal.RequireFromString("60.42")), "got %s", res.Stop)
}

func TestStopRatchetsMonotonically(t *testing.T) {
	pos := mustPosition(t, models.BucketSwing, "100")

	prevStop := pos.StopPrice
	for _, price := range []string{"101", "103", "104", "106", "108", "107", "110", "105", "116", "120", "118"} {
		res := tick(t, pos, price)
		assert.True(t, res.Stop.GreaterThanOrEqual(prevStop),
			"stop fell from %s to %s at price %s", prevStop, res.Stop, price)
		prevStop = res.Stop
	}
	assert.Equal(t, models.PhaseRunaway, pos.Phase)
	// Peak 120, gain 20, trail 70%.
	assert.True(t, pos.StopPrice.Equal(decimal.RequireFromString("114")), "got %s", pos.StopPrice)
}

func TestUpdateIsIdempotent(t *testing.T) {
	pos := mustPosition(t, models.BucketSwing, "100")
	tick(t, pos, "108")

	first := *pos
	res := tick(t, pos, "108")
	assert.False(t, res.PhaseChanged)
	assert.False(t, res.StopRaised)
	assert.True(t, pos.StopPrice.Equal(first.StopPrice))
	assert.True(t, pos.PeakPrice.Equal(first.PeakPrice))
}

func TestPhaseNeverRegresses(t *testing.T) {
	pos := mustPosition(t, models.BucketSwing, "100")
	tick(t, pos, "108") // T2

	res := tick(t, pos, "104.50")
	assert.Equal(t, models.PhaseT2Hit, res.Phase)
	assert.False(t, res.PhaseChanged)
}

func TestStopTriggered(t *testing.T) {
	pos := mustPosition(t, models.BucketSwing, "100")
	tick(t, pos, "108") // T2, stop = 100 + 8*0.5 = 104

	res := tick(t, pos, "104.01")
	assert.False(t, res.StopTriggered)

	res = tick(t, pos, "104")
	assert.True(t, res.StopTriggered, "price at the stop must trigger")
	assert.Equal(t, models.PhaseT2Hit, res.Phase)
}

func TestInitialStopTriggeredWithoutProgress(t *testing.T) {
	pos := mustPosition(t, models.BucketEarningsRun, "50") // 3% stop = 48.50

	res := tick(t, pos, "48.49")
	assert.True(t, res.StopTriggered)
	assert.Equal(t, models.PhaseInitial, res.Phase)
}

func TestUpdateRejectsBadPrice(t *testing.T) {
	pos := mustPosition(t, models.BucketSwing, "100")

	_, err := Update(pos, decimal.Zero)
	var inputErr *models.InputError
	assert.True(t, errors.As(err, &inputErr))

	_, err = Update(nil, decimal.NewFromInt(100))
	assert.Error(t, err)
}

func TestParamsForKnownBuckets(t *testing.T) {
	for _, b := range []models.StrategyBucket{
		models.BucketMomentumBreakout, models.BucketSwing, models.BucketMeanReversion,
		models.BucketSectorETF, models.BucketEarningsRun,
	} {
		params, err := ParamsFor(b)
		require.NoError(t, err, string(b))
		assert.Greater(t, params.StopPct, 0.0)
		assert.Greater(t, params.Target2Pct, params.Target1Pct)
		assert.Greater(t, params.MaxHoldDays, 0)
	}

	_, err := ParamsFor(models.StrategyBucket("day_trade"))
	assert.Error(t, err)
}
