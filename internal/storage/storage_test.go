package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RJDCTM/autotrader/internal/models"
)

func statePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "portfolio_state.json")
}

func TestLoadMissingCreatesDefault(t *testing.T) {
	path := statePath(t)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, s.Version)
	assert.NotNil(t, s.Positions)
	assert.Empty(t, s.Positions)

	// The default must have been persisted for the next load.
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := statePath(t)

	s := models.PortfolioState{
		Version:          SchemaVersion,
		Equity:           decimal.NewFromInt(100_000),
		StartingEquity:   decimal.NewFromInt(98_000),
		DailyRealizedPnL: decimal.RequireFromString("-123.45"),
		TradesToday:      3,
		Positions: map[string]*models.Position{
			"NVDA": {
				Ticker:     "NVDA",
				Bucket:     models.BucketSwing,
				Sector:     "Technology",
				EntryPrice: decimal.RequireFromString("54.33"),
				EntryTime:  time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC),
				Quantity:   decimal.NewFromInt(86),
				Phase:      models.PhaseT1Hit,
				PeakPrice:  decimal.RequireFromString("56.80"),
				StopPrice:  decimal.RequireFromString("54.43866"),
			},
		},
	}
	require.NoError(t, Save(path, s))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.TradesToday)
	assert.True(t, loaded.DailyRealizedPnL.Equal(s.DailyRealizedPnL))

	pos := loaded.Positions["NVDA"]
	require.NotNil(t, pos)
	assert.Equal(t, models.PhaseT1Hit, pos.Phase)
	assert.Equal(t, models.BucketSwing, pos.Bucket)
	assert.True(t, pos.EntryPrice.Equal(decimal.RequireFromString("54.33")))
	assert.True(t, pos.StopPrice.Equal(decimal.RequireFromString("54.43866")))
}

func TestPhasePersistsByName(t *testing.T) {
	path := statePath(t)

	s := models.PortfolioState{
		Version: SchemaVersion,
		Positions: map[string]*models.Position{
			"NVDA": {Ticker: "NVDA", Phase: models.PhaseRunaway,
				EntryPrice: decimal.NewFromInt(50), PeakPrice: decimal.NewFromInt(70)},
		},
	}
	require.NoError(t, Save(path, s))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"RUNAWAY"`)
}

func TestLoadMigratesOldSchema(t *testing.T) {
	path := statePath(t)

	legacy := `{
		"version": "1.3",
		"positions": {
			"AAPL": {
				"ticker": "AAPL",
				"bucket": "swing",
				"entry_price": "150",
				"quantity": "10",
				"phase": "INITIAL",
				"peak_price": "0",
				"stop_price": "142.5"
			}
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, s.Version)

	// Peak backfills from entry so the ratchet has a floor.
	pos := s.Positions["AAPL"]
	require.NotNil(t, pos)
	assert.True(t, pos.PeakPrice.Equal(decimal.NewFromInt(150)))

	// Migration persists: a reload sees the new version directly.
	s2, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, s2.Version)
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := statePath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
