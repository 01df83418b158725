package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubScores are the four flow component scores, each pre-normalized to
// 0-100 by the feature pipeline. All four keys are mandatory; a snapshot
// missing one is an input error, never an implicit zero.
type SubScores struct {
	Options  float64 `json:"options"`
	DarkPool float64 `json:"darkpool"`
	Volume   float64 `json:"volume"`
	Momentum float64 `json:"momentum"`
}

// FeatureSnapshot is the per-ticker feature bundle for one evaluation
// cycle. It is immutable once built; the decision pipeline only reads it.
type FeatureSnapshot struct {
	Ticker       string          `json:"ticker"`
	Sector       string          `json:"sector,omitempty"`
	Price        decimal.Decimal `json:"price"`
	EMA20        decimal.Decimal `json:"ema20"`
	EMA50        decimal.Decimal `json:"ema50"`
	EMA200       decimal.Decimal `json:"ema200"`
	ExtensionPct float64         `json:"extension_pct"` // (price - ema20) / ema20 * 100
	AvgVolume    int64           `json:"avg_volume"`
	ATR          decimal.Decimal `json:"atr"`
	Scores       SubScores       `json:"sub_scores"`
	AsOf         time.Time       `json:"as_of"`
}

// Clock is the market session status reported by the broker.
type Clock struct {
	Timestamp time.Time
	IsOpen    bool
	NextOpen  time.Time
	NextClose time.Time
}

// Bar is one candle of historical price data.
type Bar struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// BrokerPosition is a position as the broker reports it, used only for
// session-start reconciliation against local state.
type BrokerPosition struct {
	Symbol        string
	Qty           decimal.Decimal
	AvgEntryPrice decimal.Decimal
	MarketValue   decimal.Decimal
}
