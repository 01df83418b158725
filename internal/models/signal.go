package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Conviction is the categorical strength of institutional flow behind a
// candidate, derived from counting strong sub-scores.
type Conviction int

const (
	ConvictionWeak Conviction = iota
	ConvictionLight
	ConvictionModerate
	ConvictionWhale
)

func (c Conviction) String() string {
	switch c {
	case ConvictionWhale:
		return "WHALE"
	case ConvictionModerate:
		return "MODERATE"
	case ConvictionLight:
		return "LIGHT"
	default:
		return "WEAK"
	}
}

// Action is the discrete trade decision for a scored candidate.
type Action int

const (
	ActionNone Action = iota
	ActionMonitor
	ActionAccumulate
	ActionBuyDip
	ActionStrongBuy
)

func (a Action) String() string {
	switch a {
	case ActionStrongBuy:
		return "STRONG_BUY"
	case ActionBuyDip:
		return "BUY_DIP"
	case ActionAccumulate:
		return "ACCUMULATE"
	case ActionMonitor:
		return "MONITOR"
	default:
		return "NONE"
	}
}

// Tradeable reports whether the action calls for an entry at all.
func (a Action) Tradeable() bool {
	return a >= ActionAccumulate
}

// Urgency ranks concurrent signals; the highest one wins.
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyMedium
	UrgencyHigh
)

func (u Urgency) String() string {
	switch u {
	case UrgencyHigh:
		return "HIGH"
	case UrgencyMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// CompositeResult is the outcome of the gate + scoring pipeline for one
// snapshot. Score, conviction and action are meaningful only when
// PassedGate is true; a failed gate short-circuits ranking entirely.
type CompositeResult struct {
	Ticker     string
	PassedGate bool
	Score      float64
	Conviction Conviction
	Action     Action
	Urgency    Urgency
}

// TradeIntent is an entry the engine proposes to the execution
// collaborator. Nothing here submits an order.
type TradeIntent struct {
	ID         string          `json:"id"`
	Ticker     string          `json:"ticker"`
	Side       string          `json:"side"` // long side only for now
	Action     Action          `json:"action"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"` // reference price at decision time
	Score      float64         `json:"score"`
	Conviction Conviction      `json:"conviction"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SignalKind classifies an advisory exit/trim signal.
type SignalKind string

const (
	SignalStopTriggered SignalKind = "stop_triggered"
	SignalFullExit      SignalKind = "full_exit"
	SignalTrimHalf      SignalKind = "trim_50"
	SignalTrimQuarter   SignalKind = "trim_25"
	SignalScoreDecay    SignalKind = "score_decay_trim"
	SignalMaxHold       SignalKind = "max_hold"
)

// ExitSignal is advisory: the execution collaborator decides what to do
// with it. The engine only reports.
type ExitSignal struct {
	ID        string          `json:"id"`
	Ticker    string          `json:"ticker"`
	Kind      SignalKind      `json:"kind"`
	Urgency   Urgency         `json:"urgency"`
	Reason    string          `json:"reason"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewTradeIntent stamps an intent with a fresh ID and timestamp.
func NewTradeIntent(ticker string, action Action, qty, price decimal.Decimal, score float64, conv Conviction, now time.Time) TradeIntent {
	return TradeIntent{
		ID:         uuid.NewString(),
		Ticker:     ticker,
		Side:       "buy",
		Action:     action,
		Quantity:   qty,
		Price:      price,
		Score:      score,
		Conviction: conv,
		CreatedAt:  now,
	}
}

// NewExitSignal stamps a signal with a fresh ID and timestamp.
func NewExitSignal(ticker string, kind SignalKind, urgency Urgency, reason string, price decimal.Decimal, now time.Time) ExitSignal {
	return ExitSignal{
		ID:        uuid.NewString(),
		Ticker:    ticker,
		Kind:      kind,
		Urgency:   urgency,
		Reason:    reason,
		Price:     price,
		CreatedAt: now,
	}
}
