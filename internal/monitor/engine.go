// Package monitor drives the tick loop: it scans the candidate universe
// into trade intents and advances every open position through the
// trailing-stop machine and the exit rules. Single-threaded by design;
// the external scheduler invokes one cycle at a time.
package monitor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RJDCTM/autotrader/internal/market"
	"github.com/RJDCTM/autotrader/internal/metrics"
	"github.com/RJDCTM/autotrader/internal/models"
	"github.com/RJDCTM/autotrader/internal/risk"
	"github.com/RJDCTM/autotrader/internal/scoring"
	"github.com/RJDCTM/autotrader/internal/stops"
	"github.com/RJDCTM/autotrader/internal/storage"
)

// Notifier pushes human-readable alerts. Implementations must not block
// the tick for long; failures are the notifier's problem.
type Notifier interface {
	Notify(text string)
}

// Engine owns the decision cycle and the position lifecycle. All entry
// points funnel through the same breaker and sizer; there is no side door
// that can bypass the guardrails.
type Engine struct {
	mu        sync.Mutex
	provider  market.Provider
	pipeline  *scoring.Pipeline
	sizer     *risk.Sizer
	breaker   *risk.Breaker
	exitCfg   ExitConfig
	notifier  Notifier
	statePath string
	loc       *time.Location

	state     models.PortfolioState
	snapshots map[string]models.FeatureSnapshot // latest universe, for per-position re-evaluation
}

func New(provider market.Provider, pipeline *scoring.Pipeline, sizer *risk.Sizer, breaker *risk.Breaker, exitCfg ExitConfig, notifier Notifier, statePath string, loc *time.Location) (*Engine, error) {
	if err := exitCfg.Validate(); err != nil {
		return nil, err
	}
	state, err := storage.Load(statePath)
	if err != nil {
		return nil, fmt.Errorf("load portfolio state: %w", err)
	}
	return &Engine{
		provider:  provider,
		pipeline:  pipeline,
		sizer:     sizer,
		breaker:   breaker,
		exitCfg:   exitCfg,
		notifier:  notifier,
		statePath: statePath,
		loc:       loc,
		state:     state,
		snapshots: make(map[string]models.FeatureSnapshot),
	}, nil
}

// StartSession resets the day counters and the breaker latches, re-reads
// equity, and reconciles local positions against what the broker actually
// holds. Called once when the market transitions to open.
func (e *Engine) StartSession(now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	equity, err := e.provider.GetEquity()
	if err != nil {
		return fmt.Errorf("session start: fetch equity: %w", err)
	}
	e.state.Equity = equity
	e.state.StartingEquity = equity
	e.state.DailyRealizedPnL = decimal.Zero
	e.state.TradesToday = 0
	e.breaker.StartSession()

	if err := e.reconcileLocked(); err != nil {
		slog.Warn("session reconcile incomplete", "err", err)
	}

	metrics.SetEquity(equity.InexactFloat64())
	e.saveLocked(now)
	slog.Info("session started", "equity", equity.StringFixed(2), "positions", len(e.state.Positions))
	return nil
}

// reconcileLocked drops local positions the broker no longer reports so
// the stop machine never ticks a phantom.
func (e *Engine) reconcileLocked() error {
	brokerPositions, err := e.provider.ListPositions()
	if err != nil {
		return err
	}
	held := make(map[string]bool, len(brokerPositions))
	for _, bp := range brokerPositions {
		held[bp.Symbol] = true
	}
	for ticker := range e.state.Positions {
		if !held[ticker] {
			slog.Warn("dropping position unknown to broker", "ticker", ticker)
			delete(e.state.Positions, ticker)
		}
	}
	return nil
}

// ScanUniverse runs the scoring pipeline over fresh snapshots and emits a
// trade intent for every actionable candidate that survives the breaker
// and sizes above zero. PortfolioState is never mutated here: exposure
// and trade counts move only when the execution collaborator confirms a
// fill via ConfirmEntry.
func (e *Engine) ScanUniverse(snaps []models.FeatureSnapshot, now time.Time) []models.TradeIntent {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, snap := range snaps {
		e.snapshots[snap.Ticker] = snap
	}

	var intents []models.TradeIntent
	for _, result := range e.pipeline.EvaluateUniverse(snaps) {
		metrics.RecordDecision(result.Action.String())
		if !result.PassedGate || !result.Action.Tradeable() {
			continue
		}
		if _, open := e.state.Positions[result.Ticker]; open {
			continue // one position per ticker
		}
		snap := e.snapshots[result.Ticker]

		intent, err := e.proposeEntryLocked(result, snap, now)
		if err != nil {
			// One bad candidate never aborts the scan for the rest.
			slog.Warn("entry suppressed", "ticker", result.Ticker, "err", err)
			continue
		}
		if intent == nil {
			continue
		}
		intents = append(intents, *intent)
		e.notifier.Notify(fmt.Sprintf("📈 *ENTRY INTENT: %s*\nAction: %s (%s)\nScore: %.1f\nQty: %s @ $%s",
			intent.Ticker, intent.Action, intent.Conviction, intent.Score,
			intent.Quantity.String(), intent.Price.StringFixed(2)))
	}
	return intents
}

// proposeEntryLocked sizes a candidate and runs it through the breaker.
// Returns (nil, nil) when the entry is simply not taken (denied or sized
// to zero) and an error only for per-ticker input/sizing faults.
func (e *Engine) proposeEntryLocked(result models.CompositeResult, snap models.FeatureSnapshot, now time.Time) (*models.TradeIntent, error) {
	// Preliminary size at full scale to learn the projected cost basis.
	preliminary, err := e.sizer.Size(result.Score, result.Conviction, snap.ATR, snap.Price, e.state.Equity, 1.0)
	if err != nil {
		return nil, err
	}
	if preliminary.NoPosition {
		return nil, nil
	}
	projectedCost := preliminary.Shares.Mul(snap.Price)

	decision := e.breaker.MayEnter(&e.state, snap.Sector, projectedCost, now.In(e.loc))
	if !decision.Allowed {
		metrics.RecordDenial(decision.Reason)
		slog.Info("entry denied", "ticker", result.Ticker, "reason", decision.Reason)
		return nil, nil
	}

	sizing := preliminary
	if decision.SizeScale < 1.0 {
		sizing, err = e.sizer.Size(result.Score, result.Conviction, snap.ATR, snap.Price, e.state.Equity, decision.SizeScale)
		if err != nil {
			return nil, err
		}
		if sizing.NoPosition {
			return nil, nil
		}
	}

	intent := models.NewTradeIntent(result.Ticker, result.Action, sizing.Shares, snap.Price, result.Score, result.Conviction, now)
	return &intent, nil
}

// Tick advances every open position once: price fetch, trailing-stop
// update, exit-rule evaluation, then a state save. Per-ticker failures
// log and continue; one corrupt position never stalls the rest.
func (e *Engine) Tick(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for ticker, pos := range e.state.Positions {
		price, err := e.provider.GetPrice(ticker)
		if err != nil {
			slog.Error("price fetch failed", "ticker", ticker, "err", err)
			continue
		}

		res, err := stops.Update(pos, price)
		if err != nil {
			slog.Error("stop update failed", "ticker", ticker, "err", err)
			continue
		}
		if res.PhaseChanged {
			slog.Info("phase advanced", "ticker", ticker, "phase", res.Phase.String(), "stop", res.Stop.StringFixed(2))
			e.notifier.Notify(fmt.Sprintf("🎯 *%s: %s*\nStop ratcheted to $%s", ticker, res.Phase, res.Stop.StringFixed(2)))
		}

		if res.StopTriggered {
			metrics.RecordStopTrigger(res.Phase.String())
			sig := models.NewExitSignal(ticker, models.SignalStopTriggered, models.UrgencyHigh,
				fmt.Sprintf("price $%s at or below stop $%s", price.StringFixed(2), res.Stop.StringFixed(2)),
				price, now)
			e.emitExitLocked(sig)
		}

		// The rule evaluator runs independently of the stop machine; a
		// stop trigger and a rule signal may both fire on the same tick.
		// Without a fresh snapshot the price-and-clock rules still apply.
		var sig *models.ExitSignal
		if snap, ok := e.snapshots[ticker]; ok {
			eval := e.pipeline.Evaluate(snap)
			sig = EvaluateExits(pos, price, eval.PassedGate, eval.Score, snap.ExtensionPct, now, e.exitCfg)
		} else {
			sig = EvaluateBaselineExits(pos, price, now, e.exitCfg)
		}
		if sig != nil {
			e.emitExitLocked(*sig)
		}
	}

	e.saveLocked(now)
}

func (e *Engine) emitExitLocked(sig models.ExitSignal) {
	metrics.RecordExitSignal(string(sig.Kind))
	slog.Info("exit signal", "ticker", sig.Ticker, "kind", string(sig.Kind), "urgency", sig.Urgency.String(), "reason", sig.Reason)
	e.notifier.Notify(fmt.Sprintf("🚨 *%s SIGNAL: %s*\nUrgency: %s\n%s",
		sig.Ticker, string(sig.Kind), sig.Urgency, sig.Reason))
}

// ConfirmEntry records a fill reported by the execution collaborator and
// hands the new position to the stop machine.
func (e *Engine) ConfirmEntry(ticker string, bucket models.StrategyBucket, sector string, fillPrice, qty decimal.Decimal, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, open := e.state.Positions[ticker]; open {
		return &models.StateError{Ticker: ticker, Op: "confirm entry", Reason: "position already open"}
	}
	pos, err := stops.NewPosition(ticker, bucket, sector, fillPrice, qty, now, nil)
	if err != nil {
		return err
	}
	e.state.Positions[ticker] = pos
	e.state.TradesToday++
	e.saveLocked(now)
	slog.Info("position opened", "ticker", ticker, "bucket", string(bucket),
		"entry", fillPrice.StringFixed(2), "stop", pos.StopPrice.StringFixed(4))
	return nil
}

// ConfirmExit removes a closed position and books its realized P&L into
// the day's total.
func (e *Engine) ConfirmExit(ticker string, realizedPnL decimal.Decimal, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, open := e.state.Positions[ticker]; !open {
		return &models.StateError{Ticker: ticker, Op: "confirm exit", Reason: "no open position"}
	}
	delete(e.state.Positions, ticker)
	e.state.DailyRealizedPnL = e.state.DailyRealizedPnL.Add(realizedPnL)
	e.state.TradesToday++
	e.saveLocked(now)
	slog.Info("position closed", "ticker", ticker, "realized", realizedPnL.StringFixed(2),
		"day_pnl_pct", fmt.Sprintf("%.2f", e.state.DailyPnLPct()))
	return nil
}

// MarkEquity refreshes the equity mark used by sizing and exposure math.
func (e *Engine) MarkEquity(equity decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Equity = equity
	metrics.SetEquity(equity.InexactFloat64())
}

// OpenPositions returns a copy of the open position set for reporting.
func (e *Engine) OpenPositions() []models.Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Position, 0, len(e.state.Positions))
	for _, p := range e.state.Positions {
		out = append(out, *p)
	}
	return out
}

func (e *Engine) saveLocked(now time.Time) {
	e.state.LastSync = now.Format(time.RFC3339)
	if err := storage.Save(e.statePath, e.state); err != nil {
		slog.Error("state save failed", "err", err)
	}
}
