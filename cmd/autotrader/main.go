// Autotrader watches a candidate universe during market hours, ranks it
// by institutional flow, and manages open positions through a phased
// trailing-stop lifecycle. It emits trade intents and exit signals; the
// execution side confirms fills back through the engine.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RJDCTM/autotrader/internal/config"
	"github.com/RJDCTM/autotrader/internal/features"
	"github.com/RJDCTM/autotrader/internal/logger"
	"github.com/RJDCTM/autotrader/internal/market"
	"github.com/RJDCTM/autotrader/internal/market/alpaca"
	"github.com/RJDCTM/autotrader/internal/metrics"
	"github.com/RJDCTM/autotrader/internal/models"
	"github.com/RJDCTM/autotrader/internal/monitor"
	"github.com/RJDCTM/autotrader/internal/risk"
	"github.com/RJDCTM/autotrader/internal/scoring"
	"github.com/RJDCTM/autotrader/internal/telegram"
)

// barHistory is enough daily bars for the 200-day EMA plus warmup.
const barHistory = 250

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "err", err)
		os.Exit(1)
	}
	logger.Setup(cfg.LogFile, cfg.MaxLogSizeMB, cfg.MaxLogBackups, cfg.LogLevel)
	slog.Info("autotrader starting", "universe", len(cfg.Universe), "poll_sec", cfg.PollIntervalSec)

	pipeline, err := scoring.NewPipeline(cfg.Gate, cfg.Weights, cfg.Conviction, cfg.Actions)
	if err != nil {
		slog.Error("pipeline setup failed", "err", err)
		os.Exit(1)
	}
	breaker, err := risk.NewBreaker(cfg.Breaker)
	if err != nil {
		slog.Error("breaker setup failed", "err", err)
		os.Exit(1)
	}

	provider := alpaca.NewProvider()
	notifier := telegram.New(cfg.TelegramToken, cfg.TelegramChatID)

	engine, err := monitor.New(provider, pipeline, risk.NewSizer(cfg.Sizer), breaker,
		cfg.Exits, notifier, cfg.StatePath, cfg.Location())
	if err != nil {
		slog.Error("engine setup failed", "err", err)
		os.Exit(1)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			slog.Info("metrics listening", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				slog.Error("metrics server stopped", "err", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(cfg.PollIntervalSec) * time.Second)
	defer ticker.Stop()

	notifier.Notify("🤖 *Autotrader online*")
	wasOpen := false

	for {
		select {
		case <-stop:
			slog.Info("shutdown signal received")
			notifier.Notify("🛑 *Autotrader offline*")
			return
		case <-ticker.C:
			wasOpen = cycle(engine, provider, cfg, wasOpen)
		}
	}
}

// cycle runs one poll: session bookkeeping on the closed-to-open edge,
// then position monitoring and a universe scan while the market is open.
func cycle(engine *monitor.Engine, provider market.Provider, cfg config.Config, wasOpen bool) bool {
	clock, err := provider.GetClock()
	if err != nil {
		slog.Error("clock fetch failed", "err", err)
		return wasOpen
	}
	now := clock.Timestamp.In(cfg.Location())

	if clock.IsOpen && !wasOpen {
		if err := engine.StartSession(now); err != nil {
			slog.Error("session start failed", "err", err)
			return false // retry the transition next poll
		}
	}
	if !clock.IsOpen {
		return false
	}

	if equity, err := provider.GetEquity(); err == nil {
		engine.MarkEquity(equity)
	} else {
		slog.Warn("equity refresh failed", "err", err)
	}

	engine.Tick(now)

	snaps := buildSnapshots(provider, cfg, now)
	intents := engine.ScanUniverse(snaps, now)
	if len(intents) > 0 {
		slog.Info("scan produced intents", "count", len(intents))
	}
	return true
}

// buildSnapshots assembles feature snapshots for the universe. A ticker
// that cannot be built is skipped; the rest of the universe still scans.
func buildSnapshots(provider market.Provider, cfg config.Config, now time.Time) []models.FeatureSnapshot {
	flow, err := features.LoadFlow(cfg.FlowPath)
	if err != nil {
		slog.Warn("flow metrics unavailable, scoring trend only", "err", err)
		flow = map[string]features.FlowRecord{}
	}

	snaps := make([]models.FeatureSnapshot, 0, len(cfg.Universe))
	for _, ticker := range cfg.Universe {
		bars, err := provider.GetBars(ticker, barHistory)
		if err != nil {
			slog.Warn("bar fetch failed", "ticker", ticker, "err", err)
			continue
		}
		rec := flow[ticker]
		snap, err := features.Build(features.RawInput{
			Ticker: ticker,
			Sector: rec.Sector,
			Bars:   bars,
			Flow:   rec.Flow,
			AsOf:   now,
		})
		if err != nil {
			slog.Warn("snapshot build failed", "ticker", ticker, "err", err)
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps
}
