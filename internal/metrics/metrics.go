// Package metrics exposes Prometheus counters and gauges for the
// decision cycle. Everything registers once at init; recording helpers
// are safe from any goroutine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	decisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autotrader_decisions_total",
		Help: "Scan decisions by assigned action.",
	}, []string{"action"})

	entriesDeniedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autotrader_entries_denied_total",
		Help: "Entries denied by the circuit breaker, by reason.",
	}, []string{"reason"})

	stopTriggersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autotrader_stop_triggers_total",
		Help: "Trailing stop triggers by phase at trigger time.",
	}, []string{"phase"})

	exitSignalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autotrader_exit_signals_total",
		Help: "Exit signals emitted, by kind.",
	}, []string{"kind"})

	equityUSD = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "autotrader_equity_usd",
		Help: "Last known account equity in USD.",
	})
)

func init() {
	prometheus.MustRegister(
		decisionsTotal,
		entriesDeniedTotal,
		stopTriggersTotal,
		exitSignalsTotal,
		equityUSD,
	)
}

func RecordDecision(action string) { decisionsTotal.WithLabelValues(action).Inc() }

// RecordDenial buckets free-form denial reasons by their leading word so
// label cardinality stays bounded.
func RecordDenial(reason string) {
	entriesDeniedTotal.WithLabelValues(firstWord(reason)).Inc()
}

func RecordStopTrigger(phase string) { stopTriggersTotal.WithLabelValues(phase).Inc() }

func RecordExitSignal(kind string) { exitSignalsTotal.WithLabelValues(kind).Inc() }

func SetEquity(v float64) { equityUSD.Set(v) }

// Handler serves the scrape endpoint.
func Handler() http.Handler { return promhttp.Handler() }

func firstWord(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' || s[i] == ':' {
			return s[:i]
		}
	}
	return s
}
