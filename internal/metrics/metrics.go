// Package metrics exposes Prometheus collectors for the fetcher service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	queriesTotal           *prometheus.CounterVec
	attemptsTotal          *prometheus.CounterVec
	attemptDurationSeconds prometheus.Histogram
	captchaBlocksTotal     prometheus.Counter
	ledgerWritesTotal      *prometheus.CounterVec

	once sync.Once
)

// Init registers the Prometheus collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		queriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courtfetch_queries_total",
				Help: "Total queries processed, labeled by final status.",
			},
			[]string{"status"},
		)
		attemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courtfetch_attempts_total",
				Help: "Total fetch attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)
		attemptDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "courtfetch_attempt_duration_seconds",
				Help:    "Wall time of individual fetch attempts.",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
			},
		)
		captchaBlocksTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "courtfetch_captcha_blocks_total",
				Help: "Attempts that hit a CAPTCHA wall.",
			},
		)
		ledgerWritesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courtfetch_ledger_writes_total",
				Help: "Ledger write results, labeled ok or error.",
			},
			[]string{"result"},
		)
	})
}

// ObserveQuery records a finished query by final status.
func ObserveQuery(status string) {
	if queriesTotal == nil {
		return
	}
	queriesTotal.WithLabelValues(status).Inc()
}

// ObserveAttempt records one sealed attempt.
func ObserveAttempt(outcome string, d time.Duration) {
	if attemptsTotal == nil {
		return
	}
	attemptsTotal.WithLabelValues(outcome).Inc()
	attemptDurationSeconds.Observe(d.Seconds())
	if outcome == "blocked" {
		captchaBlocksTotal.Inc()
	}
}

// ObserveLedgerWrite records a ledger write result.
func ObserveLedgerWrite(ok bool) {
	if ledgerWritesTotal == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	ledgerWritesTotal.WithLabelValues(result).Inc()
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
