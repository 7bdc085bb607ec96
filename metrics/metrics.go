// SPDX-License-Identifier: MIT

// Package metrics exposes imputation engine observations as Prometheus
// collectors. Collectors implements impute.Recorder.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "lvimpute"

// ErrNilRegisterer is returned by New when no registerer is supplied.
var ErrNilRegisterer = errors.New("metrics: nil registerer")

// Collectors groups the engine metrics.
type Collectors struct {
	Fits        *prometheus.CounterVec
	FitDuration prometheus.Histogram
	FitRounds   prometheus.Histogram
	RoundDelta  prometheus.Histogram
	Imputed     *prometheus.CounterVec
}

// New builds the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Collectors, error) {
	if reg == nil {
		return nil, ErrNilRegisterer
	}
	c := &Collectors{
		Fits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "fits_total",
				Help:      "Number of engine fits by outcome.",
			},
			[]string{"status"},
		),
		FitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "fit_duration_seconds",
			Help:      "Wall time of engine fits.",
			Buckets:   prometheus.DefBuckets,
		}),
		FitRounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "fit_rounds",
			Help:      "Rounds completed per successful fit.",
			Buckets:   prometheus.LinearBuckets(1, 1, 20),
		}),
		RoundDelta: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "round_delta",
			Help:      "Normalized max change of imputed cells per round.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 10, 8),
		}),
		Imputed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "imputed_cells_total",
				Help:      "Missing cells filled, by phase (fit or transform).",
			},
			[]string{"phase"},
		),
	}
	for _, col := range []prometheus.Collector{c.Fits, c.FitDuration, c.FitRounds, c.RoundDelta, c.Imputed} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("metrics.New: %w", err)
		}
	}

	return c, nil
}

// ObserveFit records a fit outcome; rounds are observed for successful fits only.
func (c *Collectors) ObserveFit(status string, rounds int, elapsed time.Duration) {
	c.Fits.WithLabelValues(status).Inc()
	c.FitDuration.Observe(elapsed.Seconds())
	if status == "ok" {
		c.FitRounds.Observe(float64(rounds))
	}
}

// ObserveRound records one round delta.
func (c *Collectors) ObserveRound(delta float64) { c.RoundDelta.Observe(delta) }

// AddImputed counts filled cells for a phase.
func (c *Collectors) AddImputed(phase string, cells int) {
	c.Imputed.WithLabelValues(phase).Add(float64(cells))
}
