// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package rpc

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the collectors of one server. Each server has its own
// registry so several can live in one process.
type metrics struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	authFailure prometheus.Counter
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jadesigner",
				Name:      "rpc_requests_total",
				Help:      "Total number of JSON-RPC calls, by method and outcome category.",
			},
			[]string{"method", "category"}, // category is "ok" on success
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "jadesigner",
				Name:      "rpc_request_duration_seconds",
				Help:      "JSON-RPC call duration in seconds.",
				// KDF bound calls take hundreds of milliseconds.
				Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),
		authFailure: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "jadesigner",
				Name:      "auth_failures_total",
				Help:      "Total number of rejected HTTP requests.",
			},
		),
	}
}

func (m *metrics) observe(method, category string, start time.Time) {
	m.requests.WithLabelValues(method, category).Inc()
	m.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
