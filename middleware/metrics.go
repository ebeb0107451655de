// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "quickly_annotate",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern and status code",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"route", "status"},
)
