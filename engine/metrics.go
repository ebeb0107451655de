// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	itemsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quickly_annotate",
			Name:      "items_served_total",
			Help:      "Item responses by assignment type and status (ok or completed)",
		},
		[]string{"assignment", "status"},
	)

	annotationsLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quickly_annotate",
			Name:      "annotations_logged_total",
			Help:      "Annotations appended to the log by assignment type",
		},
		[]string{"assignment"},
	)

	resets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quickly_annotate",
			Name:      "resets_total",
			Help:      "Progress resets by assignment type",
		},
		[]string{"assignment"},
	)

	dynamicSelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quickly_annotate",
			Name:      "dynamic_selections_total",
			Help:      "Dynamic model selections by phase (first, backoff, top, fallback)",
		},
		[]string{"phase"},
	)
)
