package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cartMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodiehub_cart_mutations_total",
			Help: "Cart mutations by operation.",
		},
		[]string{"op"},
	)

	cartPersistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodiehub_cart_persist_failures_total",
			Help: "Cart snapshot writes that failed and were dropped.",
		},
	)

	cartHydrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodiehub_cart_hydrations_total",
			Help: "Cart hydrations from the snapshot store by result (restored, absent, corrupt, unavailable).",
		},
		[]string{"result"},
	)

	cartEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodiehub_cart_evictions_total",
			Help: "Idle live carts dropped from memory.",
		},
	)

	checkoutSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodiehub_checkout_submissions_total",
			Help: "Checkout submissions by outcome.",
		},
		[]string{"outcome"},
	)

	checkoutSubmitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foodiehub_checkout_submit_duration_seconds",
			Help:    "Time spent waiting for the order submitter.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 1.5, 2, 3, 5, 10},
		},
	)
)

// Cart mutation operations, used as metric labels.
const (
	opAdd    = "add"
	opUpdate = "update"
	opRemove = "remove"
	opClear  = "clear"
	opSettle = "settle"
)
