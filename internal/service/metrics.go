package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersPlaced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "Orders assembled and appended to the order log, by responsible party.",
		},
		[]string{"responsible"},
	)

	checkoutsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_checkouts_cancelled_total",
			Help: "Checkouts the client cancelled before submitting their details.",
		},
	)

	dispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_dispatch_failures_total",
			Help: "Best-effort checkout side effects that failed, by stage.",
		},
		[]string{"stage"},
	)
)
