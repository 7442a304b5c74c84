// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersPlaced counts successfully placed orders.
	OrdersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Number of orders successfully placed.",
	})

	// OrderStatusTransitions counts admin status transitions by target status.
	OrderStatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_status_transitions_total",
		Help: "Number of order status transitions.",
	}, []string{"status"})

	// CouponRejections counts failed coupon evaluations by reason.
	CouponRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_coupon_rejections_total",
		Help: "Number of rejected coupon applications.",
	}, []string{"reason"})

	// NotificationFailures counts notification sends that failed, by event type.
	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_notification_failures_total",
		Help: "Number of failed notification sends.",
	}, []string{"event"})

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_rate_limited_requests_total",
		Help: "Number of requests rejected by the rate limiter.",
	})
)
