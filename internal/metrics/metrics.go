// Package metrics holds the engine's process-internal operability
// counters. These are not market data: no price, quote, or order-book
// snapshot is exposed here, only counts of activity, matching spec.md's
// exclusion of market-data dissemination while still giving operators
// visibility into the running process.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles every metric the engine publishes.
type Registry struct {
	MessagesReceived  prometheus.Counter
	MessagesSent      prometheus.Counter
	OrdersAdmitted    prometheus.Counter
	OrdersDropped     *prometheus.CounterVec
	SessionsActive    prometheus.Gauge
	SessionsCreated   prometheus.Counter
	BooksOpen         prometheus.Gauge
	FillsTotal        prometheus.Counter
	VolumeTotal       prometheus.Counter
}

// NewRegistry constructs and registers every metric against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchfix_messages_received_total",
			Help: "Total inbound wire messages accepted by session readers.",
		}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchfix_messages_sent_total",
			Help: "Total outbound wire messages written by session writers.",
		}),
		OrdersAdmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchfix_orders_admitted_total",
			Help: "Total NewOrderSingle orders admitted into a book.",
		}),
		OrdersDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchfix_orders_dropped_total",
			Help: "Total orders dropped, by reason.",
		}, []string{"reason"}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matchfix_sessions_active",
			Help: "Number of sessions currently active.",
		}),
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchfix_sessions_created_total",
			Help: "Total sessions created by the registry.",
		}),
		BooksOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matchfix_books_open",
			Help: "Number of order books currently open.",
		}),
		FillsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchfix_fills_total",
			Help: "Total orders removed from a book by complete fill.",
		}),
		VolumeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchfix_volume_total",
			Help: "Total matched quantity across all books.",
		}),
	}

	reg.MustRegister(
		r.MessagesReceived,
		r.MessagesSent,
		r.OrdersAdmitted,
		r.OrdersDropped,
		r.SessionsActive,
		r.SessionsCreated,
		r.BooksOpen,
		r.FillsTotal,
		r.VolumeTotal,
	)

	return r
}
