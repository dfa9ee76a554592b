package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	WebhooksReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursepay_webhooks_received_total",
			Help: "Webhook deliveries that passed payload validation",
		},
		[]string{"provider", "outcome"},
	)

	WebhooksRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursepay_webhooks_rejected_total",
			Help: "Webhook deliveries rejected at payload validation",
		},
		[]string{"provider"},
	)

	DuplicateDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursepay_webhook_duplicates_total",
			Help: "Deliveries acknowledged without effect because the session was already terminal",
		},
		[]string{"provider"},
	)

	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "coursepay_reconcile_duration_seconds",
			Help: "Time spent handling a webhook delivery",
		},
	)
)

func Register() {
	prometheus.MustRegister(WebhooksReceived, WebhooksRejected, DuplicateDeliveries, ReconcileDuration)
}
