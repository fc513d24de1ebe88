// Package metrics holds the Prometheus collectors of the service. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "zoomhook"

type Metrics struct {
	webhookRequests *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	zoomAPIRequests *prometheus.CounterVec
	zoomAPIDuration *prometheus.HistogramVec
	tokenRequests   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		webhookRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_requests_total",
			Help:      "Webhook deliveries by outcome.",
		}, []string{"outcome"}),

		webhookEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Verified webhook events by type.",
		}, []string{"event"}),

		zoomAPIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zoom_api_requests_total",
			Help:      "Zoom REST API calls by operation and HTTP status (0 for transport errors).",
		}, []string{"operation", "status"}),

		zoomAPIDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "zoom_api_request_duration_seconds",
			Help:      "Latency of Zoom REST API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		tokenRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oauth_token_requests_total",
			Help:      "OAuth token endpoint calls by grant type and result.",
		}, []string{"grant", "result"}),
	}
}

func (m *Metrics) WebhookRequest(outcome string) {
	if m == nil {
		return
	}
	m.webhookRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) WebhookEvent(event string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) ZoomAPICall(operation string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.zoomAPIRequests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	m.zoomAPIDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Metrics) TokenRequest(grant string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.tokenRequests.WithLabelValues(grant, result).Inc()
}
