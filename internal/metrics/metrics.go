package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesSent counts persisted chat messages.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "social_app_messages_sent_total",
		Help: "Number of chat messages persisted.",
	})

	// NotificationsPushed counts live notification deliveries.
	NotificationsPushed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "social_app_notifications_pushed_total",
		Help: "Number of notifications delivered over the socket channel.",
	})

	// WSConnections tracks currently open socket connections.
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "social_app_ws_connections",
		Help: "Currently open websocket connections.",
	})
)

// Handler returns an http.Handler for Prometheus scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
