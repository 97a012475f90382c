package status

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "status_channel_connects_total",
		Help: "Total successful status channel connections (including reconnects)",
	})

	metricSends = promauto.NewCounter(prometheus.CounterOpts{
		Name: "status_channel_sends_total",
		Help: "Total events sent on the status channel",
	})

	metricSendDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "status_channel_send_drops_total",
		Help: "Events dropped because the channel was disconnected or the write failed",
	})

	gaugeHubClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "status_hub_clients",
		Help: "Currently connected status channel listeners",
	})
)
