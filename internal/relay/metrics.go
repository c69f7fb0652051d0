package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the relay's Prometheus instruments.
type Metrics struct {
	ConnectionsOpen prometheus.Gauge
	RoomsActive     prometheus.Gauge
	RoomsCreated    prometheus.Counter
	SignalsRelayed  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectionsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "p2pshare",
			Name:      "relay_connections_open",
			Help:      "Number of open signaling connections.",
		}),
		RoomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "p2pshare",
			Name:      "relay_rooms_active",
			Help:      "Number of rooms with at least one member.",
		}),
		RoomsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "p2pshare",
			Name:      "relay_rooms_created_total",
			Help:      "Total rooms created.",
		}),
		SignalsRelayed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "p2pshare",
			Name:      "relay_signals_relayed_total",
			Help:      "Total signaling payloads forwarded to peers.",
		}),
	}
}
