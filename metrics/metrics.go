package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "volley_active_rooms",
		Help: "Number of live rooms.",
	})

	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "volley_connected_clients",
		Help: "Number of connected websocket endpoints.",
	})

	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "volley_simulation_ticks_total",
		Help: "Total physics ticks computed across all rooms.",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
