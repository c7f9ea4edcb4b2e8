package websocket

import "github.com/prometheus/client_golang/prometheus"

var (
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gameroom_ws_connections",
			Help: "Current number of active websocket connections.",
		},
	)
	wsRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gameroom_ws_rooms",
			Help: "Current number of live rooms.",
		},
	)
	wsBroadcasts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gameroom_ws_broadcasts_delivered_total",
			Help: "Total state broadcasts delivered to subscribers.",
		},
	)
	wsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gameroom_ws_subscribers_dropped_total",
			Help: "Subscribers dropped for not keeping up with broadcasts.",
		},
	)
)

func init() {
	prometheus.MustRegister(wsConnections, wsRooms, wsBroadcasts, wsDropped)
}

func incConnections() {
	wsConnections.Inc()
}

func decConnections() {
	wsConnections.Dec()
}

func setRooms(count int) {
	wsRooms.Set(float64(count))
}

func addBroadcasts(count int) {
	wsBroadcasts.Add(float64(count))
}

func incDropped() {
	wsDropped.Inc()
}
