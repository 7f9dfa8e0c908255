package relay

import "github.com/prometheus/client_golang/prometheus"

var relayed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "relay_events_total",
		Help: "Bus events relayed to external brokers by target and outcome.",
	},
	[]string{"target", "outcome"},
)

func init() {
	prometheus.MustRegister(relayed)
}
