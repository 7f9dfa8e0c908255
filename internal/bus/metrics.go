package bus

import "github.com/prometheus/client_golang/prometheus"

// observed counts published events by kind.
var observed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bus_events_total",
		Help: "Total number of change events published on the bus.",
	},
	[]string{"kind"},
)

func init() {
	prometheus.MustRegister(observed)
}
