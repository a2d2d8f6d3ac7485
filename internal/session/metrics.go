package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "simviz",
		Subsystem: "display",
		Name:      "clients",
		Help:      "Connected display clients",
	})

	droppedMessages = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "simviz",
		Subsystem: "display",
		Name:      "dropped_messages_total",
		Help:      "Messages dropped because a client's send buffer was full",
	})
)
