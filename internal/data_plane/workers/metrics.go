package workers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sensor_dashboard",
		Name:      "mqtt_messages_received_total",
		Help:      "MQTT messages delivered on the sensor topic.",
	})

	malformedPayloads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sensor_dashboard",
		Name:      "malformed_payloads_total",
		Help:      "MQTT payloads discarded because they could not be decoded.",
	})
)
