package usecases

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	readingsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sensor_dashboard",
		Name:      "readings_recorded_total",
		Help:      "Readings accepted by the retention store.",
	})

	readingsPersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sensor_dashboard",
		Name:      "readings_persist_failures_total",
		Help:      "Readings that could not be appended to the persisted log.",
	})

	historySize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sensor_dashboard",
		Name:      "history_size",
		Help:      "Readings currently held in the in-memory history.",
	})
)
