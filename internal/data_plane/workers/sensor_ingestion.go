package workers

import (
	"context"
	"log/slog"
	"time"

	"sensor-dashboard/internal/dashboard/domain"
	"sensor-dashboard/internal/dashboard/usecases"
	"sensor-dashboard/internal/data_plane/dto"
	"sensor-dashboard/internal/infra/async"
	"sensor-dashboard/internal/infra/mqtt"
)

type IngestionOption func(*SensorIngestionWorker)

// WithClock replaces the source of receipt timestamps.
func WithClock(clock func() time.Time) IngestionOption {
	return func(w *SensorIngestionWorker) {
		w.clock = clock
	}
}

func WithPayloadFormat(format dto.PayloadFormat) IngestionOption {
	return func(w *SensorIngestionWorker) {
		w.format = format
	}
}

func NewSensorIngestionWorker(
	mqttClient mqtt.Client,
	topic string,
	store usecases.RetentionStore,
	opts ...IngestionOption,
) *SensorIngestionWorker {
	w := &SensorIngestionWorker{
		mqttClient: mqttClient,
		topic:      topic,
		store:      store,
		format:     dto.PayloadFormatJSON,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var _ async.Worker = &SensorIngestionWorker{}

type SensorIngestionWorker struct {
	mqttClient mqtt.Client
	topic      string
	store      usecases.RetentionStore
	format     dto.PayloadFormat
	clock      func() time.Time
}

func (w *SensorIngestionWorker) Run(ctx context.Context, done func()) {
	defer done()

	err := w.mqttClient.Subscribe(w.topic, mqtt.QoSAtLeastOnce, w.messageHandler(ctx))
	if err != nil {
		slog.Error("subscribing to sensor topic", slog.String("topic", w.topic), slog.Any("error", err))
		return
	}

	slog.Info("sensor ingestion worker started", slog.String("topic", w.topic), slog.String("format", string(w.format)))
	<-ctx.Done()
	slog.Warn("sensor ingestion worker cancelled")
}

func (w *SensorIngestionWorker) messageHandler(ctx context.Context) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		messagesReceived.Inc()
		receivedAt := w.clock().Truncate(time.Second)

		payload, err := dto.DecodeSensorPayload(w.format, msg.Payload())
		if err != nil {
			malformedPayloads.Inc()
			slog.Warn("discarding sensor message",
				slog.String("topic", msg.Topic()),
				slog.Uint64("message_id", uint64(msg.MessageID())),
				slog.Any("error", err),
			)
			return
		}

		reading := domain.NewReading(receivedAt, payload.Temperature, payload.Humidity, payload.LightStatus)
		if err := w.store.Record(ctx, reading); err != nil {
			slog.Error("recording reading", slog.String("reading", reading.String()), slog.Any("error", err))
			return
		}

		slog.Debug("reading recorded", slog.String("reading", reading.String()))
	}
}

func (w *SensorIngestionWorker) Shutdown() {
	slog.Info("sensor ingestion worker shutdown")
}
