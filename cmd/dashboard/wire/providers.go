package wire

import (
	"sensor-dashboard/cmd/config"
	"sensor-dashboard/internal/dashboard/httpapi"
	"sensor-dashboard/internal/dashboard/persistence"
	"sensor-dashboard/internal/dashboard/usecases"
	"sensor-dashboard/internal/data_plane/dto"
	"sensor-dashboard/internal/data_plane/workers"
	"sensor-dashboard/internal/infra/async"
	"sensor-dashboard/internal/infra/mqtt"
	"sensor-dashboard/internal/infra/node"
)

const _clientIDPrefix = "sensor-dashboard"

// Dashboard holds the components main starts and stops. They share a single
// retention store, log writer and MQTT client.
type Dashboard struct {
	Config     config.AppConfig
	Log        usecases.ReadingLog
	Store      *usecases.SimpleRetentionStore
	LogWriter  *usecases.LogWriterWorker
	MQTTClient *mqtt.SimpleClient
	Ingestion  *workers.SensorIngestionWorker
	Readings   *httpapi.ReadingController
	Live       *httpapi.LiveReadingWebSocketController
	Page       *httpapi.DashboardPageController
}

func provideAppConfig() config.AppConfig {
	return config.LoadConfig()
}

func provideStorageOptions(cfg config.AppConfig) persistence.StorageOptions {
	return persistence.StorageOptions{
		Driver:    cfg.Storage.Driver,
		CSVPath:   cfg.Storage.CSV.Path,
		CSVHeader: cfg.Storage.CSV.Header,
		DSN:       cfg.Storage.DSN,
	}
}

func provideLogWriter(log usecases.ReadingLog, cfg config.AppConfig) *usecases.LogWriterWorker {
	return usecases.NewLogWriterWorker(log, cfg.Storage.QueueSize)
}

func provideMQTTClient(cfg config.AppConfig) *mqtt.SimpleClient {
	clientID := cfg.MQTTClient.ClientID
	if clientID == "" {
		clientID = node.ClientID(_clientIDPrefix)
	}

	return mqtt.NewSimpleClient(mqtt.SimpleClientOpts{
		Broker:               cfg.MQTTClient.Broker,
		ClientID:             clientID,
		Username:             cfg.MQTTClient.Username,
		Password:             cfg.MQTTClient.Password, //pragma: allowlist secret
		InitialBackoff:       cfg.MQTTClient.InitialBackoff,
		MaxBackoff:           cfg.MQTTClient.MaxBackoff,
		MaxReconnectInterval: cfg.MQTTClient.MaxReconnectInterval,
	})
}

func provideIngestionWorker(
	client mqtt.Client,
	store usecases.RetentionStore,
	cfg config.AppConfig,
) (*workers.SensorIngestionWorker, error) {
	format, err := dto.ParsePayloadFormat(cfg.MQTTClient.PayloadFormat)
	if err != nil {
		return nil, err
	}

	return workers.NewSensorIngestionWorker(client, cfg.MQTTClient.Topic, store, workers.WithPayloadFormat(format)), nil
}

func provideLiveController(broker async.InternalBroker) (*httpapi.LiveReadingWebSocketController, error) {
	return httpapi.NewLiveReadingWebSocketController(broker)
}
