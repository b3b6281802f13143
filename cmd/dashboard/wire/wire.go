//go:build wireinject
// +build wireinject

package wire

import (
	"sensor-dashboard/internal/dashboard/httpapi"
	"sensor-dashboard/internal/dashboard/persistence"
	"sensor-dashboard/internal/dashboard/usecases"
	"sensor-dashboard/internal/infra/async"
	"sensor-dashboard/internal/infra/mqtt"

	"github.com/google/wire"
)

var RetentionSet = wire.NewSet(
	provideStorageOptions,
	persistence.NewReadingLog,
	provideLogWriter,
	wire.Bind(new(usecases.ReadingSink), new(*usecases.LogWriterWorker)),
	usecases.NewRetentionStore,
	wire.Bind(new(usecases.RetentionStore), new(*usecases.SimpleRetentionStore)),
)

var IngestionSet = wire.NewSet(
	provideMQTTClient,
	wire.Bind(new(mqtt.Client), new(*mqtt.SimpleClient)),
	wire.Bind(new(usecases.ConnectionStatus), new(*mqtt.SimpleClient)),
	provideIngestionWorker,
)

func InitializeDashboard(broker async.InternalBroker) (*Dashboard, error) {
	wire.Build(
		provideAppConfig,
		RetentionSet,
		IngestionSet,
		httpapi.NewReadingController,
		provideLiveController,
		httpapi.NewDashboardPageController,
		wire.Struct(new(Dashboard), "*"),
	)
	return nil, nil
}
