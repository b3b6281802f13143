package usecases

import (
	"context"

	"sensor-dashboard/internal/dashboard/domain"
	"sensor-dashboard/internal/infra/async"
)

const (
	BrokerTopicReadings async.BrokerTopicName = "readings"
	BrokerEventNewData  string                = "new_data"
)

// Snapshot is Latest together with the History length, taken atomically.
type Snapshot struct {
	Latest       domain.Reading
	TotalRecords int
}

type RetentionStore interface {
	Record(context.Context, domain.Reading) error
	Latest(context.Context) Snapshot
	History(context.Context) []domain.Reading
	SeedFromLog(context.Context) error
}

// ReadingSink accepts readings for persistence in submission order.
type ReadingSink interface {
	Submit(context.Context, domain.Reading) error
}

type ConnectionStatus interface {
	IsConnected() bool
}
