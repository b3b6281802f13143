package usecases

import (
	"context"

	"sensor-dashboard/internal/dashboard/domain"
)

//go:generate mockgen -source=./repository_port.go -destination=../../../test/unit/doubles/dashboard/usecases/repository_port.go -package=usecases

// ReadingLog is the durable, append-only record of every accepted reading.
type ReadingLog interface {
	Append(context.Context, domain.Reading) error
	// Tail returns up to n of the most recent records, oldest first. An
	// absent log is not an error.
	Tail(ctx context.Context, n int) ([]domain.Reading, error)
}
