package persistence

import (
	"context"
	"fmt"
	"slices"

	"sensor-dashboard/internal/dashboard/domain"
	"sensor-dashboard/internal/dashboard/persistence/internal"
	"sensor-dashboard/internal/dashboard/usecases"
	"sensor-dashboard/internal/infra/sql"
)

func NewSQLReadingLog(orm sql.ORM) (*SQLReadingLog, error) {
	err := orm.AutoMigrate(&internal.Reading{})
	if err != nil {
		return nil, fmt.Errorf("auto migrating readings: %w", err)
	}

	return &SQLReadingLog{
		orm: orm,
	}, nil
}

var _ usecases.ReadingLog = (*SQLReadingLog)(nil)

// SQLReadingLog keeps the log in a readings table; the auto-increment id
// preserves arrival order.
type SQLReadingLog struct {
	orm sql.ORM
}

func (l *SQLReadingLog) Append(ctx context.Context, reading domain.Reading) error {
	data := internal.FromReading(reading)
	err := l.orm.WithContext(ctx).Create(&data).Error()
	if err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}

	return nil
}

func (l *SQLReadingLog) Tail(ctx context.Context, n int) ([]domain.Reading, error) {
	if n <= 0 {
		return []domain.Reading{}, nil
	}

	var rows []internal.Reading
	err := l.orm.WithContext(ctx).Order("id desc").Limit(n).Find(&rows).Error()
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}

	slices.Reverse(rows)
	readings := make([]domain.Reading, len(rows))
	for i, row := range rows {
		readings[i] = row.ToDomain()
	}

	return readings, nil
}

func (l *SQLReadingLog) Close() error {
	return l.orm.Close()
}
