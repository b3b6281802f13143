package persistence

import (
	"fmt"

	"sensor-dashboard/internal/dashboard/usecases"
	"sensor-dashboard/internal/infra/sql"
)

const (
	DriverCSV      = "csv"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type StorageOptions struct {
	Driver    string
	CSVPath   string
	CSVHeader []string
	DSN       string
}

// NewReadingLog builds the log backend named by opts.Driver.
func NewReadingLog(opts StorageOptions) (usecases.ReadingLog, error) {
	switch opts.Driver {
	case "", DriverCSV:
		return NewCSVReadingLog(opts.CSVPath, opts.CSVHeader)
	case DriverSQLite:
		orm, err := sql.NewSQLiteORM(opts.DSN)
		if err != nil {
			return nil, err
		}
		return NewSQLReadingLog(orm)
	case DriverPostgres:
		orm, err := sql.NewPostgreORM(opts.DSN)
		if err != nil {
			return nil, err
		}
		return NewSQLReadingLog(orm)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", opts.Driver)
	}
}
