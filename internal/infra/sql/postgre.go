package sql

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
)

// PasswordEnv lets deployments keep the postgres password out of the DSN.
const PasswordEnv = "SENSOR_DASHBOARD_POSTGRES_PASSWORD"

func NewPostgreORM(dsn string) (ORM, error) {
	if pass, ok := os.LookupEnv(PasswordEnv); ok {
		dsn = fmt.Sprintf("%s password=%s", dsn, pass)
	}

	db, err := open("postgresql", postgres.Open(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres db: %w", err)
	}

	return db, nil
}
