package sql

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
)

// NewMemoryORM opens a private in-memory sqlite database; every call gets
// its own schema.
func NewMemoryORM() (ORM, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := open("sqlite", sqlite.Open(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite in-memory db: %w", err)
	}

	return db, nil
}

func NewSQLiteORM(path string) (ORM, error) {
	db, err := open("sqlite", sqlite.Open(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db %s: %w", path, err)
	}

	return db, nil
}
