package sql

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ORM is the subset of gorm the reading log needs. Chained calls return a
// new ORM; Error reports the outcome of the last executed statement.
type ORM interface {
	AutoMigrate(dst ...any) error
	Count(count *int64) ORM
	Create(value any) ORM
	Find(dest any, conds ...any) ORM
	Limit(limit int) ORM
	Model(value any) ORM
	Order(value any) ORM
	WithContext(ctx context.Context) ORM
	Close() error

	Error() error
}

var ErrRecordNotFound = errors.New("record not found")

const tracerName = "sensor-dashboard/internal/infra/sql"

type DB struct {
	*gorm.DB
	system string
}

var _ ORM = (*DB)(nil)

func open(system string, dialector gorm.Dialector) (*DB, error) {
	gormDB, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, err
	}

	return &DB{DB: gormDB, system: system}, nil
}

func (d DB) Error() error {
	switch {
	case errors.Is(d.DB.Error, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case d.DB.Error != nil:
		return fmt.Errorf("%s: %w", d.system, d.DB.Error)
	default:
		return nil
	}
}

func (d DB) AutoMigrate(dst ...any) error {
	return d.DB.AutoMigrate(dst...)
}

func (d DB) Count(value *int64) ORM {
	return d.traced("count", func(db *gorm.DB) *gorm.DB { return db.Count(value) })
}

func (d DB) Create(value any) ORM {
	return d.traced("create", func(db *gorm.DB) *gorm.DB { return db.Create(value) })
}

func (d DB) Find(value any, conds ...any) ORM {
	return d.traced("find", func(db *gorm.DB) *gorm.DB { return db.Find(value, conds...) })
}

func (d DB) Limit(value int) ORM {
	d.DB = d.DB.Limit(value)
	return &d
}

func (d DB) Model(value any) ORM {
	d.DB = d.DB.Model(value)
	return &d
}

func (d DB) Order(value any) ORM {
	d.DB = d.DB.Order(value)
	return &d
}

func (d DB) WithContext(value context.Context) ORM {
	d.DB = d.DB.WithContext(value)
	return &d
}

func (d DB) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("%s: %w", d.system, err)
	}

	return sqlDB.Close()
}

// traced runs a statement inside a client span parented on the statement
// context.
func (d DB) traced(operation string, exec func(*gorm.DB) *gorm.DB) ORM {
	ctx := d.DB.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", d.system),
			attribute.String("db.operation", operation),
		),
	)
	defer span.End()

	d.DB = exec(d.DB.WithContext(ctx))
	if table := d.DB.Statement.Table; table != "" {
		span.SetAttributes(attribute.String("db.sql.table", table))
	}
	if err := d.DB.Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return &d
}
