package sql_test

import (
	"context"

	"sensor-dashboard/internal/infra/sql"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

type testModel struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

var _ = ginkgo.Describe("ORM", func() {
	var (
		orm sql.ORM
		ctx context.Context
	)

	ginkgo.BeforeEach(func() {
		var err error
		orm, err = sql.NewMemoryORM()
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(orm.AutoMigrate(&testModel{})).To(gomega.Succeed())
		ctx = context.Background()
	})

	ginkgo.Context("NewMemoryORM", func() {
		ginkgo.When("opening two memory databases", func() {
			ginkgo.It("should not share rows", func() {
				other, err := sql.NewMemoryORM()
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(other.AutoMigrate(&testModel{})).To(gomega.Succeed())

				gomega.Expect(orm.WithContext(ctx).Create(&testModel{Name: "a"}).Error()).To(gomega.Succeed())

				var count int64
				err = other.WithContext(ctx).Model(&testModel{}).Count(&count).Error()
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(count).To(gomega.BeZero())
			})
		})
	})

	ginkgo.Context("Find", func() {
		ginkgo.When("ordering and limiting", func() {
			ginkgo.BeforeEach(func() {
				for _, name := range []string{"first", "second", "third"} {
					gomega.Expect(orm.WithContext(ctx).Create(&testModel{Name: name}).Error()).To(gomega.Succeed())
				}
			})

			ginkgo.It("should return the newest rows first", func() {
				var rows []testModel
				err := orm.WithContext(ctx).Order("id desc").Limit(2).Find(&rows).Error()
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(rows).To(gomega.HaveLen(2))
				gomega.Expect(rows[0].Name).To(gomega.Equal("third"))
				gomega.Expect(rows[1].Name).To(gomega.Equal("second"))
			})
		})
	})

	ginkgo.Context("tracing", func() {
		var recorder *tracetest.SpanRecorder

		ginkgo.BeforeEach(func() {
			recorder = tracetest.NewSpanRecorder()
			provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
			previous := otel.GetTracerProvider()
			otel.SetTracerProvider(provider)
			ginkgo.DeferCleanup(func() {
				otel.SetTracerProvider(previous)
				_ = provider.Shutdown(context.Background())
			})
		})

		ginkgo.It("should record a client span per executed statement", func() {
			parentCtx, parent := otel.Tracer("test").Start(ctx, "request")
			gomega.Expect(orm.WithContext(parentCtx).Create(&testModel{Name: "a"}).Error()).To(gomega.Succeed())
			parent.End()

			var created sdktrace.ReadOnlySpan
			for _, span := range recorder.Ended() {
				if span.Name() == "db.create" {
					created = span
				}
			}
			gomega.Expect(created).NotTo(gomega.BeNil())
			gomega.Expect(created.SpanKind()).To(gomega.Equal(trace.SpanKindClient))
			gomega.Expect(created.Parent().SpanID()).To(gomega.Equal(parent.SpanContext().SpanID()))
			gomega.Expect(created.Attributes()).To(gomega.ContainElements(
				attribute.String("db.system", "sqlite"),
				attribute.String("db.operation", "create"),
				attribute.String("db.sql.table", "test_models"),
			))
		})
	})

	ginkgo.Context("Close", func() {
		ginkgo.It("should reject statements after closing", func() {
			gomega.Expect(orm.Close()).To(gomega.Succeed())

			err := orm.WithContext(ctx).Create(&testModel{Name: "late"}).Error()
			gomega.Expect(err).To(gomega.MatchError(gomega.ContainSubstring("sqlite")))
		})
	})
})
