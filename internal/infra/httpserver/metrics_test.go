package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func findMetric(reader *sdkmetric.ManualReader, name string) metricdata.Aggregation {
	var rm metricdata.ResourceMetrics
	gomega.Expect(reader.Collect(context.Background(), &rm)).To(gomega.Succeed())
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == name {
				return m.Data
			}
		}
	}
	return nil
}

func statusCodes(reader *sdkmetric.ManualReader) []int64 {
	sum, ok := findMetric(reader, "sensor_dashboard.http.requests.total").(metricdata.Sum[int64])
	if !ok {
		return nil
	}

	var codes []int64
	for _, point := range sum.DataPoints {
		if value, found := point.Attributes.Value("http.status_code"); found {
			codes = append(codes, value.AsInt64())
		}
	}
	return codes
}

var _ = ginkgo.Describe("Metrics", func() {
	var reader *sdkmetric.ManualReader

	ginkgo.BeforeEach(func() {
		reader = sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		previous := otel.GetMeterProvider()
		otel.SetMeterProvider(provider)
		ginkgo.DeferCleanup(func() {
			otel.SetMeterProvider(previous)
			_ = provider.Shutdown(context.Background())
		})
	})

	ginkgo.Context("MetricsMiddleware", func() {
		ginkgo.When("a handler answers normally", func() {
			ginkgo.It("should count the request with its status and body size", func() {
				handler := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusAccepted)
					_, _ = w.Write([]byte("test response"))
				}))

				w := httptest.NewRecorder()
				handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/latest", nil))

				gomega.Expect(w.Code).To(gomega.Equal(http.StatusAccepted))
				gomega.Expect(w.Body.String()).To(gomega.Equal("test response"))
				gomega.Expect(statusCodes(reader)).To(gomega.ConsistOf(int64(http.StatusAccepted)))

				sizes, ok := findMetric(reader, "sensor_dashboard.http.response.size.bytes").(metricdata.Histogram[int64])
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(sizes.DataPoints).To(gomega.HaveLen(1))
				gomega.Expect(sizes.DataPoints[0].Sum).To(gomega.Equal(int64(len("test response"))))
			})

			ginkgo.It("should leave no request active afterwards", func() {
				handler := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
				handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/history", nil))

				active, ok := findMetric(reader, "sensor_dashboard.http.requests.active").(metricdata.Sum[int64])
				gomega.Expect(ok).To(gomega.BeTrue())
				for _, point := range active.DataPoints {
					gomega.Expect(point.Value).To(gomega.BeZero())
				}
			})
		})

		ginkgo.When("the handler takes over the connection", func() {
			ginkgo.It("should report switching protocols", func() {
				handler := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					conn, _, err := w.(http.Hijacker).Hijack()
					if err == nil {
						_ = conn.Close()
					}
				}))
				server := httptest.NewServer(handler)
				ginkgo.DeferCleanup(server.Close)

				_, err := http.Get(server.URL + "/ws/readings")
				gomega.Expect(err).To(gomega.HaveOccurred())

				gomega.Eventually(func() []int64 { return statusCodes(reader) }).
					Should(gomega.ConsistOf(int64(http.StatusSwitchingProtocols)))
			})
		})
	})

	ginkgo.Context("NormalizeEndpoint", func() {
		ginkgo.DescribeTable("normalizing endpoint from path",
			func(path, expected string) {
				gomega.Expect(normalizeEndpoint(path)).To(gomega.Equal(expected))
			},
			ginkgo.Entry("root path", "/", "root"),
			ginkgo.Entry("empty path", "", "root"),
			ginkgo.Entry("single segment", "/healthz", "/healthz"),
			ginkgo.Entry("nested endpoint", "/api/latest", "/api/latest"),
			ginkgo.Entry("websocket endpoint", "/ws/readings", "/ws/readings"),
			ginkgo.Entry("uuid segment", "/api/sensors/123e4567-e89b-12d3-a456-426614174000", "/api/sensors/_id"),
			ginkgo.Entry("uuid in the middle", "/ws/sensors/123e4567-e89b-12d3-a456-426614174000/readings", "/ws/sensors/_id/readings"),
			ginkgo.Entry("trailing number", "/api/history/42", "/api/history/_n"),
			ginkgo.Entry("number in the middle", "/api/42/latest", "/api/_n/latest"),
		)
	})

	ginkgo.Context("ResponseWriter", func() {
		var (
			recorder      *httptest.ResponseRecorder
			wrappedWriter *responseWriter
		)

		ginkgo.BeforeEach(func() {
			recorder = httptest.NewRecorder()
			wrappedWriter = &responseWriter{ResponseWriter: recorder, statusCode: http.StatusOK}
		})

		ginkgo.It("should keep the status code", func() {
			wrappedWriter.WriteHeader(http.StatusNotFound)
			gomega.Expect(wrappedWriter.statusCode).To(gomega.Equal(http.StatusNotFound))
			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusNotFound))
		})

		ginkgo.It("should count written bytes", func() {
			_, err := wrappedWriter.Write([]byte("test"))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			_, err = wrappedWriter.Write([]byte("ing"))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(recorder.Body.String()).To(gomega.Equal("testing"))
			gomega.Expect(wrappedWriter.written).To(gomega.Equal(int64(7)))
		})

		ginkgo.It("should fail to hijack a writer that cannot be hijacked", func() {
			_, _, err := wrappedWriter.Hijack()
			gomega.Expect(err).To(gomega.MatchError(ErrHijackNotSupported))
			gomega.Expect(wrappedWriter.hijacked).To(gomega.BeFalse())
		})
	})
})
