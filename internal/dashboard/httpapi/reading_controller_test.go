package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	"sensor-dashboard/internal/dashboard/domain"
	"sensor-dashboard/internal/dashboard/httpapi"
	"sensor-dashboard/internal/dashboard/usecases"
	"sensor-dashboard/internal/infra/async"
	mockusecases "sensor-dashboard/test/unit/doubles/dashboard/usecases"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type connectionFlag struct {
	atomic.Bool
}

func (f *connectionFlag) IsConnected() bool {
	return f.Load()
}

func newTestStore(ctrl *gomock.Controller, broker async.InternalBroker) *usecases.SimpleRetentionStore {
	log := mockusecases.NewMockReadingLog(ctrl)
	log.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	return usecases.NewRetentionStore(log, usecases.NewSynchronousLogWriter(log), broker)
}

var _ = Describe("ReadingController", func() {
	var (
		ctrl      *gomock.Controller
		store     *usecases.SimpleRetentionStore
		connected *connectionFlag
		router    *http.ServeMux
		base      time.Time
	)

	get := func(path string) *httptest.ResponseRecorder {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
		return recorder
	}

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		store = newTestStore(ctrl, async.NewLocalBroker())
		connected = &connectionFlag{}
		router = http.NewServeMux()
		httpapi.NewReadingController(store, connected).AddRoutes(router)
		base = time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local)
	})

	Context("GET /api/latest", func() {
		When("no reading has arrived yet", func() {
			It("should return the placeholder with a null timestamp", func() {
				recorder := get("/api/latest")

				Expect(recorder.Code).To(Equal(http.StatusOK))
				Expect(recorder.Body.String()).To(MatchJSON(`{
					"temperature": 0,
					"humidity": 0,
					"light_status": "unknown",
					"timestamp": null,
					"mqtt_connected": false,
					"total_records": 0
				}`))
			})
		})

		When("a reading was recorded", func() {
			BeforeEach(func() {
				connected.Store(true)
				Expect(store.Record(context.Background(), domain.NewReading(base, 23.5, 55, "on"))).To(Succeed())
			})

			It("should return it with the record count and connection state", func() {
				recorder := get("/api/latest")

				Expect(recorder.Code).To(Equal(http.StatusOK))
				Expect(recorder.Header().Get("Content-Type")).To(Equal("application/json"))
				Expect(recorder.Body.String()).To(MatchJSON(`{
					"temperature": 23.5,
					"humidity": 55,
					"light_status": "on",
					"timestamp": "2025-03-01 10:00:00",
					"mqtt_connected": true,
					"total_records": 1
				}`))
			})
		})
	})

	Context("GET /api/history", func() {
		When("history is empty", func() {
			It("should return an empty array", func() {
				recorder := get("/api/history")

				Expect(recorder.Code).To(Equal(http.StatusOK))
				Expect(recorder.Body.String()).To(MatchJSON(`[]`))
			})
		})

		When("more readings than the capacity were recorded", func() {
			BeforeEach(func() {
				for i := 0; i < domain.HistoryCapacity+20; i++ {
					reading := domain.NewReading(base.Add(time.Duration(i)*time.Second), float64(i), 50, "off")
					Expect(store.Record(context.Background(), reading)).To(Succeed())
				}
			})

			It("should return the most recent ones oldest first", func() {
				recorder := get("/api/history")

				var body []map[string]any
				Expect(json.Unmarshal(recorder.Body.Bytes(), &body)).To(Succeed())
				Expect(body).To(HaveLen(domain.HistoryCapacity))
				Expect(body[0]["temperature"]).To(Equal(20.0))
				Expect(body[domain.HistoryCapacity-1]["temperature"]).To(Equal(119.0))
				Expect(body[0]).To(HaveKeyWithValue("timestamp", "2025-03-01 10:00:20"))
				Expect(body[0]).To(HaveKeyWithValue("light_status", "off"))
			})
		})
	})
})

var _ = Describe("DashboardPageController", func() {
	It("should serve the embedded page at the root only", func() {
		router := http.NewServeMux()
		httpapi.NewDashboardPageController().AddRoutes(router)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(recorder.Code).To(Equal(http.StatusOK))
		Expect(recorder.Header().Get("Content-Type")).To(ContainSubstring("text/html"))
		Expect(recorder.Body.String()).To(ContainSubstring("/ws/readings"))

		recorder = httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/missing", nil))
		Expect(recorder.Code).To(Equal(http.StatusNotFound))
	})
})
