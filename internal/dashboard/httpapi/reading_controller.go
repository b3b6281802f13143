package httpapi

import (
	"net/http"

	"sensor-dashboard/internal/dashboard/httpapi/internal"
	"sensor-dashboard/internal/dashboard/usecases"
	"sensor-dashboard/internal/infra/httpserver"

	"go.opentelemetry.io/otel/attribute"
)

func NewReadingController(store usecases.RetentionStore, status usecases.ConnectionStatus) *ReadingController {
	return &ReadingController{
		store:  store,
		status: status,
	}
}

var _ httpserver.Controller = &ReadingController{}

// ReadingController serves the in-memory state only; it never reads the log.
type ReadingController struct {
	store  usecases.RetentionStore
	status usecases.ConnectionStatus
}

func (c *ReadingController) AddRoutes(router *http.ServeMux) {
	router.Handle("GET /api/latest", c.latest())
	router.Handle("GET /api/history", c.history())
}

func (c *ReadingController) latest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := c.store.Latest(r.Context())

		httpserver.GetSpanFromContext(r).SetAttributes(
			attribute.String("endpoint", "latest"),
			attribute.Int("total_records", snapshot.TotalRecords),
		)

		response := internal.LatestResponse{
			Temperature:   snapshot.Latest.Temperature,
			Humidity:      snapshot.Latest.Humidity,
			LightStatus:   snapshot.Latest.LightStatus,
			Timestamp:     internal.FormatTimestamp(snapshot.Latest),
			MQTTConnected: c.status.IsConnected(),
			TotalRecords:  snapshot.TotalRecords,
		}

		httpserver.ReplyJSONResponse(w, http.StatusOK, response)
	}
}

func (c *ReadingController) history() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		readings := c.store.History(r.Context())

		httpserver.GetSpanFromContext(r).SetAttributes(
			attribute.String("endpoint", "history"),
			attribute.Int("count", len(readings)),
		)

		httpserver.ReplyJSONResponse(w, http.StatusOK, internal.ToReadingListResponse(readings))
	}
}
