package httpapi

import (
	_ "embed"
	"net/http"

	"sensor-dashboard/internal/infra/httpserver"
)

//go:embed static/index.html
var indexPage []byte

func NewDashboardPageController() *DashboardPageController {
	return &DashboardPageController{}
}

var _ httpserver.Controller = &DashboardPageController{}

type DashboardPageController struct{}

func (c *DashboardPageController) AddRoutes(router *http.ServeMux) {
	router.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(indexPage)
	})
}
