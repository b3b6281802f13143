package driver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"sensor-dashboard/internal/dashboard/httpapi"
	"sensor-dashboard/internal/dashboard/persistence"
	"sensor-dashboard/internal/dashboard/usecases"
	"sensor-dashboard/internal/data_plane/workers"
	"sensor-dashboard/internal/infra/async"
	"sensor-dashboard/internal/infra/httpserver"

	"github.com/gorilla/websocket"
)

const (
	Topic             = "living_room/sensor"
	_subscribeTimeout = 2 * time.Second
)

// Dashboard runs the whole pipeline in-process against a CSV log.
type Dashboard struct {
	Feed    *SensorFeed
	LogPath string

	server *httptest.Server
	client *http.Client
	live   *httpapi.LiveReadingWebSocketController
	broker *async.LocalBroker
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func StartDashboard(logPath string) (*Dashboard, error) {
	readingLog, err := persistence.NewReadingLog(persistence.StorageOptions{
		Driver:  persistence.DriverCSV,
		CSVPath: logPath,
	})
	if err != nil {
		return nil, err
	}

	broker := async.NewLocalBroker()
	writer := usecases.NewLogWriterWorker(readingLog, 16)
	store := usecases.NewRetentionStore(readingLog, writer, broker)
	if err := store.SeedFromLog(context.Background()); err != nil {
		return nil, err
	}

	live, err := httpapi.NewLiveReadingWebSocketController(broker)
	if err != nil {
		return nil, err
	}

	feed := NewSensorFeed()
	ingestion := workers.NewSensorIngestionWorker(feed, Topic, store)

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		Feed:    feed,
		LogPath: logPath,
		client:  &http.Client{Timeout: 5 * time.Second},
		live:    live,
		broker:  broker,
		cancel:  cancel,
	}

	d.wg.Add(2)
	go writer.Run(ctx, d.wg.Done)
	go ingestion.Run(ctx, d.wg.Done)

	deadline := time.Now().Add(_subscribeTimeout)
	for !feed.Subscribed() {
		if time.Now().After(deadline) {
			d.Stop()
			return nil, errors.New("ingestion worker did not subscribe")
		}
		time.Sleep(5 * time.Millisecond)
	}

	server := httpserver.NewServer(httpserver.ServerOptions{},
		httpapi.NewReadingController(store, feed),
		live,
		httpapi.NewDashboardPageController(),
	)
	d.server = httptest.NewServer(server.Handler())

	return d, nil
}

// Stop waits for the log writer to drain so a restart sees every record.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	if d.server != nil {
		d.server.Close()
	}
	d.live.Shutdown()
	d.broker.Stop()
}

func (d *Dashboard) GetLatest() (*http.Response, error) {
	return d.client.Get(fmt.Sprintf("%s/api/latest", d.server.URL))
}

func (d *Dashboard) GetHistory() (*http.Response, error) {
	return d.client.Get(fmt.Sprintf("%s/api/history", d.server.URL))
}

func (d *Dashboard) GetHealthz() (*http.Response, error) {
	return d.client.Get(fmt.Sprintf("%s/healthz", d.server.URL))
}

func (d *Dashboard) GetPage() (*http.Response, error) {
	return d.client.Get(d.server.URL + "/")
}

func (d *Dashboard) ConnectViewer() (*websocket.Conn, error) {
	url := "ws" + strings.TrimPrefix(d.server.URL, "http") + "/ws/readings"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Viewers reports how many live viewers the hub has registered.
func (d *Dashboard) Viewers() int {
	return d.live.Viewers()
}
