package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"sensor-dashboard/internal/dashboard/domain"
	"sensor-dashboard/internal/dashboard/httpapi/internal"
	"sensor-dashboard/internal/dashboard/usecases"
	"sensor-dashboard/internal/infra/async"
	"sensor-dashboard/internal/infra/httpserver"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DefaultViewerBuffer = 32

	_writeWait      = 10 * time.Second
	_pongWait       = 60 * time.Second
	_pingPeriod     = 54 * time.Second
	_maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var (
	connectedViewers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sensor_dashboard",
		Name:      "live_viewers",
		Help:      "Websocket viewers currently receiving live readings.",
	})

	droppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sensor_dashboard",
		Name:      "live_frames_dropped_total",
		Help:      "Live frames dropped because a viewer queue was full.",
	})
)

type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

// LiveReadingWebSocketController pushes every recorded reading to all
// connected viewers. Each viewer has its own bounded queue and writer
// goroutine, so a slow viewer only loses its own frames.
type LiveReadingWebSocketController struct {
	broker       async.InternalBroker
	subscription async.Subscription
	viewerBuffer int

	viewers    map[*viewer]struct{}
	viewersMux sync.RWMutex
	register   chan *viewer
	unregister chan *viewer

	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
}

type LiveOption func(*LiveReadingWebSocketController)

func WithViewerBuffer(size int) LiveOption {
	return func(c *LiveReadingWebSocketController) {
		if size > 0 {
			c.viewerBuffer = size
		}
	}
}

func NewLiveReadingWebSocketController(broker async.InternalBroker, opts ...LiveOption) (*LiveReadingWebSocketController, error) {
	subscription, err := broker.Subscribe(usecases.BrokerTopicReadings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	wsc := &LiveReadingWebSocketController{
		broker:       broker,
		subscription: subscription,
		viewerBuffer: DefaultViewerBuffer,
		viewers:      make(map[*viewer]struct{}),
		register:     make(chan *viewer),
		unregister:   make(chan *viewer),
		ctx:          ctx,
		cancel:       cancel,
		stopped:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(wsc)
	}

	go wsc.run()

	return wsc, nil
}

var _ httpserver.Controller = (*LiveReadingWebSocketController)(nil)

func (wsc *LiveReadingWebSocketController) AddRoutes(router *http.ServeMux) {
	router.Handle("GET /ws/readings", wsc.handleWebSocket())
}

// Viewers reports how many viewers are registered with the hub.
func (wsc *LiveReadingWebSocketController) Viewers() int {
	wsc.viewersMux.RLock()
	defer wsc.viewersMux.RUnlock()
	return len(wsc.viewers)
}

func (wsc *LiveReadingWebSocketController) handleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", slog.String("error", err.Error()))
			return
		}

		slog.Info("new websocket connection established", slog.String("remote_addr", r.RemoteAddr))

		v := &viewer{
			conn: conn,
			send: make(chan []byte, wsc.viewerBuffer),
		}

		select {
		case wsc.register <- v:
		case <-wsc.ctx.Done():
			conn.Close()
			return
		}

		go wsc.writePump(v)
		go wsc.readPump(v)
	}
}

func (wsc *LiveReadingWebSocketController) leave(v *viewer) {
	select {
	case wsc.unregister <- v:
	case <-wsc.ctx.Done():
	}
}

// readPump only watches for close frames and pongs; viewers never send data.
func (wsc *LiveReadingWebSocketController) readPump(v *viewer) {
	defer wsc.leave(v)

	v.conn.SetReadLimit(_maxMessageSize)
	v.conn.SetReadDeadline(time.Now().Add(_pongWait))
	v.conn.SetPongHandler(func(string) error {
		v.conn.SetReadDeadline(time.Now().Add(_pongWait))
		return nil
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("websocket read error", slog.String("error", err.Error()))
			} else {
				slog.Debug("websocket connection closed", slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (wsc *LiveReadingWebSocketController) writePump(v *viewer) {
	ticker := time.NewTicker(_pingPeriod)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(_writeWait))
			if !ok {
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				slog.Warn("failed to write frame to websocket viewer", slog.String("error", err.Error()))
				wsc.leave(v)
				return
			}

		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(_writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				wsc.leave(v)
				return
			}
		}
	}
}

func (wsc *LiveReadingWebSocketController) run() {
	defer close(wsc.stopped)
	defer wsc.closeAll()

	for {
		select {
		case <-wsc.ctx.Done():
			return

		case v := <-wsc.register:
			wsc.viewersMux.Lock()
			wsc.viewers[v] = struct{}{}
			total := len(wsc.viewers)
			wsc.viewersMux.Unlock()
			connectedViewers.Set(float64(total))
			slog.Info("websocket viewer registered", slog.Int("total_viewers", total))

		case v := <-wsc.unregister:
			wsc.viewersMux.Lock()
			if _, ok := wsc.viewers[v]; ok {
				delete(wsc.viewers, v)
				close(v.send)
			}
			total := len(wsc.viewers)
			wsc.viewersMux.Unlock()
			connectedViewers.Set(float64(total))
			slog.Info("websocket viewer unregistered", slog.Int("total_viewers", total))

		case brokerMsg, ok := <-wsc.subscription.Receiver:
			if !ok {
				slog.Warn("live readings subscription closed")
				return
			}
			if brokerMsg.Event != usecases.BrokerEventNewData {
				continue
			}
			reading, ok := brokerMsg.Value.(domain.Reading)
			if !ok {
				slog.Error("unexpected broker message value", slog.Any("value", brokerMsg.Value))
				continue
			}
			wsc.broadcast(reading)
		}
	}
}

func (wsc *LiveReadingWebSocketController) broadcast(reading domain.Reading) {
	frame, err := json.Marshal(internal.LiveEvent{
		Event: usecases.BrokerEventNewData,
		Data:  internal.ToReadingResponse(reading),
	})
	if err != nil {
		slog.Error("encoding live frame", slog.Any("error", err))
		return
	}

	wsc.viewersMux.RLock()
	defer wsc.viewersMux.RUnlock()

	for v := range wsc.viewers {
		select {
		case v.send <- frame:
		default:
			droppedFrames.Inc()
			slog.Warn("viewer queue full, dropping frame", slog.String("remote_addr", v.conn.RemoteAddr().String()))
		}
	}
}

func (wsc *LiveReadingWebSocketController) closeAll() {
	wsc.viewersMux.Lock()
	for v := range wsc.viewers {
		delete(wsc.viewers, v)
		close(v.send)
	}
	wsc.viewersMux.Unlock()
	connectedViewers.Set(0)

	if err := wsc.broker.Unsubscribe(usecases.BrokerTopicReadings, wsc.subscription); err != nil {
		slog.Debug("unsubscribing live readings", slog.Any("error", err))
	}
}

func (wsc *LiveReadingWebSocketController) Shutdown() {
	slog.Info("shutting down live reading websocket controller")
	wsc.cancel()
	<-wsc.stopped
}
