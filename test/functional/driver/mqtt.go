package driver

import (
	"sync"

	"sensor-dashboard/internal/infra/mqtt"
)

// SensorFeed stands in for the MQTT broker: whatever is published is handed
// to the subscribed callback synchronously.
type SensorFeed struct {
	mu        sync.Mutex
	topic     string
	callback  mqtt.MessageHandler
	connected bool
	nextID    uint16
}

var _ mqtt.Client = (*SensorFeed)(nil)

func NewSensorFeed() *SensorFeed {
	return &SensorFeed{connected: true}
}

func (f *SensorFeed) Subscribe(topic string, _ byte, callback mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topic = topic
	f.callback = callback
	return nil
}

func (f *SensorFeed) Publish(string, byte, any) error { return nil }

func (f *SensorFeed) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *SensorFeed) SetConnected(connected bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = connected
}

func (f *SensorFeed) Disconnect() {
	f.SetConnected(false)
}

func (f *SensorFeed) Subscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callback != nil
}

func (f *SensorFeed) Deliver(payload []byte) {
	f.mu.Lock()
	callback := f.callback
	f.nextID++
	msg := &message{topic: f.topic, id: f.nextID, payload: payload}
	f.mu.Unlock()

	if callback != nil {
		callback(f, msg)
	}
}

type message struct {
	topic   string
	id      uint16
	payload []byte
}

func (m *message) Topic() string     { return m.topic }
func (m *message) MessageID() uint16 { return m.id }
func (m *message) Payload() []byte   { return m.payload }
func (m *message) Ack()              {}
