package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	QoSAtMostOnce  byte = 0
	QoSAtLeastOnce byte = 1

	_defaultRetained       = false
	_publishTimeout        = 5 * time.Second
	_subscribeTimeout      = 5 * time.Second
	_connectTimeout        = 5 * time.Second
	_keepAlive             = 10 * time.Second
	_disconnectQuiesceMS   = 250
	_defaultInitialBackoff = time.Second
	_defaultMaxBackoff     = 30 * time.Second
)

var ErrConnectTimeout = errors.New("timed out connecting to MQTT broker")

type Client interface {
	Subscribe(topic string, qos byte, callback MessageHandler) error
	Publish(topic string, qos byte, msg any) error
	IsConnected() bool

	Disconnect()
}

type MessageHandler func(Client, Message)

type Message interface {
	Topic() string
	MessageID() uint16
	Payload() []byte
	Ack()
}

type SimpleClientOpts struct {
	Broker   string
	ClientID string
	Username string
	Password string

	// InitialBackoff and MaxBackoff bound the retries of the first
	// connection; MaxReconnectInterval caps paho's own reconnect backoff.
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	MaxReconnectInterval time.Duration
}

type subscription struct {
	topic    string
	qos      byte
	callback MessageHandler
}

type clientFactory func(*paho.ClientOptions) paho.Client

func NewSimpleClient(opts SimpleClientOpts) *SimpleClient {
	return newSimpleClient(opts, paho.NewClient)
}

func newSimpleClient(opts SimpleClientOpts, factory clientFactory) *SimpleClient {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = _defaultInitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = _defaultMaxBackoff
	}
	if opts.MaxReconnectInterval <= 0 {
		opts.MaxReconnectInterval = opts.MaxBackoff
	}

	simpleClient := &SimpleClient{
		opts:          opts,
		subscriptions: make(map[string]subscription),
	}

	onConnectHandler := func(client paho.Client) {
		simpleClient.connected.Store(true)
		slog.Info("connected to MQTT broker", slog.String("broker", opts.Broker))
		simpleClient.resubscribeAll(client)
	}

	onConnectionLostHandler := func(_ paho.Client, err error) {
		simpleClient.connected.Store(false)
		slog.Error("connection lost to MQTT broker", slog.Any("error", err))
	}

	onReconnectingHandler := func(_ paho.Client, _ *paho.ClientOptions) {
		slog.Info("reconnecting to MQTT broker", slog.String("broker", opts.Broker))
	}

	pahoOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetOnConnectHandler(onConnectHandler).
		SetConnectionLostHandler(onConnectionLostHandler).
		SetReconnectingHandler(onReconnectingHandler).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(opts.MaxReconnectInterval).
		SetCleanSession(true).
		SetKeepAlive(_keepAlive).
		SetConnectTimeout(_connectTimeout)

	simpleClient.client = factory(pahoOpts)
	return simpleClient
}

var _ Client = (*SimpleClient)(nil)

// SimpleClient wraps paho. Subscriptions registered before the broker is
// reachable are applied on the first connect and restored after every
// reconnect.
type SimpleClient struct {
	opts          SimpleClientOpts
	client        paho.Client
	connected     atomic.Bool
	subscriptions map[string]subscription
	mu            sync.RWMutex
}

// Connect blocks until the first connection succeeds, retrying with
// exponential backoff capped at MaxBackoff. It only gives up when ctx ends.
func (c *SimpleClient) Connect(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.InitialBackoff
	policy.MaxInterval = c.opts.MaxBackoff
	policy.MaxElapsedTime = 0

	operation := func() error {
		token := c.client.Connect()
		if !token.WaitTimeout(_connectTimeout) {
			return ErrConnectTimeout
		}
		return token.Error()
	}

	notify := func(err error, next time.Duration) {
		slog.Warn("error connecting to MQTT broker, retrying",
			slog.String("broker", c.opts.Broker),
			slog.Duration("retry_in", next),
			slog.Any("error", err))
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify); err != nil {
		return fmt.Errorf("connecting to %s: %w", c.opts.Broker, err)
	}

	return nil
}

func (c *SimpleClient) IsConnected() bool {
	return c.connected.Load()
}

func (c *SimpleClient) resubscribeAll(client paho.Client) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.subscriptions) == 0 {
		slog.Debug("no subscriptions to restore")
		return
	}

	slog.Info("restoring MQTT subscriptions", slog.Int("count", len(c.subscriptions)))

	for topic, sub := range c.subscriptions {
		if err := c.subscribe(client, sub); err != nil {
			slog.Error("failed to restore subscription", slog.String("topic", topic), slog.Any("error", err))
			continue
		}
		slog.Debug("subscription restored", slog.String("topic", topic))
	}
}

func (c *SimpleClient) subscribe(client paho.Client, sub subscription) error {
	pahoCallback := func(_ paho.Client, msg paho.Message) {
		sub.callback(c, msg)
	}

	token := client.Subscribe(sub.topic, sub.qos, pahoCallback)
	if !token.WaitTimeout(_subscribeTimeout) {
		return fmt.Errorf("subscribing to topic %s: timeout", sub.topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("subscribing to topic %s: %w", sub.topic, token.Error())
	}

	return nil
}

// Subscribe registers the subscription and applies it right away when
// connected; otherwise it is applied on the next connect.
func (c *SimpleClient) Subscribe(topic string, qos byte, callback MessageHandler) error {
	sub := subscription{
		topic:    topic,
		qos:      qos,
		callback: callback,
	}

	c.mu.Lock()
	c.subscriptions[topic] = sub
	c.mu.Unlock()

	if !c.IsConnected() {
		slog.Info("MQTT subscription deferred until connected", slog.String("topic", topic))
		return nil
	}

	if err := c.subscribe(c.client, sub); err != nil {
		return err
	}

	slog.Info("subscribed to MQTT topic", slog.String("topic", topic), slog.Int("qos", int(qos)))
	return nil
}

func (c *SimpleClient) Disconnect() {
	c.mu.Lock()
	c.subscriptions = make(map[string]subscription)
	c.mu.Unlock()

	c.connected.Store(false)
	c.client.Disconnect(_disconnectQuiesceMS)
}

func (c *SimpleClient) Publish(topic string, qos byte, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	return c.PublishRaw(topic, qos, payload)
}

// PublishRaw sends an already encoded payload.
func (c *SimpleClient) PublishRaw(topic string, qos byte, payload []byte) error {
	token := c.client.Publish(topic, qos, _defaultRetained, payload)
	if !token.WaitTimeout(_publishTimeout) {
		return fmt.Errorf("publishing to topic %s: timeout", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("publishing to topic %s: %w", topic, token.Error())
	}

	return nil
}
