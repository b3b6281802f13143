package async

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const _defaultSubscriptionBuffer = 64

type BrokerTopicName string

type BrokerMessage struct {
	Event string
	Value any
	Span  trace.Span
	Error error
}

type InternalBroker interface {
	Subscribe(topic BrokerTopicName) (Subscription, error)
	Unsubscribe(topic BrokerTopicName, subscription Subscription) error
	Publish(ctx context.Context, topic BrokerTopicName, msg BrokerMessage) error
	Stop()
}

var _ InternalBroker = (*LocalBroker)(nil)

var ErrTopicNotFound = errors.New("topic not found")
var ErrSubscriptorNotFound = errors.New("subscriptor not found")

type LocalBrokerOption func(*LocalBroker)

// WithSubscriptionBuffer sets how many undelivered messages a subscriber may
// hold before new ones are dropped for it.
func WithSubscriptionBuffer(size int) LocalBrokerOption {
	return func(b *LocalBroker) {
		if size > 0 {
			b.bufferSize = size
		}
	}
}

func NewLocalBroker(opts ...LocalBrokerOption) *LocalBroker {
	b := &LocalBroker{
		subscriptors: make(map[BrokerTopicName][]*subscriptor),
		bufferSize:   _defaultSubscriptionBuffer,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// LocalBroker is an in-process fan-out. Publish never blocks: a subscriber
// whose buffer is full misses the message, the others still get it, and
// every subscriber sees messages in publish order.
type LocalBroker struct {
	mu           sync.RWMutex
	subscriptors map[BrokerTopicName][]*subscriptor
	bufferSize   int
}

type subscriptor struct {
	once         sync.Once
	subscription Subscription
}

type Subscription struct {
	ID       string
	Receiver chan BrokerMessage
}

func (b *LocalBroker) Subscribe(topic BrokerTopicName) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscription := Subscription{
		ID:       uuid.NewString(),
		Receiver: make(chan BrokerMessage, b.bufferSize),
	}
	b.subscriptors[topic] = append(b.subscriptors[topic], &subscriptor{subscription: subscription})
	return subscription, nil
}

func (b *LocalBroker) Unsubscribe(topic BrokerTopicName, subscription Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscriptors, ok := b.subscriptors[topic]
	if !ok {
		return ErrTopicNotFound
	}

	index := slices.IndexFunc(subscriptors, func(s *subscriptor) bool { return s.subscription.ID == subscription.ID })
	if index < 0 {
		return ErrSubscriptorNotFound
	}

	subscriptors[index].safeClose()
	b.subscriptors[topic] = slices.Delete(subscriptors, index, index+1)

	return nil
}

func (b *LocalBroker) Publish(ctx context.Context, topic BrokerTopicName, msg BrokerMessage) error {
	msg.Span = trace.SpanFromContext(ctx)

	b.mu.RLock()
	defer b.mu.RUnlock()

	topicSubscriptors, ok := b.subscriptors[topic]
	if !ok {
		return ErrTopicNotFound
	}

	for _, s := range topicSubscriptors {
		select {
		case s.subscription.Receiver <- msg:
		default:
			slog.Warn("subscriber buffer full, dropping message",
				slog.String("topic", string(topic)),
				slog.String("subscription_id", s.subscription.ID),
				slog.String("event", msg.Event))
		}
	}

	return nil
}

func (b *LocalBroker) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for topic, subscriptors := range b.subscriptors {
		for _, s := range subscriptors {
			s.safeClose()
		}
		b.subscriptors[topic] = nil
	}
}

func (s *subscriptor) safeClose() {
	s.once.Do(func() {
		close(s.subscription.Receiver)
	})
}
