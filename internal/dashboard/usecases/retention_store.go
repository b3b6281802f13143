package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"sensor-dashboard/internal/dashboard/domain"
	"sensor-dashboard/internal/infra/async"
)

func NewRetentionStore(
	log ReadingLog,
	sink ReadingSink,
	broker async.InternalBroker,
) *SimpleRetentionStore {
	return &SimpleRetentionStore{
		log:     log,
		sink:    sink,
		broker:  broker,
		history: newRing(domain.HistoryCapacity),
		latest:  domain.PlaceholderReading(),
	}
}

var _ RetentionStore = &SimpleRetentionStore{}

// SimpleRetentionStore owns Latest and History. Writers are serialized by
// recordMu so the persisted log and the live push see the same order as
// History; readers only ever take mu.
type SimpleRetentionStore struct {
	log    ReadingLog
	sink   ReadingSink
	broker async.InternalBroker

	recordMu sync.Mutex
	mu       sync.RWMutex
	history  *ring
	latest   domain.Reading
}

func (s *SimpleRetentionStore) Record(ctx context.Context, reading domain.Reading) error {
	s.recordMu.Lock()
	defer s.recordMu.Unlock()

	s.mu.Lock()
	s.history.push(reading)
	s.latest = reading
	size := s.history.len()
	s.mu.Unlock()

	readingsRecorded.Inc()
	historySize.Set(float64(size))

	// The reading is already served from memory; a lost log hand-off must
	// not hide it from viewers.
	if err := s.sink.Submit(ctx, reading); err != nil {
		slog.Error("submitting reading to log",
			slog.Time("timestamp", reading.Timestamp),
			slog.Any("error", err))
	}

	brokerMsg := async.BrokerMessage{
		Event: BrokerEventNewData,
		Value: reading,
	}
	err := s.broker.Publish(ctx, BrokerTopicReadings, brokerMsg)
	if err != nil && !errors.Is(err, async.ErrTopicNotFound) {
		slog.Warn("publishing reading", slog.Any("error", err))
	}

	return nil
}

func (s *SimpleRetentionStore) Latest(_ context.Context) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Latest:       s.latest,
		TotalRecords: s.history.len(),
	}
}

func (s *SimpleRetentionStore) History(_ context.Context) []domain.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.history.items()
}

func (s *SimpleRetentionStore) SeedFromLog(ctx context.Context) error {
	readings, err := s.log.Tail(ctx, domain.HistoryCapacity)
	if err != nil {
		return fmt.Errorf("reading log tail: %w", err)
	}

	s.recordMu.Lock()
	defer s.recordMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = newRing(domain.HistoryCapacity)
	s.latest = domain.PlaceholderReading()
	for _, reading := range readings {
		s.history.push(reading)
		s.latest = reading
	}
	historySize.Set(float64(s.history.len()))

	slog.Info("history seeded from log", slog.Int("records", s.history.len()))
	return nil
}

// ring is a fixed capacity FIFO; pushing onto a full ring evicts the oldest.
type ring struct {
	buf   []domain.Reading
	start int
	size  int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]domain.Reading, capacity)}
}

func (r *ring) push(reading domain.Reading) {
	end := (r.start + r.size) % len(r.buf)
	r.buf[end] = reading
	if r.size < len(r.buf) {
		r.size++
		return
	}
	r.start = (r.start + 1) % len(r.buf)
}

func (r *ring) len() int {
	return r.size
}

func (r *ring) items() []domain.Reading {
	out := make([]domain.Reading, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}
