package usecases

import (
	"context"
	"log/slog"

	"sensor-dashboard/internal/dashboard/domain"
	"sensor-dashboard/internal/infra/async"
)

const _defaultQueueSize = 256

func NewLogWriterWorker(log ReadingLog, queueSize int) *LogWriterWorker {
	if queueSize <= 0 {
		queueSize = _defaultQueueSize
	}

	return &LogWriterWorker{
		log:   log,
		queue: make(chan domain.Reading, queueSize),
	}
}

var _ async.Worker = &LogWriterWorker{}
var _ ReadingSink = &LogWriterWorker{}

// LogWriterWorker appends readings to the log from a single goroutine, in
// the order they were submitted. Submit only blocks when the queue is full.
type LogWriterWorker struct {
	log   ReadingLog
	queue chan domain.Reading
}

func (w *LogWriterWorker) Submit(ctx context.Context, reading domain.Reading) error {
	select {
	case w.queue <- reading:
		return nil
	default:
	}

	slog.Warn("log writer queue full, waiting", slog.Int("capacity", cap(w.queue)))
	select {
	case w.queue <- reading:
		return nil
	case <-ctx.Done():
		readingsPersistFailures.Inc()
		return ctx.Err()
	}
}

func (w *LogWriterWorker) Run(ctx context.Context, done func()) {
	defer done()
	slog.Info("log writer started")

	for {
		select {
		case <-ctx.Done():
			w.drain()
			slog.Info("log writer stopped")
			return
		case reading := <-w.queue:
			w.append(context.Background(), reading)
		}
	}
}

func (w *LogWriterWorker) drain() {
	for {
		select {
		case reading := <-w.queue:
			w.append(context.Background(), reading)
		default:
			return
		}
	}
}

func (w *LogWriterWorker) append(ctx context.Context, reading domain.Reading) {
	if err := w.log.Append(ctx, reading); err != nil {
		readingsPersistFailures.Inc()
		slog.Error("appending reading to log",
			slog.Time("timestamp", reading.Timestamp),
			slog.Any("error", err))
	}
}

func (w *LogWriterWorker) Shutdown() {
	w.drain()
}

func NewSynchronousLogWriter(log ReadingLog) *SynchronousLogWriter {
	return &SynchronousLogWriter{log: log}
}

var _ ReadingSink = &SynchronousLogWriter{}

// SynchronousLogWriter appends on the caller's goroutine.
type SynchronousLogWriter struct {
	log ReadingLog
}

func (w *SynchronousLogWriter) Submit(ctx context.Context, reading domain.Reading) error {
	if err := w.log.Append(ctx, reading); err != nil {
		readingsPersistFailures.Inc()
		slog.Error("appending reading to log",
			slog.Time("timestamp", reading.Timestamp),
			slog.Any("error", err))
	}
	return nil
}
