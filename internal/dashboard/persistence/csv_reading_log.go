package persistence

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"sensor-dashboard/internal/dashboard/domain"
	"sensor-dashboard/internal/dashboard/usecases"
)

const (
	TimestampLayout = "2006-01-02 15:04:05"

	_byteOrderMark = "\ufeff"
	_columns       = 4
)

var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrInvalidHeader   = errors.New("csv header must have exactly four columns")
)

// DefaultCSVHeader follows the column order timestamp, light_status,
// temperature, humidity.
var DefaultCSVHeader = []string{"timestamp", "light_status", "temperature", "humidity"}

func NewCSVReadingLog(path string, header []string) (*CSVReadingLog, error) {
	if len(header) == 0 {
		header = DefaultCSVHeader
	}
	if len(header) != _columns {
		return nil, ErrInvalidHeader
	}

	return &CSVReadingLog{
		path:   path,
		header: header,
	}, nil
}

var _ usecases.ReadingLog = (*CSVReadingLog)(nil)

// CSVReadingLog is an append-only UTF-8 file with one reading per row. The
// header is written once, when the file is created; rows are read by
// column position so a localized header is accepted too.
type CSVReadingLog struct {
	path   string
	header []string
	mu     sync.Mutex
}

func (l *CSVReadingLog) Append(_ context.Context, reading domain.Reading) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", l.path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", l.path, err)
	}

	writer := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := writer.Write(l.header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	if err := writer.Write(toRecord(reading)); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", l.path, err)
	}

	return nil
}

func (l *CSVReadingLog) Tail(_ context.Context, n int) ([]domain.Reading, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.Reading{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", l.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	window := newTailWindow(n)
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			slog.Warn("skipping unreadable log row", slog.Int("line", line), slog.Any("error", err))
			continue
		}

		if line == 1 {
			record[0] = strings.TrimPrefix(record[0], _byteOrderMark)
			if isHeader(record) {
				continue
			}
		}

		reading, err := fromRecord(record)
		if err != nil {
			slog.Warn("skipping malformed log row", slog.Int("line", line), slog.Any("error", err))
			continue
		}

		window.push(reading)
	}

	return window.ordered(), nil
}

// tailWindow keeps the last n readings; start is the oldest slot once full.
type tailWindow struct {
	items []domain.Reading
	start int
	size  int
}

func newTailWindow(n int) *tailWindow {
	return &tailWindow{items: make([]domain.Reading, max(n, 0))}
}

func (w *tailWindow) push(reading domain.Reading) {
	if len(w.items) == 0 {
		return
	}
	if w.size < len(w.items) {
		w.items[(w.start+w.size)%len(w.items)] = reading
		w.size++
		return
	}
	w.items[w.start] = reading
	w.start = (w.start + 1) % len(w.items)
}

func (w *tailWindow) ordered() []domain.Reading {
	out := make([]domain.Reading, 0, w.size)
	for i := 0; i < w.size; i++ {
		out = append(out, w.items[(w.start+i)%len(w.items)])
	}
	return out
}

func toRecord(reading domain.Reading) []string {
	return []string{
		reading.Timestamp.Format(TimestampLayout),
		reading.LightStatus,
		strconv.FormatFloat(reading.Temperature, 'f', -1, 64),
		strconv.FormatFloat(reading.Humidity, 'f', -1, 64),
	}
}

func fromRecord(record []string) (domain.Reading, error) {
	if len(record) != _columns {
		return domain.Reading{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedRecord, _columns, len(record))
	}

	timestamp, err := parseTimestamp(record[0])
	if err != nil {
		return domain.Reading{}, fmt.Errorf("%w: timestamp %q", ErrMalformedRecord, record[0])
	}

	temperature, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("%w: temperature %q", ErrMalformedRecord, record[2])
	}

	humidity, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("%w: humidity %q", ErrMalformedRecord, record[3])
	}

	return domain.NewReading(timestamp, temperature, humidity, record[1]), nil
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation(TimestampLayout, value, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func isHeader(record []string) bool {
	_, err := parseTimestamp(record[0])
	return err != nil
}
