package domain

import (
	"fmt"
	"time"
)

const (
	// HistoryCapacity is the number of readings kept in memory.
	HistoryCapacity = 100

	LightStatusUnknown = "unknown"
)

// Reading is a single sensor observation. Timestamp is the receipt time on
// the server, not the time reported by the device.
type Reading struct {
	Timestamp   time.Time
	Temperature float64
	Humidity    float64
	LightStatus string
}

func NewReading(timestamp time.Time, temperature, humidity float64, lightStatus string) Reading {
	if lightStatus == "" {
		lightStatus = LightStatusUnknown
	}

	return Reading{
		Timestamp:   timestamp,
		Temperature: temperature,
		Humidity:    humidity,
		LightStatus: lightStatus,
	}
}

// PlaceholderReading is what Latest holds before the first reading arrives.
func PlaceholderReading() Reading {
	return Reading{LightStatus: LightStatusUnknown}
}

func (r Reading) IsPlaceholder() bool {
	return r.Timestamp.IsZero()
}

func (r Reading) String() string {
	return fmt.Sprintf("Timestamp: %s, Temperature: %.1f°C, Humidity: %.1f%%, Light: %s",
		r.Timestamp.Format(time.RFC3339),
		r.Temperature,
		r.Humidity,
		r.LightStatus)
}
