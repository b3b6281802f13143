package internal

import (
	"sensor-dashboard/internal/dashboard/domain"
)

const TimestampLayout = "2006-01-02 15:04:05"

type ReadingResponse struct {
	Timestamp   *string `json:"timestamp"`
	LightStatus string  `json:"light_status"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

type LatestResponse struct {
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	LightStatus   string  `json:"light_status"`
	Timestamp     *string `json:"timestamp"`
	MQTTConnected bool    `json:"mqtt_connected"`
	TotalRecords  int     `json:"total_records"`
}

type LiveEvent struct {
	Event string          `json:"event"`
	Data  ReadingResponse `json:"data"`
}

// FormatTimestamp renders a zero timestamp as null.
func FormatTimestamp(reading domain.Reading) *string {
	if reading.IsPlaceholder() {
		return nil
	}
	formatted := reading.Timestamp.Format(TimestampLayout)
	return &formatted
}

func ToReadingResponse(reading domain.Reading) ReadingResponse {
	return ReadingResponse{
		Timestamp:   FormatTimestamp(reading),
		LightStatus: reading.LightStatus,
		Temperature: reading.Temperature,
		Humidity:    reading.Humidity,
	}
}

func ToReadingListResponse(readings []domain.Reading) []ReadingResponse {
	out := make([]ReadingResponse, len(readings))
	for i, reading := range readings {
		out[i] = ToReadingResponse(reading)
	}
	return out
}
