package internal

import (
	"time"

	"sensor-dashboard/internal/dashboard/domain"
)

type Reading struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Timestamp   time.Time `gorm:"not null"`
	LightStatus string
	Temperature float64
	Humidity    float64
}

func (Reading) TableName() string {
	return "readings"
}

func FromReading(value domain.Reading) Reading {
	return Reading{
		Timestamp:   value.Timestamp,
		LightStatus: value.LightStatus,
		Temperature: value.Temperature,
		Humidity:    value.Humidity,
	}
}

func (r Reading) ToDomain() domain.Reading {
	return domain.NewReading(r.Timestamp, r.Temperature, r.Humidity, r.LightStatus)
}
