package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

type PayloadFormat string

const (
	PayloadFormatJSON    PayloadFormat = "json"
	PayloadFormatMsgpack PayloadFormat = "msgpack"
)

var (
	ErrMalformedPayload         = errors.New("malformed payload")
	ErrUnsupportedPayloadFormat = errors.New("unsupported payload format")
)

// Accepted key names, in lookup order.
var (
	temperatureKeys = []string{"temperature", "temp"}
	humidityKeys    = []string{"humidity", "humi"}
	lightStatusKeys = []string{"light_status", "light"}
)

// SensorPayload is the decoded body of a sensor message. Missing fields are
// left at their zero value.
type SensorPayload struct {
	Temperature float64
	Humidity    float64
	LightStatus string
}

func ParsePayloadFormat(value string) (PayloadFormat, error) {
	switch PayloadFormat(strings.ToLower(strings.TrimSpace(value))) {
	case "", PayloadFormatJSON:
		return PayloadFormatJSON, nil
	case PayloadFormatMsgpack:
		return PayloadFormatMsgpack, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPayloadFormat, value)
	}
}

func DecodeSensorPayload(format PayloadFormat, payload []byte) (SensorPayload, error) {
	var fields map[string]any
	var err error

	switch format {
	case PayloadFormatJSON:
		err = json.Unmarshal(payload, &fields)
	case PayloadFormatMsgpack:
		err = msgpack.Unmarshal(payload, &fields)
	default:
		return SensorPayload{}, fmt.Errorf("%w: %s", ErrUnsupportedPayloadFormat, format)
	}

	if err != nil {
		return SensorPayload{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if fields == nil {
		return SensorPayload{}, fmt.Errorf("%w: payload is not an object", ErrMalformedPayload)
	}

	return SensorPayload{
		Temperature: lookupFloat(fields, temperatureKeys),
		Humidity:    lookupFloat(fields, humidityKeys),
		LightStatus: lookupString(fields, lightStatusKeys),
	}, nil
}

func lookupFloat(fields map[string]any, keys []string) float64 {
	for _, key := range keys {
		if value, ok := toFloat64(fields[key]); ok {
			return value
		}
	}
	return 0
}

func lookupString(fields map[string]any, keys []string) string {
	for _, key := range keys {
		switch value := fields[key].(type) {
		case nil:
			continue
		case string:
			if value != "" {
				return value
			}
		default:
			return fmt.Sprintf("%v", value)
		}
	}
	return ""
}

// toFloat64 rejects NaN and infinities; they cannot be rendered as JSON.
func toFloat64(value any) (float64, bool) {
	f, ok := anyToFloat64(value)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func anyToFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
