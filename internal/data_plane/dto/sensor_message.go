package dto

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// SensorMessage is what a device publishes. Only the first three fields are
// read by the dashboard; the rest are device metadata.
type SensorMessage struct {
	Temperature float64 `json:"temperature" msgpack:"temperature"`
	Humidity    float64 `json:"humidity" msgpack:"humidity"`
	LightStatus string  `json:"light_status" msgpack:"light_status"`
	Timestamp   string  `json:"timestamp,omitempty" msgpack:"timestamp,omitempty"`
	Device      string  `json:"device,omitempty" msgpack:"device,omitempty"`
	MessageID   int     `json:"message_id,omitempty" msgpack:"message_id,omitempty"`
}

func EncodeSensorMessage(format PayloadFormat, msg SensorMessage) ([]byte, error) {
	switch format {
	case PayloadFormatJSON:
		return json.Marshal(msg)
	case PayloadFormatMsgpack:
		return msgpack.Marshal(msg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPayloadFormat, format)
	}
}
