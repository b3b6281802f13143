package steps

import (
	"encoding/json"
	"time"
)

func (fc *FeatureContext) aViewerIsConnectedToTheLiveFeed() error {
	conn, err := fc.dashboard.ConnectViewer()
	if err != nil {
		return err
	}
	fc.viewer = conn

	fc.require.Eventually(func() bool {
		return fc.dashboard.Viewers() == 1
	}, 2*time.Second, 10*time.Millisecond)
	return nil
}

func (fc *FeatureContext) theViewerShouldReceiveAnEventWithTemperature(event string, temperature float64) error {
	fc.viewer.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := fc.viewer.ReadMessage()
	fc.require.NoError(err)

	var frame struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	fc.require.NoError(json.Unmarshal(data, &frame))
	fc.require.Equal(event, frame.Event)
	fc.require.Equal(temperature, frame.Data["temperature"])
	return nil
}
