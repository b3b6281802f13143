package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sensor-dashboard/internal/data_plane/dto"
	"sensor-dashboard/internal/infra/mqtt"
	"sensor-dashboard/internal/infra/node"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

const _connectTimeout = 30 * time.Second

func main() {
	var (
		broker   = pflag.String("broker", "tcp://localhost:1883", "MQTT broker URL")
		topic    = pflag.String("topic", "living_room/sensor", "topic to publish on")
		username = pflag.String("username", "", "MQTT username")
		password = pflag.String("password", "", "MQTT password")
		format   = pflag.String("format", "json", "payload format (json, msgpack)")
		device   = pflag.String("device", "test-device", "device name sent with every reading")
		count    = pflag.Int("count", 10, "number of readings to publish")
		interval = pflag.Duration("interval", 2*time.Second, "pause between readings")
	)
	pflag.Parse()

	slog.SetDefault(slog.New(charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "publisher",
		Level:           charmlog.DebugLevel,
	})))
	slog.Info("publisher starting", slog.String("broker", *broker), slog.String("topic", *topic))

	payloadFormat, err := dto.ParsePayloadFormat(*format)
	if err != nil {
		slog.Error("invalid payload format", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mqttClient := mqtt.NewSimpleClient(mqtt.SimpleClientOpts{
		Broker:   *broker,
		ClientID: node.ClientID("sensor-publisher"),
		Username: *username,
		Password: *password, //pragma: allowlist secret
	})

	connectCtx, cancelConnect := context.WithTimeout(ctx, _connectTimeout)
	defer cancelConnect()
	if err := mqttClient.Connect(connectCtx); err != nil {
		slog.Error("connecting to broker", slog.Any("error", err))
		os.Exit(1)
	}
	defer mqttClient.Disconnect()

	published := publish(ctx, mqttClient, *topic, payloadFormat, *device, *count, *interval)
	slog.Info("good bye!!!", slog.Int("published", published), slog.Int("requested", *count))
}

func publish(
	ctx context.Context,
	client *mqtt.SimpleClient,
	topic string,
	format dto.PayloadFormat,
	device string,
	count int,
	interval time.Duration,
) int {
	published := 0
	for i := 0; i < count; i++ {
		msg := randomReading(i, device)
		payload, err := dto.EncodeSensorMessage(format, msg)
		if err != nil {
			slog.Error("encoding reading", slog.Any("error", err))
			return published
		}

		if err := client.PublishRaw(topic, mqtt.QoSAtLeastOnce, payload); err != nil {
			slog.Error("publishing reading", slog.Int("message_id", msg.MessageID), slog.Any("error", err))
		} else {
			published++
			slog.Info(fmt.Sprintf("[%d/%d] published", i+1, count),
				slog.Float64("temperature", msg.Temperature),
				slog.Float64("humidity", msg.Humidity),
				slog.String("light_status", msg.LightStatus),
			)
		}

		if i == count-1 {
			break
		}
		select {
		case <-ctx.Done():
			slog.Warn("publisher interrupted")
			return published
		case <-time.After(interval):
		}
	}
	return published
}

// randomReading builds a reading in the 15-30°C, 40-70% range with the light
// alternating on and off.
func randomReading(i int, device string) dto.SensorMessage {
	lightStatus := "off"
	if i%2 == 0 {
		lightStatus = "on"
	}

	return dto.SensorMessage{
		Temperature: round2(15 + rand.Float64()*15),
		Humidity:    round2(40 + rand.Float64()*30),
		LightStatus: lightStatus,
		Timestamp:   time.Now().Format("2006-01-02T15:04:05"),
		Device:      device,
		MessageID:   i + 1,
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
