package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"sensor-dashboard/cmd/config"
	"sensor-dashboard/cmd/dashboard/wire"
	"sensor-dashboard/internal/infra/async"
	"sensor-dashboard/internal/infra/httpserver"
	"sensor-dashboard/internal/infra/node"

	"github.com/spf13/pflag"
)

const _shutdownTimeout = 10 * time.Second

var (
	logLevelMapping = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
)

func main() {
	config.RegisterFlags(pflag.CommandLine)
	pflag.Parse()
	if err := config.BindFlags(pflag.CommandLine); err != nil {
		panic(err)
	}
	config := config.LoadConfig()

	level := logLevelMapping[config.General.LogLevel]
	baseHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true, Level: level, ReplaceAttr: slogReplaceAttr})
	handler := baseHandler.WithAttrs([]slog.Attr{slog.String("version", node.Version)})
	slog.SetDefault(slog.New(handler))
	slog.Info("🚀 sensor dashboard is initializing")
	slog.Debug("config loaded", "data", config)

	shutdownOtel := func() error { return nil }
	if config.Otel.Enabled {
		shutdownOtel = startOTel(config.Otel.Endpoint)
	}

	internalBroker := async.NewLocalBroker()
	dashboard := handleWireInjector(wire.InitializeDashboard(internalBroker)).(*wire.Dashboard)

	slog.Info("sensor dashboard configuration",
		slog.String("broker", config.MQTTClient.Broker),
		slog.String("topic", config.MQTTClient.Topic),
		slog.String("storage", config.Storage.Driver),
		slog.String("log_path", config.Storage.CSV.Path),
		slog.String("address", config.HTTP.Address),
	)

	appCtx, cancelFn := context.WithCancel(context.Background())

	if err := dashboard.Store.SeedFromLog(appCtx); err != nil {
		slog.Warn("starting with empty history", slog.Any("error", err))
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go dashboard.LogWriter.Run(appCtx, wg.Done)
	wg.Add(1)
	go dashboard.Ingestion.Run(appCtx, wg.Done)

	httpServer := httpserver.NewServer(
		httpserver.ServerOptions{
			Address:        config.HTTP.Address,
			AllowedOrigins: config.HTTP.AllowedOrigins,
		},
		dashboard.Readings,
		dashboard.Live,
		dashboard.Page,
	)
	go func() {
		if err := httpServer.Run(); err != nil {
			slog.Error("http server stopped", slog.Any("error", err))
			cancelFn()
		}
	}()

	// The dashboard serves cached state while the broker is unreachable.
	go func() {
		if err := dashboard.MQTTClient.Connect(appCtx); err != nil {
			slog.Warn("giving up connecting to MQTT broker", slog.Any("error", err))
		}
	}()

	signalChannel := make(chan os.Signal, 2)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)

	select {
	case <-signalChannel:
	case <-appCtx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), _shutdownTimeout)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown", slog.Any("error", err))
	}

	dashboard.MQTTClient.Disconnect()
	cancelFn()
	wg.Wait()
	if closer, ok := dashboard.Log.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			slog.Error("closing reading log", slog.Any("error", err))
		}
	}
	dashboard.Live.Shutdown()
	internalBroker.Stop()

	if err := shutdownOtel(); err != nil {
		slog.Error("otel shutdown", slog.Any("error", err))
	}

	slog.Info("good bye!!!")
}

func slogReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.SourceKey {
		source := a.Value.Any().(*slog.Source)
		source.File = filepath.Base(source.File)
		return slog.Any(a.Key, source)
	}
	return a
}

func handleWireInjector(value any, err error) any {
	if err != nil {
		panic(err)
	}

	return value
}
