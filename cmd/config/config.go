package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "sensor_dashboard"

	_configFlag   = "config"
	_logLevelFlag = "log-level"
)

var loadConfigOnce sync.Once
var configInstance AppConfig

// RegisterFlags adds the command line flags that override configuration.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(_configFlag, "", "path to the configuration file")
	fs.String(_logLevelFlag, "", "log level (debug, info, warn, error)")
}

// BindFlags binds already registered flags to the global viper instance.
func BindFlags(fs *pflag.FlagSet) error {
	return bindFlags(viper.GetViper(), fs)
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	if err := v.BindPFlag(_configFlag, fs.Lookup(_configFlag)); err != nil {
		return fmt.Errorf("binding %s flag: %w", _configFlag, err)
	}
	if err := v.BindPFlag("general.log_level", fs.Lookup(_logLevelFlag)); err != nil {
		return fmt.Errorf("binding %s flag: %w", _logLevelFlag, err)
	}
	return nil
}

func LoadConfig() AppConfig {
	loadConfigOnce.Do(func() {
		config, err := Load(viper.GetViper())
		if err != nil {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
		configInstance = config
	})

	return configInstance
}

// Load reads configuration from the file, the environment and bound flags,
// in increasing order of precedence. A missing server.yaml is not an error.
func Load(v *viper.Viper) (AppConfig, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if file := v.GetString(_configFlag); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("server")
		v.AddConfigPath("config")
		v.AddConfigPath("/config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("reading config: %w", err)
		}
	}

	config := AppConfig{
		General: GeneralConfig{
			LogLevel: v.GetString("general.log_level"),
		},
		HTTP: HTTPConfig{
			Address:        v.GetString("http.address"),
			AllowedOrigins: v.GetStringSlice("http.allowed_origins"),
		},
		MQTTClient: MQTTClientConfig{
			Broker:               v.GetString("mqtt_client.broker"),
			ClientID:             v.GetString("mqtt_client.client_id"),
			Username:             v.GetString("mqtt_client.username"),
			Password:             v.GetString("mqtt_client.password"),
			Topic:                v.GetString("mqtt_client.topic"),
			PayloadFormat:        v.GetString("mqtt_client.payload_format"),
			InitialBackoff:       v.GetDuration("mqtt_client.initial_backoff"),
			MaxBackoff:           v.GetDuration("mqtt_client.max_backoff"),
			MaxReconnectInterval: v.GetDuration("mqtt_client.max_reconnect_interval"),
		},
		Storage: StorageConfig{
			Driver:    v.GetString("storage.driver"),
			DSN:       v.GetString("storage.dsn"),
			QueueSize: v.GetInt("storage.queue_size"),
			CSV: CSVConfig{
				Path:   v.GetString("storage.csv.path"),
				Header: v.GetStringSlice("storage.csv.header"),
			},
		},
		Otel: OtelConfig{
			Enabled:  v.GetBool("otel.enabled"),
			Endpoint: v.GetString("otel.endpoint"),
		},
	}

	if config.MQTTClient.Topic == "" {
		return AppConfig{}, errors.New("mqtt_client.topic must not be empty")
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("http.address", ":8080")
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("mqtt_client.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt_client.topic", "living_room/sensor")
	v.SetDefault("mqtt_client.payload_format", "json")
	v.SetDefault("mqtt_client.initial_backoff", time.Second)
	v.SetDefault("mqtt_client.max_backoff", 30*time.Second)
	v.SetDefault("mqtt_client.max_reconnect_interval", 30*time.Second)
	v.SetDefault("storage.driver", "csv")
	v.SetDefault("storage.csv.path", "sensor_data.csv")
	v.SetDefault("storage.queue_size", 256)
	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.endpoint", "localhost:4317")
}

type AppConfig struct {
	General    GeneralConfig
	HTTP       HTTPConfig
	MQTTClient MQTTClientConfig
	Storage    StorageConfig
	Otel       OtelConfig
}

type GeneralConfig struct {
	LogLevel string
}

type HTTPConfig struct {
	Address        string
	AllowedOrigins []string
}

type MQTTClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string

	PayloadFormat        string
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	MaxReconnectInterval time.Duration
}

type StorageConfig struct {
	Driver    string
	DSN       string
	QueueSize int
	CSV       CSVConfig
}

// CSVConfig.Header empty means the default column order.
type CSVConfig struct {
	Path   string
	Header []string
}

type OtelConfig struct {
	Enabled  bool
	Endpoint string
}
