package configs

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/mtorrado/campusguard/internal/infrastructure/env"
)

type Config struct {
	HTTP          HTTPConfig          `koanf:"http"`
	RateLimiter   RateLimiterConfig   `koanf:"rateLimiter"`
	Realtime      RealtimeConfig      `koanf:"realtime"`
	Logger        LoggerConfig        `koanf:"logger"`
	Tracing       TracingConfig       `koanf:"tracing"`
	AMQP          AMQPConfig          `koanf:"amqp"`
	CameraStore   StoreConfig         `koanf:"camera_store"`
	IncidentStore StoreConfig         `koanf:"incident_store"`
}

type HTTPConfig struct {
	Host         string        `koanf:"host"`
	Port         uint16        `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int           `koanf:"requestsPerTimeFrame"`
	TimeFrame            time.Duration `koanf:"timeFrame"`
}

// RealtimeConfig tunes the notification core. Heartbeat timeout bounds how
// long a silent connection stays registered; idle timeout bounds how long a
// stream survives without frames.
type RealtimeConfig struct {
	QueueDepth          int           `koanf:"queue_depth"`
	HeartbeatInterval   time.Duration `koanf:"heartbeat_interval"`
	HeartbeatTimeout    time.Duration `koanf:"heartbeat_timeout"`
	StreamIdleTimeout   time.Duration `koanf:"stream_idle_timeout"`
	ViewerCountInterval time.Duration `koanf:"viewer_count_interval"`
}

type LoggerConfig struct {
	Logger   string `koanf:"logger"`
	Level    string `koanf:"level"`
	Encoding string `koanf:"encoding"`
	FilePath string `koanf:"file_path"`
}

type TracingConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Exporter string `koanf:"exporter"`
	Endpoint string `koanf:"endpoint"`
}

type AMQPConfig struct {
	URL string `koanf:"url"`
}

type StoreConfig struct {
	Capacity   uint          `koanf:"capacity"`
	IdleExpiry time.Duration `koanf:"idle_expiry"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 3001)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)

	setDefault(k, "rateLimiter.requestsPerTimeFrame", 100)
	setDefault(k, "rateLimiter.timeFrame", 15*time.Minute)

	setDefault(k, "realtime.queue_depth", 64)
	setDefault(k, "realtime.heartbeat_interval", 10*time.Second)
	setDefault(k, "realtime.heartbeat_timeout", 25*time.Second)
	setDefault(k, "realtime.stream_idle_timeout", 10*time.Second)
	setDefault(k, "realtime.viewer_count_interval", 5*time.Second)

	setDefault(k, "logger.logger", "zap")
	setDefault(k, "logger.level", "info")
	setDefault(k, "logger.encoding", "json")
	setDefault(k, "logger.file_path", "")

	setDefault(k, "tracing.enabled", false)
	setDefault(k, "tracing.exporter", "otlp")
	setDefault(k, "tracing.endpoint", "http://jaeger:4318")

	setDefault(k, "camera_store.capacity", 200)
	setDefault(k, "camera_store.idle_expiry", 24*time.Hour)
	setDefault(k, "incident_store.capacity", 1000)
	setDefault(k, "incident_store.idle_expiry", 24*time.Hour)
}

func applyEnvOverrides(k *koanf.Koanf) {
	if host := env.GetString("HTTP_HOST", ""); host != "" {
		k.Set("http.host", host)
	}
	if port := env.GetInt("HTTP_PORT", 0); port > 0 {
		k.Set("http.port", port)
	}

	if depth := env.GetInt("REALTIME_QUEUE_DEPTH", 0); depth > 0 {
		k.Set("realtime.queue_depth", depth)
	}
	if timeout := env.GetInt("REALTIME_HEARTBEAT_TIMEOUT_SECONDS", 0); timeout > 0 {
		k.Set("realtime.heartbeat_timeout", time.Duration(timeout)*time.Second)
	}
	if timeout := env.GetInt("REALTIME_STREAM_IDLE_TIMEOUT_SECONDS", 0); timeout > 0 {
		k.Set("realtime.stream_idle_timeout", time.Duration(timeout)*time.Second)
	}

	if logger := env.GetString("LOGGER_LOGGER", ""); logger != "" {
		k.Set("logger.logger", logger)
	}
	if level := env.GetString("LOGGER_LEVEL", ""); level != "" {
		k.Set("logger.level", level)
	}
	if path := env.GetString("LOGGER_FILE_PATH", ""); path != "" {
		k.Set("logger.file_path", path)
	}

	if env.GetBool("TRACING_ENABLED", false) {
		k.Set("tracing.enabled", true)
	}
	if exporter := env.GetString("TRACING_EXPORTER", ""); exporter != "" {
		k.Set("tracing.exporter", exporter)
	}
	if endpoint := env.GetString("TRACING_ENDPOINT", ""); endpoint != "" {
		k.Set("tracing.endpoint", endpoint)
	}

	if url := env.GetString("AMQP_URL", ""); url != "" {
		k.Set("amqp.url", url)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
