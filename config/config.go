package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	VehicleIDS VehicleIDSConfig `yaml:"vehicleids"`
}

// VehicleIDSConfig is the project configuration.
type VehicleIDSConfig struct {
	Server       ServerConfig       `yaml:"server"`
	Simulation   SimulationConfig   `yaml:"simulation"`
	TelemetryLog TelemetryLogConfig `yaml:"telemetry_log"`
	Sink         SinkConfig         `yaml:"sink"`
	HTTPSink     HTTPSinkConfig     `yaml:"http_sink"`
	Redis        RedisConfig        `yaml:"redis"`
	Rules        RulesConfig        `yaml:"rules"`
	Analytics    AnalyticsConfig    `yaml:"analytics"`
	Auth         AuthConfig         `yaml:"auth"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	WebSocket    WebSocketConfig    `yaml:"websocket"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	StaticDir       string        `yaml:"static_dir"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AccessLog       bool          `yaml:"access_log"`
}

// SimulationConfig controls the random source. Seed 0 means time-seeded.
type SimulationConfig struct {
	Seed uint64 `yaml:"seed"`
}

// TelemetryLogConfig controls the append-only JSONL snapshot log.
type TelemetryLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// SinkConfig controls the snapshot dispatcher.
type SinkConfig struct {
	QueueSize     int           `yaml:"queue_size"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// HTTPSinkConfig forwards snapshot batches to a remote collector.
type HTTPSinkConfig struct {
	Enabled bool              `yaml:"enabled"`
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
	Gzip    bool              `yaml:"gzip"`
}

// RedisConfig controls the snapshot mirror and the operator command queue.
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	KeyPrefix    string        `yaml:"key_prefix"`
	MaxSnapshots int64         `yaml:"max_snapshots"`
	Commands     bool          `yaml:"commands"`
	CommandKey   string        `yaml:"command_key"`
	BlockTimeout time.Duration `yaml:"block_timeout"`
}

// RulesConfig controls custom Sigma signal rules.
type RulesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// AnalyticsConfig bounds the analytics tables.
type AnalyticsConfig struct {
	TimelineSize int `yaml:"timeline_size"`
	TopN         int `yaml:"top_n"`
	MaxKeys      int `yaml:"max_keys"`
}

// AuthConfig enables bearer tokens on operator commands when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// RateLimitConfig sets the per-client API budget. RPS 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// WebSocketConfig controls the live snapshot stream on /ws.
type WebSocketConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// Default returns the configuration used when no file is present.
// Keys omitted from a config file keep these values.
func Default() *Config {
	return &Config{VehicleIDS: VehicleIDSConfig{
		Server: ServerConfig{
			Addr:            ":5000",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		TelemetryLog: TelemetryLogConfig{Enabled: true, Path: "logs/telemetry.log"},
		Sink: SinkConfig{
			QueueSize:     256,
			BatchSize:     32,
			FlushInterval: time.Second,
		},
		Redis: RedisConfig{
			Addr:         "127.0.0.1:6379",
			KeyPrefix:    "vehicleids",
			MaxSnapshots: 200,
			CommandKey:   "vehicleids:commands",
			BlockTimeout: 5 * time.Second,
		},
		Analytics: AnalyticsConfig{TimelineSize: 200, TopN: 5, MaxKeys: 10000},
		Auth:      AuthConfig{TokenTTL: 24 * time.Hour},
		Metrics:   MetricsConfig{Enabled: true, Path: "/metrics"},
		WebSocket: WebSocketConfig{Enabled: true},
		Logging:   LoggingConfig{Enabled: true, Level: "info", Console: true},
	}}
}

// LoadConfig reads and parses a YAML config file on top of Default.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
