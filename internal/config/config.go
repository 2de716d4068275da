package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the relay service configuration
type Config struct {
	// Kafka configuration
	Kafka KafkaConfig `yaml:"kafka"`

	// Relay configuration
	Relay RelayConfig `yaml:"relay"`

	// Upstream source configuration
	Source SourceConfig `yaml:"source"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`
}

// KafkaConfig contains Kafka connection settings
type KafkaConfig struct {
	Brokers string `yaml:"brokers" env:"KAFKA_BROKERS" default:"localhost:29092"`

	// Producer configuration
	Producer ProducerConfig `yaml:"producer"`
}

// ProducerConfig contains Kafka producer settings
type ProducerConfig struct {
	Acks              string        `yaml:"acks" env:"KAFKA_PRODUCER_ACKS" default:"all"`
	LingerMs          int           `yaml:"linger_ms" env:"KAFKA_PRODUCER_LINGER_MS" default:"0"`
	CompressionType   string        `yaml:"compression_type" env:"KAFKA_PRODUCER_COMPRESSION_TYPE" default:"none"`
	EnableIdempotence bool          `yaml:"enable_idempotence" env:"KAFKA_PRODUCER_ENABLE_IDEMPOTENCE" default:"true"`
	SendTimeout       time.Duration `yaml:"send_timeout" env:"KAFKA_PRODUCER_SEND_TIMEOUT" default:"10s"`
	CloseTimeout      time.Duration `yaml:"close_timeout" env:"KAFKA_PRODUCER_CLOSE_TIMEOUT" default:"30s"`
}

// RelayConfig contains relay loop settings
type RelayConfig struct {
	// Source topics to subscribe to; empty means all default topics
	Topics []string `yaml:"topics" env:"RELAY_TOPICS"`

	// Capacity of the batch channel between upstream handler and relay loop
	BatchBuffer int `yaml:"batch_buffer" env:"RELAY_BATCH_BUFFER" default:"64"`
}

// SourceConfig contains upstream source settings
type SourceConfig struct {
	// Source mode; "replay" reads a recorded session capture. A live
	// SignalR client plugs in through the same interface from outside.
	Mode string `yaml:"mode" env:"SOURCE_MODE" default:"replay"`

	// Capture file to replay (replay mode)
	ReplayFile string `yaml:"replay_file" env:"REPLAY_FILE" default:"./sample_data/telemetry.json"`

	// Pacing between replayed lines; 0 replays at full speed
	ReplayInterval time.Duration `yaml:"replay_interval" env:"REPLAY_INTERVAL" default:"0s"`

	// Optional tee: append accepted batches to this capture file
	CaptureFile string `yaml:"capture_file" env:"CAPTURE_FILE"`
}

// LoggingConfig contains optional rotating log file settings; empty file
// means logs stay on stderr
type LoggingConfig struct {
	File       string `yaml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB" default:"50"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS" default:"3"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS" default:"14"`
	Compress   bool   `yaml:"compress" env:"LOG_COMPRESS" default:"false"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Kafka.Brokers == "" {
		return fmt.Errorf("kafka brokers are required")
	}
	if c.Kafka.Producer.SendTimeout <= 0 {
		return fmt.Errorf("send_timeout must be positive")
	}
	if c.Kafka.Producer.CloseTimeout <= 0 {
		return fmt.Errorf("close_timeout must be positive")
	}
	if c.Relay.BatchBuffer <= 0 {
		return fmt.Errorf("batch_buffer must be positive")
	}

	switch c.Source.Mode {
	case "replay":
		if c.Source.ReplayFile == "" {
			return fmt.Errorf("replay mode requires replay_file")
		}
	default:
		return fmt.Errorf("invalid source mode %q, must be 'replay'", c.Source.Mode)
	}

	if c.Source.ReplayInterval < 0 {
		return fmt.Errorf("replay_interval cannot be negative")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables with defaults
func LoadFromEnv() (*Config, error) {
	cfg := Config{
		Kafka: KafkaConfig{
			Brokers: getEnv("KAFKA_BROKERS", "localhost:29092"),
			Producer: ProducerConfig{
				Acks:              getEnv("KAFKA_PRODUCER_ACKS", "all"),
				LingerMs:          parseIntEnv("KAFKA_PRODUCER_LINGER_MS", 0),
				CompressionType:   getEnv("KAFKA_PRODUCER_COMPRESSION_TYPE", "none"),
				EnableIdempotence: parseBoolEnv("KAFKA_PRODUCER_ENABLE_IDEMPOTENCE", true),
				SendTimeout:       parseDurationEnv("KAFKA_PRODUCER_SEND_TIMEOUT", 10*time.Second),
				CloseTimeout:      parseDurationEnv("KAFKA_PRODUCER_CLOSE_TIMEOUT", 30*time.Second),
			},
		},
		Relay: RelayConfig{
			Topics:      parseStringSliceEnv("RELAY_TOPICS"),
			BatchBuffer: parseIntEnv("RELAY_BATCH_BUFFER", 64),
		},
		Source: SourceConfig{
			Mode:           getEnv("SOURCE_MODE", "replay"),
			ReplayFile:     getEnv("REPLAY_FILE", "./sample_data/telemetry.json"),
			ReplayInterval: parseDurationEnv("REPLAY_INTERVAL", 0),
			CaptureFile:    os.Getenv("CAPTURE_FILE"),
		},
		Logging: LoggingConfig{
			File:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  parseIntEnv("LOG_MAX_SIZE_MB", 50),
			MaxBackups: parseIntEnv("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: parseIntEnv("LOG_MAX_AGE_DAYS", 14),
			Compress:   parseBoolEnv("LOG_COMPRESS", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Helper functions for parsing environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseStringSliceEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := strconv.ParseBool(value); err == nil {
		return parsed
	}
	return defaultValue
}

func parseDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	return defaultValue
}

func applyDefaults(cfg *Config) {
	if cfg.Kafka.Brokers == "" {
		cfg.Kafka.Brokers = "localhost:29092"
	}
	if cfg.Kafka.Producer.Acks == "" {
		cfg.Kafka.Producer.Acks = "all"
	}
	if cfg.Kafka.Producer.CompressionType == "" {
		cfg.Kafka.Producer.CompressionType = "none"
	}
	if cfg.Kafka.Producer.SendTimeout == 0 {
		cfg.Kafka.Producer.SendTimeout = 10 * time.Second
	}
	if cfg.Kafka.Producer.CloseTimeout == 0 {
		cfg.Kafka.Producer.CloseTimeout = 30 * time.Second
	}
	if cfg.Relay.BatchBuffer == 0 {
		cfg.Relay.BatchBuffer = 64
	}
	if cfg.Source.Mode == "" {
		cfg.Source.Mode = "replay"
	}
	if cfg.Source.ReplayFile == "" {
		cfg.Source.ReplayFile = "./sample_data/telemetry.json"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 50
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 3
	}
	if cfg.Logging.MaxAgeDays == 0 {
		cfg.Logging.MaxAgeDays = 14
	}
}
