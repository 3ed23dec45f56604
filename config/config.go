package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"opsecho/kafka"
	"opsecho/store"
)

// Data source modes
const (
	SourceMock     = "mock"
	SourcePostgres = "postgres"
	SourceRemote   = "remote"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	DataSource DataSourceConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Log        LogConfig
	Playback   PlaybackConfig
	Loader     store.StageDelays
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	AllowOrigins    []string
	ShutdownTimeout time.Duration
}

// DataSourceConfig selects where snapshots come from
type DataSourceConfig struct {
	Mode          string
	Seed          int64
	RemoteURL     string
	RemoteTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// RedisConfig holds the preferences store connection. Disabled means in-memory.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds Kafka connection configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	GroupID string
	Topic   string
}

// LogConfig selects the zap level and encoding
type LogConfig struct {
	Level  string
	Format string
}

// PlaybackConfig holds the timeline window and tick
type PlaybackConfig struct {
	Window time.Duration
	Tick   time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var errs []error
	intVar := func(key string, def int) int {
		v, err := getIntEnv(key, def)
		errs = append(errs, err)
		return v
	}
	boolVar := func(key string, def bool) bool {
		v, err := getBoolEnv(key, def)
		errs = append(errs, err)
		return v
	}
	durationVar := func(key string, def time.Duration) time.Duration {
		v, err := getDurationEnv(key, def)
		errs = append(errs, err)
		return v
	}

	seed, err := strconv.ParseInt(getEnvOrDefault("DATA_SEED", "42"), 10, 64)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid DATA_SEED: %w", err))
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			AllowOrigins:    splitList(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000")),
			ShutdownTimeout: durationVar("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		DataSource: DataSourceConfig{
			Mode:          getEnvOrDefault("DATA_SOURCE", SourceMock),
			Seed:          seed,
			RemoteURL:     os.Getenv("REMOTE_URL"),
			RemoteTimeout: durationVar("REMOTE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     intVar("DB_PORT", 5432),
			Name:     getEnvOrDefault("DB_NAME", "opsecho"),
			User:     getEnvOrDefault("DB_USER", "opsecho"),
			Password: getEnvOrDefault("DB_PASSWORD", "opsecho"),
			SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  boolVar("REDIS_ENABLED", false),
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       intVar("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled: boolVar("KAFKA_ENABLED", false),
			Brokers: splitList(getEnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
			GroupID: getEnvOrDefault("KAFKA_GROUP_ID", "opsecho-backend"),
			Topic:   getEnvOrDefault("KAFKA_TOPIC", kafka.DefaultTopic),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		Playback: PlaybackConfig{
			Window: durationVar("PLAYBACK_WINDOW", 24*time.Hour),
			Tick:   durationVar("PLAYBACK_TICK", 100*time.Millisecond),
		},
		Loader: store.StageDelays{
			Incidents: durationVar("LOAD_DELAY_INCIDENTS", store.DefaultStageDelays.Incidents),
			Machines:  durationVar("LOAD_DELAY_MACHINES", store.DefaultStageDelays.Machines),
			Humans:    durationVar("LOAD_DELAY_HUMANS", store.DefaultStageDelays.Humans),
			Telemetry: durationVar("LOAD_DELAY_TELEMETRY", store.DefaultStageDelays.Telemetry),
			Chat:      durationVar("LOAD_DELAY_CHAT", store.DefaultStageDelays.Chat),
		},
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	switch c.DataSource.Mode {
	case SourceMock, SourcePostgres:
	case SourceRemote:
		if c.DataSource.RemoteURL == "" {
			return errors.New("REMOTE_URL is required when DATA_SOURCE is remote")
		}
	default:
		return fmt.Errorf("invalid DATA_SOURCE %q: want mock, postgres or remote", c.DataSource.Mode)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if c.Playback.Window <= 0 || c.Playback.Tick <= 0 {
		return errors.New("PLAYBACK_WINDOW and PLAYBACK_TICK must be positive")
	}
	return nil
}

// GetDatabaseURL returns formatted database connection URL
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.Name, c.Database.SSLMode)
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// getDurationEnv accepts Go durations ("500ms") or plain milliseconds ("500")
func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
