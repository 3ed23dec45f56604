package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsecho/kafka"
	"opsecho/store"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowOrigins)
	assert.Equal(t, SourceMock, cfg.DataSource.Mode)
	assert.Equal(t, int64(42), cfg.DataSource.Seed)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, kafka.DefaultTopic, cfg.Kafka.Topic)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 24*time.Hour, cfg.Playback.Window)
	assert.Equal(t, 100*time.Millisecond, cfg.Playback.Tick)
	assert.Equal(t, store.DefaultStageDelays, cfg.Loader)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("DATA_SOURCE", SourceRemote)
	t.Setenv("REMOTE_URL", "http://upstream:8080")
	t.Setenv("DATA_SEED", "7")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_ENABLED", "1")
	t.Setenv("LOAD_DELAY_CHAT", "0")
	t.Setenv("PLAYBACK_TICK", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.AllowOrigins)
	assert.Equal(t, SourceRemote, cfg.DataSource.Mode)
	assert.Equal(t, "http://upstream:8080", cfg.DataSource.RemoteURL)
	assert.Equal(t, int64(7), cfg.DataSource.Seed)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, time.Duration(0), cfg.Loader.Chat)
	assert.Equal(t, 250*time.Millisecond, cfg.Playback.Tick)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad port", map[string]string{"DB_PORT": "x"}, "invalid DB_PORT"},
		{"bad bool", map[string]string{"KAFKA_ENABLED": "maybe"}, "invalid KAFKA_ENABLED"},
		{"bad duration", map[string]string{"PLAYBACK_WINDOW": "soon"}, "invalid PLAYBACK_WINDOW"},
		{"unknown source", map[string]string{"DATA_SOURCE": "csv"}, "invalid DATA_SOURCE"},
		{"remote without url", map[string]string{"DATA_SOURCE": "remote"}, "REMOTE_URL is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetDatabaseURL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "n", SSLMode: "disable"}}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable", cfg.GetDatabaseURL())
}
