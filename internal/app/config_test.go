package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/minddump.sqlite", cfg.Database.Path)
	require.False(t, cfg.Database.SeedDemo)
	require.False(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "127.0.0.1:6379", cfg.Cache.Redis.Address)
	require.Equal(t, 5*time.Second, cfg.Cache.Redis.Timeout)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.True(t, cfg.Monitoring.Health.Enabled)
	require.Equal(t, 90, cfg.Retention.Days)
	require.Equal(t, "@daily", cfg.Retention.Schedule)
	require.True(t, cfg.RateLimit.Enabled)
	require.Equal(t, 100, cfg.RateLimit.Requests)
	require.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("MINDDUMP_SERVER_PORT", "9100")
	t.Setenv("MINDDUMP_SERVER_LOG_LEVEL", "debug")
	t.Setenv("MINDDUMP_RETENTION_DAYS", "14")
	t.Setenv("MINDDUMP_RATE_LIMIT_WINDOW", "30s")
	t.Setenv("MINDDUMP_CACHE_REDIS_ENABLED", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, 14, cfg.Retention.Days)
	require.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	require.True(t, cfg.Cache.Redis.Enabled)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  port: 9200
database:
  driver: postgres
  postgres:
    host: db.internal
    port: 5433
    database: minddump
    username: audit
retention:
  days: 7
  schedule: "@hourly"
rate_limit:
  enabled: false
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.Equal(t, 9200, cfg.Server.Port)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)
	require.Equal(t, "audit", cfg.Database.Postgres.Username)
	require.Equal(t, 7, cfg.Retention.Days)
	require.Equal(t, "@hourly", cfg.Retention.Schedule)
	require.False(t, cfg.RateLimit.Enabled)

	// Keys the file does not set keep their defaults.
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, 100, cfg.RateLimit.Requests)
}

func TestRedisStoreConfigConversion(t *testing.T) {
	cacheCfg := CacheConfig{Redis: RedisCacheConfig{
		Address:  "redis.internal:6380",
		Username: "svc",
		Password: "hunter2",
		DB:       3,
		TLS:      true,
		Timeout:  2 * time.Second,
	}}

	storeCfg := cacheCfg.RedisStoreConfig()
	require.Equal(t, "redis.internal:6380", storeCfg.Address)
	require.Equal(t, "svc", storeCfg.Username)
	require.Equal(t, "hunter2", storeCfg.Password)
	require.Equal(t, 3, storeCfg.DB)
	require.True(t, storeCfg.TLS)
	require.Equal(t, 2*time.Second, storeCfg.Timeout)
}
