package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.Equal(t, ":8000", cfg.HTTPAddr)
	require.Equal(t, "/api", cfg.APIPrefix)
	require.Equal(t, 60*24*time.Hour, cfg.JWT.TTL)
	require.Equal(t, 20, cfg.Pagination.DefaultLimit)
	require.False(t, cfg.Redis.Enable)
	require.NoError(t, cfg.Validate())
}

func TestLoadYAMLOverlay(t *testing.T) {
	p := writeFile(t, "config.yaml", `
env: dev
http_addr: ":9000"
api_prefix: "/v1/"
database:
  driver: SQLite
  sqlite:
    path: ":memory:"
  auto_migrate: false
  conn_max_lifetime: 5m
redis:
  enable: true
  addr: "redis:6379"
jwt:
  secret: "s3cret"
  ttl: 7d
cors:
  allowed_origins: ["https://app.example.com"]
limits:
  login_per_minute: 3
  window: 30s
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTPAddr)
	require.Equal(t, "/v1", cfg.APIPrefix)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.False(t, cfg.Database.AutoMigrate)
	require.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	require.True(t, cfg.Redis.Enable)
	require.Equal(t, "redis:6379", cfg.Redis.Addr)
	require.Equal(t, 7*24*time.Hour, cfg.JWT.TTL)
	require.Equal(t, []string{"https://app.example.com"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, 3, cfg.Limits.LoginPerMinute)
	require.Equal(t, 5, cfg.Limits.RegisterPerMinute)
	require.Equal(t, 30*time.Second, cfg.Limits.Window)
	require.Equal(t, "file::memory:?cache=shared&_pragma=foreign_keys(1)", cfg.Database.DSNMasked())
	require.NoError(t, cfg.Validate())
}

func TestLoadJSONAndErrors(t *testing.T) {
	p := writeFile(t, "config.json", `{"jwt":{"ttl":"2h"},"pagination":{"max_limit":50}}`)
	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, 2*time.Hour, cfg.JWT.TTL)
	require.Equal(t, 50, cfg.Pagination.MaxLimit)

	_, err = Load(writeFile(t, "bad.yaml", "jwt:\n  ttl: soon\n"))
	require.ErrorContains(t, err, "jwt.ttl")

	_, err = Load(writeFile(t, "config.toml", "x = 1"))
	require.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "oracle"
	require.ErrorContains(t, cfg.Validate(), "unsupported database driver")

	cfg = Default()
	cfg.CORS.AllowedOrigins = []string{"not a url"}
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.APIPrefix = "api"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Env = "prod"
	require.ErrorContains(t, cfg.Validate(), "jwt.secret")

	cfg.JWT.Secret = strings.Repeat("k", 32)
	require.ErrorContains(t, cfg.Validate(), "mysql password")

	cfg.Database.MySQL.Password = "a-long-database-password"
	require.NoError(t, cfg.Validate())

	cfg.Database.Driver = "sqlite"
	require.Error(t, cfg.Validate())
}

func TestDSNMasking(t *testing.T) {
	m := MySQLConfig{User: "app", Password: "hunter2", DBName: "blog"}
	require.Contains(t, m.DSN(), "hunter2")
	require.NotContains(t, m.DSNMasked(), "hunter2")
	require.Contains(t, m.DSNMasked(), "app:******@tcp(127.0.0.1:3306)/blog")

	p := PostgresConfig{User: "app", Password: "hunter2"}
	require.NotContains(t, p.DSNMasked(), "hunter2")
	require.Contains(t, p.DSN(), "sslmode=disable")

	require.Equal(t, "blog.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", SQLiteConfig{Path: "blog.db"}.DSN())
}
