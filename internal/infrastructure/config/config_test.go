package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "spoolgate", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)

	assert.Equal(t, "./temp", cfg.Storage.Root)
	assert.Equal(t, int64(50<<20), cfg.Storage.MaxFileSize)
	assert.True(t, cfg.Storage.SweepEnabled)
	assert.Equal(t, time.Hour, cfg.Storage.SweepInterval)
	assert.Equal(t, time.Hour, cfg.Storage.SweepMaxAge)

	assert.Equal(t, 5*time.Second, cfg.Spooler.CommandTimeout)
	assert.Equal(t, 15*time.Second, cfg.Spooler.RefreshInterval)
	assert.Empty(t, cfg.Spooler.Server)

	assert.Equal(t, DefaultJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenExpiration)
	assert.Equal(t, "auth-token", cfg.Auth.Cookie.Name)
	assert.False(t, cfg.Auth.RedisEnabled)

	assert.Equal(t, "auto", cfg.Log.Format)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, "spoolgate", cfg.Telemetry.ServiceName)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.True(t, cfg.HTTP.SwaggerEnabled)

	assert.False(t, cfg.Telemetry.Profiling.Enabled)
	assert.Equal(t, "http://localhost:4040", cfg.Telemetry.Profiling.ServerAddress)
	assert.Equal(t, "spoolgate", cfg.Telemetry.Profiling.ApplicationName)
	assert.Empty(t, cfg.Telemetry.Profiling.Types)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SPOOLGATE_APP_PORT", "9000")
	t.Setenv("SPOOLGATE_SPOOLER_SERVER", "printhost:631")
	t.Setenv("SPOOLGATE_SPOOLER_REFRESH_INTERVAL", "20s")
	t.Setenv("SPOOLGATE_STORAGE_ROOT", "/var/spool/spoolgate")
	t.Setenv("SPOOLGATE_STORAGE_SWEEP_ENABLED", "false")
	t.Setenv("SPOOLGATE_AUTH_REDIS_ENABLED", "true")
	t.Setenv("SPOOLGATE_REDIS_HOST", "cache")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "printhost:631", cfg.Spooler.Server)
	assert.Equal(t, 20*time.Second, cfg.Spooler.RefreshInterval)
	assert.Equal(t, "/var/spool/spoolgate", cfg.Storage.Root)
	assert.False(t, cfg.Storage.SweepEnabled)
	assert.True(t, cfg.Auth.RedisEnabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[app]
name = "lobby-printer"

[storage]
root = "/srv/uploads"
max_file_size = 1048576

[spooler]
lp_path = "/opt/cups/bin/lp"
command_timeout = "3s"

[auth.cookie]
secure = true
same_site = "strict"

[log]
format = "json"
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "lobby-printer", cfg.App.Name)
	assert.Equal(t, "lobby-printer", cfg.Auth.Issuer)
	assert.Equal(t, "/srv/uploads", cfg.Storage.Root)
	assert.Equal(t, int64(1048576), cfg.Storage.MaxFileSize)
	assert.Equal(t, "/opt/cups/bin/lp", cfg.Spooler.LpPath)
	assert.Equal(t, 3*time.Second, cfg.Spooler.CommandTimeout)
	assert.True(t, cfg.Auth.Cookie.Secure)
	assert.Equal(t, "strict", cfg.Auth.Cookie.SameSite)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFile_Profiling(t *testing.T) {
	path := writeConfig(t, `
[telemetry]
service_name = "spoolgate-lobby"

[telemetry.profiling]
enabled = true
server_address = "http://pyroscope:4040"
types = ["cpu", "mutex_count"]
span_profiles = true
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	p := cfg.Telemetry.Profiling
	assert.True(t, p.Enabled)
	assert.Equal(t, "http://pyroscope:4040", p.ServerAddress)
	assert.Equal(t, "spoolgate-lobby", p.ApplicationName)
	assert.Equal(t, []string{"cpu", "mutex_count"}, p.Types)
	assert.True(t, p.SpanProfiles)
}

func TestLoad_SwaggerFollowsEnvironment(t *testing.T) {
	t.Run("off in production unless set", func(t *testing.T) {
		t.Setenv("SPOOLGATE_APP_ENV", "production")
		t.Setenv("SPOOLGATE_AUTH_JWT_SECRET", strings.Repeat("s", 40))
		t.Setenv("SPOOLGATE_AUTH_COOKIE_SECURE", "true")
		t.Setenv("SPOOLGATE_HTTP_CORS_ALLOW_ORIGINS", "https://print.example.com")

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.HTTP.SwaggerEnabled)
	})

	t.Run("explicit override", func(t *testing.T) {
		t.Setenv("SPOOLGATE_HTTP_SWAGGER_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.HTTP.SwaggerEnabled)
	})
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative size", func(c *Config) { c.Storage.MaxFileSize = -1 }, "max_file_size"},
		{"same site none without secure", func(c *Config) { c.Auth.Cookie.SameSite = "none" }, "same_site=none"},
		{"bad sampling ratio", func(c *Config) { c.Telemetry.SamplingRatio = 1.5 }, "sampling_ratio"},
		{"production default secret", func(c *Config) {
			c.App.Env = "production"
			c.Auth.Cookie.Secure = true
		}, "jwt_secret must be set"},
		{"production short secret", func(c *Config) {
			c.App.Env = "production"
			c.Auth.JWTSecret = "short"
			c.Auth.Cookie.Secure = true
		}, "at least 32"},
		{"production insecure cookie", func(c *Config) {
			c.App.Env = "production"
			c.Auth.JWTSecret = strings.Repeat("s", 32)
		}, "cookie.secure"},
		{"production wildcard cors", func(c *Config) {
			c.App.Env = "production"
			c.Auth.JWTSecret = strings.Repeat("s", 32)
			c.Auth.Cookie.Secure = true
			c.HTTP.CORSAllowOrigins = []string{"*"}
		}, "cors_allow_origins"},
		{"production ok", func(c *Config) {
			c.App.Env = "production"
			c.Auth.JWTSecret = strings.Repeat("s", 32)
			c.Auth.Cookie.Secure = true
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			applyDefaults(cfg)
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
