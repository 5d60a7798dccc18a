package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Вспомогательные хелперы.
func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

const sampleYAML = `
env: "prod"
http:
  host: "127.0.0.1"
  port: "8080"
  trust_proxy: true
  trusted_proxies: ["10.0.0.0/8"]
auth:
  access_secret: "access-secret"
  refresh_secret: "refresh-secret"
  access_token_ttl: "10m"
  refresh_token_ttl: "240h"
  issuer: "issuerX"
  audience: ["mobile", "web"]
  bcrypt_cost: 12
db:
  url: "mongodb://localhost:27017/bookshelf"
limits:
  default: 10
  max: 50
cors:
  allowed_origins: ["https://app.example.com"]
keepalive:
  url: "https://api.example.com/api/v1/health"
  interval: "5m"
timeouts:
  service: "3s"
`

const minimalYAML = `
db:
  url: "mongodb://localhost/min"
`

const brokenYAML = `
db:
  url: [unclosed
`

func TestLoad_WithExplicitPath_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, EnvProd, cfg.Env)
	require.False(t, cfg.Debug())
	require.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr())
	require.Equal(t, "/api/v1", cfg.HTTP.BasePath)
	require.True(t, cfg.HTTP.TrustProxy)
	require.Equal(t, []string{"10.0.0.0/8"}, cfg.HTTP.TrustedProxies)

	require.Equal(t, "access-secret", cfg.Auth.AccessSecret)
	require.Equal(t, "refresh-secret", cfg.Auth.RefreshSecret)
	require.Equal(t, 10*time.Minute, cfg.Auth.AccessTokenTTL)
	require.Equal(t, 240*time.Hour, cfg.Auth.RefreshTokenTTL)
	require.Equal(t, "issuerX", cfg.Auth.Issuer)
	require.ElementsMatch(t, []string{"mobile", "web"}, cfg.Auth.Audience)
	require.Equal(t, 12, cfg.Auth.BcryptCost)

	require.Equal(t, "mongodb://localhost:27017/bookshelf", cfg.DB.URL)
	require.Equal(t, int32(10), cfg.Limits.Default)
	require.Equal(t, int32(50), cfg.Limits.Max)
	require.Equal(t, []string{"https://app.example.com"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, 5*time.Minute, cfg.KeepAlive.Interval)
	require.Equal(t, 3*time.Second, cfg.Timeouts.Service)
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", minimalYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, EnvLocal, cfg.Env)
	require.True(t, cfg.Debug())
	require.Equal(t, "3000", cfg.HTTP.Port)
	require.False(t, cfg.HTTP.TrustProxy)
	require.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	require.Equal(t, 168*time.Hour, cfg.Auth.RefreshTokenTTL)
	require.Equal(t, 10, cfg.Auth.BcryptCost)
	require.Equal(t, "refreshToken", cfg.Auth.RefreshCookie)
	require.Equal(t, "lax", cfg.Auth.CookieSameSite)
	require.Equal(t, 14*time.Minute, cfg.KeepAlive.Interval)
	require.Equal(t, []string{"openid", "email", "profile"}, cfg.Google.Scopes)
	require.Equal(t, []string{"image/jpeg", "image/png", "image/webp"}, cfg.Avatar.AllowedContentTypes)
	require.False(t, cfg.Google.Enabled())
	require.False(t, cfg.Redis.Enabled())
	require.False(t, cfg.S3.Enabled())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_URL", "mongodb://env-host/db")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Auth.AccessSecret)
	require.Equal(t, "mongodb://env-host/db", cfg.DB.URL)
}

func TestLoad_ConfigPathEnv(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "custom.yaml", sampleYAML)
	t.Setenv("CONFIG_PATH", cfgPath)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, EnvProd, cfg.Env)
}

func TestLoad_LocalYAMLInWorkdir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "local.yaml", minimalYAML)
	chdir(t, dir)
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "mongodb://localhost/min", cfg.DB.URL)
}

func TestLoad_OnlyEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DATABASE_URL", "mongodb://only-env/db")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "mongodb://only-env/db", cfg.DB.URL)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	broken := writeFile(t, dir, "broken.yaml", brokenYAML)
	_, err = Load(broken)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env: EnvLocal,
			DB:  DBConfig{URL: "mongodb://localhost/db"},
			Auth: AuthConfig{
				AccessTokenTTL:  15 * time.Minute,
				RefreshTokenTTL: 168 * time.Hour,
				BcryptCost:      10,
				HashConcurrency: 4,
				CookieSameSite:  "lax",
			},
			Limits:    LimitsConfig{Default: 20, Max: 100},
			RateLimit: RateLimitConfig{AuthLimit: 10, AuthWindow: time.Minute},
			KeepAlive: KeepAliveConfig{Interval: 14 * time.Minute},
			Timeouts:  TimeoutConfig{Service: 5 * time.Second},
		}
	}

	require.NoError(t, valid().validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown_env", func(c *Config) { c.Env = "staging" }},
		{"empty_db_url", func(c *Config) { c.DB.URL = "" }},
		{"bad_trusted_proxy", func(c *Config) { c.HTTP.TrustedProxies = []string{"10.0.0.0/33"} }},
		{"access_ttl_not_shorter", func(c *Config) { c.Auth.AccessTokenTTL = c.Auth.RefreshTokenTTL }},
		{"bcrypt_cost_too_low", func(c *Config) { c.Auth.BcryptCost = 3 }},
		{"zero_hash_concurrency", func(c *Config) { c.Auth.HashConcurrency = 0 }},
		{"bad_same_site", func(c *Config) { c.Auth.CookieSameSite = "sometimes" }},
		{"default_gt_max", func(c *Config) { c.Limits.Default = 200 }},
		{"google_without_callback", func(c *Config) {
			c.Google = GoogleConfig{ClientID: "id", ClientSecret: "secret"}
			c.Redis.URL = "redis://localhost:6379/0"
		}},
		{"google_without_redis", func(c *Config) {
			c.Google = GoogleConfig{ClientID: "id", ClientSecret: "secret", CallbackURL: "http://cb"}
		}},
		{"keepalive_too_often", func(c *Config) {
			c.KeepAlive = KeepAliveConfig{URL: "http://x", Interval: time.Second}
		}},
		{"zero_service_timeout", func(c *Config) { c.Timeouts.Service = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			require.Error(t, c.validate())
		})
	}
}
