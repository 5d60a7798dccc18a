// config описывает конфигурацию bookshelf и её загрузку из YAML/ENV
// с предсказуемым приоритетом источников.
package config

import (
	"fmt"
	"net"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Окружения, в которых запускается сервис.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	DB        DBConfig        `yaml:"db"`
	Limits    LimitsConfig    `yaml:"limits"`
	Redis     RedisConfig     `yaml:"redis"`
	Google    GoogleConfig    `yaml:"google"`
	S3        S3Config        `yaml:"s3"`
	Avatar    AvatarConfig    `yaml:"avatar"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	KeepAlive KeepAliveConfig `yaml:"keepalive"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
}

// Debug сообщает, можно ли отдавать клиенту отладочные подробности ошибок.
func (c *Config) Debug() bool {
	return c.Env == EnvLocal || c.Env == EnvDev
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host     string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"3000"`
	BasePath string `yaml:"base_path" env:"HTTP_BASE_PATH" env-default:"/api/v1"`
	// TrustProxy включает разбор X-Forwarded-For (сервис за прокси хостинга).
	TrustProxy bool `yaml:"trust_proxy" env:"HTTP_TRUST_PROXY" env-default:"false"`
	// TrustedProxies — адреса или CIDR внутренних прокси, пропускаемые при разборе цепочки.
	TrustedProxies []string `yaml:"trusted_proxies" env:"HTTP_TRUSTED_PROXIES"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// AuthConfig содержит параметры выпуска и проверки токенов.
// Секреты намеренно без значений по умолчанию: их отсутствие
// обнаруживает tokens.NewIssuer при старте.
type AuthConfig struct {
	AccessSecret    string        `yaml:"access_secret" env:"JWT_SECRET"`
	RefreshSecret   string        `yaml:"refresh_secret" env:"JWT_REFRESH_SECRET"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	Issuer          string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"bookshelf"`
	Audience        []string      `yaml:"audience" env:"JWT_AUDIENCE" env-default:"bookshelf-app"`
	BcryptCost      int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
	// Сколько bcrypt-операций выполняется одновременно.
	HashConcurrency int `yaml:"hash_concurrency" env:"HASH_CONCURRENCY" env-default:"4"`
	// Параметры cookie с refresh-токеном.
	RefreshCookie  string `yaml:"refresh_cookie" env:"REFRESH_COOKIE" env-default:"refreshToken"`
	CookiePath     string `yaml:"cookie_path" env:"COOKIE_PATH" env-default:"/"`
	CookieDomain   string `yaml:"cookie_domain" env:"COOKIE_DOMAIN"`
	CookieSecure   bool   `yaml:"cookie_secure" env:"COOKIE_SECURE" env-default:"false"`
	CookieSameSite string `yaml:"cookie_same_site" env:"COOKIE_SAME_SITE" env-default:"lax"`
}

// DBConfig — настройки подключения к MongoDB.
type DBConfig struct {
	URL string `yaml:"url" env:"DATABASE_URL" env-required:"true"`
}

// LimitsConfig — лимиты пагинации списков.
type LimitsConfig struct {
	// page_size=0 -> берём Default; верхняя граница — Max.
	Default int32 `yaml:"default" env:"DEFAULT_LIMIT" env-default:"20"`
	Max     int32 `yaml:"max" env:"MAX_LIMIT" env-default:"100"`
}

// RedisConfig — опциональный Redis (state OAuth и rate limit).
type RedisConfig struct {
	URL    string `yaml:"url" env:"REDIS_URL"`
	Prefix string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"bookshelf:"`
}

// Enabled сообщает, сконфигурирован ли Redis.
func (r RedisConfig) Enabled() bool { return r.URL != "" }

// GoogleConfig — вход через Google (OAuth2 authorization code).
type GoogleConfig struct {
	ClientID     string   `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string   `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	CallbackURL  string   `yaml:"callback_url" env:"GOOGLE_CALLBACK_URL"`
	Scopes       []string `yaml:"scopes" env:"GOOGLE_SCOPES" env-default:"openid,email,profile"`
	// Куда отправить клиента после успешного входа (токены уходят query-параметрами).
	SuccessRedirectURL string        `yaml:"success_redirect_url" env:"MOBILE_APP_BASE_URL"`
	StateTTL           time.Duration `yaml:"state_ttl" env:"GOOGLE_STATE_TTL" env-default:"10m"`
}

// Enabled сообщает, включён ли вход через Google.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// S3Config — объектное хранилище для аватаров (MinIO/S3).
type S3Config struct {
	Endpoint      string        `yaml:"endpoint" env:"S3_ENDPOINT"`
	AccessKey     string        `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey     string        `yaml:"secret_key" env:"S3_SECRET_KEY"`
	UseSSL        bool          `yaml:"use_ssl" env:"S3_USE_SSL" env-default:"false"`
	Bucket        string        `yaml:"bucket" env:"S3_BUCKET" env-default:"avatars"`
	PresignTTL    time.Duration `yaml:"presign_ttl" env:"S3_PRESIGN_TTL" env-default:"15m"`
	PublicBaseURL string        `yaml:"public_base_url" env:"S3_PUBLIC_BASE_URL"`
}

// Enabled сообщает, сконфигурировано ли объектное хранилище.
func (s S3Config) Enabled() bool { return s.Endpoint != "" }

// AvatarConfig — ограничения на загружаемые аватары.
type AvatarConfig struct {
	MaxSizeBytes        int64    `yaml:"max_size_bytes" env:"AVATAR_MAX_SIZE" env-default:"5242880"`
	AllowedContentTypes []string `yaml:"allowed_content_types" env:"AVATAR_CONTENT_TYPES" env-default:"image/jpeg,image/png,image/webp"`
}

// CORSConfig — разрешённые источники запросов.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:8081"`
}

// RateLimitConfig — ограничение частоты для login/register.
type RateLimitConfig struct {
	AuthLimit  int           `yaml:"auth_limit" env:"RATE_LIMIT_AUTH" env-default:"10"`
	AuthWindow time.Duration `yaml:"auth_window" env:"RATE_LIMIT_AUTH_WINDOW" env-default:"1m"`
}

// KeepAliveConfig — периодический ping собственного публичного URL.
type KeepAliveConfig struct {
	URL      string        `yaml:"url" env:"API_URL"`
	Interval time.Duration `yaml:"interval" env:"KEEPALIVE_INTERVAL" env-default:"14m"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service  time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"15s"`
	Shutdown time.Duration `yaml:"shutdown" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	file := path
	if file == "" {
		file = os.Getenv("CONFIG_PATH")
	}

	switch {
	case file != "":
		if _, err := os.Stat(file); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", file, err)
		}

		if err := cleanenv.ReadConfig(file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}
	case fileExists("local.yaml"):
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validProxy(s string) bool {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		_, err := netip.ParsePrefix(s)
		return err == nil
	}

	_, err := netip.ParseAddr(s)
	return err == nil
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("env must be one of local, dev, prod")
	}

	if c.DB.URL == "" {
		return fmt.Errorf("db.url is required")
	}

	for _, p := range c.HTTP.TrustedProxies {
		if !validProxy(p) {
			return fmt.Errorf("http.trusted_proxies: %q is not an IP address or CIDR", p)
		}
	}

	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("auth token ttls must be > 0")
	}

	if c.Auth.AccessTokenTTL >= c.Auth.RefreshTokenTTL {
		return fmt.Errorf("auth.access_token_ttl must be shorter than auth.refresh_token_ttl")
	}

	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be within [4, 31]")
	}

	if c.Auth.HashConcurrency <= 0 {
		return fmt.Errorf("auth.hash_concurrency must be > 0")
	}

	switch c.Auth.CookieSameSite {
	case "lax", "strict", "none":
	default:
		return fmt.Errorf("auth.cookie_same_site must be one of lax, strict, none")
	}

	if c.Limits.Default <= 0 || c.Limits.Max <= 0 {
		return fmt.Errorf("limits must be > 0")
	}

	if c.Limits.Default > c.Limits.Max {
		return fmt.Errorf("limits.default must be <= limits.max")
	}

	if c.Google.Enabled() {
		if c.Google.CallbackURL == "" {
			return fmt.Errorf("google.callback_url is required when google sign-in is enabled")
		}

		// state хранится в Redis между редиректами.
		if !c.Redis.Enabled() {
			return fmt.Errorf("redis.url is required when google sign-in is enabled")
		}
	}

	if c.RateLimit.AuthLimit <= 0 || c.RateLimit.AuthWindow <= 0 {
		return fmt.Errorf("rate_limit values must be > 0")
	}

	if c.KeepAlive.URL != "" && c.KeepAlive.Interval < time.Minute {
		return fmt.Errorf("keepalive.interval must be at least 1m")
	}

	if c.Timeouts.Service <= 0 {
		return fmt.Errorf("timeouts.service must be > 0")
	}

	return nil
}
