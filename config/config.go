package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type ServerConfig struct {
	Port           string   `yaml:"port"`
	FrontendURL    string   `yaml:"frontendUrl"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	UploadDir      string   `yaml:"uploadDir"`
	MaxUploadBytes int64    `yaml:"maxUploadBytes"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Database string `yaml:"database"`
	LogSQL   bool   `yaml:"logSql"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	Database int    `yaml:"database"`
}

type AuthConfig struct {
	JWTSecret       string        `yaml:"jwtSecret"`
	TokenTTL        time.Duration `yaml:"tokenTtl"`
	RememberMeTTL   time.Duration `yaml:"rememberMeTtl"`
	VerificationTTL time.Duration `yaml:"verificationTtl"`
	CookieSecure    bool          `yaml:"cookieSecure"`
	CookieSameSite  string        `yaml:"cookieSameSite"`
}

type ProviderConfig struct {
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	CallbackURL  string `yaml:"callbackUrl"`
}

func (p ProviderConfig) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

type OAuthConfig struct {
	Google   ProviderConfig `yaml:"google"`
	Facebook ProviderConfig `yaml:"facebook"`
}

type PaystackConfig struct {
	SecretKey string        `yaml:"secretKey"`
	BaseURL   string        `yaml:"baseUrl"`
	Timeout   time.Duration `yaml:"timeout"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type CacheConfig struct {
	Backend    string        `yaml:"backend"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"maxEntries"`
}

// LimitRule is max requests per window for one limiter.
type LimitRule struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

type RateLimitConfig struct {
	Backend string    `yaml:"backend"`
	General LimitRule `yaml:"general"`
	Auth    LimitRule `yaml:"auth"`
	Upload  LimitRule `yaml:"upload"`
	Orders  LimitRule `yaml:"orders"`
}

type JobsConfig struct {
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
}

type Config struct {
	Env       string          `yaml:"env"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	OAuth     OAuthConfig     `yaml:"oauth"`
	Paystack  PaystackConfig  `yaml:"paystack"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Jobs      JobsConfig      `yaml:"jobs"`
}

func Default() Config {
	return Config{
		Env: EnvDevelopment,
		Server: ServerConfig{
			Port:           "5000",
			FrontendURL:    "http://localhost:3000",
			UploadDir:      "./uploads",
			MaxUploadBytes: 5 << 20,
		},
		Database: DatabaseConfig{
			Driver: "mysql",
			Host:   "127.0.0.1",
			Port:   "3306",
		},
		Redis: RedisConfig{Addr: "127.0.0.1:6379"},
		Auth: AuthConfig{
			TokenTTL:        7 * 24 * time.Hour,
			RememberMeTTL:   30 * 24 * time.Hour,
			VerificationTTL: 24 * time.Hour,
			CookieSameSite:  "lax",
		},
		Paystack: PaystackConfig{
			BaseURL: "https://api.paystack.co",
			Timeout: 10 * time.Second,
		},
		SMTP:     SMTPConfig{Port: "587"},
		RabbitMQ: RabbitMQConfig{Exchange: "storefront.events"},
		Cache:    CacheConfig{Backend: BackendMemory, TTL: 5 * time.Minute, MaxEntries: 10000},
		RateLimit: RateLimitConfig{
			Backend: BackendMemory,
			General: LimitRule{Max: 300, Window: 15 * time.Minute},
			Auth:    LimitRule{Max: 20, Window: 15 * time.Minute},
			Upload:  LimitRule{Max: 30, Window: time.Hour},
			Orders:  LimitRule{Max: 20, Window: time.Hour},
		},
		Jobs: JobsConfig{CleanupInterval: 24 * time.Hour},
	}
}

// LoadConfig reads .env, then the yaml file at filename (missing file is fine),
// then environment overrides.
func LoadConfig(filename string) (Config, error) {
	_ = godotenv.Load()

	config := Default()
	if filename != "" {
		file, err := os.Open(filename)
		switch {
		case err == nil:
			defer file.Close()
			decoder := yaml.NewDecoder(file)
			if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
				return config, fmt.Errorf("decode %s: %w", filename, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return config, err
		}
	}

	config.applyEnv()
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	setString(&c.Env, "APP_ENV")
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.FrontendURL, "FRONTEND_URL")
	setString(&c.Server.UploadDir, "UPLOAD_DIR")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	setInt64(&c.Server.MaxUploadBytes, "MAX_UPLOAD_BYTES")

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.DSN, "DB_DSN")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.Username, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Database, "DB_NAME")

	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	if v, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
		c.Redis.Database = v
	}

	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Auth.CookieSameSite, "COOKIE_SAMESITE")
	if v, err := strconv.ParseBool(os.Getenv("COOKIE_SECURE")); err == nil {
		c.Auth.CookieSecure = v
	}

	setString(&c.OAuth.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&c.OAuth.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&c.OAuth.Google.CallbackURL, "GOOGLE_CALLBACK_URL")
	setString(&c.OAuth.Facebook.ClientID, "FACEBOOK_APP_ID")
	setString(&c.OAuth.Facebook.ClientSecret, "FACEBOOK_APP_SECRET")
	setString(&c.OAuth.Facebook.CallbackURL, "FACEBOOK_CALLBACK_URL")

	setString(&c.Paystack.SecretKey, "PAYSTACK_SECRET_KEY")
	setString(&c.Paystack.BaseURL, "PAYSTACK_BASE_URL")

	setString(&c.SMTP.Host, "SMTP_HOST")
	setString(&c.SMTP.Port, "SMTP_PORT")
	setString(&c.SMTP.Username, "SMTP_USER")
	setString(&c.SMTP.Password, "SMTP_PASSWORD")
	setString(&c.SMTP.From, "SMTP_FROM")

	setString(&c.RabbitMQ.URL, "RABBITMQ_URL")
	setString(&c.Cache.Backend, "CACHE_BACKEND")
	setString(&c.RateLimit.Backend, "RATE_LIMIT_BACKEND")

	c.Env = strings.ToLower(c.Env)
	c.Database.Driver = strings.ToLower(c.Database.Driver)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt64(dst *int64, key string) {
	if v, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil && v > 0 {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func (c Config) Validate() error {
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set in production")
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	for name, backend := range map[string]string{"cache": c.Cache.Backend, "rate limit": c.RateLimit.Backend} {
		if backend != BackendMemory && backend != BackendRedis {
			return fmt.Errorf("unsupported %s backend %q", name, backend)
		}
	}
	switch strings.ToLower(c.Auth.CookieSameSite) {
	case "lax", "strict", "none":
	default:
		return fmt.Errorf("unsupported cookie samesite %q", c.Auth.CookieSameSite)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("maxUploadBytes must be positive")
	}
	return nil
}
