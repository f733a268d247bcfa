package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Mongo     MongoConfig     `koanf:"mongo"`
	JWT       JWTConfig       `koanf:"jwt"`
	Auth      AuthConfig      `koanf:"auth"`
	Mail      MailConfig      `koanf:"mail"`
	Uploads   UploadsConfig   `koanf:"uploads"`
	Blog      BlogConfig      `koanf:"blog"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
}

type AppConfig struct {
	Name        string `koanf:"name" validate:"required"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment" validate:"oneof=development staging production test"`
	// FrontendURL is used for password reset links when the request has no Origin.
	FrontendURL string `koanf:"frontend_url"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout" validate:"gt=0"`
}

type MongoConfig struct {
	URI            string        `koanf:"uri" validate:"required"`
	Database       string        `koanf:"database" validate:"required"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

type JWTConfig struct {
	Secret       string        `koanf:"secret" validate:"required,min=32"`
	TTL          time.Duration `koanf:"ttl" validate:"gt=0"`
	CookieName   string        `koanf:"cookie_name" validate:"required"`
	CookieSecure bool          `koanf:"cookie_secure"`
}

type AuthConfig struct {
	OTPTTL     time.Duration `koanf:"otp_ttl" validate:"gt=0"`
	ResetTTL   time.Duration `koanf:"reset_ttl" validate:"gt=0"`
	BcryptCost int           `koanf:"bcrypt_cost" validate:"min=4,max=31"`
}

type MailConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
	// TLS is one of "mandatory", "opportunistic" or "none".
	TLS string `koanf:"tls" validate:"oneof=mandatory opportunistic none"`
}

type UploadsConfig struct {
	Dir      string `koanf:"dir" validate:"required"`
	MaxBytes int64  `koanf:"max_bytes" validate:"gt=0"`
}

type BlogConfig struct {
	MaxReplyDepth int `koanf:"max_reply_depth" validate:"min=1,max=48"`
	SaveRetries   int `koanf:"save_retries" validate:"min=1"`
}

type RateLimitConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Requests int    `koanf:"requests"`
	Burst    int    `koanf:"burst"`
	RedisURL string `koanf:"redis_url"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

type OtelConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// Load reads .env (if present), then layers defaults, the optional YAML file
// at configPath and environment variables, in that order.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "storeblog-backend",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",
		"server.request_timeout":  "10s",

		"mongo.uri":             "mongodb://localhost:27017",
		"mongo.database":        "storeblog",
		"mongo.connect_timeout": "10s",

		"jwt.ttl":           "120h",
		"jwt.cookie_name":   "UserToken",
		"jwt.cookie_secure": false,

		"auth.otp_ttl":     "20m",
		"auth.reset_ttl":   "20m",
		"auth.bcrypt_cost": 10,

		"mail.port": 587,
		"mail.tls":  "mandatory",

		"uploads.dir":       "uploads",
		"uploads.max_bytes": 5 << 20,

		"blog.max_reply_depth": 32,
		"blog.save_retries":    3,

		"rate_limit.enabled":  true,
		"rate_limit.requests": 30,
		"rate_limit.burst":    10,

		"cors.allowed_origins": []string{"http://localhost:3000"},

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "storeblog-backend",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"APP_NAME":                    "app.name",
	"ENVIRONMENT":                 "app.environment",
	"FRONTEND_URL":                "app.frontend_url",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"REQUEST_TIMEOUT":             "server.request_timeout",
	"MONGO_URI":                   "mongo.uri",
	"MONGODB_URI":                 "mongo.uri",
	"MONGO_DATABASE":              "mongo.database",
	"JWT_SECRET":                  "jwt.secret",
	"JWT_TTL":                     "jwt.ttl",
	"COOKIE_SECURE":               "jwt.cookie_secure",
	"OTP_TTL":                     "auth.otp_ttl",
	"RESET_TTL":                   "auth.reset_ttl",
	"BCRYPT_COST":                 "auth.bcrypt_cost",
	"SMTP_HOST":                   "mail.host",
	"SMTP_PORT":                   "mail.port",
	"SMTP_USERNAME":               "mail.username",
	"SMTP_PASSWORD":               "mail.password",
	"MAIL_FROM":                   "mail.from",
	"SMTP_TLS":                    "mail.tls",
	"UPLOADS_DIR":                 "uploads.dir",
	"UPLOADS_MAX_BYTES":           "uploads.max_bytes",
	"BLOG_MAX_REPLY_DEPTH":        "blog.max_reply_depth",
	"RATE_LIMIT_ENABLED":          "rate_limit.enabled",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"REDIS_URL":                   "rate_limit.redis_url",
	"CORS_ALLOWED_ORIGINS":        "cors.allowed_origins",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
}

// envValue maps known variables onto config keys and drops the rest. List
// values are comma separated.
func envValue(key, value string) (string, any) {
	mapped, ok := envKeyMap[key]
	if !ok {
		return "", nil
	}
	if mapped == "cors.allowed_origins" {
		var origins []string
		for _, o := range strings.Split(value, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		return mapped, origins
	}
	return mapped, value
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	for _, origin := range c.CORS.AllowedOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS wildcard '*' cannot be used with credentialed requests")
		}
	}

	if c.IsProduction() {
		if !c.JWT.CookieSecure {
			return fmt.Errorf("COOKIE_SECURE must be true in production")
		}
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MailEnabled reports whether an SMTP relay is configured.
func (m *MailConfig) MailEnabled() bool {
	return strings.TrimSpace(m.Host) != ""
}
