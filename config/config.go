package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigin  string

	DBURL string

	Redis RedisConfig
	Auth  AuthConfig
	Log   LogConfig

	Stripe StripeConfig

	// Extra always-reachable routes on top of the defaults.
	AllowListExtra []string

	NotificationQueueSize int
	RateLimit             RateLimitConfig
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
	// When set, tokens are verified against the issuer's published keys.
	OIDCIssuer   string
	OIDCClientID string
	MaxTokenTTL  time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	CheckoutURL   string
	AppURL        string
}

func (s StripeConfig) SuccessURL() string { return s.AppURL + "/subscription?success=1" }
func (s StripeConfig) CancelURL() string { return s.AppURL + "/subscription?canceled=1" }

type RateLimitConfig struct {
	SessionStartMax int
	Window          time.Duration
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:        v.GetString("PORT"),
		Environment: v.GetString("APP_ENV"),
		CORSOrigin:  v.GetString("CORS_ORIGIN"),
		DBURL:       v.GetString("DB_URL"),
		Redis: RedisConfig{
			Address:  v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Auth: AuthConfig{
			JWTSecret:    v.GetString("JWT_SECRET"),
			OIDCIssuer:   v.GetString("OIDC_ISSUER"),
			OIDCClientID: v.GetString("OIDC_CLIENT_ID"),
			MaxTokenTTL:  v.GetDuration("MAX_TOKEN_TTL"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Stripe: StripeConfig{
			SecretKey:     v.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
			PriceID:       v.GetString("STRIPE_PRICE_ID"),
			CheckoutURL:   v.GetString("STRIPE_CHECKOUT_URL"),
			AppURL:        strings.TrimRight(v.GetString("APP_URL"), "/"),
		},
		AllowListExtra:        splitList(v.GetString("ALLOW_LIST_EXTRA")),
		NotificationQueueSize: v.GetInt("NOTIFICATION_QUEUE_SIZE"),
		RateLimit: RateLimitConfig{
			SessionStartMax: v.GetInt("RATE_LIMIT_SESSION_START"),
			Window:          v.GetDuration("RATE_LIMIT_WINDOW"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("CORS_ORIGIN", "http://localhost:5173")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MAX_TOKEN_TTL", "24h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("APP_URL", "http://localhost:5173")
	v.SetDefault("NOTIFICATION_QUEUE_SIZE", 256)
	v.SetDefault("RATE_LIMIT_SESSION_START", 10)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
}

func (c *Config) validate() error {
	var missing []string
	if c.DBURL == "" {
		missing = append(missing, "DB_URL")
	}
	if c.Auth.JWTSecret == "" && c.Auth.OIDCIssuer == "" {
		missing = append(missing, "JWT_SECRET or OIDC_ISSUER")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if c.Auth.MaxTokenTTL <= 0 {
		return fmt.Errorf("MAX_TOKEN_TTL must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DatabaseURL loads only what offline tooling needs to reach the database.
func DatabaseURL() (string, error) {
	_ = godotenv.Load()
	v := viper.New()
	v.AutomaticEnv()
	dsn := v.GetString("DB_URL")
	if dsn == "" {
		return "", fmt.Errorf("missing required environment variables: DB_URL")
	}
	return dsn, nil
}
