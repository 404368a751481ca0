package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	Version string

	// Upstream KafeLog API
	APIBaseURL       string
	APITimeout       time.Duration
	APISlowThreshold time.Duration
	APIHealthPath    string

	// Supabase auth
	SupabaseURL         string
	SupabaseAnonKey     string
	SupabaseJWTSecret   string
	SessionCookieSecure bool

	Mail     MailConfig
	Waitlist WaitlistConfig
	Cache    CacheConfig

	RedisURL           string
	CORSAllowedOrigins []string

	OTelEnabled  bool
	OTelEndpoint string
}

// MailConfig selects and configures the transactional mail provider.
type MailConfig struct {
	Provider string // resend | smtp | amqp | log

	ResendAPIKey   string
	ResendEndpoint string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
}

type WaitlistConfig struct {
	From            string
	Recipient       string
	RateLimit       int
	RateLimitWindow time.Duration
}

type CacheConfig struct {
	GCTime     time.Duration
	MaxEntries int
	Retry      int
	RetryDelay time.Duration
}

func Load() *Config {
	// .env is optional
	_ = godotenv.Load()

	return &Config{
		Port:    getEnv("HTTP_PORT", "8080"),
		Version: getEnv("SERVICE_VERSION", "dev"),

		APIBaseURL:       strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:4000"), "/"),
		APITimeout:       getDuration("API_TIMEOUT", 10*time.Second),
		APISlowThreshold: getDuration("API_SLOW_THRESHOLD", time.Second),
		APIHealthPath:    getEnv("API_HEALTH_PATH", "/health"),

		SupabaseURL:         strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseAnonKey:     getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseJWTSecret:   getEnv("SUPABASE_JWT_SECRET", ""),
		SessionCookieSecure: getBool("SESSION_COOKIE_SECURE", false),

		Mail: MailConfig{
			Provider:       getEnv("MAIL_PROVIDER", "log"),
			ResendAPIKey:   getEnv("RESEND_API_KEY", ""),
			ResendEndpoint: getEnv("RESEND_ENDPOINT", "https://api.resend.com/emails"),
			SMTPHost:       getEnv("SMTP_HOST", ""),
			SMTPPort:       getInt("SMTP_PORT", 587),
			SMTPUsername:   getEnv("SMTP_USERNAME", ""),
			SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
			AMQPURL:        getEnv("AMQP_URL", ""),
			AMQPExchange:   getEnv("AMQP_EXCHANGE", "kafelog.mail"),
			AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "mail.waitlist"),
		},

		Waitlist: WaitlistConfig{
			From:            getEnv("WAITLIST_FROM", "KafeLog <onboarding@resend.dev>"),
			Recipient:       getEnv("WAITLIST_RECIPIENT", "officialcihan0248@gmail.com"),
			RateLimit:       getInt("WAITLIST_RATE_LIMIT", 5),
			RateLimitWindow: getDuration("WAITLIST_RATE_LIMIT_WINDOW", time.Minute),
		},

		Cache: CacheConfig{
			GCTime:     getDuration("CACHE_GC_TIME", 10*time.Minute),
			MaxEntries: getInt("CACHE_MAX_ENTRIES", 1000),
			Retry:      getInt("CACHE_RETRY", 1),
			RetryDelay: getDuration("CACHE_RETRY_DELAY", 200*time.Millisecond),
		},

		RedisURL:           getEnv("REDIS_URL", ""),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		OTelEnabled:  getBool("OTEL_ENABLED", false),
		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
