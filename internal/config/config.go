package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is loaded once at startup and passed by reference; nothing reads
// the environment after Load returns.
type Config struct {
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RequestTimeout     time.Duration

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	JWTSecret    string
	JWTTTL       time.Duration
	DemoPassword string

	OAuthClientID     string
	OAuthClientSecret string
	OAuthAuthorizeURL string
	OAuthTokenURL     string
	OAuthCallbackURL  string
	OAuthUserinfoURL  string
	OAuthScope        string
	ProviderTimeout   time.Duration

	FrontendOrigin string

	SDAPIURL        string
	SDAPIKey        string
	GenerateTimeout time.Duration

	RateLimitRPM         int
	GenerateRateLimitRPM int

	StorageRoot string
	MaxBodySize int64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:         getEnv("SERVER_PORT", "3000"),
		ServerReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 150*time.Second),
		ServerIdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),

		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 2)),

		JWTSecret:    strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTTTL:       getDuration("JWT_TTL", time.Hour),
		DemoPassword: getEnv("DEMO_PASSWORD", "password"),

		OAuthClientID:     strings.TrimSpace(os.Getenv("OAUTH_CLIENT_ID")),
		OAuthClientSecret: strings.TrimSpace(os.Getenv("OAUTH_CLIENT_SECRET")),
		OAuthAuthorizeURL: strings.TrimSpace(os.Getenv("OAUTH_AUTHORIZE_URL")),
		OAuthTokenURL:     strings.TrimSpace(os.Getenv("OAUTH_TOKEN_URL")),
		OAuthCallbackURL:  strings.TrimSpace(os.Getenv("OAUTH_CALLBACK_URL")),
		OAuthUserinfoURL:  strings.TrimSpace(os.Getenv("OAUTH_USERINFO_URL")),
		OAuthScope:        getEnv("OAUTH_SCOPE", "openid email profile"),
		ProviderTimeout:   getDuration("OAUTH_PROVIDER_TIMEOUT", 15*time.Second),

		FrontendOrigin: getEnv("FRONTEND_ORIGIN", "http://localhost:5173"),

		SDAPIURL:        strings.TrimSpace(os.Getenv("SD_API_URL")),
		SDAPIKey:        strings.TrimSpace(os.Getenv("SD_API_KEY")),
		GenerateTimeout: getDuration("GENERATE_TIMEOUT", 120*time.Second),

		RateLimitRPM:         getInt("RATE_LIMIT_RPM", 100),
		GenerateRateLimitRPM: getInt("GENERATE_RATE_LIMIT_RPM", 10),

		StorageRoot: getEnv("STORAGE_ROOT", "./data/images"),
		MaxBodySize: getInt64("MAX_BODY_SIZE", 10*1024*1024),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	// Refusing to start without a signing secret is deliberate: a guessable
	// default would make every issued session forgeable.
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if strings.TrimSpace(c.StorageRoot) == "" {
		return fmt.Errorf("STORAGE_ROOT cannot be empty")
	}

	if c.MaxBodySize <= 0 {
		return fmt.Errorf("MAX_BODY_SIZE must be positive")
	}

	return nil
}

// ProviderConfigured reports whether the minimum settings for the token
// exchange are present. A partially configured provider is surfaced as a
// 500 at exchange time, not at startup, so local-password login keeps
// working in deployments without a provider.
func (c *Config) ProviderConfigured() bool {
	return c.OAuthTokenURL != "" && c.OAuthClientID != ""
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}
