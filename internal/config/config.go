package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	LogLevel  string
	LogFormat string

	EngineBaseURL      string
	EngineAPIKey       string
	EngineAPIKeyPrefix string
	EngineTimeoutSec   int
	// Body message the engine returns on an expired customer session.
	// A 400 carrying this exact message triggers the single re-issue
	// with a fresh session identifier.
	EngineStaleSessionMsg string

	SiteID          string
	ProfileIDPrefix string
	DefaultCurrency string

	LoyaltyEnabled  bool
	ReferralEnabled bool

	OtelEnabled  bool
	OTLPEndpoint string
	OTLPProtocol string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionTTLSec int
}

// Module provides the configuration to the fx graph.
var Module = fx.Options(
	fx.Provide(Load),
	fx.Provide(NewMessageCatalogHolder),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "promosync"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		EngineBaseURL:         strings.TrimRight(getenv("ENGINE_BASE_URL", "https://demo.promotion.engine"), "/"),
		EngineAPIKey:          strings.TrimSpace(getenv("ENGINE_API_KEY", "")),
		EngineAPIKeyPrefix:    getenv("ENGINE_API_KEY_PREFIX", "ApiKey-v1"),
		EngineTimeoutSec:      getenvInt("ENGINE_TIMEOUT_SEC", 12),
		EngineStaleSessionMsg: getenv("ENGINE_STALE_SESSION_MSG", "customer session is closed"),

		SiteID:          getenv("SITE_ID", "default"),
		ProfileIDPrefix: getenv("PROFILE_ID_PREFIX", "promosync_"),
		DefaultCurrency: getenv("DEFAULT_CURRENCY", "USD"),

		LoyaltyEnabled:  getenvBool("LOYALTY_ENABLED", true),
		ReferralEnabled: getenvBool("REFERRAL_ENABLED", true),

		OtelEnabled:  getenvBool("OTEL_ENABLED", false),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
		OTLPProtocol: strings.ToLower(getenv("OTLP_PROTOCOL", "grpc")),

		DBType:            getenv("DB_TYPE", "sqlite"),
		DBHost:            getenv("DB_HOST", "localhost"),
		DBPort:            getenv("DB_PORT", "5432"),
		DBName:            getenv("DB_NAME", "promosync"),
		DBUser:            getenv("DB_USER", "promosync"),
		DBPassword:        getenv("DB_PASSWORD", ""),
		DBSSLMode:         getenv("DB_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DB_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DB_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DB_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DB_CONN_MAX_IDLE_TIME", 600),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		SessionTTLSec: getenvInt("SESSION_TTL_SEC", 1800),
	}

	return cfg
}

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("config: invalid int for %s: %q", key, value)
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("config: invalid bool for %s: %q", key, value)
		return fallback
	}
	return parsed
}
