package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the service.
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	JWT       JWTConfig
	Engine    EngineConfig
	Reaper    ReaperConfig
	RateLimit RateLimitConfig

	LogLevel string
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	SlotCacheTTL time.Duration
}

// KafkaConfig holds Kafka producer configuration.
type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	PromotionTopic string
}

// JWTConfig holds the secret used to extract the requester identity.
type JWTConfig struct {
	Secret string
}

// EngineConfig holds reservation engine tunables.
type EngineConfig struct {
	DefaultHoldTTL time.Duration
	MaxHoldTTL     time.Duration
	PromotionTTL   time.Duration
}

// ReaperConfig holds hold-expiry reaper tunables.
type ReaperConfig struct {
	Interval time.Duration
	LockTTL  time.Duration
}

// RateLimitConfig holds per-IP request budgets per endpoint class.
type RateLimitConfig struct {
	Enabled              bool
	WindowDuration       time.Duration
	DefaultRequests      int
	AvailabilityRequests int
	ReserveRequests      int
	WaitlistRequests     int
	AdminRequests        int
	HealthRequests       int
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "reservio_db"),
			User:     getEnv("DB_USER", "reservio_user"),
			Password: getEnv("DB_PASSWORD", "reservio_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		Redis: RedisConfig{
			Enabled:      getBoolEnv("REDIS_ENABLED", true),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			SlotCacheTTL: getDurationEnv("REDIS_SLOT_CACHE_TTL", 30*time.Second),
		},

		Kafka: KafkaConfig{
			Enabled:        getBoolEnv("KAFKA_ENABLED", false),
			Brokers:        getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			PromotionTopic: getEnv("KAFKA_PROMOTION_TOPIC", "waitlist-promotions"),
		},

		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change-me-in-production"),
		},

		Engine: EngineConfig{
			DefaultHoldTTL: getDurationEnv("HOLD_DEFAULT_TTL", 10*time.Minute),
			MaxHoldTTL:     getDurationEnv("HOLD_MAX_TTL", time.Hour),
			PromotionTTL:   getDurationEnv("WAITLIST_PROMOTION_TTL", 15*time.Minute),
		},

		Reaper: ReaperConfig{
			Interval: getDurationEnv("REAPER_INTERVAL", 5*time.Second),
			LockTTL:  getDurationEnv("REAPER_LOCK_TTL", 30*time.Second),
		},

		RateLimit: RateLimitConfig{
			Enabled:              getBoolEnv("RATE_LIMIT_ENABLED", false),
			WindowDuration:       getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			DefaultRequests:      getIntEnv("RATE_LIMIT_DEFAULT", 120),
			AvailabilityRequests: getIntEnv("RATE_LIMIT_AVAILABILITY", 300),
			ReserveRequests:      getIntEnv("RATE_LIMIT_RESERVE", 60),
			WaitlistRequests:     getIntEnv("RATE_LIMIT_WAITLIST", 60),
			AdminRequests:        getIntEnv("RATE_LIMIT_ADMIN", 60),
			HealthRequests:       getIntEnv("RATE_LIMIT_HEALTH", 600),
		},

		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string.
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true when running in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true when running in debug mode.
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address.
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path.
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
