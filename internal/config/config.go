package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	ServiceName string
	Version     string
	Environment string
	APIKey      string // API key for authentication
	LogDir      string // session log files; empty logs to stdout only

	TrustedProxies []string

	// Settlement boundary rules
	DefaultLeverageBound float64
	MaxLeverageBound     float64
	MaxParticipants      int
	BatchConcurrency     int

	// Storage
	StorageDriver     string // "memory" or "postgres"
	DBUser            string
	DBPassword        string
	DBHost            string
	DBPort            string
	DBName            string
	DBMaxConns        int
	DBMinConns        int
	DBMaxConnIdle     time.Duration
	DBMaxConnLife     time.Duration
	RunMigrations     bool
	ScenarioCacheSize int
	ScenarioCacheTTL  time.Duration

	// Events
	EventMaxRetries int
	EventRetryDelay time.Duration
	DeadLetterPath  string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:    getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:   getEnv("LOG_FORMAT", DefaultLogFormat),
		ServiceName: getEnv("SERVICE_NAME", DefaultServiceName),
		Version:     getEnv("VERSION", DefaultVersion),
		Environment: getEnv("ENVIRONMENT", DefaultEnvironment),
		APIKey:      getEnv("API_KEY", ""),
		LogDir:      getEnv("LOG_DIR", DefaultLogDir),

		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),

		MaxParticipants:  getEnvAsInt("MAX_PARTICIPANTS", DefaultMaxParticipants),
		BatchConcurrency: getEnvAsInt("BATCH_CONCURRENCY", DefaultBatchConcurrency),

		StorageDriver:     strings.ToLower(getEnv("STORAGE_DRIVER", StorageMemory)),
		RunMigrations:     getEnvAsBool("RUN_MIGRATIONS", true),
		ScenarioCacheSize: getEnvAsInt("SCENARIO_CACHE_SIZE", DefaultScenarioCacheSize),
		ScenarioCacheTTL:  getEnvAsDuration("SCENARIO_CACHE_TTL", DefaultScenarioCacheTTL),

		EventMaxRetries: getEnvAsInt("EVENT_MAX_RETRIES", DefaultEventMaxRetries),
		EventRetryDelay: getEnvAsDuration("EVENT_RETRY_DELAY", DefaultEventRetryDelay),
		DeadLetterPath:  getEnv("DEAD_LETTER_PATH", DefaultDeadLetterPath),
	}

	cfg.loadDatabase()

	port, err := strconv.Atoi(getEnv("PORT", DefaultPort))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	if cfg.DefaultLeverageBound, err = getEnvAsFloat("DEFAULT_LEVERAGE_BOUND", DefaultLeverageBound); err != nil {
		return nil, err
	}
	if cfg.MaxLeverageBound, err = getEnvAsFloat("MAX_LEVERAGE_BOUND", DefaultMaxLeverageBound); err != nil {
		return nil, err
	}

	// Validate API key is set
	if cfg.APIKey == "" {
		return nil, errors.New("API_KEY environment variable must be set for security")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatabase reads only the PostgreSQL settings, for tools that need a
// connection but none of the API configuration
func LoadDatabase() *Config {
	_ = godotenv.Load()

	cfg := &Config{StorageDriver: StoragePostgres}
	cfg.loadDatabase()
	return cfg
}

func (c *Config) loadDatabase() {
	c.DBUser = getEnv("DB_USER", "postgres")
	c.DBPassword = getEnv("DB_PASSWORD", "postgres")
	c.DBHost = getEnv("DB_HOST", "localhost")
	c.DBPort = getEnv("DB_PORT", "5432")
	c.DBName = getEnv("DB_NAME", "dcm")
	c.DBMaxConns = getEnvAsInt("DB_MAX_CONNS", DefaultDBMaxConns)
	c.DBMinConns = getEnvAsInt("DB_MIN_CONNS", DefaultDBMinConns)
	c.DBMaxConnIdle = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", DefaultDBMaxConnIdle)
	c.DBMaxConnLife = getEnvAsDuration("DB_MAX_CONN_LIFETIME", DefaultDBMaxConnLife)
}

// validate checks cross-field rules that a single getEnv default cannot express
func (c *Config) validate() error {
	if c.DefaultLeverageBound < 1 {
		return fmt.Errorf("DEFAULT_LEVERAGE_BOUND must be at least 1, got %v", c.DefaultLeverageBound)
	}
	if c.MaxLeverageBound < c.DefaultLeverageBound {
		return fmt.Errorf("MAX_LEVERAGE_BOUND (%v) must not be below DEFAULT_LEVERAGE_BOUND (%v)",
			c.MaxLeverageBound, c.DefaultLeverageBound)
	}
	if c.MaxParticipants < 1 {
		return fmt.Errorf("MAX_PARTICIPANTS must be positive, got %d", c.MaxParticipants)
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be positive, got %d", c.BatchConcurrency)
	}
	switch c.StorageDriver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (expected %s or %s)", c.StorageDriver, StorageMemory, StoragePostgres)
	}
	return nil
}

// UsePostgres reports whether scenarios are persisted in PostgreSQL
func (c *Config) UsePostgres() bool {
	return c.StorageDriver == StoragePostgres
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt parses an integer variable, falling back to the default when
// unset or malformed
func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat returns an error for malformed values instead of the default
func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return value, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
