package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Queue    QueueConfig
	Verify   VerifyConfig
	Sui      SuiConfig
	Ops      OpsConfig
	API      APIConfig
	Auth     AuthConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Name        string
	Environment string
	LogLevel    string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxIdle  int
	MaxOpen  int
	MaxLife  time.Duration
}

// RedisConfig holds Redis configuration. URL wins over the discrete fields.
type RedisConfig struct {
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
}

// QueueConfig holds the work queue keys and consumer tuning
type QueueConfig struct {
	Key           string
	ProcessingKey string
	RecoverMax    int
	BlockTimeout  time.Duration
	ErrorBackoff  time.Duration
	DelayMode     string
}

// VerifyConfig holds verification job retry configuration
type VerifyConfig struct {
	MaxAttempts int
	Chain       string
}

// SuiConfig holds the Sui proof client configuration
type SuiConfig struct {
	RPCURL       string
	SignerSecret string
	PackageID    string
	Module       string
	Function     string
	GasBudget    uint64
}

// OpsConfig holds the metrics and health server configuration
type OpsConfig struct {
	Port string
}

// APIConfig holds the anchor API server configuration
type APIConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// AuthConfig holds service token configuration
type AuthConfig struct {
	TokenSecret string
	Issuer      string
	Audience    string
	TokenTTL    time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// .env file not found, continue with environment variables
		fmt.Println("No .env file found, using environment variables")
	}

	queueKey := getEnv("QUEUE_KEY", "verify_jobs")

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "proofanchor"),
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "proofanchor"),
			User:     getEnv("DB_USER", "proofanchor"),
			Password: getEnv("DB_PASSWORD", ""),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxIdle:  getEnvInt("DB_MAX_IDLE", 2),
			MaxOpen:  getEnvInt("DB_MAX_OPEN", 5),
			MaxLife:  getEnvDuration("DB_MAX_LIFE", time.Hour),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		},
		Queue: QueueConfig{
			Key:           queueKey,
			ProcessingKey: getEnv("QUEUE_PROCESSING_KEY", queueKey+":processing"),
			RecoverMax:    getEnvInt("QUEUE_RECOVER_MAX", 5000),
			BlockTimeout:  getEnvDuration("QUEUE_BLOCK_TIMEOUT", 5*time.Second),
			ErrorBackoff:  getEnvDuration("QUEUE_ERROR_BACKOFF", time.Second),
			DelayMode:     strings.ToLower(getEnv("QUEUE_DELAY_MODE", "sleep")),
		},
		Verify: VerifyConfig{
			MaxAttempts: getEnvInt("VERIFY_MAX_ATTEMPTS", 5),
			Chain:       strings.ToLower(getEnv("PROOF_CHAIN", "sui")),
		},
		Sui: SuiConfig{
			RPCURL:       getEnv("SUI_RPC_URL", "https://fullnode.testnet.sui.io:443"),
			SignerSecret: getEnv("SUI_SIGNER_SECRET", ""),
			PackageID:    getEnv("SUI_PACKAGE_ID", ""),
			Module:       getEnv("SUI_MODULE", "proof"),
			Function:     getEnv("SUI_FUNCTION", "create_proof"),
			GasBudget:    getEnvUint64("SUI_GAS_BUDGET", 50_000_000),
		},
		Ops: OpsConfig{
			Port: getEnv("OPS_PORT", "9090"),
		},
		API: APIConfig{
			Port:            getEnv("API_PORT", "8080"),
			ShutdownTimeout: getEnvDuration("API_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			TokenSecret: getEnv("AUTH_TOKEN_SECRET", ""),
			Issuer:      getEnv("AUTH_ISSUER", "proofanchor"),
			Audience:    getEnv("AUTH_AUDIENCE", "proofanchor-api"),
			TokenTTL:    getEnvDuration("AUTH_TOKEN_TTL", 24*time.Hour),
		},
	}

	return config, nil
}

// GetDSN returns database connection string
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// GetRedisAddr returns Redis connection address
func (r *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// ClientOptions builds go-redis options from the URL or discrete fields.
func (r *RedisConfig) ClientOptions() (*redis.Options, error) {
	if r.URL != "" {
		opts, err := redis.ParseURL(r.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		if r.PoolSize > 0 {
			opts.PoolSize = r.PoolSize
		}
		return opts, nil
	}

	return &redis.Options{
		Addr:     r.GetRedisAddr(),
		Password: r.Password,
		DB:       r.DB,
		PoolSize: r.PoolSize,
	}, nil
}

// IsDevelopment returns true if environment is development
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if environment is production
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uintValue, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uintValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates configuration
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Queue.Key == "" || c.Queue.ProcessingKey == "" {
		return fmt.Errorf("queue and processing keys are required")
	}
	if c.Queue.Key == c.Queue.ProcessingKey {
		return fmt.Errorf("queue and processing keys must differ")
	}
	if c.Queue.DelayMode != "sleep" && c.Queue.DelayMode != "scheduled" {
		return fmt.Errorf("QUEUE_DELAY_MODE must be sleep or scheduled, got %q", c.Queue.DelayMode)
	}
	if c.Verify.Chain == "" {
		return fmt.Errorf("proof chain is required")
	}

	return nil
}

// ValidateWorker validates the settings only the worker process needs.
// A missing signer secret is not fatal: proof attempts fail and are retried
// until the operator fixes it.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Verify.Chain == "sui" {
		if c.Sui.PackageID == "" {
			return fmt.Errorf("SUI_PACKAGE_ID is required")
		}
		if c.Sui.Module == "" || c.Sui.Function == "" {
			return fmt.Errorf("SUI_MODULE and SUI_FUNCTION are required")
		}
	}
	return nil
}

// ValidateAPI validates the settings the anchor API needs.
func (c *Config) ValidateAPI() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Auth.TokenSecret) < 32 {
		return fmt.Errorf("AUTH_TOKEN_SECRET must be at least 32 characters")
	}
	return nil
}

// Print prints configuration (excluding sensitive data)
func (c *Config) Print() {
	fmt.Printf("=== Configuration ===\n")
	fmt.Printf("App Name: %s\n", c.App.Name)
	fmt.Printf("Environment: %s\n", c.App.Environment)
	fmt.Printf("Database: %s:%s/%s\n", c.Database.Host, c.Database.Port, c.Database.Name)
	if c.Redis.URL != "" {
		fmt.Printf("Redis: (url)\n")
	} else {
		fmt.Printf("Redis: %s:%s/%d\n", c.Redis.Host, c.Redis.Port, c.Redis.DB)
	}
	fmt.Printf("Queue: %s / %s (delay mode %s)\n", c.Queue.Key, c.Queue.ProcessingKey, c.Queue.DelayMode)
	fmt.Printf("Max Attempts: %d\n", c.Verify.MaxAttempts)
	fmt.Printf("Proof Chain: %s\n", c.Verify.Chain)
	fmt.Printf("Sui RPC: %s\n", c.Sui.RPCURL)
	fmt.Printf("Sui Target: %s::%s::%s\n", c.Sui.PackageID, c.Sui.Module, c.Sui.Function)
	fmt.Printf("Signer Configured: %v\n", c.Sui.SignerSecret != "")
	fmt.Printf("API Port: %s (ops %s)\n", c.API.Port, c.Ops.Port)
	fmt.Printf("Token Secret Configured: %v\n", c.Auth.TokenSecret != "")
	fmt.Printf("====================\n")
}
