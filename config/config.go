package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Token     TokenConfig
	RateLimit RateLimitConfig
	Mail      MailConfig
	Breaker   BreakerConfig
	Health    HealthConfig
}

type AppConfig struct {
	Name          string        `mapstructure:"name"`
	Environment   string        `mapstructure:"environment"`
	Debug         bool          `mapstructure:"debug"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Port          string        `mapstructure:"port"`
	BaseURL       string        `mapstructure:"base_url"`
	AdminEmail    string        `mapstructure:"admin_email"`
	AdminPassword string        `mapstructure:"admin_password"`
	LogsPath      string        `mapstructure:"logs_path"`
}

// StoreConfig selects the backend every resource store is built on.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type MongoConfig struct {
	URI              string        `mapstructure:"uri"`
	Database         string        `mapstructure:"database"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

type TokenConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type RateLimitConfig struct {
	Request  int `mapstructure:"request"`
	Duration int `mapstructure:"duration"`
}

type MailConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	From          string `mapstructure:"from"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
	Workers       int    `mapstructure:"workers"`
	QueueSize     int    `mapstructure:"queue_size"`
}

type BreakerConfig struct {
	Threshold int           `mapstructure:"threshold"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type HealthConfig struct {
	GRPCPort string `mapstructure:"grpc_port"`
}

const defaultTokenSecret = "change-me-in-production"

func LoadConfig() (*Config, error) {
	// A missing .env file is fine, the process environment still applies.
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:          getEnv("APP_NAME", "fleet-registry"),
			Environment:   getEnv("APP_ENV", "development"),
			Port:          getEnv("APP_PORT", "8080"),
			Debug:         getEnvAsBool("APP_DEBUG", true),
			Timeout:       getEnvAsDuration("APP_TIMEOUT", 30*time.Second),
			BaseURL:       strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
			AdminEmail:    strings.ToLower(getEnv("ADMIN_EMAIL", "")),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
			LogsPath:      getEnv("LOGS_PATH", "./logs"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "fleet"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},
		Mongo: MongoConfig{
			URI:              getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:         getEnv("MONGO_DATABASE", "fleet"),
			ConnectTimeout:   getEnvAsDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
			OperationTimeout: getEnvAsDuration("MONGO_OPERATION_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			Database:     getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     getEnvAsDuration("CACHE_TTL", 30*time.Second),
		},
		Token: TokenConfig{
			Secret: getEnv("TOKEN_SECRET", defaultTokenSecret),
			TTL:    getEnvAsDuration("TOKEN_TTL", time.Hour),
		},
		RateLimit: RateLimitConfig{
			Request:  getEnvAsInt("RATE_LIMIT_MAX_REQUEST", 100),
			Duration: getEnvAsInt("RATE_LIMIT_DURATION", 60),
		},
		Mail: MailConfig{
			Enabled:       getEnvAsBool("MAIL_ENABLED", false),
			Host:          getEnv("MAIL_HOST", "localhost"),
			Port:          getEnvAsInt("MAIL_PORT", 587),
			Username:      getEnv("MAIL_USERNAME", ""),
			Password:      getEnv("MAIL_PASSWORD", ""),
			From:          getEnv("MAIL_FROM", "fleet-registry@localhost"),
			SubjectPrefix: getEnv("MAIL_SUBJECT_PREFIX", "[Fleet]"),
			Workers:       getEnvAsInt("MAIL_WORKERS", 2),
			QueueSize:     getEnvAsInt("MAIL_QUEUE_SIZE", 100),
		},
		Breaker: BreakerConfig{
			Threshold: getEnvAsInt("BREAKER_THRESHOLD", 5),
			Timeout:   getEnvAsDuration("BREAKER_TIMEOUT", 30*time.Second),
		},
		Health: HealthConfig{
			GRPCPort: getEnv("GRPC_HEALTH_PORT", ""),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres", "mongodb", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want postgres, mongodb or memory)", c.Store.Driver)
	}

	if c.Token.Secret == "" {
		return fmt.Errorf("TOKEN_SECRET must not be empty")
	}
	if c.IsProduction() && c.Token.Secret == defaultTokenSecret {
		return fmt.Errorf("TOKEN_SECRET must be set in production")
	}
	if c.Token.TTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.Token.TTL)
	}
	if c.RateLimit.Request <= 0 || c.RateLimit.Duration <= 0 {
		return fmt.Errorf("rate limit request and duration must be positive")
	}
	if c.Mail.Workers <= 0 {
		c.Mail.Workers = 1
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) DatabaseConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
