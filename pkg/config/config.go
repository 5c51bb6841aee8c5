package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         string
	Env          string
	AllowOrigins []string
}

// TriPayConfig holds the payment gateway credentials
type TriPayConfig struct {
	BaseURL      string
	APIKey       string
	PrivateKey   string
	MerchantCode string
	Timeout      time.Duration
}

// JWTConfig holds JWT configuration. An empty SigningKey disables the
// catalog write guard.
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// Enabled reports whether catalog write routes require a token.
func (c JWTConfig) Enabled() bool {
	return c.SigningKey != ""
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
	File  string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// RedisConfig holds the payment channel cache configuration
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	ChannelCacheTTL time.Duration
}

// KafkaConfig holds the invoice event producer configuration
type KafkaConfig struct {
	Brokers      []string
	InvoiceTopic string
}

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	TriPay      TriPayConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
}

// Load loads configuration from the optional .env file and environment variables
func Load() (*Config, error) {
	// .env is optional; deployments usually inject the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName: "storefront-service",
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "storefront"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Env:          getEnv("APP_ENV", "development"),
			AllowOrigins: getEnvAsList("CORS_ALLOW_ORIGINS", []string{"*"}),
		},
		TriPay: TriPayConfig{
			BaseURL:      strings.TrimRight(getEnv("TRIPAY_API_SANDBOX_URL", ""), "/"),
			APIKey:       getEnv("TRIPAY_API_KEY", ""),
			PrivateKey:   getEnv("TRIPAY_PRIVATE_KEY", ""),
			MerchantCode: getEnv("TRIPAY_MERCHANT_CODE", ""),
			Timeout:      getEnvAsDuration("TRIPAY_TIMEOUT", 30*time.Second),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", ""),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "storefront"),
		},
		Redis: RedisConfig{
			Addr:            getEnv("REDIS_ADDR", ""),
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              getEnvAsInt("REDIS_DB", 0),
			ChannelCacheTTL: getEnvAsDuration("PAYMENT_CHANNEL_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:      getEnvAsList("KAFKA_BROKERS", nil),
			InvoiceTopic: getEnv("KAFKA_INVOICE_TOPIC", "invoice.batch.created"),
		},
	}

	if cfg.DB.MaxOpenConns < 1 {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", cfg.DB.MaxOpenConns)
	}
	if cfg.TriPay.Timeout <= 0 {
		return nil, fmt.Errorf("TRIPAY_TIMEOUT must be positive, got %s", cfg.TriPay.Timeout)
	}

	return cfg, nil
}

// LogFields returns the non-secret settings as zap fields
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.String("tripay_url", c.TriPay.BaseURL),
		zap.Duration("tripay_timeout", c.TriPay.Timeout),
		zap.Bool("jwt_guard", c.JWT.Enabled()),
		zap.Bool("channel_cache", c.Redis.Addr != ""),
		zap.Strings("kafka_brokers", c.Kafka.Brokers),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	switch getEnv(key, "") {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
