package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Mongo     MongoConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	Consul    ConsulConfig
	Media     MediaConfig
	Upload    UploadConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Logger    LoggerConfig
	Metrics   MetricsConfig
	Gateway   GatewayConfig
}

type ServerConfig struct {
	Name           string
	Host           string
	Port           int
	APIPrefix      string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type StoreConfig struct {
	Driver string
}

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type RabbitMQConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
}

type ConsulConfig struct {
	Enabled   bool
	Host      string
	Port      int
	ServiceID string
}

// MediaConfig holds the object store credentials handed to the media store.
type MediaConfig struct {
	Endpoint        string
	PublicURL       string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Folder          string
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

type UploadConfig struct {
	Field        string
	MaxSize      int64
	AllowedTypes []string
}

type AuthConfig struct {
	JWTSecret  string
	CookieName string
}

type RateLimitConfig struct {
	Enabled bool
	Rate    int
	Burst   int
	Period  time.Duration
}

type LoggerConfig struct {
	Level      string
	Output     string
	FilePath   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

type MetricsConfig struct {
	Enabled bool
}

type GatewayConfig struct {
	Port               int
	ProductServiceName string
	ProductServiceURL  string
	RefreshInterval    time.Duration
}

// Load reads the product service configuration from the environment, after
// loading .env when present.
func Load() (*Config, error) {
	cfg := load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadGateway reads the same environment for the API gateway, which only
// needs its own port to be valid.
func LoadGateway() (*Config, error) {
	cfg := load()
	if cfg.Gateway.Port <= 0 || cfg.Gateway.Port > 65535 {
		return nil, fmt.Errorf("invalid config: invalid gateway port: %d", cfg.Gateway.Port)
	}
	return cfg, nil
}

func load() *Config {
	// .env is optional, real environment variables win
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Name:           v.GetString("SERVICE_NAME"),
			Host:           v.GetString("SERVER_HOST"),
			Port:           v.GetInt("PORT"),
			APIPrefix:      v.GetString("API_PREFIX"),
			AllowedOrigins: v.GetStringSlice("CORS_ORIGINS"),
			ReadTimeout:    v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetDuration("SERVER_WRITE_TIMEOUT"),
		},
		Store: StoreConfig{
			Driver: v.GetString("STORE_DRIVER"),
		},
		Mongo: MongoConfig{
			URI:        v.GetString("MONGO_URI"),
			Database:   v.GetString("MONGO_DATABASE"),
			Collection: v.GetString("MONGO_COLLECTION"),
			Timeout:    v.GetDuration("MONGO_TIMEOUT"),
		},
		Postgres: PostgresConfig{
			Host:     v.GetString("POSTGRES_HOST"),
			Port:     v.GetInt("POSTGRES_PORT"),
			User:     v.GetString("POSTGRES_USER"),
			Password: v.GetString("POSTGRES_PASSWORD"),
			DBName:   v.GetString("POSTGRES_DB"),
			SSLMode:  v.GetString("POSTGRES_SSLMODE"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("REDIS_TTL"),
		},
		RabbitMQ: RabbitMQConfig{
			Enabled:  v.GetBool("RABBITMQ_ENABLED"),
			Host:     v.GetString("RABBITMQ_HOST"),
			Port:     v.GetInt("RABBITMQ_PORT"),
			User:     v.GetString("RABBITMQ_USER"),
			Password: v.GetString("RABBITMQ_PASSWORD"),
		},
		Consul: ConsulConfig{
			Enabled:   v.GetBool("CONSUL_ENABLED"),
			Host:      v.GetString("CONSUL_HOST"),
			Port:      v.GetInt("CONSUL_PORT"),
			ServiceID: v.GetString("CONSUL_SERVICE_ID"),
		},
		Media: MediaConfig{
			Endpoint:        v.GetString("MEDIA_ENDPOINT"),
			PublicURL:       v.GetString("MEDIA_PUBLIC_URL"),
			AccessKeyID:     v.GetString("MEDIA_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("MEDIA_SECRET_ACCESS_KEY"),
			Region:          v.GetString("MEDIA_REGION"),
			Bucket:          v.GetString("MEDIA_BUCKET"),
			Folder:          v.GetString("MEDIA_FOLDER"),
			BreakerFailures: v.GetUint32("MEDIA_BREAKER_FAILURES"),
			BreakerTimeout:  v.GetDuration("MEDIA_BREAKER_TIMEOUT"),
		},
		Upload: UploadConfig{
			Field:        v.GetString("UPLOAD_FIELD"),
			MaxSize:      v.GetInt64("UPLOAD_MAX_SIZE"),
			AllowedTypes: v.GetStringSlice("UPLOAD_ALLOWED_TYPES"),
		},
		Auth: AuthConfig{
			JWTSecret:  v.GetString("JWT_SECRET"),
			CookieName: v.GetString("AUTH_COOKIE_NAME"),
		},
		RateLimit: RateLimitConfig{
			Enabled: v.GetBool("RATE_LIMIT_ENABLED"),
			Rate:    v.GetInt("RATE_LIMIT_RATE"),
			Burst:   v.GetInt("RATE_LIMIT_BURST"),
			Period:  v.GetDuration("RATE_LIMIT_PERIOD"),
		},
		Logger: LoggerConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Output:     v.GetString("LOG_OUTPUT"),
			FilePath:   v.GetString("LOG_FILE_PATH"),
			MaxSize:    v.GetInt("LOG_MAX_SIZE"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAge:     v.GetInt("LOG_MAX_AGE"),
			Compress:   v.GetBool("LOG_COMPRESS"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
		Gateway: GatewayConfig{
			Port:               v.GetInt("GATEWAY_PORT"),
			ProductServiceName: v.GetString("GATEWAY_PRODUCT_SERVICE"),
			ProductServiceURL:  v.GetString("GATEWAY_PRODUCT_SERVICE_URL"),
			RefreshInterval:    v.GetDuration("GATEWAY_REFRESH_INTERVAL"),
		},
	}

	if cfg.Media.PublicURL == "" {
		cfg.Media.PublicURL = cfg.Media.Endpoint + "/" + cfg.Media.Bucket
	}

	return cfg
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch c.Store.Driver {
	case StoreMongo:
		if c.Mongo.URI == "" {
			return errors.New("MONGO_URI is required for the mongo store")
		}
	case StorePostgres:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("invalid upload max size: %d", c.Upload.MaxSize)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "product-service")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("PORT", 5000)
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("CORS_ORIGINS", []string{"http://localhost:3000"})
	v.SetDefault("SERVER_READ_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30*time.Second)

	v.SetDefault("STORE_DRIVER", StoreMongo)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "inventory")
	v.SetDefault("MONGO_COLLECTION", "products")
	v.SetDefault("MONGO_TIMEOUT", 10*time.Second)

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "inventory")
	v.SetDefault("POSTGRES_PASSWORD", "inventory")
	v.SetDefault("POSTGRES_DB", "inventory")
	v.SetDefault("POSTGRES_SSLMODE", "disable")

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_TTL", 5*time.Minute)

	v.SetDefault("RABBITMQ_ENABLED", true)
	v.SetDefault("RABBITMQ_HOST", "localhost")
	v.SetDefault("RABBITMQ_PORT", 5672)
	v.SetDefault("RABBITMQ_USER", "guest")
	v.SetDefault("RABBITMQ_PASSWORD", "guest")

	v.SetDefault("CONSUL_ENABLED", false)
	v.SetDefault("CONSUL_HOST", "localhost")
	v.SetDefault("CONSUL_PORT", 8500)
	v.SetDefault("CONSUL_SERVICE_ID", "product-service-1")

	v.SetDefault("MEDIA_ENDPOINT", "http://localhost:9000")
	v.SetDefault("MEDIA_ACCESS_KEY_ID", "minioadmin")
	v.SetDefault("MEDIA_SECRET_ACCESS_KEY", "minioadmin")
	v.SetDefault("MEDIA_REGION", "us-east-1")
	v.SetDefault("MEDIA_BUCKET", "inventory")
	v.SetDefault("MEDIA_FOLDER", "photos")
	v.SetDefault("MEDIA_BREAKER_FAILURES", 5)
	v.SetDefault("MEDIA_BREAKER_TIMEOUT", 30*time.Second)

	v.SetDefault("UPLOAD_FIELD", "image")
	v.SetDefault("UPLOAD_MAX_SIZE", 5*1024*1024) // 5MB
	v.SetDefault("UPLOAD_ALLOWED_TYPES", []string{"image/jpeg", "image/jpg", "image/png"})

	v.SetDefault("AUTH_COOKIE_NAME", "token")

	v.SetDefault("METRICS_ENABLED", true)

	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_RATE", 100)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_PERIOD", time.Minute)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("LOG_FILE_PATH", "logs/product-service.log")
	v.SetDefault("LOG_MAX_SIZE", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 10)
	v.SetDefault("LOG_MAX_AGE", 30)
	v.SetDefault("LOG_COMPRESS", true)

	v.SetDefault("GATEWAY_PORT", 8080)
	v.SetDefault("GATEWAY_PRODUCT_SERVICE", "product-service")
	v.SetDefault("GATEWAY_PRODUCT_SERVICE_URL", "http://localhost:5000")
	v.SetDefault("GATEWAY_REFRESH_INTERVAL", 10*time.Second)
}
