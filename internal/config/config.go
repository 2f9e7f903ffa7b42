package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server    ServerConfig
	App       AppConfig
	Log       LogConfig
	Cache     CacheConfig
	Store     StoreConfig
	UserDB    UserDBConfig
	Oracle    OracleConfig
	Rates     RatesConfig
	Auth      AuthConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8000"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	AllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:3001"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name           string        `envconfig:"APP_NAME" default:"gnosislens-api"`
	Environment    string        `envconfig:"APP_ENV" default:"development"`
	Version        string        `envconfig:"APP_VERSION" default:"1.0.0"`
	PersistTimeout time.Duration `envconfig:"PERSIST_TIMEOUT" default:"10s"`
	StatsCacheTTL  time.Duration `envconfig:"STATS_CACHE_TTL" default:"60s"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// CacheConfig holds session cache settings.
type CacheConfig struct {
	Type string `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix     string `envconfig:"REDIS_KEY_PREFIX" default:"gnosislens"`
}

// StoreConfig holds purchase store settings.
type StoreConfig struct {
	Type string `envconfig:"STORE_TYPE" default:"sqlite"` // sqlite, postgres, or mongodb
	Path string `envconfig:"STORE_PATH" default:"./data/gnosislens.db"`
	// PostgreSQL settings
	Host     string `envconfig:"STORE_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"STORE_DB_PORT" default:"5432"`
	Name     string `envconfig:"STORE_DB_NAME" default:"gnosislens"`
	User     string `envconfig:"STORE_DB_USER" default:"postgres"`
	Password string `envconfig:"STORE_DB_PASS" default:""`
	SSLMode  string `envconfig:"STORE_DB_SSLMODE" default:"disable"`
	// MongoDB settings
	MongoURI      string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGODB_DATABASE" default:"gnosislens"`
}

// UserDBConfig holds MySQL connection settings for user accounts.
type UserDBConfig struct {
	Enabled  bool   `envconfig:"USER_DB_ENABLED" default:"false"`
	Host     string `envconfig:"USER_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"USER_DB_PORT" default:"3306"`
	Name     string `envconfig:"USER_DB_NAME" default:"gnosislens"`
	User     string `envconfig:"USER_DB_USER" default:"root"`
	Password string `envconfig:"USER_DB_PASS" default:""`
}

// OracleConfig holds the fairness-judgment model settings.
type OracleConfig struct {
	APIKey  string        `envconfig:"GEMINI_API_KEY" default:""`
	BaseURL string        `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	Model   string        `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	Timeout time.Duration `envconfig:"ORACLE_TIMEOUT" default:"60s"`
}

// RatesConfig holds exchange-rate provider settings.
type RatesConfig struct {
	APIURL       string        `envconfig:"RATES_API_URL" default:"https://api.exchangerate-api.com/v4/latest/USD"`
	CacheTTL     time.Duration `envconfig:"RATES_CACHE_TTL" default:"30m"`
	FetchTimeout time.Duration `envconfig:"RATES_FETCH_TIMEOUT" default:"10s"`
}

// AuthConfig holds session settings.
type AuthConfig struct {
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	AllowAnonymous bool          `envconfig:"AUTH_ALLOW_ANONYMOUS" default:"false"`
	// AdminKey enables /api/admin/stats when set.
	AdminKey string `envconfig:"ADMIN_API_KEY" default:""`
}

// SchedulerConfig holds background job schedules.
type SchedulerConfig struct {
	Enabled           bool   `envconfig:"SCHEDULER_ENABLED" default:"true"`
	RateWarmSchedule  string `envconfig:"RATES_WARM_SCHEDULE" default:"@every 30m"`
	StatsWarmSchedule string `envconfig:"STATS_WARM_SCHEDULE" default:"@every 1m"`
}

// PostgresDSN returns the PostgreSQL connection string.
func (s *StoreConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.User, s.Password, s.Host, s.Port, s.Name, s.SSLMode)
}

// NormalizedType folds the accepted aliases onto sqlite, postgres or mongodb.
func (s *StoreConfig) NormalizedType() string {
	switch strings.ToLower(s.Type) {
	case "mongodb", "mongo":
		return "mongodb"
	case "postgres", "postgresql":
		return "postgres"
	default:
		return "sqlite"
	}
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// DSN returns the MySQL data source name.
func (d *UserDBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.Oracle.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Rates.CacheTTL <= 0 {
		return fmt.Errorf("RATES_CACHE_TTL must be positive")
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
