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
	Server  ServerConfig
	App     AppConfig
	Auth    AuthConfig
	Store   StoreConfig
	Cache   CacheConfig
	Events  EventsConfig
	Auction AuctionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	AllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"auctionhouse-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

// AuthConfig holds bearer token settings. Tokens are issued by the identity
// provider; this service only verifies them.
type AuthConfig struct {
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	Issuer    string `envconfig:"JWT_ISSUER" default:""`

	// BootstrapAdmins are user ids granted the admin role at startup.
	BootstrapAdmins []string `envconfig:"BOOTSTRAP_ADMINS" default:""`
}

// StoreConfig selects and configures the auction store.
type StoreConfig struct {
	Type string `envconfig:"STORE_TYPE" default:"sqlite"` // sqlite, postgres, or mysql
	Path string `envconfig:"STORE_PATH" default:"./data/auctions.db"`

	Host     string `envconfig:"STORE_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"STORE_DB_PORT" default:"0"` // 0 picks the driver default
	Name     string `envconfig:"STORE_DB_NAME" default:"auctionhouse"`
	User     string `envconfig:"STORE_DB_USER" default:"auctionhouse"`
	Password string `envconfig:"STORE_DB_PASS" default:""`
	SSLMode  string `envconfig:"STORE_DB_SSLMODE" default:"disable"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"30s"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix     string `envconfig:"REDIS_KEY_PREFIX" default:"auctionhouse"`
}

// EventsConfig holds change-feed settings.
type EventsConfig struct {
	// RedisChannelPrefix is used when the cache runs on Redis; events then
	// reach every instance's websocket clients through Redis pub/sub.
	RedisChannelPrefix string `envconfig:"EVENTS_REDIS_PREFIX" default:"auction_events"`

	NATSURL       string        `envconfig:"NATS_URL" default:""` // empty disables NATS
	SubjectPrefix string        `envconfig:"NATS_SUBJECT_PREFIX" default:"auction.events"`
	Stream        string        `envconfig:"NATS_STREAM" default:""`
	StreamMaxAge  time.Duration `envconfig:"NATS_STREAM_MAX_AGE" default:"168h"`
}

// AuctionConfig holds marketplace timing rules.
type AuctionConfig struct {
	SnipingWindow       time.Duration `envconfig:"AUCTION_SNIPING_WINDOW" default:"5m"`
	SweepInterval       time.Duration `envconfig:"AUCTION_SWEEP_INTERVAL" default:"15s"`
	SweepBatchSize      int           `envconfig:"AUCTION_SWEEP_BATCH_SIZE" default:"100"`
	RecentlyEndedWindow time.Duration `envconfig:"AUCTION_RECENTLY_ENDED_WINDOW" default:"3h"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresDSN returns the PostgreSQL connection string.
func (s *StoreConfig) PostgresDSN() string {
	port := s.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.User, s.Password, s.Host, port, s.Name, s.SSLMode)
}

// MySQLDSN returns the MySQL data source name. clientFoundRows makes
// conditional updates report matched rows rather than changed rows.
func (s *StoreConfig) MySQLDSN() string {
	port := s.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&clientFoundRows=true",
		s.User, s.Password, s.Host, port, s.Name)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	switch strings.ToLower(c.Store.Type) {
	case "sqlite", "postgres", "postgresql", "mysql":
	default:
		return fmt.Errorf("invalid STORE_TYPE %q: want sqlite, postgres or mysql", c.Store.Type)
	}
	switch strings.ToLower(c.Cache.Type) {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid CACHE_TYPE %q: want memory or redis", c.Cache.Type)
	}
	if c.Auction.SnipingWindow < 0 {
		return fmt.Errorf("AUCTION_SNIPING_WINDOW must not be negative")
	}
	return nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
