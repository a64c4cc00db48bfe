package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const defaultJWTSecret = "your-secret-key"

// Config is built once at startup and handed to constructors by value or pointer.
// Nothing mutates it after LoadConfig returns.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Worker    WorkerConfig    `json:"worker"`
	Auth      AuthConfig      `json:"auth"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	CORS      CORSConfig      `json:"cors"`
}

type ServerConfig struct {
	Host         string        `json:"host" env:"HOST" envDefault:"localhost"`
	Port         string        `json:"port" env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `json:"read_timeout" env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `json:"write_timeout" env:"WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `json:"idle_timeout" env:"IDLE_TIMEOUT" envDefault:"60s"`
	Environment  string        `json:"environment" env:"ENVIRONMENT" envDefault:"development"`
}

type DatabaseConfig struct {
	Driver          string        `json:"driver" env:"DB_DRIVER" envDefault:"postgres"`
	Host            string        `json:"host" env:"DB_HOST" envDefault:"localhost"`
	Port            string        `json:"port" env:"DB_PORT" envDefault:"5432"`
	User            string        `json:"user" env:"DB_USER" envDefault:"postgres"`
	Password        string        `json:"password" env:"DB_PASSWORD"`
	Name            string        `json:"name" env:"DB_NAME" envDefault:"todo_app"`
	SSLMode         string        `json:"ssl_mode" env:"DB_SSL_MODE" envDefault:"disable"`
	SQLitePath      string        `json:"sqlite_path" env:"DB_SQLITE_PATH" envDefault:"todo_app.db"`
	MaxOpenConns    int           `json:"max_open_conns" env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `json:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME" envDefault:"30m"`
}

type RedisConfig struct {
	Enabled      bool          `json:"enabled" env:"REDIS_ENABLED" envDefault:"true"`
	Host         string        `json:"host" env:"REDIS_HOST" envDefault:"localhost"`
	Port         string        `json:"port" env:"REDIS_PORT" envDefault:"6379"`
	Password     string        `json:"password" env:"REDIS_PASSWORD"`
	DB           int           `json:"db" env:"REDIS_DB" envDefault:"0"`
	PoolSize     int           `json:"pool_size" env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `json:"min_idle_conns" env:"REDIS_MIN_IDLE_CONNS" envDefault:"5"`
	MaxRetries   int           `json:"max_retries" env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `json:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `json:"read_timeout" env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `json:"write_timeout" env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	CacheTTL     time.Duration `json:"cache_ttl" env:"REDIS_CACHE_TTL" envDefault:"10m"`
}

type WorkerConfig struct {
	Concurrency     int           `json:"concurrency" env:"WORKER_CONCURRENCY" envDefault:"4"`
	PollInterval    time.Duration `json:"poll_interval" env:"WORKER_POLL_INTERVAL" envDefault:"5s"`
	Queues          []string      `json:"queues" env:"WORKER_QUEUES" envDefault:"default,audit,maintenance" envSeparator:","`
	CleanupInterval time.Duration `json:"cleanup_interval" env:"WORKER_SESSION_CLEANUP_INTERVAL" envDefault:"1h"`
}

// AuthConfig holds the signing secret and token lifetimes.
type AuthConfig struct {
	JWTSecret       string        `json:"-" env:"JWT_SECRET" envDefault:"your-secret-key"`
	Issuer          string        `json:"issuer" env:"JWT_ISSUER" envDefault:"todo-app-backend"`
	AccessTokenTTL  time.Duration `json:"access_token_ttl" env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	RefreshTokenTTL time.Duration `json:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" envDefault:"720h"`
	BCryptCost      int           `json:"bcrypt_cost" env:"BCRYPT_COST" envDefault:"10"`
	AdminUsernames  []string      `json:"admin_usernames" env:"AUTH_ADMIN_USERNAMES" envSeparator:","`
}

type RateLimitConfig struct {
	Enabled         bool          `json:"enabled" env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RequestsPerMin  int           `json:"requests_per_minute" env:"RATE_LIMIT_RPM" envDefault:"100"`
	BurstSize       int           `json:"burst_size" env:"RATE_LIMIT_BURST" envDefault:"10"`
	CleanupInterval time.Duration `json:"cleanup_interval" env:"RATE_LIMIT_CLEANUP" envDefault:"10m"`
}

type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins" env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000,http://localhost:8080" envSeparator:","`
}

func LoadConfig() (*Config, error) {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	config.Database.Driver = strings.ToLower(strings.TrimSpace(config.Database.Driver))
	config.CORS.AllowedOrigins = trimAll(config.CORS.AllowedOrigins)
	config.Auth.AdminUsernames = trimAll(config.Auth.AdminUsernames)

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}

	if c.Database.Driver == "postgres" && c.Database.Password == "" && c.IsProduction() {
		return fmt.Errorf("database password is required in production")
	}

	if c.Auth.JWTSecret == defaultJWTSecret && c.IsProduction() {
		return fmt.Errorf("JWT secret must be set in production")
	}

	return nil
}

func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// IsAdminUsername reports whether username is bootstrapped with the admin role at registration.
func (a AuthConfig) IsAdminUsername(username string) bool {
	for _, name := range a.AdminUsernames {
		if strings.EqualFold(name, username) {
			return true
		}
	}
	return false
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
