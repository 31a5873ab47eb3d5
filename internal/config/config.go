package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates application configuration values.
type Config struct {
	Env      string         `yaml:"env"`
	HTTP     HTTPConfig     `yaml:"http"`
	Store    StoreConfig    `yaml:"store"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Graph    GraphConfig    `yaml:"graph"`
	Postgres PostgresConfig `yaml:"postgres"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	ReadTimeout       time.Duration `yaml:"readTimeout"`
	WriteTimeout      time.Duration `yaml:"writeTimeout"`
	IdleTimeout       time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"`
	MetricsEnabled    bool          `yaml:"metricsEnabled"`
	AllowedOriginsCSV string        `yaml:"allowedOrigins"`
	ExtraOrigin       string        `yaml:"corsOrigin"`

	// AuthRateLimit caps register and login requests per client per second.
	// Zero, the default, disables the limit.
	AuthRateLimit float64 `yaml:"authRateLimit"`
	AuthRateBurst int     `yaml:"authRateBurst"`
}

// StoreConfig selects the account store backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // mongo|neo4j|postgres|memory
}

// MongoConfig describes connectivity to the document database.
type MongoConfig struct {
	URI      string        `yaml:"uri"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

// GraphConfig describes connectivity to the graph database (Neo4j).
type GraphConfig struct {
	URI            string `yaml:"uri"`
	Database       string `yaml:"database"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	MaxConnections int    `yaml:"maxConnections"`
}

// PostgresConfig describes connectivity to the relational store.
type PostgresConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"maxOpenConns"`
	MaxIdleConns int    `yaml:"maxIdleConns"`
}

// AuthConfig holds session signing and password hashing parameters.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwtSecret"`
	TokenTTL   time.Duration `yaml:"tokenTTL"`
	BcryptCost int           `yaml:"bcryptCost"`
	// InsecureSecret is set when the development fallback secret is in use.
	InsecureSecret bool `yaml:"-"`
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"` // text|json
	Colored       bool   `yaml:"colored"`
	IncludeCaller bool   `yaml:"includeCaller"`
}

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverMongo    = "mongo"
	DriverNeo4j    = "neo4j"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 5001
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 15 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10
	defaultMongoURI         = "mongodb://localhost:27017/financial-advisor"
	defaultMongoDatabase    = "financial-advisor"
	defaultMongoTimeout     = 10 * time.Second
	defaultMaxOpenConns     = 10
	defaultMaxIdleConns     = 5
	defaultTokenTTL         = 24 * time.Hour
	defaultBcryptCost       = 10
	developmentSecret       = "development-only-secret"
	defaultAllowedOrigins   = "http://localhost:5178,http://localhost:3000,https://finance-pro.vercel.app"
	defaultAuthRateLimit    = 0
	defaultAuthRateBurst    = 10
)

// ErrMissingSecret is returned when JWT_SECRET is unset outside development.
var ErrMissingSecret = errors.New("JWT_SECRET is required outside development")

// Defaults returns the compiled-in configuration.
func Defaults() Config {
	return Config{
		Env: EnvDevelopment,
		HTTP: HTTPConfig{
			Host:              defaultHost,
			Port:              defaultPort,
			ReadTimeout:       defaultReadTimeout,
			WriteTimeout:      defaultWriteTimeout,
			IdleTimeout:       defaultIdleTimeout,
			ShutdownTimeout:   defaultShutdownTimeout,
			AllowedOriginsCSV: defaultAllowedOrigins,
			AuthRateLimit:     defaultAuthRateLimit,
			AuthRateBurst:     defaultAuthRateBurst,
		},
		Store: StoreConfig{Driver: DriverMongo},
		Mongo: MongoConfig{
			URI:     defaultMongoURI,
			Timeout: defaultMongoTimeout,
		},
		Graph: GraphConfig{
			MaxConnections: defaultGraphMaxSessions,
		},
		Postgres: PostgresConfig{
			MaxOpenConns: defaultMaxOpenConns,
			MaxIdleConns: defaultMaxIdleConns,
		},
		Auth: AuthConfig{
			TokenTTL:   defaultTokenTTL,
			BcryptCost: defaultBcryptCost,
		},
		Logging: LoggingConfig{
			Level:  defaultLoggingLevel,
			Format: defaultLoggingFormat,
		},
	}
}

// Load reads configuration from defaults, an optional YAML file named by
// CONFIG_FILE and environment variables, in that order of precedence.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Env = strings.ToLower(valueOrDefault("APP_ENV", valueOrDefault("NODE_ENV", cfg.Env)))

	cfg.HTTP.Host = valueOrDefault("SERVER_HOST", cfg.HTTP.Host)
	port, err := parsePort("SERVER_PORT", cfg.HTTP.Port)
	if err != nil {
		return Config{}, err
	}
	if os.Getenv("SERVER_PORT") == "" {
		if port, err = parsePort("PORT", port); err != nil {
			return Config{}, err
		}
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"MONGODB_TIMEOUT", &cfg.Mongo.Timeout},
		{"JWT_TTL", &cfg.Auth.TokenTTL},
	}
	for _, d := range durations {
		if err := parseDuration(d.key, d.target); err != nil {
			return Config{}, err
		}
	}

	cfg.HTTP.MetricsEnabled = parseBoolWithDefault("SERVER_METRICS_ENABLED", cfg.HTTP.MetricsEnabled)
	cfg.HTTP.AllowedOriginsCSV = valueOrDefault("SERVER_ALLOWED_ORIGINS", cfg.HTTP.AllowedOriginsCSV)
	cfg.HTTP.ExtraOrigin = valueOrDefault("CORS_ORIGIN", cfg.HTTP.ExtraOrigin)
	cfg.HTTP.AuthRateBurst = parseIntWithDefault("SERVER_AUTH_RATE_BURST", cfg.HTTP.AuthRateBurst)
	if v := os.Getenv("SERVER_AUTH_RATE_LIMIT"); v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil || limit < 0 {
			return Config{}, fmt.Errorf("invalid SERVER_AUTH_RATE_LIMIT value %q", v)
		}
		cfg.HTTP.AuthRateLimit = limit
	}

	cfg.Store.Driver = strings.ToLower(valueOrDefault("STORE_DRIVER", cfg.Store.Driver))
	switch cfg.Store.Driver {
	case DriverMongo, DriverNeo4j, DriverPostgres, DriverMemory:
	default:
		return Config{}, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.Store.Driver)
	}

	cfg.Mongo.URI = valueOrDefault("MONGODB_URI", cfg.Mongo.URI)
	cfg.Mongo.Database = valueOrDefault("MONGODB_DATABASE", cfg.Mongo.Database)
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = databaseFromURI(cfg.Mongo.URI)
	}

	cfg.Graph.URI = valueOrDefault("GRAPH_URI", cfg.Graph.URI)
	cfg.Graph.Database = valueOrDefault("GRAPH_DATABASE", cfg.Graph.Database)
	cfg.Graph.Username = valueOrDefault("GRAPH_USERNAME", cfg.Graph.Username)
	cfg.Graph.Password = valueOrDefault("GRAPH_PASSWORD", cfg.Graph.Password)
	cfg.Graph.MaxConnections = parseIntWithDefault("GRAPH_MAX_CONNECTIONS", cfg.Graph.MaxConnections)

	cfg.Postgres.DSN = valueOrDefault("DATABASE_URL", cfg.Postgres.DSN)
	cfg.Postgres.MaxOpenConns = parseIntWithDefault("DATABASE_MAX_OPEN_CONNS", cfg.Postgres.MaxOpenConns)
	cfg.Postgres.MaxIdleConns = parseIntWithDefault("DATABASE_MAX_IDLE_CONNS", cfg.Postgres.MaxIdleConns)

	cfg.Auth.JWTSecret = valueOrDefault("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.BcryptCost = parseIntWithDefault("BCRYPT_COST", cfg.Auth.BcryptCost)
	if cfg.Auth.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return Config{}, ErrMissingSecret
		}
		cfg.Auth.JWTSecret = developmentSecret
		cfg.Auth.InsecureSecret = true
	}

	cfg.Logging.Level = valueOrDefault("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = valueOrDefault("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Colored = parseBoolWithDefault("LOG_COLOR", cfg.Logging.Colored)
	cfg.Logging.IncludeCaller = parseBoolWithDefault("LOG_INCLUDE_CALLER", cfg.Logging.IncludeCaller)

	return cfg, nil
}

// IsDevelopment reports whether diagnostic behaviour (permissive CORS, error
// details in responses) is enabled.
func (c Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// AllowedOrigins merges the configured CSV list with the single CORS_ORIGIN value.
func (c HTTPConfig) AllowedOrigins() []string {
	var origins []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(c.AllowedOriginsCSV+","+c.ExtraOrigin, ",") {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, ok := seen[origin]; ok {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func databaseFromURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return defaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return defaultMongoDatabase
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseDuration(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = d
	return nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
