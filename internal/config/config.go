package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Mode selects how the HTTP host is exposed.
type Mode string

const (
	// ModeStandalone listens on a port and serves /health.
	ModeStandalone Mode = "standalone"
	// ModeServerless exposes an http.Handler per invocation and serves /api/health.
	ModeServerless Mode = "serverless"
)

// Config is the whole service configuration.
type Config struct {
	Mode     Mode
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Log      LogConfig
	Service  ServiceConfig
}

// ServerConfig HTTP listener settings.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	BodyLimit       int64
}

// Addr is the listen address derived from Port.
func (s ServerConfig) Addr() string {
	if strings.Contains(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}

// DatabaseConfig selects and tunes the scene store. The URL scheme picks the
// backend: mongodb/mongodb+srv, postgres/postgresql, or memory.
type DatabaseConfig struct {
	URL             string
	MongoDatabase   string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// CacheConfig enables the Valkey list cache when Addr is set.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Enabled reports whether a cache server is configured.
func (c CacheConfig) Enabled() bool { return c.Addr != "" }

// AuthConfig Clerk session verification settings.
type AuthConfig struct {
	JWTKey            string
	AuthorizedParties []string
	EnforceOwnership  bool
}

// CORSConfig cross-origin settings.
type CORSConfig struct {
	AllowOrigins string
	AllowHeaders string
}

// LogConfig logger settings.
type LogConfig struct {
	Level  string
	Format string
}

// ServiceConfig identifies the service in health responses.
type ServiceConfig struct {
	Name string
}

const defaultBodyLimit = 50 * 1024 * 1024

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment and validates it.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Mode: Mode(strings.ToLower(getEnv("DEPLOY_MODE", string(ModeStandalone)))),
		Server: ServerConfig{
			Port:            getEnv("PORT", "3000"),
			ReadTimeout:     getDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getDuration("IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			BodyLimit:       getInt64("BODY_LIMIT_BYTES", defaultBodyLimit),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", getEnv("MONGODB_URI", "")),
			MongoDatabase:   getEnv("MONGODB_DATABASE", "dronepilot"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Cache: CacheConfig{
			Addr:     getEnv("VALKEY_ADDR", ""),
			Password: getEnv("VALKEY_PASSWORD", ""),
			DB:       getInt("VALKEY_DB", 0),
			TTL:      getDuration("SCENE_CACHE_TTL", 30*time.Second),
		},
		Auth: AuthConfig{
			JWTKey:            normalizePEM(getEnv("CLERK_JWT_KEY", "")),
			AuthorizedParties: getList("CLERK_AUTHORIZED_PARTIES"),
			EnforceOwnership:  getBool("ENFORCE_SCENE_OWNERSHIP", false),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
			AllowHeaders: getEnv("CORS_ALLOW_HEADERS", "Content-Type, Authorization, X-Requested-With"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Service: ServiceConfig{
			Name: getEnv("SERVICE_NAME", "dronepilot-backend"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Mode != ModeStandalone && c.Mode != ModeServerless {
		errs = append(errs, fmt.Errorf("DEPLOY_MODE must be %q or %q, got %q", ModeStandalone, ModeServerless, c.Mode))
	}
	if c.Auth.JWTKey == "" {
		errs = append(errs, errors.New("CLERK_JWT_KEY is required"))
	}
	switch {
	case c.Database.URL == "":
		errs = append(errs, errors.New("DATABASE_URL is required (use memory:// for a throwaway store)"))
	case c.Mode == ModeServerless && strings.HasPrefix(strings.ToLower(c.Database.URL), "memory://"):
		errs = append(errs, errors.New("DATABASE_URL memory:// does not survive serverless invocations"))
	}
	if c.Server.BodyLimit <= 0 {
		errs = append(errs, errors.New("BODY_LIMIT_BYTES must be positive"))
	}
	return errors.Join(errs...)
}

// normalizePEM turns literal "\n" sequences, common in single-line env
// values, back into newlines.
func normalizePEM(v string) string {
	return strings.ReplaceAll(v, `\n`, "\n")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes":
			return true
		default:
			return false
		}
	}
	return defaultValue
}

// getDuration accepts Go durations ("15s") or bare seconds ("15").
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}

func getList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
