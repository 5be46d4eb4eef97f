package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

type Config struct {
	ListenAddr     string
	StoreBackend   string
	DBPath         string
	MongoURI       string
	MongoDatabase  string
	ConnectTimeout time.Duration
	OpTimeout      time.Duration
	LogLevel       string
	LogFormat      string
	LogFile        string
}

// Load reads configuration from the environment. Values from .env.local and
// .env are applied first when those files exist; real environment variables
// always win.
func Load() *Config {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	return &Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		StoreBackend:   getEnv("STORE_BACKEND", BackendSQLite),
		DBPath:         getEnv("DB_PATH", "/data/dinnerplanner.db"),
		MongoURI:       getEnv("MONGODB_URI", ""),
		MongoDatabase:  getEnv("MONGODB_DATABASE", "dinner-planner"),
		ConnectTimeout: getDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
		OpTimeout:      getDuration("DB_OP_TIMEOUT", 5*time.Second),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		LogFile:        getEnv("LOG_FILE", ""),
	}
}

// Validate reports the first configuration problem that would stop the
// server from serving requests.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required when STORE_BACKEND=%s", BackendSQLite)
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORE_BACKEND=%s", BackendMongo)
		}
		if c.MongoDatabase == "" {
			return fmt.Errorf("MONGODB_DATABASE must not be empty")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("DB_CONNECT_TIMEOUT must be positive")
	}
	if c.OpTimeout <= 0 {
		return fmt.Errorf("DB_OP_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

// getDuration parses key as a time.Duration, falling back to defaultVal when
// the variable is unset. An unparsable value yields 0 so Validate reports it.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0
	}
	return d
}
