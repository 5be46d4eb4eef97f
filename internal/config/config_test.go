package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg := Load()

	assert.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.ListenAddr)
	assert.NotEmpty(t, cfg.StoreBackend)
	assert.NotEmpty(t, cfg.MongoDatabase)
	assert.Positive(t, cfg.OpTimeout)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("STORE_BACKEND", "mongo")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("MONGODB_DATABASE", "whycook")
	t.Setenv("DB_CONNECT_TIMEOUT", "3s")
	t.Setenv("DB_OP_TIMEOUT", "250ms")
	t.Setenv("LOG_FORMAT", "text")

	cfg := Load()

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, BackendMongo, cfg.StoreBackend)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "whycook", cfg.MongoDatabase)
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.OpTimeout)
	assert.Equal(t, "text", cfg.LogFormat)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			StoreBackend:   BackendSQLite,
			DBPath:         "/tmp/x.db",
			MongoDatabase:  "dinner-planner",
			ConnectTimeout: time.Second,
			OpTimeout:      time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid sqlite", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.StoreBackend = "postgres" }, wantErr: "unknown STORE_BACKEND"},
		{name: "mongo without uri", mutate: func(c *Config) { c.StoreBackend = BackendMongo }, wantErr: "MONGODB_URI"},
		{name: "sqlite without path", mutate: func(c *Config) { c.DBPath = "" }, wantErr: "DB_PATH"},
		{name: "zero connect timeout", mutate: func(c *Config) { c.ConnectTimeout = 0 }, wantErr: "DB_CONNECT_TIMEOUT"},
		{name: "negative op timeout", mutate: func(c *Config) { c.OpTimeout = -time.Second }, wantErr: "DB_OP_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadBadDuration(t *testing.T) {
	t.Setenv("DB_OP_TIMEOUT", "soon")

	cfg := Load()

	assert.Zero(t, cfg.OpTimeout)
	assert.Error(t, cfg.Validate())
}
