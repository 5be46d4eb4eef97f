package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/vbonduro/dinnerplanner/internal/config"
	"github.com/vbonduro/dinnerplanner/internal/db"
	"github.com/vbonduro/dinnerplanner/internal/logging"
	"github.com/vbonduro/dinnerplanner/internal/service"
	"github.com/vbonduro/dinnerplanner/internal/store"
	"github.com/vbonduro/dinnerplanner/internal/store/mongostore"
	"github.com/vbonduro/dinnerplanner/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn := db.NewConnector(newStoreDialer(cfg, logger), service.CloseStores, cfg.ConnectTimeout, logger)
	planner := service.NewPlanner(conn, cfg.OpTimeout, logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := planner.Close(closeCtx); err != nil {
			logger.Error("failed to close store connection", "error", err)
		}
	}()

	server := web.NewServer(planner, logger)
	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

// newStoreDialer returns the dial function for the configured backend. The
// connection itself is made lazily on the first request.
func newStoreDialer(cfg *config.Config, logger *slog.Logger) db.DialFunc[*service.Stores] {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		logger.Info("using mongodb store backend", "database", cfg.MongoDatabase)
		return func(ctx context.Context) (*service.Stores, error) {
			client, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
			if err != nil {
				return nil, err
			}
			return &service.Stores{
				Foods:    client.Foods(),
				Recipes:  client.Recipes(),
				Database: client.DatabaseName(),
				Ping:     client.Ping,
				Close:    client.Close,
			}, nil
		}
	default:
		logger.Info("using sqlite store backend", "path", cfg.DBPath)
		return func(ctx context.Context) (*service.Stores, error) {
			database, err := db.Open(ctx, cfg.DBPath)
			if err != nil {
				return nil, err
			}
			return &service.Stores{
				Foods:    store.NewFoodStore(database),
				Recipes:  store.NewRecipeStore(database),
				Database: filepath.Base(cfg.DBPath),
				Ping:     database.PingContext,
				Close:    func(context.Context) error { return database.Close() },
			}, nil
		}
	}
}
