package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/listening-room/internal/catalog"
	"github.com/listening-room/internal/config"
	"github.com/listening-room/internal/room"
	"github.com/listening-room/internal/server"
	"github.com/listening-room/pkg/database"
	"github.com/listening-room/pkg/events"
	"github.com/listening-room/pkg/redis"
	"github.com/listening-room/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := cfg.NewLogger()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	songs, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("failed to load song catalog: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open room store: %w", err)
	}
	defer closeStore()

	var publisher events.Publisher = events.Nop{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kafkaClient := events.NewKafkaClient(brokers, cfg.KafkaTopic, "", log)
		defer func() {
			if err := kafkaClient.Close(); err != nil {
				log.WithError(err).Warn("Failed to close kafka client")
			}
		}()
		publisher = kafkaClient
		log.WithField("topic", cfg.KafkaTopic).Info("Publishing room activity to Kafka")
	}

	rooms := room.NewService(store, publisher, room.WithLogger(log))
	router := server.NewRouter(server.Deps{
		Rooms:          rooms,
		Catalog:        songs,
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins(),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "store": cfg.StoreBackend}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err = <-serveErr:
		log.WithError(err).Error("Server stopped unexpectedly")
		err = fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		log.WithError(shutdownErr).Error("Server forced to shutdown")
	}
	return err
}

// openStore builds the configured room store and a func releasing its
// connections.
func openStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (storage.RoomStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Warn("Using in-memory room store; rooms are lost on restart")
		return storage.NewMemory(), func() {}, nil

	case config.BackendRedis:
		client, err := openRedis(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return redis.NewRoomStore(client, cfg.RoomTTL), closer(log, "redis", client.Close), nil

	case config.BackendMySQL, config.BackendMySQLCached:
		db, err := database.NewMySQLDB(cfg.MySQLHost, cfg.MySQLPort, cfg.MySQLUser, cfg.MySQLPassword, cfg.MySQLDatabase, !cfg.IsProduction())
		if err != nil {
			return nil, nil, err
		}
		primary := database.NewRoomStore(db)
		if cfg.StoreBackend == config.BackendMySQL {
			return primary, closer(log, "mysql", db.Close), nil
		}

		client, err := openRedis(ctx, cfg)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		cached := storage.NewCached(primary, redis.NewRoomStore(client, cfg.RoomTTL), log)
		return cached, func() {
			closer(log, "redis", client.Close)()
			closer(log, "mysql", db.Close)()
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func openRedis(ctx context.Context, cfg *config.Config) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr(), err)
	}
	return client, nil
}

func closer(log *logrus.Logger, name string, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			log.WithError(err).WithField("store", name).Warn("Failed to close connection")
		}
	}
}
