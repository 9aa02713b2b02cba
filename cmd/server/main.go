package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/campaign-tracker/internal/config"
	"github.com/iliyamo/campaign-tracker/internal/database"
	"github.com/iliyamo/campaign-tracker/internal/feed"
	"github.com/iliyamo/campaign-tracker/internal/handler"
	"github.com/iliyamo/campaign-tracker/internal/logging"
	"github.com/iliyamo/campaign-tracker/internal/queue"
	"github.com/iliyamo/campaign-tracker/internal/repository"
	"github.com/iliyamo/campaign-tracker/internal/router"
	"github.com/iliyamo/campaign-tracker/internal/service"
)

func main() {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(logging.Config(cfg.Log))
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ready := map[string]handler.Pinger{}

	// ---- Store ----
	var stores service.Stores
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using the in-memory store; data is lost on restart")
		stores = service.MemoryStores(repository.NewMemoryStore())
	default:
		db, err := database.Open(cfg.DB.User, cfg.DB.Pass, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
		if err != nil {
			logger.ErrorWithErr("database unavailable", err)
			os.Exit(1)
		}
		defer db.Close()
		if cfg.AutoMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				logger.ErrorWithErr("migration failed", err)
				os.Exit(1)
			}
		}
		ready["mysql"] = pingDB(db)
		stores = service.MySQLStores(db)
	}

	// ---- Change feed ----
	var notifier feed.Notifier = feed.NewLocal()
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
		notifier = feed.NewRedis(rdb)
		ready["redis"] = pingRedis(rdb)
		logger.Infof("redis connected at %s", cfg.Redis.Addr)
	} else {
		logger.Warn("redis unavailable; live updates and rate limits are per process")
	}

	// ---- Events ----
	var events queue.Publisher = queue.Noop{}
	if cfg.Events.URL != "" {
		events = queue.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Queue, logger)
		consumer := queue.NotificationConsumer{
			URL:     cfg.Events.URL,
			Queue:   cfg.Events.Queue,
			LogPath: cfg.Events.NotificationLog,
			Logger:  logger.WithField("component", "notifications"),
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorWithErr("notification consumer stopped", err)
			}
		}()
	}

	svc := service.New(service.Deps{
		Stores: stores,
		Tokens: service.TokenConfig{
			Secret:         cfg.JWTSecret,
			AccessTTLMin:   cfg.AccessTTLMin,
			RefreshTTLDays: cfg.RefreshTTLDays,
			BcryptCost:     cfg.BcryptCost,
		},
		Notifier: notifier,
		Events:   events,
		Logger:   logger,
	})

	e := router.New(router.Deps{
		Services:  svc,
		Options:   handler.Options{Timeout: cfg.RequestTimeout, StreamBeat: cfg.StreamBeat},
		RateLimit: cfg.RateLimit,
		Redis:     rdb,
		Logger:    logger,
		Ready:     ready,
	})

	addr := ":" + cfg.Port
	logger.Infof("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreDriver)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithErr("server failed", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdown); err != nil {
		logger.ErrorWithErr("shutdown", err)
	}
	logger.Info("stopped")
}

func pingDB(db *sql.DB) handler.Pinger {
	return func(ctx context.Context) error { return db.PingContext(ctx) }
}

func pingRedis(rdb *redis.Client) handler.Pinger {
	return func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
}
