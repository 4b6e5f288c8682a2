package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"net/http"
	"os"
	"os/signal"
	"storefront/internal/api"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/repository"
	"storefront/internal/repository/memory"
	"storefront/internal/repository/mysql"
	"storefront/internal/service"
	"storefront/migrations"
	"syscall"
	"time"
)

func connectDBEnv(cfg *config.Config) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", cfg.DSN())
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Info().Msgf("Connected to DB %s", cfg.DBName)
				return db, nil
			}
			db.Close()
		}
		log.Warn().Err(err).Msgf("Retry %d: failed to connect to DB %s (%s:%s)", i+1, cfg.DBName, cfg.DBHost, cfg.DBPort)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %w", cfg.DBName, cfg.DBHost, cfg.DBPort, err)
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Repositories, func(), error) {
	if cfg.Storage == config.StorageMemory {
		store := memory.NewStore()
		if cfg.Seed {
			if err := memory.Seed(ctx, store); err != nil {
				return repository.Repositories{}, nil, err
			}
			log.Info().Msg("Seeded in-memory catalog")
		}
		return store.Repositories(), func() {}, nil
	}

	db, err := connectDBEnv(cfg)
	if err != nil {
		return repository.Repositories{}, nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := migrations.AutoMigrate(ctx, 3, db); err != nil {
		db.Close()
		return repository.Repositories{}, nil, fmt.Errorf("migrate: %w", err)
	}
	return mysql.New(db), func() { db.Close() }, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("Server stopped")
		stop()
		os.Exit(1)
	}
	log.Info().Msg("Server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	repos, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer closeStore()

	var sessions service.SessionStore = cache.NewMemorySessions()
	var idempotency service.IdempotencyStore = cache.NewMemoryIdempotency()
	var invalidator events.Invalidator
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		products := cache.NewCachedProductRepository(repos.Products, rdb)
		repos.Products = products
		repos.Categories = cache.NewCachedCategoryRepository(repos.Categories, rdb)
		sessions = cache.NewRedisSessions(rdb)
		idempotency = cache.NewRedisIdempotency(rdb)
		invalidator = products
		go func() {
			if err := products.PreWarm(ctx); err != nil {
				log.Warn().Err(err).Msg("Cache pre-warm failed")
			}
		}()
		log.Info().Msgf("Using redis at %s", cfg.RedisAddr)
	}

	inventory := events.NewInventory(invalidator)
	g, gctx := errgroup.WithContext(ctx)

	var publisher events.Publisher = events.NewInlinePublisher(inventory)
	if len(cfg.KafkaBrokers) > 0 {
		writer := config.NewKafkaWriter(cfg.KafkaBrokers, config.OrderTopic)
		defer writer.Close()
		publisher = events.NewKafkaPublisher(writer)

		reader := config.NewKafkaReader(cfg.KafkaBrokers, config.OrderTopic, config.InventoryGroup)
		consumer := events.NewConsumer(reader, inventory)
		g.Go(func() error {
			defer reader.Close()
			return consumer.Run(gctx)
		})
		log.Info().Msgf("Publishing order events to %v", cfg.KafkaBrokers)
	}

	e := api.NewRouter(api.Services{
		Auth:    service.NewAuthService(repos.Users, sessions, cfg.JWTSecret, cfg.TokenTTL, cfg.AllowAdminSignup),
		Catalog: service.NewCatalogService(repos.Products, repos.Categories),
		Cart:    service.NewCartService(repos.Cart, repos.Products),
		Orders:  service.NewOrderService(repos.Orders, repos.Products, repos.Cart, publisher, idempotency),
		Admin:   service.NewAdminService(repos.Stats),
	}, api.Options{RateLimit: cfg.RateLimit, RateBurst: cfg.RateBurst})

	g.Go(func() error {
		log.Info().Msgf("Listening on :%s (%s storage)", cfg.Port, cfg.Storage)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
