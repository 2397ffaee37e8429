package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Devkz19/Take-Home-inventory/internal/cache"
	"github.com/Devkz19/Take-Home-inventory/internal/config"
	"github.com/Devkz19/Take-Home-inventory/internal/consumer"
	"github.com/Devkz19/Take-Home-inventory/internal/db"
	"github.com/Devkz19/Take-Home-inventory/internal/discovery"
	"github.com/Devkz19/Take-Home-inventory/internal/handlers"
	"github.com/Devkz19/Take-Home-inventory/internal/logger"
	"github.com/Devkz19/Take-Home-inventory/internal/media"
	"github.com/Devkz19/Take-Home-inventory/internal/messaging"
	"github.com/Devkz19/Take-Home-inventory/internal/metrics"
	"github.com/Devkz19/Take-Home-inventory/internal/publisher"
	"github.com/Devkz19/Take-Home-inventory/internal/ratelimit"
	"github.com/Devkz19/Take-Home-inventory/internal/server"
	"github.com/Devkz19/Take-Home-inventory/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Product service failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the product store
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// Redis backs the read cache and the rate limiter
	var limiter ratelimit.Limiter
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn("Redis unavailable, running without cache and rate limiting", zap.Error(err))
		} else {
			defer redisCache.Close()
			store = db.NewCachedProductRepository(store, redisCache, log)
			limiter = ratelimit.NewRedisLimiter(redisCache.Client())
		}
	}

	// Media store behind a circuit breaker
	s3Store, err := media.NewS3Store(ctx, cfg.Media, log)
	if err != nil {
		return fmt.Errorf("failed to create media store: %w", err)
	}
	if err := s3Store.EnsureBucket(ctx); err != nil {
		log.Warn("Could not ensure media bucket", zap.String("bucket", cfg.Media.Bucket), zap.Error(err))
	}
	mediaStore := media.NewBreakerStore(s3Store, cfg.Media, log)
	health := handlers.NewHealthHandler(cfg.Server.Name, store, mediaStore, log)

	var m *metrics.Metrics
	var recorder service.Recorder
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Server.Name)
		recorder = m
	}

	// RabbitMQ carries product events out and stock adjustments in
	var events service.EventPublisher
	var rabbitMQ *messaging.RabbitMQ
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err = messaging.NewRabbitMQ(cfg.RabbitMQ, log)
		if err != nil {
			log.Warn("RabbitMQ unavailable, events disabled", zap.Error(err))
		} else {
			defer rabbitMQ.Close()
			pub, err := publisher.NewProductPublisher(rabbitMQ)
			if err != nil {
				return err
			}
			events = pub
		}
	}

	productService := service.NewProductService(store, mediaStore, events, recorder, log)

	if rabbitMQ != nil {
		var messages consumer.MessageRecorder
		if m != nil {
			messages = m
		}
		if err := startStockConsumer(ctx, rabbitMQ, productService, messages, log); err != nil {
			return err
		}
	}

	srv := server.New(cfg, server.Dependencies{
		Products: handlers.NewProductHandler(productService),
		Health:   health,
		Metrics:  m,
		Limiter:  limiter,
	}, log)

	// Register with Consul
	if cfg.Consul.Enabled {
		consul, err := discovery.NewConsulClient(cfg.Consul, log)
		if err != nil {
			log.Warn("Consul unavailable, skipping registration", zap.Error(err))
		} else {
			err = consul.Register(discovery.ServiceConfig{
				Name: cfg.Server.Name,
				ID:   cfg.Consul.ServiceID,
				Port: cfg.Server.Port,
				Tags: []string{"api", "products"},
			})
			if err != nil {
				return err
			}
			// Deregister on shutdown
			defer consul.Deregister(cfg.Consul.ServiceID)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
	return nil
}

// openStore connects the configured driver and returns its close function.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (db.ProductStore, func(), error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		database, err := db.NewPostgresDB(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, nil, err
		}
		return db.NewProductRepository(database), func() { database.Close() }, nil

	default:
		database, err := db.NewMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Timeout, log)
		if err != nil {
			return nil, nil, err
		}
		repo := db.NewMongoProductRepository(database, cfg.Mongo.Collection)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Warn("Could not create product indexes", zap.Error(err))
		}
		return repo, func() { database.Disconnect(context.Background()) }, nil
	}
}

func startStockConsumer(ctx context.Context, mq *messaging.RabbitMQ, adjuster consumer.StockAdjuster, recorder consumer.MessageRecorder, log *zap.Logger) error {
	if err := mq.DeclareQueue(consumer.StockAdjustedQueue); err != nil {
		return err
	}

	messages, err := mq.Consume(consumer.StockAdjustedQueue)
	if err != nil {
		return err
	}

	stockConsumer := consumer.NewStockConsumer(adjuster, recorder, log)
	go stockConsumer.ProcessStockAdjusted(ctx, messages)
	return nil
}
