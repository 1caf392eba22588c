package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kenqu-rs/kugelpos-backend/internal/cache"
	"github.com/kenqu-rs/kugelpos-backend/internal/config"
	"github.com/kenqu-rs/kugelpos-backend/internal/domain"
	carthttp "github.com/kenqu-rs/kugelpos-backend/internal/http"
	"github.com/kenqu-rs/kugelpos-backend/internal/logger"
	"github.com/kenqu-rs/kugelpos-backend/internal/poller"
	"github.com/kenqu-rs/kugelpos-backend/internal/pricing"
	"github.com/kenqu-rs/kugelpos-backend/internal/repository"
	"github.com/kenqu-rs/kugelpos-backend/internal/service"
	"github.com/kenqu-rs/kugelpos-backend/internal/statemachine"
	"github.com/kenqu-rs/kugelpos-backend/internal/store"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Sync()

	ctx := context.Background()

	mongoOpts := repository.DefaultMongoOptions(cfg.MongoURI, cfg.MongoDBName)
	mongoOpts.ConnectTimeout = cfg.MongoConnectTimeout
	mongoOpts.MaxPoolSize = cfg.MongoMaxPoolSize
	mongoOpts.MinPoolSize = cfg.MongoMinPoolSize
	mongoDB, err := repository.ConnectMongoDB(ctx, mongoOpts)
	if err != nil {
		lg.Fatal("failed to connect to MongoDB", "uri", cfg.MongoURI, "error", err)
	}
	defer mongoDB.Client().Disconnect(context.Background())

	repo := repository.NewMongoRepository(mongoDB)
	if err := repo.CreateIndexes(ctx); err != nil {
		lg.Fatal("failed to create indexes", "error", err)
	}
	lg.Info("connected to MongoDB", "uri", cfg.MongoURI, "db", cfg.MongoDBName)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		lg.Fatal("redis connection failed", "addr", cfg.RedisAddr, "error", err)
	}
	lg.Info("redis ping succeeded", "addr", cfg.RedisAddr)

	cartStore := store.NewCachedCartStore(
		cache.NewRedisCache(redisClient, cfg.CartCacheTTL),
		repo,
		store.BreakerSettings{MaxFailures: cfg.BreakerMaxFailures, OpenTimeout: cfg.BreakerOpenTimeout},
		lg,
	)

	carts := service.NewCartService(
		cartStore,
		pricing.NewRecomputer(cfg.TaxRate, pricing.BulkDiscountRule{MinQuantity: 10, Percent: 5}),
		statemachine.NewStateManager(),
		domain.ReferenceMasters{}.WithTaxRate(cfg.TaxRate),
		lg,
	)

	pollCtx, stopPolling := context.WithCancel(ctx)
	terminalEvents := poller.NewPoller(cartStore, lg, cfg.KafkaTerminalTopic, cfg.KafkaGroupID, cfg.KafkaBrokers...)
	go terminalEvents.Run(pollCtx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: carthttp.NewRouter(carthttp.NewCartHandler(carts, cfg.RequestTimeout, lg), lg),
	}

	go func() {
		lg.Info("cart service listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("failed to serve", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down cart service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("http shutdown failed", "error", err)
	}

	stopPolling()
	terminalEvents.Close()
	cartStore.Wait()
	lg.Info("cart service stopped")
}
