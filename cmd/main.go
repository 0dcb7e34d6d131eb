package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"eshop/internal/api"
	"eshop/internal/config"
	"eshop/internal/events"
	"eshop/internal/repository"
	"eshop/internal/service"
	"eshop/internal/storage"
	"eshop/migrations"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "main").Logger()

func connectDB(cfg config.DBConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", cfg.DSN())
		if err == nil {
			err = db.Ping()
			if err == nil {
				db.SetMaxOpenConns(cfg.MaxOpenConns)
				db.SetMaxIdleConns(cfg.MaxIdleConns)
				db.SetConnMaxLifetime(cfg.ConnMaxLife)
				logger.Info().Msgf("Connected to DB %s", cfg.Name)
				return db, nil
			}
			db.Close()
		}
		logger.Warn().Err(err).Msgf("Retry %d: failed to connect to DB %s (%s:%s)", i+1, cfg.Name, cfg.Host, cfg.Port)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %w", cfg.Name, cfg.Host, cfg.Port, err)
}

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.AppEnv == "dev" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	db, err := connectDB(cfg.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Database unavailable")
	}
	defer db.Close()

	if err := migrations.AutoMigrate(context.Background(), db, 3); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate schema")
	}

	rates, err := service.NewRateTable(cfg.CanonicalCurrency, cfg.CurrencyRates)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid currency rates")
	}
	images, err := storage.NewImageStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("Upload directory unavailable")
	}

	var idem service.IdempotencyStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		idem = repository.NewIdempotencyStore(rdb)
	} else {
		logger.Info().Msg("REDIS_ADDR not set, idempotency keys disabled")
	}

	var publisher service.EventPublisher
	if kafkaWriter := config.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaOrderTopic); kafkaWriter != nil {
		defer kafkaWriter.Close()
		publisher = events.NewKafkaPublisher(kafkaWriter)
	} else {
		logger.Info().Msg("KAFKA_BROKERS not set, order events disabled")
	}

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	authService := service.NewAuthService(userRepo, rates, service.AuthConfig{
		Secret:     cfg.JWTSecret,
		TTL:        cfg.JWTTTL,
		BcryptCost: cfg.BcryptCost,
	})
	e := api.NewServer(api.ServerConfig{
		UploadDir:      images.Dir(),
		RequestTimeout: cfg.RequestTimeout,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
	}, api.Services{
		Auth:    authService,
		Catalog: service.NewCatalogService(productRepo, rates, images),
		Orders:  service.NewOrderService(cartRepo, orderRepo, idem, publisher),
		Admin:   service.NewAdminService(userRepo, orderRepo, publisher),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
