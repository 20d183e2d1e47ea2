// Command server runs the Prompt Vault marketplace HTTP API.
//
// @title       Prompt Vault API
// @version     1.0
// @description Marketplace for publishing, purchasing, liking and rating prompts.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/prompt-vault/docs"
	"github.com/tbourn/prompt-vault/internal/config"
	"github.com/tbourn/prompt-vault/internal/events"
	httpapi "github.com/tbourn/prompt-vault/internal/http"
	"github.com/tbourn/prompt-vault/internal/observability"
	"github.com/tbourn/prompt-vault/internal/repo"
	"github.com/tbourn/prompt-vault/internal/services"
	"github.com/tbourn/prompt-vault/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = ""

const purgeInterval = 10 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	closer := sysutil.SetupLogger(sysutil.LogOptions{Level: cfg.LogLevel, Pretty: cfg.LogPretty, File: cfg.LogFile})
	defer closer.Close()
	gin.SetMode(cfg.GinMode)

	ver := sysutil.FirstNonEmpty(version, os.Getenv("APP_VERSION"), "dev")
	shutdownOTel, err := observability.SetupOTel(context.Background(), cfg.OTEL, ver)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("dsn", cfg.DBPath).Msg("open record store")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate record store")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Warn().Err(err).Msg("gorm tracing disabled")
		}
	}

	var pub events.Publisher = events.Noop{}
	if cfg.AMQPURL != "" {
		mq, err := events.NewRabbitMQ(events.RabbitConfig{URL: cfg.AMQPURL, Queue: cfg.AMQPQueue})
		if err != nil {
			log.Fatal().Err(err).Str("queue", cfg.AMQPQueue).Msg("connect rabbitmq")
		}
		pub = mq
	}
	defer pub.Close()

	svc := &services.MarketplaceService{DB: db, Events: pub}

	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	docs.SwaggerInfo.Version = ver

	r := gin.New()
	httpapi.RegisterRoutes(r, svc, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go purgeIdempotency(ctx, db, purgeInterval)

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", ver).Bool("jwt", cfg.AuthJWTSecret != "").Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
}

// purgeIdempotency drops expired replay records every interval until ctx is
// done.
func purgeIdempotency(ctx context.Context, db *gorm.DB, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency records")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("purged idempotency records")
			}
		}
	}
}
