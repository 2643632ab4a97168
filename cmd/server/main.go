package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hackathon-portal/internal/config"
	"hackathon-portal/internal/db"
	"hackathon-portal/internal/events"
	"hackathon-portal/internal/logging"
	"hackathon-portal/internal/ratelimit"
	"hackathon-portal/internal/server"
	"hackathon-portal/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st store.Store
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		if err := db.Migrate(conn); err != nil {
			log.Fatal().Err(err).Msg("database migration failed")
		}
		st = store.NewGorm(conn)
	} else {
		log.Warn().Msg("DATABASE_URL is not set; using in-memory store")
		st = store.NewMemory()
	}

	var opts []server.Option
	if cfg.RedisURL != "" {
		client, err := ratelimit.Dial(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable; login limits are per process")
		} else {
			defer client.Close()
			opts = append(opts, server.WithLimiter(ratelimit.NewRedis(client, cfg.LoginMaxAttempts, cfg.LoginWindow())))
		}
	}
	if cfg.NATSURL != "" {
		publisher, err := events.ConnectNATS(cfg.NATSURL, cfg.NATSSubjectPrefix)
		if err != nil {
			log.Warn().Err(err).Msg("nats unavailable; events are stored only")
		} else {
			opts = append(opts, server.WithPublisher(publisher))
		}
	}

	srv := server.New(st, cfg, opts...)
	defer srv.Close()
	if err := srv.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("bootstrap failed")
	}
	go srv.Timer().Run(ctx)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().Str("addr", httpServer.Addr).Msg("hackathon portal listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("server stopped")
}
