package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chikota/internal/config"
	"chikota/internal/database"
	"chikota/internal/server"
	"chikota/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	configureLogger(cfg.Server)

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to connect to database")
	}
	defer db.Close()

	deps := server.Deps{
		DB:         db,
		Email:      services.NewEmailService(cfg.Email),
		Summarizer: services.NewSummarizer(cfg.LLM),
	}
	if rdb := connectRedis(cfg.Redis); rdb != nil {
		defer rdb.Close()
		deps.Redis = rdb
	}

	s := server.NewServer(cfg, deps)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.RunBackground(ctx)

	done := make(chan bool, 1)
	go s.GracefulShutdown(done)

	err = s.Start()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("HTTP server error")
	}

	<-done
	log.Info().Msg("Graceful shutdown complete.")
}

func configureLogger(cfg config.ServerConfig) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// connectRedis returns nil when Redis is not configured or unreachable.
func connectRedis(cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr).Msg("Redis unreachable, falling back to in-memory rate limiting")
		rdb.Close()
		return nil
	}
	log.Info().Str("addr", cfg.Addr).Msg("Connected to Redis")
	return rdb
}
