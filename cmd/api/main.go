package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"scala40-advisor/internal/config"
	"scala40-advisor/internal/server"
)

func gracefulShutdown(ctx context.Context, stop context.CancelFunc, httpServer *http.Server, done chan bool) {
	<-ctx.Done()

	log.Info().Msg("shutdown signal received, press Ctrl+C again to force")
	stop() // Restore default signal handling so a second Ctrl+C kills the process

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	done <- true
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := server.NewServer(ctx, cfg)

	done := make(chan bool, 1)
	go gracefulShutdown(ctx, stop, httpServer, done)

	log.Info().Int("port", cfg.Port).Str("phase", string(cfg.DefaultPhase)).Msg("starting advisor")

	err = httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server error")
	}

	<-done
	log.Info().Msg("graceful shutdown complete")
}
