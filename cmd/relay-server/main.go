package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/bulk-relay/internal/config"
	"github.com/example/bulk-relay/internal/dispatch"
	"github.com/example/bulk-relay/internal/logger"
	"github.com/example/bulk-relay/internal/server"
	"github.com/example/bulk-relay/internal/upload"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("relay-server %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", buildDate)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fail("config load", err)
	}

	baseLogger, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		fail("logger init", err)
	}
	log := baseLogger.With().Str("service", "relay-server").Logger()

	client := upload.NewClient(
		time.Duration(cfg.Upload.TimeoutSeconds)*time.Second,
		log.With().Str("component", "upload_client").Logger(),
	)

	engine, err := dispatch.NewEngine(dispatch.Dependencies{
		Sender: client,
		Logger: log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise dispatch engine")
	}

	handler, err := server.NewHandler(server.Dependencies{
		Engine: engine,
		Defaults: dispatch.Defaults{
			APIURL:     cfg.Upload.DefaultURL,
			AuthHeader: cfg.Upload.DefaultAuthHeader,
			PauseMs:    cfg.Dispatch.PauseMs,
			MaxRetries: cfg.Dispatch.MaxRetries,
		},
		MaxBodyBytes: int64(cfg.Server.MaxBodyBytes),
		Logger:       log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise http handler")
	}

	router := server.NewRouter(handler, log.With().Str("component", "http").Logger())

	addr := ":" + strconv.Itoa(cfg.App.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays zero: a /send-bulk response can take minutes
		// for a large batch with a long pause.
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info().
		Str("addr", addr).
		Str("upload_url", cfg.Upload.DefaultURL).
		Int("max_retries", cfg.Dispatch.MaxRetries).
		Int("pause_ms", cfg.Dispatch.PauseMs).
		Msg("relay server started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server terminated with error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
}

func fail(stage string, err error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Fatal().Err(err).Str("stage", stage).Msg("relay server init failed")
}
