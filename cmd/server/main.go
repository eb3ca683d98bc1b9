package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"deliverydesk/backend/internal/aggregate"
	"deliverydesk/backend/internal/config"
	"deliverydesk/backend/internal/httpapi"
	"deliverydesk/backend/internal/kv"
	"deliverydesk/backend/internal/lifecycle"
	"deliverydesk/backend/internal/logger"
	"deliverydesk/backend/internal/persistence"
	"deliverydesk/backend/internal/service"
	"deliverydesk/backend/internal/store/memory"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "read .env: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Setup(logger.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stdout}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid log configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := openKV(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.KVBackend).Msg("key-value store unavailable")
	}
	log.Info().Str("backend", cfg.KVBackend).Msg("key-value store ready")

	repo := memory.New(time.Now)
	syncer := persistence.NewArchiveSyncer(store)
	lc := lifecycle.NewEngine(repo, syncer, time.Now, cfg.DelayThreshold)
	loader := persistence.NewLoader(seedSource(cfg), store)
	svc := service.New(repo, lc, aggregate.NewEngine(repo), loader, syncer, persistence.NewThemeStore(store))

	loadCtx, loadCancel := context.WithTimeout(context.Background(), cfg.LoadTimeout)
	if err := svc.Initialize(loadCtx); err != nil {
		log.Error().Err(err).Msg("serving without data; readiness stays down")
	}
	loadCancel()

	api := httpapi.New(svc, cfg.AllowedOrigin)
	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Address()).Msg("delivery desk backend listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	if err := syncer.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("pending archive writes dropped")
	}
	if n := syncer.Failures(); n > 0 {
		log.Warn().Int64("failures", n).Msg("some archive writes failed")
	}
	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("close error")
	}

	log.Info().Msg("server stopped")
}

func openKV(ctx context.Context, cfg config.Config) (kv.Store, error) {
	switch cfg.KVBackend {
	case config.BackendFile:
		return kv.NewFile(cfg.KVDir)
	case config.BackendRedis:
		r := kv.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, err
		}
		return r, nil
	case config.BackendPostgres:
		return kv.NewPostgres(ctx, cfg.DatabaseURL)
	case config.BackendMemory, "":
		return kv.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown kv backend %q", cfg.KVBackend)
	}
}

func seedSource(cfg config.Config) persistence.Source {
	if cfg.DataBaseURL != "" {
		return persistence.HTTPSource{
			BaseURL: cfg.DataBaseURL,
			Client:  &http.Client{Timeout: cfg.LoadTimeout},
		}
	}
	return persistence.DirSource{Dir: cfg.DataDir}
}
