// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"opening-server/internal/api/routes"
	"opening-server/internal/auth"
	"opening-server/internal/config"
	"opening-server/internal/narrative"
	"opening-server/internal/pipeline"
	"opening-server/internal/queue"
	"opening-server/internal/storage"
	"opening-server/internal/storage/leveldb"
	"opening-server/internal/storage/postgres"
	"opening-server/internal/transform"
	"opening-server/internal/video"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	configPath := os.Getenv("OPENING_CONFIG_FILE")
	if configPath == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Stores
	tasks := storage.NewMemoryTaskStore()
	users := storage.NewMemoryUserStore()

	var openings storage.OpeningStore
	switch cfg.Storage.Openings {
	case "leveldb":
		openings, err = leveldb.NewClient(cfg.Storage.LevelDB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open leveldb openings store")
		}
	case "postgres":
		openings, err = postgres.NewClient(cfg.Storage.Postgres)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres openings store")
		}
	default:
		openings = storage.NewMemoryOpeningStore()
	}
	defer openings.Close()

	// Job queue
	var jobQueue queue.Queue
	if cfg.Queue.Backend == "nats" {
		jobQueue, err = queue.NewNATS(cfg.Queue, logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to nats")
		}
	} else {
		jobQueue = queue.NewMemory(cfg.Queue.Buffer)
	}
	defer jobQueue.Close()

	// Authenticator: mock unless jwt is configured
	var authenticator auth.Authenticator
	if cfg.Auth.Mode == "jwt" {
		authenticator = auth.NewJWT(cfg.Auth.JWTSecret)
	} else {
		authenticator = auth.NewMock(users)
	}

	// Collaborators
	transformer := transform.NewClient(cfg.Replicate, logger)
	narrator := narrative.NewGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.MaxTokens, logger)
	composer := video.NewComposer(cfg.Video, logger)

	panicHandler := func(p any) {
		logger.Error().Interface("panic", p).Msg("panic in worker pool")
	}

	// Separate pools keep per-image transform fan-out from starving job slots.
	jobPool, err := ants.NewPool(cfg.Worker.MaxWorkers, ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create job pool")
	}
	defer jobPool.Release()

	transformPool, err := ants.NewPool(cfg.Worker.MaxWorkers*4, ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create transform pool")
	}
	defer transformPool.Release()

	driver := pipeline.NewDriver(tasks, transformer, narrator, narrator, composer, transformPool, cfg.Video.TempDir, logger)
	worker := pipeline.NewWorker(jobQueue, driver, jobPool, logger)

	sweeper := pipeline.NewSweeper(tasks,
		time.Duration(cfg.Retention.MaxAgeSeconds)*time.Second,
		time.Duration(cfg.Retention.SweepSeconds)*time.Second,
		logger)
	sweeper.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := worker.Start(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("pipeline worker stopped")
			cancel()
		}
	}()

	router := routes.SetupRouter(cfg, tasks, openings, jobQueue, authenticator, logger)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server stopped")
			cancel()
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case <-ctx.Done():
	}

	shutdownTimeout := time.Duration(cfg.Worker.ShutdownTimeout) * time.Second

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	if err := worker.Shutdown(shutdownTimeout); err != nil {
		logger.Error().Err(err).Msg("error during worker shutdown")
	}

	sweeper.Stop()
	logger.Info().Msg("shutdown complete")
}
