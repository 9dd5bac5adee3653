package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"research-rag/internal/auth"
	"research-rag/internal/cache"
	"research-rag/internal/config"
	"research-rag/internal/db"
	"research-rag/internal/embedding"
	"research-rag/internal/llm"
	"research-rag/internal/rag"
	"research-rag/internal/server"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, relying on the environment")
	}

	configPath := flag.String("config", configFilePath, "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create embedder")
	}

	model, err := llm.Select(llm.Probes(cfg.Providers))
	if err != nil {
		if !errors.Is(err, llm.ErrUnavailable) {
			log.Fatal().Err(err).Msg("Failed to select language model")
		}
		log.Warn().Msg("No language model available, generation endpoints will report 503")
	}

	pipeline := rag.NewRAG(embedder, model)

	var database *bun.DB
	if cfg.Database.URL != "" {
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		database = db.NewDB(sqldb, cfg.Database.Debug)
		defer database.Close()

		if err := db.InitDB(ctx, database); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database schema")
		}
	} else {
		log.Warn().Msg("No database configured, articles and conversations will not be persisted")
	}

	var store *cache.Store
	if cfg.Redis.Addr != "" {
		store = cache.NewStore(cfg.Redis)
		defer store.Close()

		if err := store.Ping(ctx); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
		}
		if database != nil {
			worker := cache.NewSyncWorker(store, database, time.Duration(cfg.Redis.SyncMinutes)*time.Minute)
			go worker.Run(ctx)
		}
	}

	var verifier server.TokenVerifier
	if cfg.Auth.BaseURL != "" {
		verifier = auth.NewVerifier(cfg.Auth)
	} else {
		log.Warn().Msg("No auth endpoint configured, authenticated routes are disabled")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.New(pipeline, verifier, database, store, pipeline.ModelName(), cfg.EmbedLLM.Model).Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("model", pipeline.ModelName()).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
