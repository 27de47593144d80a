// Package main provides the vitacoach conversation server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhartinger/vitacoach-go/internal/assembler"
	"github.com/jhartinger/vitacoach-go/internal/coach"
	"github.com/jhartinger/vitacoach-go/internal/config"
	"github.com/jhartinger/vitacoach-go/internal/db"
	"github.com/jhartinger/vitacoach-go/internal/eval"
	"github.com/jhartinger/vitacoach-go/internal/llm"
	"github.com/jhartinger/vitacoach-go/internal/memory"
	"github.com/jhartinger/vitacoach-go/internal/metrics"
	"github.com/jhartinger/vitacoach-go/internal/server"
	"github.com/jhartinger/vitacoach-go/internal/wellness"
)

func main() {
	port := flag.String("port", "", "listen port (overrides VITACOACH_PORT)")
	flag.Parse()

	cfg := config.Load()
	if *port != "" {
		cfg.ServerPort = *port
	}

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("failed to close log file", "error", err)
		}
	}()
	slog.SetDefault(logger)

	logger.Info("starting vitacoach-server", "port", cfg.ServerPort, "provider", cfg.LLMProvider)

	collector := metrics.NewCollector()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbClient, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger, collector)
	if err != nil {
		cancel()
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := dbClient.InitSchema(ctx); err != nil {
		cancel()
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}
	cancel()
	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	model, err := llm.NewModel(cfg, collector)
	if err != nil {
		logger.Error("failed to create LLM model", "error", err)
		os.Exit(1)
	}

	reader := wellness.NewClient(cfg.WellnessAPIURL, cfg.WellnessAPIKey)
	store := memory.NewStore(dbClient, model, cfg.MemoryConfidenceMin, logger, collector)
	asm := assembler.New(reader, cfg.Budgets, logger)
	judge := eval.NewJudge(dbClient, model, cfg.EvalSampleRate, logger)

	orchestrator := coach.New(dbClient, store, model, reader, asm, logger, collector).
		WithEvaluator(judge)

	srv := server.New(":"+cfg.ServerPort, orchestrator, collector, logger)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(runCtx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
