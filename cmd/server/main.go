// Command server runs the tutor backend: the conversational agent,
// its checkpoint and guide stores, and the HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tutorgraph/tutorgraph/internal/agent"
	"github.com/tutorgraph/tutorgraph/internal/api"
	"github.com/tutorgraph/tutorgraph/internal/config"
	"github.com/tutorgraph/tutorgraph/internal/flow/checkpoint"
	"github.com/tutorgraph/tutorgraph/internal/flow/observability"
	"github.com/tutorgraph/tutorgraph/internal/guide"
	"github.com/tutorgraph/tutorgraph/internal/llm"
	"github.com/tutorgraph/tutorgraph/internal/rag"
	"github.com/tutorgraph/tutorgraph/internal/tool"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	for _, path := range []string{cfg.CheckpointDBPath, cfg.GuidesDBPath} {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
	}

	checkpoints, err := checkpoint.NewSQLite(cfg.CheckpointDBPath)
	if err != nil {
		return err
	}
	defer checkpoints.Close()

	guides, err := guide.NewStore(cfg.GuidesDBPath)
	if err != nil {
		return err
	}
	defer guides.Close()

	var llmOpts []llm.OpenAIOption
	if cfg.LLMBaseURL != "" {
		llmOpts = append(llmOpts, llm.WithBaseURL(cfg.LLMBaseURL))
	}
	llmOpts = append(llmOpts, llm.WithModel(cfg.LLMModel))
	client := llm.NewOpenAIClient(cfg.LLMAPIKey, llmOpts...)

	ragClient := rag.NewClient(cfg.RAGServiceURL)
	quizGen := tool.NewQuizGenerator(client)

	registry := tool.NewRegistry(
		tool.NewWebSearch(),
		tool.NewGuideLookup(guides),
		tool.NewRAGSearch(ragClient),
		quizGen,
	)

	tutor, err := agent.New(client, registry, quizGen, checkpoints,
		agent.WithLogger(logger),
		agent.WithMetrics(observability.NewMetrics()),
		agent.WithModel(cfg.LLMModel),
		agent.WithTemperature(cfg.LLMTemperature),
	)
	if err != nil {
		return err
	}

	handler := api.NewHandler(tutor, guides, guide.NewScraper(), logger)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
