// File path: cmd/meditrack/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Jay-Jay-Tee/meditrack-ai/internal/api"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/catalog"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/common"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/llm"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/orchestrator"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/vector"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		common.Logger().Warn("main: could not load .env file", "error", err)
	}
	logger := common.Logger()

	addr := flag.String("addr", ":8080", "listen address")
	catalogPath := flag.String("catalog", "data/catalog.db", "path to the sqlite patient catalog")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := vector.NewFromEnv(ctx)
	if err != nil {
		logger.Error("main: vector store configuration invalid", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	provider := llm.NewProvider()
	providerName := provider.Name()
	provider = llm.WithRateLimit(provider, llmRPSFromEnv(), llmBurstFromEnv())

	var cat *catalog.Store
	if *catalogPath != "" {
		cat, err = catalog.Open(ctx, *catalogPath)
		if err != nil {
			logger.Warn("main: patient catalog unavailable, continuing without it", "path", *catalogPath, "error", err)
			cat = nil
		} else {
			defer cat.Close()
		}
	}

	orch := orchestrator.New(store, provider, cat, orchestrator.LoadConfig())
	server := &http.Server{
		Addr:              *addr,
		Handler:           api.NewServer(orch, store, cat, providerName),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("main: http server listening", "addr", *addr, "provider", providerName)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("main: shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("main: http server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("main: server stopped")
}

func llmRPSFromEnv() float64 {
	if value := strings.TrimSpace(os.Getenv("MEDITRACK_LLM_RPS")); value != "" {
		if rps, err := strconv.ParseFloat(value, 64); err == nil && rps > 0 {
			return rps
		}
		common.Logger().Warn("main: invalid MEDITRACK_LLM_RPS, using default", "value", value)
	}
	return 2
}

func llmBurstFromEnv() int {
	if value := strings.TrimSpace(os.Getenv("MEDITRACK_LLM_BURST")); value != "" {
		if burst, err := strconv.Atoi(value); err == nil && burst > 0 {
			return burst
		}
		common.Logger().Warn("main: invalid MEDITRACK_LLM_BURST, using default", "value", value)
	}
	return 4
}
