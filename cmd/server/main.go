// Package main provides the PDF Q&A web server entry point.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bull/pdf-qa-server/internal/config"
	"github.com/bull/pdf-qa-server/internal/document"
	"github.com/bull/pdf-qa-server/internal/embedding"
	"github.com/bull/pdf-qa-server/internal/indexer"
	"github.com/bull/pdf-qa-server/internal/llm"
	"github.com/bull/pdf-qa-server/internal/qa"
	"github.com/bull/pdf-qa-server/internal/splitter"
	"github.com/bull/pdf-qa-server/internal/storage"
	"github.com/bull/pdf-qa-server/internal/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Configuration error", "error", err)
		os.Exit(1)
	}

	embedder, embedderClose, err := newEmbedder(ctx, cfg)
	if err != nil {
		logger.Error("Failed to create embedder", "error", err)
		os.Exit(1)
	}
	if embedderClose != nil {
		defer embedderClose()
	}

	completer, completerClose, err := newCompleter(ctx, cfg)
	if err != nil {
		logger.Error("Failed to create completer", "error", err)
		os.Exit(1)
	}
	if completerClose != nil {
		defer completerClose()
	}

	store, err := newStore(cfg, embedder)
	if err != nil {
		logger.Error("Failed to open vector store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	pipeline := indexer.NewPipeline(
		document.NewLoader(logger),
		splitter.New(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder,
		store,
		logger,
	)
	engine := qa.NewEngine(embedder, completer, logger)

	// Bind immediately when a persisted index from a previous run is
	// usable, so questions work without a fresh upload.
	if ready, err := store.Ready(ctx); err != nil {
		logger.Warn("Persisted index unusable", "error", err)
	} else if ready {
		engine.Bind(store)
		logger.Info("Reusing persisted index", "dir", cfg.IndexDir)
	}

	server := web.NewServer(&web.Config{
		Pipeline:      pipeline,
		Engine:        engine,
		Store:         store,
		ExportDir:     cfg.ExportDir,
		MaxUploadSize: cfg.MaxUploadSize,
		CORSOrigins:   cfg.CORSOrigins,
		Logger:        logger,
	})

	addr := "0.0.0.0:" + cfg.Port
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}

	go func() {
		logger.Info("Starting server", "addr", addr, "provider", cfg.Provider, "backend", cfg.VectorBackend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
}

func newEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, func() error, error) {
	if cfg.Provider == config.ProviderGoogle {
		emb, err := embedding.NewGeminiEmbedder(ctx, cfg.GoogleKey)
		if err != nil {
			return nil, nil, err
		}
		return emb, emb.Close, nil
	}
	return embedding.NewOpenAIEmbedder(cfg.OpenAIKey, 0), nil, nil
}

func newCompleter(ctx context.Context, cfg *config.Config) (llm.Completer, func() error, error) {
	if cfg.Provider == config.ProviderGoogle {
		comp, err := llm.NewGeminiCompleter(ctx, cfg.GoogleKey, "")
		if err != nil {
			return nil, nil, err
		}
		return comp, comp.Close, nil
	}
	return llm.NewOpenAICompleter(cfg.OpenAIKey, llm.OpenAIModel), nil, nil
}

func newStore(cfg *config.Config, embedder embedding.Embedder) (storage.VectorStore, error) {
	if cfg.VectorBackend == config.BackendQdrant {
		return storage.NewQdrantStore(cfg.QdrantHost, cfg.QdrantPort, embedder.Model(), embedder.Dimension())
	}
	return storage.NewSQLiteStore(cfg.IndexDir, embedder.Model(), embedder.Dimension())
}
