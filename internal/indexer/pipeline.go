// Package indexer orchestrates the document-to-index pipeline:
// extract, split, embed, store.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bull/pdf-qa-server/internal/document"
	"github.com/bull/pdf-qa-server/internal/embedding"
	"github.com/bull/pdf-qa-server/internal/splitter"
	"github.com/bull/pdf-qa-server/internal/storage"
)

var (
	// ErrNoInput is returned when Build is called with no file paths.
	ErrNoInput = errors.New("no files provided")

	// ErrNoDocuments is returned when every file failed extraction.
	ErrNoDocuments = errors.New("no documents were successfully loaded")
)

// Loader extracts documents from a batch of file paths, collecting
// per-file failures instead of aborting.
type Loader interface {
	LoadAll(paths []string) ([]document.Document, []document.LoadFailure)
}

// Result contains statistics about a Build run.
type Result struct {
	TotalFiles  int
	LoadedDocs  int
	TotalChunks int
	Reused      bool // true when a persisted index was reused untouched
	FailedFiles []document.LoadFailure
	Duration    time.Duration
}

// Pipeline turns file paths into a queryable vector store.
type Pipeline struct {
	loader   Loader
	splitter *splitter.Splitter
	embedder embedding.Embedder
	store    storage.VectorStore
	logger   *slog.Logger
}

// NewPipeline creates an indexing pipeline with the given components.
func NewPipeline(
	loader Loader,
	split *splitter.Splitter,
	embedder embedding.Embedder,
	store storage.VectorStore,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		loader:   loader,
		splitter: split,
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// Build runs the full pipeline over paths.
//
// When force is false and the store already holds a usable index, the
// persisted state is reused and extraction/embedding are skipped
// entirely, avoiding repeated embedding calls. A failed reuse probe
// falls back to a rebuild. When force is true, prior state is destroyed
// unconditionally first.
//
// Per-file extraction failures are logged and skipped; embedding
// failures are fatal.
func (p *Pipeline) Build(ctx context.Context, paths []string, force bool) (*Result, error) {
	start := time.Now()

	if len(paths) == 0 {
		return nil, ErrNoInput
	}

	result := &Result{TotalFiles: len(paths)}

	if force {
		if err := p.store.Destroy(ctx); err != nil {
			return nil, fmt.Errorf("destroy prior index: %w", err)
		}
		p.logger.Info("Cleared prior index state")
	} else {
		ready, err := p.store.Ready(ctx)
		if err != nil {
			p.logger.Warn("Could not reuse persisted index, rebuilding", "error", err)
		}
		if ready {
			count, _ := p.store.Count(ctx)
			p.logger.Info("Reusing persisted index", "chunks", count)
			result.Reused = true
			result.TotalChunks = count
			result.Duration = time.Since(start)
			return result, nil
		}
	}

	docs, failed := p.loader.LoadAll(paths)
	result.LoadedDocs = len(docs)
	result.FailedFiles = failed
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %d file(s) failed extraction", ErrNoDocuments, len(failed))
	}

	chunks := p.splitter.Split(docs)
	p.logger.Info("Created chunks from documents", "documents", len(docs), "chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("generate embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	stored := make([]storage.Chunk, len(chunks))
	for i, chunk := range chunks {
		stored[i] = storage.Chunk{
			ID:        uuid.New().String(),
			Source:    chunk.Source,
			Page:      chunk.Page,
			HasPage:   chunk.HasPage,
			Text:      chunk.Text,
			Embedding: vectors[i],
		}
	}

	if err := p.store.Upsert(ctx, stored); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	result.TotalChunks = len(stored)
	result.Duration = time.Since(start)
	p.logger.Info("Indexing complete",
		"files", result.TotalFiles,
		"failed", len(result.FailedFiles),
		"chunks", result.TotalChunks,
		"duration", result.Duration,
	)

	return result, nil
}
