// Package storage persists chunk vectors and serves similarity queries.
// Two backends exist: a local SQLite file (the default) and a Qdrant
// server reached over gRPC.
package storage

import "context"

// VectorStore is a queryable collection of (text, vector, metadata)
// triples. A store is single-writer: the load-or-rebuild and
// destroy-then-rebuild sequences are not safe against concurrent
// writers.
type VectorStore interface {
	// Ready reports whether previously persisted state exists and is
	// usable for reuse: it holds chunks, and those chunks were embedded
	// with the model this store was configured for. A mismatched model
	// returns false with ErrModelMismatch so callers can log why the
	// index is being rebuilt.
	Ready(ctx context.Context) (bool, error)

	// Upsert stores chunks with their embeddings. Every embedding must
	// match the configured dimension.
	Upsert(ctx context.Context, chunks []Chunk) error

	// Search returns the topK most similar passages by cosine
	// similarity, best first.
	Search(ctx context.Context, vector []float32, topK int) ([]Passage, error)

	// Count reports the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Destroy removes all persisted state unconditionally and leaves
	// the store empty but usable.
	Destroy(ctx context.Context) error

	// Health verifies the backing storage is reachable.
	Health(ctx context.Context) error

	Close() error
}
