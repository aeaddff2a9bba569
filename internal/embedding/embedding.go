// Package embedding turns text into vectors via a hosted provider.
package embedding

import "context"

// Embedder computes embedding vectors for text. Implementations wrap a
// specific provider and are constructed with an explicit API key; they
// never read configuration from the environment.
type Embedder interface {
	// EmbedDocuments embeds a batch of chunk texts, one vector per input
	// in order. Any failure is fatal to the caller's indexing run: an
	// index missing vectors is useless.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single retrieval query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension reports the vector size this embedder produces.
	Dimension() int

	// Model reports the provider model identifier, recorded alongside
	// the index so reuse can be validated.
	Model() string
}
