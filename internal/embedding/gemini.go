package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	// GeminiModel is the embedding model used for Google-backed indexes.
	GeminiModel = "text-embedding-004"

	// GeminiDimension is the vector dimension for text-embedding-004.
	GeminiDimension = 768
)

// GeminiEmbedder generates embeddings with Google's text-embedding-004
// model through the Generative AI SDK.
type GeminiEmbedder struct {
	client *genai.Client
}

// NewGeminiEmbedder creates an embedder for the given API key. Close
// must be called when the embedder is no longer needed.
func NewGeminiEmbedder(ctx context.Context, apiKey string) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiEmbedder{client: client}, nil
}

func (e *GeminiEmbedder) Dimension() int { return GeminiDimension }

func (e *GeminiEmbedder) Model() string { return GeminiModel }

// EmbedDocuments embeds texts with one batched request per call.
func (e *GeminiEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	model := e.client.EmbeddingModel(GeminiModel)

	batch := model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	resp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("batch embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned for text %d", i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	model := e.client.EmbeddingModel(GeminiModel)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Embedding.Values, nil
}

// Close releases the underlying client connection.
func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}
