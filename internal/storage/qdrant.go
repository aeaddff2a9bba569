package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantStore is the server-backed VectorStore, for installs that
// already run Qdrant. Reuse gating maps "persisted state exists" to
// "the collection exists and holds points".
type QdrantStore struct {
	client    *qdrant.Client
	model     string
	dimension int
}

// NewQdrantStore connects to Qdrant over gRPC and fails fast if the
// server is unreachable. The collection is created on first use.
func NewQdrantStore(host string, port int, model string, dimension int) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	s := &QdrantStore{
		client:    client,
		model:     model,
		dimension: dimension,
	}

	if err := s.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}

	return s, nil
}

// healthCheckWithRetry retries the health probe with exponential
// backoff: initial 500ms, max interval 10s, max elapsed 30s.
func (s *QdrantStore) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error { return s.Health(ctx) }, backoff.WithContext(b, ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStore) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// ensureCollection creates the chunk collection if it does not exist.
// Idempotent.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == QdrantCollection {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: QdrantCollection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Ready reports whether the collection exists, holds points, and was
// populated with the configured embedding model.
func (s *QdrantStore) Ready(ctx context.Context) (bool, error) {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return false, fmt.Errorf("list collections: %w", err)
	}
	found := false
	for _, name := range collections {
		if name == QdrantCollection {
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}

	count, err := s.Count(ctx)
	if err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}

	// Sample one point to validate the embedding model it carries.
	results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: QdrantCollection,
		Limit:          qdrant.PtrOf(uint32(1)),
		WithPayload:    qdrant.NewWithPayloadInclude("embedding_model"),
	})
	if err != nil {
		return false, fmt.Errorf("scroll for model check: %w", err)
	}
	if len(results) > 0 {
		stored := results[0].Payload["embedding_model"].GetStringValue()
		if stored != "" && stored != s.model {
			return false, fmt.Errorf("%w: index has %s, configured %s",
				ErrModelMismatch, stored, s.model)
		}
	}

	return true, nil
}

// Upsert stores chunks in batches of 100 with retry on transient
// failures.
func (s *QdrantStore) Upsert(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for i, chunk := range chunks {
		if len(chunk.Embedding) != s.dimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(chunk.Embedding), s.dimension)
		}
	}

	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	batchSize := 100
	for i := 0; i < len(chunks); i += batchSize {
		end := min(i+batchSize, len(chunks))
		batch := chunks[i:end]

		points := make([]*qdrant.PointStruct, len(batch))
		for j, chunk := range batch {
			points[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(chunk.ID),
				Vectors: qdrant.NewVectors(chunk.Embedding...),
				Payload: qdrant.NewValueMap(map[string]any{
					"source":          chunk.Source,
					"page":            chunk.Page,
					"has_page":        chunk.HasPage,
					"text":            chunk.Text,
					"embedding_model": s.model,
				}),
			}
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

func (s *QdrantStore) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: QdrantCollection,
			Points:         points,
		})
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

// Search performs vector similarity search, best match first.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, topK int) ([]Passage, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), s.dimension)
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: QdrantCollection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	passages := make([]Passage, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		passages = append(passages, Passage{
			Source:  payload["source"].GetStringValue(),
			Page:    int(payload["page"].GetIntegerValue()),
			HasPage: payload["has_page"].GetBoolValue(),
			Text:    payload["text"].GetStringValue(),
			Score:   float64(result.Score),
		})
	}

	return passages, nil
}

// Count reports the number of stored chunks. A missing collection
// counts as zero.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return 0, fmt.Errorf("list collections: %w", err)
	}
	found := false
	for _, name := range collections {
		if name == QdrantCollection {
			found = true
			break
		}
	}
	if !found {
		return 0, nil
	}

	collection, err := s.client.GetCollection(ctx, QdrantCollection)
	if err != nil {
		return 0, fmt.Errorf("get collection: %w", err)
	}
	return int(collection.GetPointsCount()), nil
}

// Destroy deletes the collection and recreates it empty.
func (s *QdrantStore) Destroy(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == QdrantCollection {
			if err := s.client.DeleteCollection(ctx, QdrantCollection); err != nil {
				return fmt.Errorf("delete collection: %w", err)
			}
			break
		}
	}
	return s.ensureCollection(ctx)
}

// Close closes the gRPC connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
