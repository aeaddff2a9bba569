package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/pdf-qa-server/internal/document"
	"github.com/bull/pdf-qa-server/internal/splitter"
	"github.com/bull/pdf-qa-server/internal/storage"
)

// fakeLoader maps paths to canned documents and failures.
type fakeLoader struct {
	docs   []document.Document
	failed []document.LoadFailure
}

func (f *fakeLoader) LoadAll(paths []string) ([]document.Document, []document.LoadFailure) {
	return f.docs, f.failed
}

// fakeEmbedder counts invocations and returns unit vectors.
type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{1, 0}
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (f *fakeEmbedder) Dimension() int { return 2 }
func (f *fakeEmbedder) Model() string  { return "fake-model" }

// fakeStore records lifecycle calls in memory.
type fakeStore struct {
	ready     bool
	readyErr  error
	chunks    []storage.Chunk
	destroyed int
}

func (f *fakeStore) Ready(ctx context.Context) (bool, error) { return f.ready, f.readyErr }
func (f *fakeStore) Upsert(ctx context.Context, chunks []storage.Chunk) error {
	f.chunks = append(f.chunks, chunks...)
	return nil
}
func (f *fakeStore) Search(ctx context.Context, vector []float32, topK int) ([]storage.Passage, error) {
	return nil, nil
}
func (f *fakeStore) Count(ctx context.Context) (int, error) { return len(f.chunks), nil }
func (f *fakeStore) Destroy(ctx context.Context) error {
	f.destroyed++
	f.chunks = nil
	f.ready = false
	return nil
}
func (f *fakeStore) Health(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                     { return nil }

func newTestPipeline(loader Loader, embedder *fakeEmbedder, store *fakeStore) *Pipeline {
	return NewPipeline(loader, splitter.New(1000, 200), embedder, store, nil)
}

func TestBuild_NoInput(t *testing.T) {
	p := newTestPipeline(&fakeLoader{}, &fakeEmbedder{}, &fakeStore{})

	_, err := p.Build(context.Background(), nil, false)
	require.ErrorIs(t, err, ErrNoInput)
}

func TestBuild_AllFilesFailed(t *testing.T) {
	loader := &fakeLoader{failed: []document.LoadFailure{
		{Path: "a.pdf", Reason: "corrupt xref"},
		{Path: "b.pdf", Reason: "no extractable text"},
	}}
	p := newTestPipeline(loader, &fakeEmbedder{}, &fakeStore{})

	_, err := p.Build(context.Background(), []string{"a.pdf", "b.pdf"}, false)
	require.ErrorIs(t, err, ErrNoDocuments)
}

func TestBuild_PartialFailure(t *testing.T) {
	loader := &fakeLoader{
		docs: []document.Document{
			{Source: "a.pdf", Page: 0, HasPage: true, Text: "usable page text"},
		},
		failed: []document.LoadFailure{{Path: "b.pdf", Reason: "corrupt xref"}},
	}
	store := &fakeStore{}
	p := newTestPipeline(loader, &fakeEmbedder{}, store)

	result, err := p.Build(context.Background(), []string{"a.pdf", "b.pdf"}, false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalFiles)
	assert.Equal(t, 1, result.LoadedDocs)
	assert.Equal(t, 1, result.TotalChunks)
	require.Len(t, result.FailedFiles, 1)
	assert.Equal(t, "b.pdf", result.FailedFiles[0].Path)
	assert.False(t, result.Reused)
}

func TestBuild_ChunkFields(t *testing.T) {
	loader := &fakeLoader{docs: []document.Document{
		{Source: "/tmp/report.pdf", Page: 3, HasPage: true, Text: "page four text"},
	}}
	store := &fakeStore{}
	p := newTestPipeline(loader, &fakeEmbedder{}, store)

	_, err := p.Build(context.Background(), []string{"/tmp/report.pdf"}, false)
	require.NoError(t, err)

	require.Len(t, store.chunks, 1)
	chunk := store.chunks[0]
	assert.NotEmpty(t, chunk.ID)
	assert.Equal(t, "/tmp/report.pdf", chunk.Source)
	assert.Equal(t, 3, chunk.Page)
	assert.True(t, chunk.HasPage)
	assert.Equal(t, "page four text", chunk.Text)
	assert.Equal(t, []float32{1, 0}, chunk.Embedding)
}

func TestBuild_ReusesPersistedIndex(t *testing.T) {
	store := &fakeStore{ready: true, chunks: make([]storage.Chunk, 7)}
	embedder := &fakeEmbedder{}
	loader := &fakeLoader{docs: []document.Document{
		{Source: "a.pdf", Text: "should never be read"},
	}}
	p := newTestPipeline(loader, embedder, store)

	result, err := p.Build(context.Background(), []string{"a.pdf"}, false)
	require.NoError(t, err)

	assert.True(t, result.Reused)
	assert.Equal(t, 7, result.TotalChunks)
	assert.Equal(t, 0, embedder.calls, "Reuse must not re-embed")
	assert.Equal(t, 0, store.destroyed)
}

func TestBuild_ForceDestroysAndRebuilds(t *testing.T) {
	store := &fakeStore{ready: true, chunks: make([]storage.Chunk, 7)}
	embedder := &fakeEmbedder{}
	loader := &fakeLoader{docs: []document.Document{
		{Source: "a.pdf", Page: 0, HasPage: true, Text: "fresh content"},
	}}
	p := newTestPipeline(loader, embedder, store)

	result, err := p.Build(context.Background(), []string{"a.pdf"}, true)
	require.NoError(t, err)

	assert.False(t, result.Reused)
	assert.Equal(t, 1, store.destroyed, "Force must destroy prior state unconditionally")
	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, 1, result.TotalChunks)
}

func TestBuild_ReadyProbeErrorFallsBackToRebuild(t *testing.T) {
	store := &fakeStore{readyErr: errors.New("manifest unreadable")}
	embedder := &fakeEmbedder{}
	loader := &fakeLoader{docs: []document.Document{
		{Source: "a.pdf", Page: 0, HasPage: true, Text: "content"},
	}}
	p := newTestPipeline(loader, embedder, store)

	result, err := p.Build(context.Background(), []string{"a.pdf"}, false)
	require.NoError(t, err, "A broken persisted index falls back to rebuilding")
	assert.False(t, result.Reused)
	assert.Equal(t, 1, embedder.calls)
}

func TestBuild_EmbeddingFailureFatal(t *testing.T) {
	loader := &fakeLoader{docs: []document.Document{
		{Source: "a.pdf", Page: 0, HasPage: true, Text: "content"},
	}}
	embedder := &fakeEmbedder{err: errors.New("api key invalid")}
	p := newTestPipeline(loader, embedder, &fakeStore{})

	_, err := p.Build(context.Background(), []string{"a.pdf"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate embeddings")
}
