package storage

// Chunk is a bounded-length fragment of a source document together
// with its embedding vector. Chunks are the unit of indexing and
// similarity search.
type Chunk struct {
	ID        string // UUID
	Source    string // path of the originating file
	Page      int    // zero-based page index, meaningful only when HasPage
	HasPage   bool
	Text      string
	Embedding []float32
}

// Passage is a retrieval result: chunk text plus metadata, ordered by
// similarity. Ephemeral, produced per query.
type Passage struct {
	Source  string
	Page    int
	HasPage bool
	Text    string
	Score   float64
}

// IndexFile is the SQLite database file kept inside the persist
// directory.
const IndexFile = "index.db"

// QdrantCollection is the single collection used by the Qdrant backend.
const QdrantCollection = "pdf_chunks"
