package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore keeps chunks in a single SQLite file under a persist
// directory. Search is brute-force cosine similarity over all stored
// vectors, which is plenty for a single user's document sets.
//
// Whether the persist directory existed before opening is what gates
// the caller's reuse-vs-rebuild decision, so that fact is captured at
// construction time.
type SQLiteStore struct {
	db        *sql.DB
	dir       string
	model     string
	dimension int
	existed   bool
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS manifest (
	id        INTEGER PRIMARY KEY CHECK (id = 1),
	model     TEXT NOT NULL,
	dimension INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
	id        TEXT PRIMARY KEY,
	source    TEXT NOT NULL,
	page      INTEGER NOT NULL,
	has_page  INTEGER NOT NULL,
	text      TEXT NOT NULL,
	embedding BLOB NOT NULL
);
`

// NewSQLiteStore opens (or creates) the index database inside dir.
// model and dimension describe the embedder the caller intends to use;
// they are checked against the persisted manifest by Ready.
func NewSQLiteStore(dir, model string, dimension int) (*SQLiteStore, error) {
	_, statErr := os.Stat(dir)
	existed := statErr == nil

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	dbPath := filepath.Join(dir, IndexFile)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{
		db:        db,
		dir:       dir,
		model:     model,
		dimension: dimension,
		existed:   existed,
	}, nil
}

// Ready reports whether the directory pre-existed with stored chunks
// embedded by the configured model. Query failures read as "not ready"
// so callers fall back to a rebuild instead of aborting.
func (s *SQLiteStore) Ready(ctx context.Context) (bool, error) {
	if !s.existed {
		return false, nil
	}

	var model string
	var dimension int
	err := s.db.QueryRowContext(ctx, `SELECT model, dimension FROM manifest WHERE id = 1`).
		Scan(&model, &dimension)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read manifest: %w", err)
	}

	if model != s.model || dimension != s.dimension {
		return false, fmt.Errorf("%w: index has %s/%d, configured %s/%d",
			ErrModelMismatch, model, dimension, s.model, s.dimension)
	}

	count, err := s.Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Upsert stores chunks in a single transaction, recording the embedding
// model in the manifest.
func (s *SQLiteStore) Upsert(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for i, chunk := range chunks {
		if len(chunk.Embedding) != s.dimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(chunk.Embedding), s.dimension)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO manifest (id, model, dimension) VALUES (1, ?, ?)`,
		s.model, s.dimension,
	); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO chunks (id, source, page, has_page, text, embedding) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		hasPage := 0
		if chunk.HasPage {
			hasPage = 1
		}
		if _, err := stmt.ExecContext(ctx,
			chunk.ID, chunk.Source, chunk.Page, hasPage, chunk.Text,
			float32SliceToBytes(chunk.Embedding),
		); err != nil {
			return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
		}
	}

	return tx.Commit()
}

// Search scans every stored vector and returns the topK by cosine
// similarity, best first.
func (s *SQLiteStore) Search(ctx context.Context, vector []float32, topK int) ([]Passage, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), s.dimension)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source, page, has_page, text, embedding FROM chunks`)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var passages []Passage
	for rows.Next() {
		var p Passage
		var hasPage int
		var blob []byte
		if err := rows.Scan(&p.Source, &p.Page, &hasPage, &p.Text, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		p.HasPage = hasPage != 0
		p.Score = cosineSimilarity(vector, bytesToFloat32Slice(blob))
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})
	if len(passages) > topK {
		passages = passages[:topK]
	}
	return passages, nil
}

// Count reports the number of stored chunks.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

// Destroy removes the persist directory entirely and reopens an empty
// database at the same location.
func (s *SQLiteStore) Destroy(ctx context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove index directory: %w", err)
	}

	fresh, err := NewSQLiteStore(s.dir, s.model, s.dimension)
	if err != nil {
		return err
	}
	s.db = fresh.db
	s.existed = false
	return nil
}

// Health verifies the database file is reachable.
func (s *SQLiteStore) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// float32SliceToBytes encodes a vector as little-endian float32 bits
// for blob storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
