// Package splitter cuts documents into bounded, overlapping chunks for
// embedding and retrieval.
package splitter

import (
	"strings"
	"unicode/utf8"

	"github.com/bull/pdf-qa-server/internal/document"
)

// Defaults for the splitting policy. Bounded size plus overlap is
// load-bearing for retrieval quality; callers should not disable either.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// Splitter splits document text into chunks of at most chunkSize
// characters with overlap characters shared between neighbours.
// Boundaries prefer paragraph breaks, then sentence breaks, then word
// breaks, before hard-truncating.
type Splitter struct {
	chunkSize int
	overlap   int
}

// New creates a Splitter. Non-positive arguments fall back to the
// defaults; overlap is clamped below chunkSize.
func New(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split chunks every document, preserving source and page metadata on
// each chunk. Empty chunks are dropped.
func (s *Splitter) Split(docs []document.Document) []document.Document {
	var chunks []document.Document
	for _, doc := range docs {
		for _, piece := range s.splitText(doc.Text) {
			chunk := doc
			chunk.Text = piece
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

func (s *Splitter) splitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= s.chunkSize {
		return []string{strings.TrimSpace(text)}
	}

	var pieces []string
	start := 0
	for start < len(text) {
		end := start + s.chunkSize
		if end >= len(text) {
			if piece := strings.TrimSpace(text[start:]); piece != "" {
				pieces = append(pieces, piece)
			}
			break
		}

		cut := s.findBreak(text, start, end)
		if piece := strings.TrimSpace(text[start:cut]); piece != "" {
			pieces = append(pieces, piece)
		}

		next := cut - s.overlap
		if next <= start {
			// Guarantee forward progress even on pathological input.
			next = start + (s.chunkSize - s.overlap)
		}
		start = next
	}
	return pieces
}

// findBreak picks the cut position inside text[start:limit], searching
// backwards for the best available boundary. The search window is the
// back half of the chunk so a very early break never produces a tiny
// fragment.
func (s *Splitter) findBreak(text string, start, limit int) int {
	window := start + s.chunkSize/2

	if i := strings.LastIndex(text[window:limit], "\n\n"); i >= 0 {
		return window + i + 2
	}
	for _, sep := range []string{". ", "! ", "? ", ".\n", "!\n", "?\n"} {
		if i := strings.LastIndex(text[window:limit], sep); i >= 0 {
			return window + i + len(sep)
		}
	}
	if i := strings.LastIndexAny(text[window:limit], " \n\t"); i >= 0 {
		return window + i + 1
	}

	// Hard truncation; back up so a multi-byte rune is never split.
	for limit > start && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return limit
}
