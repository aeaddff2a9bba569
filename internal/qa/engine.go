// Package qa answers natural-language questions against an indexed
// document corpus, with page-level citations and a linear Q&A history.
package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bull/pdf-qa-server/internal/embedding"
	"github.com/bull/pdf-qa-server/internal/llm"
	"github.com/bull/pdf-qa-server/internal/storage"
)

// ErrIndexNotBound is returned when Ask or Summarize is called before
// Bind. This is a programmer error, not a user-facing condition.
var ErrIndexNotBound = errors.New("no index bound: call Bind first")

const (
	askTopK       = 4
	summarizeTopK = 5
	// Summarization concatenates only the first summarizeUse passages
	// by retrieval rank.
	summarizeUse = 3

	summaryQuery = "summary overview main points"
	snippetLen   = 150

	blankQuestionHint = "Please enter a valid question."
)

const answerTemplate = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

%s

Question: %s
Helpful Answer:`

const summaryTemplate = `Provide a concise summary of the following document excerpts.
Focus on the main topics, key points, and overall theme:

%s

Summary:`

// Answer is the result of a single Ask call. It is always displayable:
// failures from the retrieval or generation step are captured in Text
// with IsError set, never raised.
type Answer struct {
	Text    string
	Sources string // deduplicated citation block, empty when no passages
	IsError bool
}

// HistoryEntry is one (question, answer) pair, in insertion order.
type HistoryEntry struct {
	Question string
	Answer   string
}

// Engine binds a vector store to an embedder and a completer and
// answers questions against it. An Engine serves exactly one logical
// caller and performs no locking.
type Engine struct {
	embedder  embedding.Embedder
	completer llm.Completer
	store     storage.VectorStore
	history   []HistoryEntry
	logger    *slog.Logger
}

// NewEngine creates an unbound engine. Bind must be called before Ask
// or Summarize.
func NewEngine(embedder embedding.Embedder, completer llm.Completer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		embedder:  embedder,
		completer: completer,
		logger:    logger,
	}
}

// Bind attaches the engine to an index. Re-binding simply replaces the
// active index; the store itself is externally owned.
func (e *Engine) Bind(store storage.VectorStore) {
	e.store = store
}

// Bound reports whether an index is attached.
func (e *Engine) Bound() bool {
	return e.store != nil
}

// Ask answers a question from the bound index. Blank questions return a
// usage hint, not an error, and do not touch history. Successful
// answers are appended to history.
func (e *Engine) Ask(ctx context.Context, question string) (Answer, error) {
	if e.store == nil {
		return Answer{}, ErrIndexNotBound
	}
	if strings.TrimSpace(question) == "" {
		return Answer{Text: blankQuestionHint}, nil
	}

	passages, err := e.retrieve(ctx, question, askTopK)
	if err != nil {
		e.logger.Warn("Retrieval failed", "error", err)
		return Answer{Text: fmt.Sprintf("Error processing question: %v", err), IsError: true}, nil
	}

	var contexts []string
	for _, p := range passages {
		contexts = append(contexts, p.Text)
	}
	prompt := fmt.Sprintf(answerTemplate, strings.Join(contexts, "\n\n"), question)

	text, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		e.logger.Warn("Generation failed", "error", err)
		return Answer{Text: fmt.Sprintf("Error processing question: %v", err), IsError: true}, nil
	}

	e.history = append(e.history, HistoryEntry{Question: question, Answer: text})

	return Answer{
		Text:    text,
		Sources: formatSources(passages),
	}, nil
}

// Summarize generates a corpus summary from the top retrieved passages
// for a fixed overview query. Failures come back as a displayable
// string, never an error, except when no index is bound.
func (e *Engine) Summarize(ctx context.Context) (string, error) {
	if e.store == nil {
		return "", ErrIndexNotBound
	}

	passages, err := e.retrieve(ctx, summaryQuery, summarizeTopK)
	if err != nil {
		return fmt.Sprintf("Error generating summary: %v", err), nil
	}

	use := passages
	if len(use) > summarizeUse {
		use = use[:summarizeUse]
	}
	var texts []string
	for _, p := range use {
		texts = append(texts, p.Text)
	}
	prompt := fmt.Sprintf(summaryTemplate, strings.Join(texts, "\n\n"))

	summary, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		return fmt.Sprintf("Error generating summary: %v", err), nil
	}
	return summary, nil
}

// History returns the Q&A history in chronological order.
func (e *Engine) History() []HistoryEntry {
	return e.history
}

// ClearHistory empties the history in place.
func (e *Engine) ClearHistory() {
	e.history = nil
	e.logger.Info("Chat history cleared")
}

func (e *Engine) retrieve(ctx context.Context, query string, topK int) ([]storage.Passage, error) {
	vector, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	passages, err := e.store.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return passages, nil
}

// formatSources renders the citation block: at most one entry per
// (source basename, page) pair, first occurrence winning in retrieval
// rank order. Pages display 1-based; passages without page metadata
// render as "Page N/A" and collapse per source.
func formatSources(passages []storage.Passage) string {
	if len(passages) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n**Sources:**\n")

	seen := make(map[string]bool)
	for _, p := range passages {
		base := filepath.Base(p.Source)

		var label, key string
		if p.HasPage {
			label = fmt.Sprintf("Page %d", p.Page+1)
			key = fmt.Sprintf("%s|%d", base, p.Page)
		} else {
			label = "Page N/A"
			key = base + "|N/A"
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		fmt.Fprintf(&b, "\n- **%s** (%s): _%s..._", label, base, snippet(p.Text))
	}

	return b.String()
}

// snippet takes the first snippetLen characters of text with newlines
// collapsed to spaces.
func snippet(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)
	if len(runes) > snippetLen {
		runes = runes[:snippetLen]
	}
	return string(runes)
}
