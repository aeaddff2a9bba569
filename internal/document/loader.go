package document

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Loader reads source files from disk. PDF files produce one Document
// per page; anything else is treated as plain text and produces a
// single Document without page metadata.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a Loader. A nil logger falls back to slog.Default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadAll extracts every file in paths. Per-file failures are collected
// and logged rather than aborting the batch; the caller decides whether
// partial success is sufficient.
func (l *Loader) LoadAll(paths []string) ([]Document, []LoadFailure) {
	var docs []Document
	var failed []LoadFailure

	for _, path := range paths {
		loaded, err := l.loadFile(path)
		if err != nil {
			l.logger.Warn("Failed to load file", "path", path, "error", err)
			failed = append(failed, LoadFailure{Path: path, Reason: err.Error()})
			continue
		}
		l.logger.Info("Loaded file", "path", filepath.Base(path), "documents", len(loaded))
		docs = append(docs, loaded...)
	}

	return docs, failed
}

func (l *Loader) loadFile(path string) ([]Document, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return loadPDF(path)
	}
	return loadText(path)
}

// loadPDF extracts one Document per page, skipping pages whose text
// cannot be decoded. A PDF where no page yields text is an error.
func loadPDF(path string) ([]Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	docs := make([]Document, 0, numPages)

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		docs = append(docs, Document{
			Source:  path,
			Page:    i - 1,
			HasPage: true,
			Text:    text,
		})
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("no text extracted from %s", filepath.Base(path))
	}
	return docs, nil
}

func loadText(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("file %s is empty", filepath.Base(path))
	}
	return []Document{{Source: path, Text: string(data)}}, nil
}
