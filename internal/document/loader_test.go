package document

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadAll_TextFile verifies plain text files load as one document
// without page metadata.
func TestLoadAll_TextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("plain text content"), 0644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(nil)
	docs, failed := loader.LoadAll([]string{path})

	if len(failed) != 0 {
		t.Fatalf("Unexpected failures: %v", failed)
	}
	if len(docs) != 1 {
		t.Fatalf("Expected 1 document, got %d", len(docs))
	}
	if docs[0].Text != "plain text content" {
		t.Errorf("Document text altered: %q", docs[0].Text)
	}
	if docs[0].HasPage {
		t.Error("Text documents should not carry page metadata")
	}
	if docs[0].Source != path {
		t.Errorf("Source: expected %q, got %q", path, docs[0].Source)
	}
}

// TestLoadAll_MissingFile verifies a nonexistent path is recorded as a
// failure without aborting the batch.
func TestLoadAll_MissingFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "ok.txt")
	if err := os.WriteFile(good, []byte("content"), 0644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "does-not-exist.pdf")

	loader := NewLoader(nil)
	docs, failed := loader.LoadAll([]string{missing, good})

	if len(docs) != 1 {
		t.Errorf("Expected the good file to load, got %d documents", len(docs))
	}
	if len(failed) != 1 {
		t.Fatalf("Expected 1 failure, got %d", len(failed))
	}
	if failed[0].Path != missing {
		t.Errorf("Failure path: expected %q, got %q", missing, failed[0].Path)
	}
	if failed[0].Reason == "" {
		t.Error("Failure should carry a reason")
	}
}

// TestLoadAll_EmptyFile verifies whitespace-only files are failures.
func TestLoadAll_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(path, []byte("   \n\n"), 0644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(nil)
	docs, failed := loader.LoadAll([]string{path})

	if len(docs) != 0 {
		t.Errorf("Expected no documents from a blank file, got %d", len(docs))
	}
	if len(failed) != 1 {
		t.Errorf("Expected 1 failure, got %d", len(failed))
	}
}

// TestLoadAll_CorruptPDF verifies an unparseable PDF is a recorded
// failure, not a panic.
func TestLoadAll_CorruptPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 not actually a pdf"), 0644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(nil)
	docs, failed := loader.LoadAll([]string{path})

	if len(docs) != 0 {
		t.Errorf("Expected no documents from a corrupt PDF, got %d", len(docs))
	}
	if len(failed) != 1 {
		t.Fatalf("Expected 1 failure, got %d", len(failed))
	}
}
