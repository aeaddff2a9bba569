package qa

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportHistory_EmptyHistory(t *testing.T) {
	_, err := ExportHistory(t.TempDir(), nil)
	require.ErrorIs(t, err, ErrNoHistory)
}

func TestExportHistory_FileLayout(t *testing.T) {
	dir := t.TempDir()
	entries := []HistoryEntry{
		{Question: "What is this about?", Answer: "It is about revenue."},
		{Question: "Any risks?", Answer: "Supply chain exposure."},
	}

	path, err := ExportHistory(dir, entries)
	require.NoError(t, err)

	name := filepath.Base(path)
	assert.Regexp(t, regexp.MustCompile(`^chat_export_\d{8}_\d{6}\.txt$`), name)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	rule := strings.Repeat("=", 80)
	assert.True(t, strings.HasPrefix(content, rule+"\n"), "Export must open with a rule line")
	assert.Contains(t, content, "PDF Q&A - CHAT EXPORT")
	assert.Contains(t, content, "Exported: ")

	assert.Contains(t, content, "Question 1:\nWhat is this about?")
	assert.Contains(t, content, "Answer 1:\nIt is about revenue.")
	assert.Contains(t, content, "Question 2:\nAny risks?")
	assert.Contains(t, content, "Answer 2:\nSupply chain exposure.")

	divider := strings.Repeat("-", 80)
	assert.Equal(t, 2, strings.Count(content, divider), "One divider per entry")

	// Entries keep insertion order.
	assert.Less(t, strings.Index(content, "Question 1:"), strings.Index(content, "Question 2:"))
}

func TestExportHistory_DefaultsToWorkingDir(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	path, err := ExportHistory("", []HistoryEntry{{Question: "q", Answer: "a"}})
	require.NoError(t, err)
	assert.FileExists(t, path)
}
