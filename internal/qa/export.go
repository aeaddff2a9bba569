package qa

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoHistory is returned when there is nothing to export.
var ErrNoHistory = errors.New("no history to export")

const exportRule = 80

// ExportHistory writes the full ordered history to a timestamped plain
// text file under dir and returns its path. Failures return an error
// for the caller to report as "no file produced"; nothing is raised
// past that.
func ExportHistory(dir string, entries []HistoryEntry) (string, error) {
	if len(entries) == 0 {
		return "", ErrNoHistory
	}
	if dir == "" {
		dir = "."
	}

	now := time.Now()
	filename := fmt.Sprintf("chat_export_%s.txt", now.Format("20060102_150405"))
	path := filepath.Join(dir, filename)

	var b strings.Builder
	rule := strings.Repeat("=", exportRule)
	b.WriteString(rule + "\n")
	b.WriteString("PDF Q&A - CHAT EXPORT\n")
	fmt.Fprintf(&b, "Exported: %s\n", now.Format("2006-01-02 15:04:05"))
	b.WriteString(rule + "\n\n")

	divider := strings.Repeat("-", exportRule)
	for i, entry := range entries {
		fmt.Fprintf(&b, "Question %d:\n%s\n\n", i+1, entry.Question)
		fmt.Fprintf(&b, "Answer %d:\n%s\n\n", i+1, entry.Answer)
		b.WriteString(divider + "\n\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}
