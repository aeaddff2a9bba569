package web

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/bull/pdf-qa-server/internal/indexer"
	"github.com/bull/pdf-qa-server/internal/qa"
)

const notReadyMessage = "Please upload and process PDF files first."

// handleUpload receives multipart PDF files, stages them in a temp
// directory, and runs the indexing pipeline. On success the engine is
// bound to the freshly built (or reused) index.
func (s *Server) handleUpload(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid upload request"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please upload at least one PDF file."})
		return
	}

	tmpDir, err := os.MkdirTemp("", "pdfqa-upload-")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to stage uploaded files"})
		return
	}
	defer os.RemoveAll(tmpDir)

	paths := make([]string, 0, len(files))
	for _, file := range files {
		dst := filepath.Join(tmpDir, filepath.Base(file.Filename))
		if err := c.SaveUploadedFile(file, dst); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to save " + file.Filename})
			return
		}
		paths = append(paths, dst)
	}

	force := c.PostForm("force") == "true"
	result, err := s.pipeline.Build(c.Request.Context(), paths, force)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, indexer.ErrNoInput) || errors.Is(err, indexer.ErrNoDocuments) {
			status = http.StatusBadRequest
		}
		s.logger.Error("Indexing failed", "error", err)
		c.JSON(status, gin.H{"message": "Error processing files: " + err.Error()})
		return
	}

	s.engine.Bind(s.store)

	names := make([]string, len(files))
	for i, file := range files {
		names[i] = file.Filename
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Documents processed",
		"files":   names,
		"chunks":  result.TotalChunks,
		"reused":  result.Reused,
		"failed":  result.FailedFiles,
	})
}

func (s *Server) handleAsk(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var req struct {
		Question string `json:"question"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if !s.engine.Bound() {
		c.JSON(http.StatusConflict, gin.H{"message": notReadyMessage})
		return
	}

	answer, err := s.engine.Ask(c.Request.Context(), req.Question)
	if err != nil {
		if errors.Is(err, qa.ErrIndexNotBound) {
			c.JSON(http.StatusConflict, gin.H{"message": notReadyMessage})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"answer":   answer.Text,
		"sources":  answer.Sources,
		"html":     s.renderMarkdown(answer.Text + answer.Sources),
		"is_error": answer.IsError,
	})
}

func (s *Server) handleSummarize(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.engine.Bound() {
		c.JSON(http.StatusConflict, gin.H{"message": notReadyMessage})
		return
	}

	summary, err := s.engine.Summarize(c.Request.Context())
	if err != nil {
		if errors.Is(err, qa.ErrIndexNotBound) {
			c.JSON(http.StatusConflict, gin.H{"message": notReadyMessage})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
		"html":    s.renderMarkdown(summary),
	})
}

func (s *Server) handleClear(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.ClearHistory()
	c.JSON(http.StatusOK, gin.H{"message": "Chat history cleared"})
}

func (s *Server) handleHistory(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.engine.History()
	history := make([]gin.H, len(entries))
	for i, entry := range entries {
		history[i] = gin.H{"question": entry.Question, "answer": entry.Answer}
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// handleExport serializes the history to a timestamped text file and
// streams it back as a download. Any failure reports "no file
// produced" rather than an error status.
func (s *Server) handleExport(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := qa.ExportHistory(s.exportDir, s.engine.History())
	if err != nil {
		s.logger.Warn("Chat export failed", "error", err)
		c.JSON(http.StatusOK, gin.H{"message": "no file produced"})
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}
