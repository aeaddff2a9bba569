// Package web serves the upload/ask/summarize/clear/export actions
// over HTTP with a small form-based UI.
package web

import (
	"bytes"
	"html"
	"log/slog"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"

	"github.com/bull/pdf-qa-server/internal/indexer"
	"github.com/bull/pdf-qa-server/internal/qa"
	"github.com/bull/pdf-qa-server/internal/storage"
)

// Config holds server dependencies.
type Config struct {
	Pipeline      *indexer.Pipeline
	Engine        *qa.Engine
	Store         storage.VectorStore
	ExportDir     string
	MaxUploadSize int64
	CORSOrigins   []string
	Logger        *slog.Logger
}

// Server wraps the Q&A core behind HTTP handlers. The core assumes a
// single logical caller and performs no locking, so the server
// serializes all state-touching requests with one mutex.
type Server struct {
	pipeline      *indexer.Pipeline
	engine        *qa.Engine
	store         storage.VectorStore
	md            goldmark.Markdown
	exportDir     string
	maxUploadSize int64
	corsOrigins   []string
	logger        *slog.Logger

	mu sync.Mutex
}

// NewServer creates a configured server.
func NewServer(cfg *Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		pipeline:      cfg.Pipeline,
		engine:        cfg.Engine,
		store:         cfg.Store,
		md:            goldmark.New(),
		exportDir:     cfg.ExportDir,
		maxUploadSize: cfg.MaxUploadSize,
		corsOrigins:   cfg.CORSOrigins,
		logger:        logger,
	}
}

// Router builds the Gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.corsMiddleware())
	if s.maxUploadSize > 0 {
		router.MaxMultipartMemory = s.maxUploadSize
	}

	router.GET("/", s.handleIndex)
	router.GET("/health", s.handleHealth)
	router.GET("/history", s.handleHistory)
	router.POST("/upload", s.handleUpload)
	router.POST("/ask", s.handleAsk)
	router.POST("/summarize", s.handleSummarize)
	router.POST("/clear", s.handleClear)
	router.POST("/export", s.handleExport)

	return router
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	config := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(s.corsOrigins) == 1 && s.corsOrigins[0] == "*" {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = s.corsOrigins
	}
	return cors.New(config)
}

// renderMarkdown converts LLM output to HTML for the UI, falling back
// to escaped preformatted text if conversion fails.
func (s *Server) renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(text), &buf); err != nil {
		return "<pre>" + html.EscapeString(text) + "</pre>"
	}
	return buf.String()
}
