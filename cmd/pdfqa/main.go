// Package main provides the PDF Q&A maintenance CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bull/pdf-qa-server/internal/config"
	"github.com/bull/pdf-qa-server/internal/document"
	"github.com/bull/pdf-qa-server/internal/embedding"
	"github.com/bull/pdf-qa-server/internal/indexer"
	"github.com/bull/pdf-qa-server/internal/llm"
	"github.com/bull/pdf-qa-server/internal/qa"
	"github.com/bull/pdf-qa-server/internal/splitter"
	"github.com/bull/pdf-qa-server/internal/storage"
)

var (
	forceRebuild bool
	indexDir     string
)

var rootCmd = &cobra.Command{
	Use:   "pdfqa",
	Short: "PDF question answering tool",
	Long: `CLI for building and querying a local PDF document index.

Environment variables:
  OPENAI_API_KEY  OpenAI API key (preferred when both are set)
  GOOGLE_API_KEY  Google API key for Gemini models
  INDEX_DIR       Index persist directory (default: ./chroma_db)
  VECTOR_BACKEND  "sqlite" (default) or "qdrant"`,
}

var buildCmd = &cobra.Command{
	Use:   "build <file>...",
	Short: "Index PDF files into the vector store",
	Long: `Extracts text from the given PDF files, splits it into chunks,
generates embeddings, and stores them in the vector index.

A usable persisted index is reused as-is unless --force is given,
in which case it is destroyed and rebuilt from scratch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question against the indexed documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Generate a summary of the indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runSummarize,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index state and chunk count",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&indexDir, "dir", "", "index persist directory (overrides INDEX_DIR)")
	buildCmd.Flags().BoolVar(&forceRebuild, "force", false, "destroy and rebuild the index")
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// components bundles everything a command needs, with a single cleanup.
type components struct {
	cfg       *config.Config
	embedder  embedding.Embedder
	completer llm.Completer
	store     storage.VectorStore

	closers []func() error
}

func (c *components) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}

func setup(ctx context.Context) (*components, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if indexDir != "" {
		cfg.IndexDir = indexDir
	}

	c := &components{cfg: cfg}

	if cfg.Provider == config.ProviderGoogle {
		emb, err := embedding.NewGeminiEmbedder(ctx, cfg.GoogleKey)
		if err != nil {
			return nil, fmt.Errorf("create embedder: %w", err)
		}
		c.embedder = emb
		c.closers = append(c.closers, emb.Close)

		comp, err := llm.NewGeminiCompleter(ctx, cfg.GoogleKey, "")
		if err != nil {
			c.close()
			return nil, fmt.Errorf("create completer: %w", err)
		}
		c.completer = comp
		c.closers = append(c.closers, comp.Close)
	} else {
		c.embedder = embedding.NewOpenAIEmbedder(cfg.OpenAIKey, 0)
		c.completer = llm.NewOpenAICompleter(cfg.OpenAIKey, llm.OpenAIModel)
	}

	var store storage.VectorStore
	if cfg.VectorBackend == config.BackendQdrant {
		store, err = storage.NewQdrantStore(cfg.QdrantHost, cfg.QdrantPort, c.embedder.Model(), c.embedder.Dimension())
	} else {
		store, err = storage.NewSQLiteStore(cfg.IndexDir, c.embedder.Model(), c.embedder.Dimension())
	}
	if err != nil {
		c.close()
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	c.store = store
	c.closers = append(c.closers, store.Close)

	return c, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	c, err := setup(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	pipeline := indexer.NewPipeline(
		document.NewLoader(slog.Default()),
		splitter.New(c.cfg.ChunkSize, c.cfg.ChunkOverlap),
		c.embedder,
		c.store,
		slog.Default(),
	)

	fmt.Printf("Indexing %d file(s)...\n", len(args))
	result, err := pipeline.Build(ctx, args, forceRebuild)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if result.Reused {
		fmt.Printf("Reusing existing index (%d chunks), use --force to rebuild\n", result.TotalChunks)
		return nil
	}

	fmt.Println()
	fmt.Println("Build complete!")
	fmt.Printf("  Files: %d\n", result.TotalFiles)
	fmt.Printf("  Documents: %d\n", result.LoadedDocs)
	fmt.Printf("  Chunks: %d\n", result.TotalChunks)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Millisecond))

	if len(result.FailedFiles) > 0 {
		fmt.Println()
		fmt.Println("Failed files:")
		for _, failed := range result.FailedFiles {
			fmt.Printf("  - %s: %s\n", failed.Path, failed.Reason)
		}
	}

	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func bindEngine(ctx context.Context, c *components) (*qa.Engine, error) {
	ready, err := c.store.Ready(ctx)
	if err != nil {
		return nil, fmt.Errorf("check index: %w", err)
	}
	if !ready {
		return nil, fmt.Errorf("no usable index in %s, run \"pdfqa build\" first", c.cfg.IndexDir)
	}

	engine := qa.NewEngine(c.embedder, c.completer, slog.Default())
	engine.Bind(c.store)
	return engine, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	c, err := setup(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	engine, err := bindEngine(ctx, c)
	if err != nil {
		return err
	}

	answer, err := engine.Ask(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Println(answer.Text + answer.Sources)
	return nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	c, err := setup(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	engine, err := bindEngine(ctx, c)
	if err != nil {
		return err
	}

	summary, err := engine.Summarize(ctx)
	if err != nil {
		return err
	}

	fmt.Println(summary)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	c, err := setup(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	count, err := c.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count chunks: %w", err)
	}
	ready, err := c.store.Ready(ctx)
	if err != nil {
		fmt.Printf("Index: unusable (%v)\n", err)
	} else if ready {
		fmt.Println("Index: ready")
	} else {
		fmt.Println("Index: empty")
	}

	fmt.Printf("Backend: %s\n", c.cfg.VectorBackend)
	fmt.Printf("Provider: %s\n", c.cfg.Provider)
	fmt.Printf("Chunks: %d\n", count)
	return nil
}
