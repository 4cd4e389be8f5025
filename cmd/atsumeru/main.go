// Package main is the Atsumeru CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/atsumeru/internal/cli"
	"github.com/hyperjump/atsumeru/internal/config"
	"github.com/hyperjump/atsumeru/internal/embedding"
	"github.com/hyperjump/atsumeru/internal/engine"
	"github.com/hyperjump/atsumeru/internal/models"
	"github.com/hyperjump/atsumeru/internal/server"
	"github.com/hyperjump/atsumeru/internal/storage"
	"github.com/hyperjump/atsumeru/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/atsumeru/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "atsumeru server" from the project dir uses the
// project's config (including debug).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "ingest":
		runIngest()
	case "answer":
		runAnswer()
	case "delete":
		runDelete()
	case "stats":
		runStats()
	case "version", "--version", "-v":
		fmt.Printf("atsumeru version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage
	Embedder embedding.Embedder
	Engine   *engine.Engine
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var embedder embedding.Embedder = embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	if cfg.Embedding.CacheSize > 0 {
		cached, err := embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedding cache: %w", err)
		}
		embedder = cached
	}

	eng, err := engine.New(cfg, store, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	if cfg.Storage.VectorIndexPath != "" {
		if loadErr := eng.LoadVectors(cfg.Storage.VectorIndexPath); loadErr != nil {
			logger.Warn("vector snapshot load skipped",
				zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(loadErr))
		}
	}
	if err := eng.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to rebuild indexes: %w", err)
	}

	return &Components{Storage: store, Embedder: embedder, Engine: eng}, nil
}

// newLoggerOrExit builds the logger; on failure there is nothing to log with,
// so print and exit.
func newLoggerOrExit(debug bool) *zap.Logger {
	logger, err := utils.NewLogger(debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger := newLoggerOrExit(debugMode)
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(components.Engine, components.Storage, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if cfg.Storage.VectorIndexPath != "" {
		if err := components.Engine.SaveVectors(cfg.Storage.VectorIndexPath); err != nil {
			logger.Warn("vector snapshot save failed",
				zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildQuery joins all positional args with spaces so multi-word queries work
// the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	topK := fs.Int("top-k", 0, "number of results (0 = configured default)")
	lexWeight := fs.Float64("lexical-weight", -1, "lexical score weight (negative = configured default)")
	semWeight := fs.Float64("semantic-weight", -1, "semantic score weight (negative = configured default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: atsumeru search [flags] <query>")
		os.Exit(1)
	}
	queryStr := buildQuery(fs.Args())
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	query := &models.SearchQuery{Query: queryStr, TopK: *topK}
	if *lexWeight >= 0 {
		query.LexicalWeight = lexWeight
	}
	if *semWeight >= 0 {
		query.SemanticWeight = semWeight
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = searchViaHTTP(*serverURL, query)
	} else {
		var components *Components
		components, err = directComponents(*configPath)
		if err == nil {
			defer components.Close()
			response, err = components.Engine.Search(context.Background(), query)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// directComponents initializes local components for commands running without
// a server.
func directComponents(configPath string) (*Components, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLoggerOrExit(cfg.Debug)
	return initializeComponents(cfg, logger)
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runAnswer() {
	fs := flag.NewFlagSet("answer", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	maxTokens := fs.Int("max-tokens", 0, "context token budget (0 = configured default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: atsumeru answer [flags] <question>")
		os.Exit(1)
	}
	question := buildQuery(fs.Args())
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	var bundle *models.ContextBundle
	if *serverURL != "" {
		bundle, err = answerViaHTTP(*serverURL, question, *maxTokens)
	} else {
		var components *Components
		components, err = directComponents(*configPath)
		if err == nil {
			defer components.Close()
			budget := *maxTokens
			if budget == 0 {
				budget = components.Engine.DefaultContextTokens()
			}
			bundle, err = components.Engine.AnswerWithContext(context.Background(), question, budget)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Answer failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteContextBundle(os.Stdout, bundle, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func answerViaHTTP(serverURL, question string, maxTokens int) (*models.ContextBundle, error) {
	body, err := json.Marshal(map[string]any{"question": question, "max_tokens": maxTokens})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/answer", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var bundle models.ContextBundle
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &bundle, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	docID := fs.String("id", "", "document ID (empty = generated)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: atsumeru ingest [flags] <file>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Failed to read file: %v\n", err)
		os.Exit(1)
	}

	components, err := directComponents(*configPath)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	input := &models.DocumentInput{
		ID:       *docID,
		Content:  string(content),
		Metadata: map[string]string{"source": filepath.Base(path)},
	}
	report, err := components.Engine.Ingest(context.Background(), input)
	if err != nil {
		fmt.Printf("Ingestion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document ingested: %s (%d chunks", report.DocumentID, len(report.ChunkIDs))
	if len(report.Failures) > 0 {
		fmt.Printf(", %d lexical-only", len(report.Failures))
	}
	fmt.Println(")")
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: atsumeru delete [flags] <document-id>")
		os.Exit(1)
	}
	docID := fs.Arg(0)

	components, err := directComponents(*configPath)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	if err := components.Engine.Remove(context.Background(), docID); err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document deleted: %s\n", docID)
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	var stats *models.EngineStats
	if *serverURL != "" {
		stats, err = statsViaHTTP(*serverURL)
	} else {
		var components *Components
		components, err = directComponents(*configPath)
		if err == nil {
			defer components.Close()
			stats, err = components.Engine.Stats(context.Background())
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Stats failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteStats(os.Stdout, stats, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func statsViaHTTP(serverURL string) (*models.EngineStats, error) {
	resp, err := http.Get(serverURL + "/api/v1/stats")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var stats models.EngineStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &stats, nil
}

func printUsage() {
	fmt.Println(`atsumeru - Hybrid retrieval context engine

Usage:
  atsumeru server [flags]            Start the HTTP server
  atsumeru search [flags] <query>    Search ingested documents
  atsumeru answer [flags] <question> Assemble a context bundle for a question
  atsumeru ingest [flags] <file>     Ingest a document
  atsumeru delete [flags] <id>       Delete a document
  atsumeru stats [flags]             Show engine statistics
  atsumeru version                   Show version
  atsumeru help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/atsumeru/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --config string           Config file path (for direct storage mode)
  --server string           Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --top-k int               Number of results (0 = configured default)
  --lexical-weight float    Lexical score weight (negative = configured default)
  --semantic-weight float   Semantic score weight (negative = configured default)
  --output string           Output format: text or json (default: text)

Answer Flags:
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --max-tokens int   Context token budget (0 = configured default)
  --output string    Output format: text or json (default: text)

Examples:
  atsumeru server
  atsumeru ingest notes.md
  atsumeru search "vector fusion weights"
  atsumeru search --top-k 5 --output json hybrid retrieval
  atsumeru answer "how are scores normalized?"
  atsumeru delete doc-123
  atsumeru stats --output json`)
}
