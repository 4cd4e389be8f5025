// Package integration provides end-to-end tests over real storage.
package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/atsumeru/internal/config"
	"github.com/hyperjump/atsumeru/internal/embedding"
	"github.com/hyperjump/atsumeru/internal/engine"
	"github.com/hyperjump/atsumeru/internal/models"
	"github.com/hyperjump/atsumeru/internal/storage"
)

func TestIntegration_IngestSearchAnswer(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.DatabasePath = filepath.Join(dir, "db.sqlite")

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	embedder := embedding.NewHashEmbedder(32)
	eng, err := engine.New(cfg, store, embedder, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := eng.Ingest(ctx, &models.DocumentInput{
		ID: "doc1", Content: "Machine learning algorithms learn patterns from data.",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Ingest(ctx, &models.DocumentInput{
		ID: "doc2", Content: "Semantic search uses embeddings to find similar content.",
	}); err != nil {
		t.Fatal(err)
	}

	resp, err := eng.Search(ctx, &models.SearchQuery{Query: "machine learning", TopK: 5})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total < 1 {
		t.Fatalf("expected at least 1 result, got %d", resp.Total)
	}
	if resp.Results[0].DocumentID != "doc1" {
		t.Errorf("top result from %q, want doc1", resp.Results[0].DocumentID)
	}

	bundle, err := eng.AnswerWithContext(ctx, "how do algorithms learn", 200)
	if err != nil {
		t.Fatal(err)
	}
	if len(bundle.Items) == 0 {
		t.Fatal("expected a non-empty context bundle")
	}
	if bundle.TotalTokens > 200 {
		t.Errorf("bundle tokens %d exceed budget", bundle.TotalTokens)
	}

	if err := eng.Remove(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}
	stats, err := eng.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Documents != 1 {
		t.Errorf("documents after removal = %d, want 1", stats.Documents)
	}
}

func TestIntegration_RestartPreservesIndex(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.DatabasePath = filepath.Join(dir, "db.sqlite")
	snapshotPath := filepath.Join(dir, "vectors.bin")

	embedder := embedding.NewHashEmbedder(32)
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	eng, err := engine.New(cfg, store, embedder, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Ingest(ctx, &models.DocumentInput{
		ID: "doc1", Content: "Durable retrieval state outlives a single process.",
	}); err != nil {
		t.Fatal(err)
	}
	if err := eng.SaveVectors(snapshotPath); err != nil {
		t.Fatal(err)
	}
	store.Close()

	store2, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	defer store2.Close()
	eng2, err := engine.New(cfg, store2, embedder, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng2.LoadVectors(snapshotPath); err != nil {
		t.Fatal(err)
	}
	if err := eng2.Load(ctx); err != nil {
		t.Fatal(err)
	}

	resp, err := eng2.Search(ctx, &models.SearchQuery{Query: "durable retrieval"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total < 1 {
		t.Fatal("expected results after restart")
	}
}
