package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/atsumeru/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDocumentCRUD(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	doc := &models.Document{
		ID:       "doc1",
		Content:  "some content",
		Metadata: map[string]string{"source": "test"},
	}
	if err := s.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != "some content" || got.Metadata["source"] != "test" {
		t.Errorf("got %+v", got)
	}

	if _, err := s.GetDocument(ctx, "missing"); err == nil {
		t.Error("expected error for missing document")
	}

	if err := s.DeleteDocument(ctx, "doc1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetDocument(ctx, "doc1"); err == nil {
		t.Error("document should be gone after delete")
	}
}

func TestChunkRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	doc := &models.Document{ID: "doc1", Content: "content"}
	if err := s.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	chunks := []*models.Chunk{
		{ID: "doc1_0", DocumentID: "doc1", Text: "first chunk", Position: 0,
			Metadata: map[string]string{"k": "v"}, Embedding: []float32{0.5, 0.5}},
		{ID: "doc1_1", DocumentID: "doc1", Text: "second chunk", Position: 1},
	}
	if err := s.BatchCreateChunks(ctx, chunks); err != nil {
		t.Fatalf("batch create: %v", err)
	}

	got, err := s.GetChunk(ctx, "doc1_0")
	if err != nil {
		t.Fatalf("get chunk: %v", err)
	}
	if got.Text != "first chunk" || got.Metadata["k"] != "v" {
		t.Errorf("chunk = %+v", got)
	}
	if len(got.Embedding) != 2 || got.Embedding[0] != 0.5 {
		t.Errorf("embedding = %v", got.Embedding)
	}

	byDoc, err := s.GetChunksByDocumentID(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if len(byDoc) != 2 || byDoc[0].Position != 0 || byDoc[1].Position != 1 {
		t.Errorf("chunks by doc = %v", byDoc)
	}
	// Chunk without an embedding round-trips as nil.
	if byDoc[1].Embedding != nil {
		t.Errorf("expected nil embedding, got %v", byDoc[1].Embedding)
	}
}

func TestListChunks(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	_ = s.CreateDocument(ctx, &models.Document{ID: "d", Content: "c"})
	_ = s.BatchCreateChunks(ctx, []*models.Chunk{
		{ID: "d_0", DocumentID: "d", Text: "a", Position: 0},
		{ID: "d_1", DocumentID: "d", Text: "b", Position: 1},
		{ID: "d_2", DocumentID: "d", Text: "c", Position: 2},
	})
	page, err := s.ListChunks(ctx, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].ID != "d_1" {
		t.Errorf("page = %v", page)
	}
}

func TestDeleteChunksByDocumentID(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	_ = s.CreateDocument(ctx, &models.Document{ID: "d", Content: "c"})
	_ = s.BatchCreateChunks(ctx, []*models.Chunk{
		{ID: "d_0", DocumentID: "d", Text: "a", Position: 0},
	})
	if err := s.DeleteChunksByDocumentID(ctx, "d"); err != nil {
		t.Fatal(err)
	}
	n, err := s.CountChunks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("chunk count after delete = %d", n)
	}
}

func TestCounts(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	_ = s.CreateDocument(ctx, &models.Document{ID: "d1", Content: "x"})
	_ = s.CreateDocument(ctx, &models.Document{ID: "d2", Content: "y"})
	_ = s.BatchCreateChunks(ctx, []*models.Chunk{
		{ID: "d1_0", DocumentID: "d1", Text: "a", Position: 0},
	})
	docs, _ := s.CountDocuments(ctx)
	chunks, _ := s.CountChunks(ctx)
	if docs != 2 || chunks != 1 {
		t.Errorf("counts = %d docs, %d chunks", docs, chunks)
	}
}
