package lexical

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hyperjump/atsumeru/internal/models"
)

func chunk(id, text string) *models.Chunk {
	return &models.Chunk{ID: id, DocumentID: "doc", Text: text}
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("Hello, World! Go-lang 42 is ok")
	want := []string{"hello", "world", "lang"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v", tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestSearchTermFrequencyOrdering(t *testing.T) {
	idx := NewIndex()
	idx.AddBatch([]*models.Chunk{
		chunk("A", "alpha alpha alpha filler words"),
		chunk("B", "alpha filler other words"),
		chunk("C", "nothing relevant here"),
	})

	results, err := idx.Search("alpha", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ChunkID != "A" || results[1].ChunkID != "B" {
		t.Errorf("order = [%s, %s], want [A, B]", results[0].ChunkID, results[1].ChunkID)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("A should outscore B: %f vs %f", results[0].Score, results[1].Score)
	}
}

func TestSearchExcludesNonMatching(t *testing.T) {
	idx := NewIndex()
	idx.AddBatch([]*models.Chunk{
		chunk("A", "alpha beta"),
		chunk("B", "gamma delta"),
	})
	results, err := idx.Search("alpha", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ChunkID != "A" {
		t.Errorf("results = %v", results)
	}
}

func TestSearchTopKBound(t *testing.T) {
	idx := NewIndex()
	for i := 0; i < 20; i++ {
		idx.Add(chunk(fmt.Sprintf("c%d", i), "shared term everywhere"))
	}
	results, err := idx.Search("shared", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) > 5 {
		t.Errorf("top-k bound violated: %d results", len(results))
	}
}

func TestSearchTieBrokenByInsertionOrder(t *testing.T) {
	idx := NewIndex()
	idx.AddBatch([]*models.Chunk{
		chunk("first", "shared term"),
		chunk("second", "shared term"),
		chunk("third", "shared term"),
	})
	results, err := idx.Search("shared", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	want := []string{"first", "second", "third"}
	for i, r := range results {
		if r.ChunkID != want[i] {
			t.Errorf("position %d = %s, want %s", i, r.ChunkID, want[i])
		}
	}
}

func TestSearchInvalidTopK(t *testing.T) {
	idx := NewIndex()
	idx.Add(chunk("A", "alpha"))
	var qe *models.QueryError
	if _, err := idx.Search("alpha", 0); !errors.As(err, &qe) {
		t.Errorf("expected QueryError for top_k=0, got %v", err)
	}
	if _, err := idx.Search("alpha", -3); !errors.As(err, &qe) {
		t.Errorf("expected QueryError for negative top_k, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	idx := NewIndex()
	idx.AddBatch([]*models.Chunk{
		chunk("A", "alpha beta"),
		chunk("B", "alpha gamma"),
	})
	idx.Remove([]string{"A"})
	if idx.ChunkCount() != 1 {
		t.Errorf("chunk count = %d", idx.ChunkCount())
	}
	results, err := idx.Search("alpha", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ChunkID != "B" {
		t.Errorf("results after remove = %v", results)
	}
	// Surviving chunks keep their ordinal.
	if ord, ok := idx.InsertionOrder("B"); !ok || ord != 1 {
		t.Errorf("B ordinal = %d (%v)", ord, ok)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	idx := NewIndex()
	idx.Add(chunk("A", "alpha"))
	before, err := idx.Search("alpha", 10)
	if err != nil {
		t.Fatal(err)
	}
	idx.Add(chunk("B", "alpha"))
	// The earlier result slice is unaffected by the later write.
	if len(before) != 1 {
		t.Errorf("old results mutated: %v", before)
	}
	after, err := idx.Search("alpha", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 2 {
		t.Errorf("new snapshot should see both chunks, got %d", len(after))
	}
}

func TestDuplicateAddIgnored(t *testing.T) {
	idx := NewIndex()
	idx.Add(chunk("A", "alpha"))
	idx.Add(chunk("A", "alpha"))
	if idx.ChunkCount() != 1 {
		t.Errorf("duplicate add should be ignored, count = %d", idx.ChunkCount())
	}
}
