package vector

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/hyperjump/atsumeru/internal/models"
)

func TestStoreAddAndSearch(t *testing.T) {
	s, err := NewStore(2)
	if err != nil {
		t.Fatal(err)
	}
	// Unnormalized inputs; the store normalizes on insert.
	if err := s.Add("x", []float32{10, 0}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("y", []float32{0, 3}); err != nil {
		t.Fatal(err)
	}
	results, err := s.Search(context.Background(), []float32{1, 0.1}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ChunkID != "x" {
		t.Errorf("nearest = %s, want x", results[0].ChunkID)
	}
	if math.Abs(results[0].Score-0.995) > 0.01 {
		t.Errorf("cosine score = %f", results[0].Score)
	}
}

func TestStoreDimensionMismatch(t *testing.T) {
	s, _ := NewStore(3)
	err := s.Add("bad", []float32{1, 2})
	var dm *models.DimensionMismatchError
	if !errors.As(err, &dm) {
		t.Fatalf("expected DimensionMismatchError, got %v", err)
	}
	if dm.Got != 2 || dm.Want != 3 {
		t.Errorf("mismatch detail = %+v", dm)
	}
	if s.Size() != 0 {
		t.Error("failed add should leave store unchanged")
	}
	// Siblings continue.
	if err := s.Add("good", []float32{1, 2, 3}); err != nil {
		t.Errorf("sibling add failed: %v", err)
	}
}

func TestStoreTopKBound(t *testing.T) {
	s, _ := NewStore(2)
	for i := 0; i < 10; i++ {
		_ = s.Add(string(rune('a'+i)), []float32{1, float32(i)})
	}
	results, err := s.Search(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) > 3 {
		t.Errorf("top-k bound violated: %d", len(results))
	}
}

func TestStoreSearchInvalidK(t *testing.T) {
	s, _ := NewStore(2)
	var qe *models.QueryError
	if _, err := s.Search(context.Background(), []float32{1, 0}, 0); !errors.As(err, &qe) {
		t.Errorf("expected QueryError, got %v", err)
	}
}

func TestStoreSearchCancelled(t *testing.T) {
	s, _ := NewStore(2)
	_ = s.Add("a", []float32{1, 0})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Search(ctx, []float32{1, 0}, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStoreRemove(t *testing.T) {
	s, _ := NewStore(2)
	_ = s.Add("a", []float32{1, 0})
	_ = s.Add("b", []float32{0, 1})
	s.Remove([]string{"a", "missing"})
	if s.Size() != 1 {
		t.Errorf("size = %d", s.Size())
	}
	results, err := s.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ChunkID != "b" {
		t.Errorf("results = %v", results)
	}
}

func TestStoreUpsert(t *testing.T) {
	s, _ := NewStore(2)
	_ = s.Add("a", []float32{1, 0})
	_ = s.Add("a", []float32{0, 1})
	if s.Size() != 1 {
		t.Fatalf("upsert should not grow store, size = %d", s.Size())
	}
	results, _ := s.Search(context.Background(), []float32{0, 1}, 1)
	if math.Abs(results[0].Score-1.0) > 1e-6 {
		t.Errorf("vector should be replaced, score = %f", results[0].Score)
	}
}

func TestStoreSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.bin")
	s, _ := NewStore(2)
	_ = s.Add("a", []float32{3, 4})
	_ = s.Add("b", []float32{0, 2})
	if err := s.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, _ := NewStore(2)
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Size() != 2 {
		t.Fatalf("loaded size = %d", loaded.Size())
	}
	results, err := loaded.Search(context.Background(), []float32{3, 4}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].ChunkID != "a" || math.Abs(results[0].Score-1.0) > 1e-6 {
		t.Errorf("loaded search = %+v", results[0])
	}
}

func TestStoreLoadMissingFile(t *testing.T) {
	s, _ := NewStore(2)
	if err := s.Load(filepath.Join(t.TempDir(), "nope.bin")); err != nil {
		t.Errorf("missing file should not error: %v", err)
	}
}

func TestStoreLoadDimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.bin")
	s, _ := NewStore(2)
	_ = s.Add("a", []float32{1, 0})
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}
	other, _ := NewStore(3)
	if err := other.Load(path); err == nil {
		t.Error("expected dimension mismatch error on load")
	}
}
