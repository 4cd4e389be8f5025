package chunker

import (
	"strings"
	"testing"

	"github.com/hyperjump/atsumeru/internal/models"
)

func TestChunkerChunk(t *testing.T) {
	c := NewChunker(40, 2)
	doc := &models.Document{
		ID:      "doc1",
		Content: "First sentence here. Second sentence follows now. Third one is also present. And a fourth to round it out.",
	}
	chunks := c.Chunk(doc)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.DocumentID != "doc1" {
			t.Errorf("chunk %d DocumentID=%s", i, ch.DocumentID)
		}
		if ch.Position != i {
			t.Errorf("chunk %d Position=%d", i, ch.Position)
		}
		if ch.ID == "" {
			t.Error("chunk ID should be set")
		}
	}
}

func TestChunkerDeterministic(t *testing.T) {
	c := NewChunker(50, 3)
	doc := &models.Document{ID: "d", Content: strings.Repeat("Some sentence with words. ", 20)}
	a := c.Chunk(doc)
	b := c.Chunk(doc)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Text != b[i].Text || a[i].Position != b[i].Position {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestChunkerEmpty(t *testing.T) {
	c := NewChunker(100, 5)
	if got := c.Chunk(&models.Document{ID: "d", Content: "   \n\t  "}); got != nil {
		t.Errorf("whitespace-only content should return nil, got %v", got)
	}
	if got := c.Chunk(&models.Document{ID: "d"}); got != nil {
		t.Errorf("empty content should return nil, got %v", got)
	}
}

func TestChunkerOverlap(t *testing.T) {
	c := NewChunker(30, 2)
	doc := &models.Document{ID: "d", Content: "Alpha beta gamma delta. Epsilon zeta eta theta. Iota kappa lambda mu."}
	chunks := c.Chunk(doc)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// Each chunk after the first starts with the last 2 words of its predecessor.
	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1].Text)
		tail := strings.Join(prevWords[len(prevWords)-2:], " ")
		if !strings.HasPrefix(chunks[i].Text, tail) {
			t.Errorf("chunk %d should start with %q, got %q", i, tail, chunks[i].Text)
		}
	}
}

func TestChunkerLongSentenceFallsBackToWhitespace(t *testing.T) {
	c := NewChunker(20, 0)
	// One long "sentence" with no terminator within 1.5x the target size.
	doc := &models.Document{ID: "d", Content: strings.Repeat("word ", 30)}
	chunks := c.Chunk(doc)
	if len(chunks) < 2 {
		t.Fatalf("expected whitespace split into multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if len(ch.Text) > 30 {
			t.Errorf("chunk %d exceeds hard limit: %d chars", i, len(ch.Text))
		}
	}
}

func TestChunkerMetadataInherited(t *testing.T) {
	c := NewChunker(100, 0)
	doc := &models.Document{ID: "d", Content: "Hello world.", Metadata: map[string]string{"source": "unit"}}
	chunks := c.Chunk(doc)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Metadata["source"] != "unit" {
		t.Error("chunk should inherit document metadata")
	}
	chunks[0].Metadata["local"] = "x"
	if _, ok := doc.Metadata["local"]; ok {
		t.Error("chunk metadata must be a copy, not a shared map")
	}
}

func TestPreprocess(t *testing.T) {
	if Preprocess("  a  b  ") != "a b" {
		t.Error("expected trimmed and collapsed spaces")
	}
	if Preprocess("a\n\tb") != "a b" {
		t.Error("expected newlines and tabs collapsed")
	}
}
