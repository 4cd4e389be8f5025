package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/hyperjump/atsumeru/internal/embedding"
	"github.com/hyperjump/atsumeru/internal/lexical"
	"github.com/hyperjump/atsumeru/internal/models"
	"github.com/hyperjump/atsumeru/internal/search"
	"github.com/hyperjump/atsumeru/internal/vector"
)

func BenchmarkFuse(b *testing.B) {
	lex := make(map[string]float64)
	sem := make(map[string]float64)
	order := make(map[string]int)
	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("chunk-%d", i)
		lex[id] = float64(i) / 100
		sem[id] = float64(100-i) / 100
		order[id] = i
	}
	orderOf := func(id string) int { return order[id] }
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = search.Fuse(lex, sem, 0.3, 0.7, orderOf)
	}
}

func BenchmarkLexicalSearch(b *testing.B) {
	idx := lexical.NewIndex()
	chunks := make([]*models.Chunk, 1000)
	for i := 0; i < 1000; i++ {
		chunks[i] = &models.Chunk{
			ID:   fmt.Sprintf("chunk-%d", i),
			Text: fmt.Sprintf("document number %d discusses retrieval ranking and fusion topic%d", i, i%50),
		}
	}
	idx.AddBatch(chunks)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Search("retrieval ranking fusion", 10)
	}
}

func BenchmarkVectorSearch(b *testing.B) {
	store, _ := vector.NewStore(384)
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		vec := make([]float32, 384)
		vec[i%384] = 1.0
		vec[0] = float32(i) / 1000
		_ = store.Add(fmt.Sprintf("chunk-%d", i), vec)
	}
	query := make([]float32, 384)
	query[0] = 1.0
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Search(ctx, query, 10)
	}
}

func BenchmarkHashEmbedder_Embed(b *testing.B) {
	e := embedding.NewHashEmbedder(384)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Embed(ctx, "benchmark query text for embedding")
	}
}
