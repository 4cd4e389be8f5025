// Package embedding defines the injected embedding capability and helpers
// around it. The engine never computes embeddings itself; callers supply an
// Embedder and the engine bounds every call with a timeout.
package embedding

import "context"

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
