package search

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/atsumeru/internal/embedding"
	"github.com/hyperjump/atsumeru/internal/lexical"
	"github.com/hyperjump/atsumeru/internal/models"
	"github.com/hyperjump/atsumeru/internal/vector"
)

// ChunkSource resolves chunk IDs to full chunks so retrieved results can carry
// text for reranking and assembly.
type ChunkSource interface {
	GetChunk(ctx context.Context, id string) (*models.Chunk, error)
}

// Retriever fuses lexical and semantic rankings into one ranked list.
type Retriever struct {
	lexical  *lexical.Index
	vectors  *vector.Store
	embedder embedding.Embedder
	chunks   ChunkSource
	logger   *zap.Logger
}

// NewRetriever creates a retriever with the given dependencies.
func NewRetriever(lex *lexical.Index, vec *vector.Store, emb embedding.Embedder, chunks ChunkSource, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{lexical: lex, vectors: vec, embedder: emb, chunks: chunks, logger: logger}
}

// Retrieve runs lexical and semantic search concurrently, each over-fetching
// topK*2 candidates, normalizes each side's scores, fuses them with the given
// weights, and returns the top topK results with text resolved. A side whose
// weight is zero is skipped entirely, which reproduces the other side's pure
// ranking. If the query embedding fails but lexical search is enabled, the
// semantic side degrades to empty with a log instead of failing the query.
func (r *Retriever) Retrieve(ctx context.Context, queryText string, topK int, lexicalWeight, semanticWeight float64) ([]*models.ScoredResult, error) {
	if topK <= 0 {
		return nil, models.NewQueryError("top_k must be positive, got %d", topK)
	}
	fetch := topK * 2

	var (
		lexResults []*lexical.Result
		semResults []*vector.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	if lexicalWeight > 0 {
		g.Go(func() error {
			var err error
			lexResults, err = r.lexical.Search(queryText, fetch)
			return err
		})
	}
	if semanticWeight > 0 {
		g.Go(func() error {
			queryEmbedding, err := r.embedder.Embed(gctx, queryText)
			if err != nil {
				if lexicalWeight > 0 {
					r.logger.Warn("query embedding failed, continuing lexical-only", zap.Error(err))
					return nil
				}
				return err
			}
			semResults, err = r.vectors.Search(gctx, queryEmbedding, fetch)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lexScores := NormalizeLexicalScores(lexResults)
	semScores := NormalizeSemanticScores(semResults)
	fused := Fuse(lexScores, semScores, lexicalWeight, semanticWeight, func(id string) int {
		ord, ok := r.lexical.InsertionOrder(id)
		if !ok {
			return int(^uint(0) >> 1)
		}
		return ord
	})
	if topK < len(fused) {
		fused = fused[:topK]
	}

	for i, res := range fused {
		res.Rank = i + 1
		chunk, err := r.chunks.GetChunk(ctx, res.ChunkID)
		if err != nil {
			r.logger.Warn("chunk lookup failed", zap.String("chunk_id", res.ChunkID), zap.Error(err))
			continue
		}
		res.DocumentID = chunk.DocumentID
		res.Position = chunk.Position
		res.Text = chunk.Text
	}
	return fused, nil
}
