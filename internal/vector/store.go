// Package vector provides the embedding store: fixed-dimension chunk vectors
// with exhaustive cosine similarity search.
package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hyperjump/atsumeru/internal/models"
	"github.com/hyperjump/atsumeru/pkg/utils"
)

// cancelCheckInterval is how many vectors are scanned between context checks.
const cancelCheckInterval = 1024

// Result is a single similarity search hit.
type Result struct {
	ChunkID string
	Score   float64 // cosine similarity, 0-1 for unit vectors
}

// Store holds chunk embeddings of a fixed dimension. Vectors are L2-normalized
// on insertion so cosine similarity reduces to a dot product. Search is an
// exhaustive scan; swap in another implementation behind the same methods for
// sub-linear search at scale.
type Store struct {
	dimensions int
	mu         sync.RWMutex
	ids        []string
	vectors    [][]float32
	byID       map[string]int
}

// NewStore creates an embedding store with the given fixed dimension.
func NewStore(dimensions int) (*Store, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &Store{
		dimensions: dimensions,
		byID:       make(map[string]int),
	}, nil
}

// Add stores a vector under the chunk ID, normalizing a private copy to unit
// length. A vector whose length disagrees with the store's dimension yields a
// DimensionMismatchError and leaves the store unchanged; the caller skips that
// chunk and continues with its siblings.
func (s *Store) Add(chunkID string, vec []float32) error {
	if len(vec) != s.dimensions {
		return &models.DimensionMismatchError{Got: len(vec), Want: s.dimensions}
	}
	cp := make([]float32, s.dimensions)
	copy(cp, vec)
	utils.NormalizeL2(cp)

	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.byID[chunkID]; ok {
		s.vectors[i] = cp
		return nil
	}
	s.byID[chunkID] = len(s.ids)
	s.ids = append(s.ids, chunkID)
	s.vectors = append(s.vectors, cp)
	return nil
}

// Search returns the top-k chunks by cosine similarity to query. The scan
// checks ctx periodically so a slow query can be cancelled by a caller-supplied
// deadline. The query is normalized on a private copy before scanning.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]*Result, error) {
	if k <= 0 {
		return nil, models.NewQueryError("top_k must be positive, got %d", k)
	}
	if len(query) != s.dimensions {
		return nil, &models.DimensionMismatchError{Got: len(query), Want: s.dimensions}
	}
	q := make([]float32, s.dimensions)
	copy(q, query)
	utils.NormalizeL2(q)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.ids) == 0 {
		return nil, nil
	}
	scores := make([]*Result, len(s.ids))
	for i, vec := range s.vectors {
		if i%cancelCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		scores[i] = &Result{ChunkID: s.ids[i], Score: utils.InnerProduct(q, vec)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

// Remove deletes vectors by chunk ID. Unknown IDs are ignored.
func (s *Store) Remove(chunkIDs []string) {
	drop := make(map[string]bool, len(chunkIDs))
	for _, id := range chunkIDs {
		drop[id] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	newIDs := make([]string, 0, len(s.ids))
	newVectors := make([][]float32, 0, len(s.vectors))
	byID := make(map[string]int, len(s.byID))
	for i, id := range s.ids {
		if drop[id] {
			continue
		}
		byID[id] = len(newIDs)
		newIDs = append(newIDs, id)
		newVectors = append(newVectors, s.vectors[i])
	}
	s.ids = newIDs
	s.vectors = newVectors
	s.byID = byID
}

// Size returns the number of stored vectors.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Dimensions returns the store's fixed vector dimension.
func (s *Store) Dimensions() int {
	return s.dimensions
}
