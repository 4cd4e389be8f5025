// Package lexical provides an inverted index over chunk terms with TF-IDF scoring.
package lexical

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/hyperjump/atsumeru/internal/models"
)

// Result is a single lexical search hit.
type Result struct {
	ChunkID string
	Score   float64
}

// snapshot is an immutable view of the index. Writers build a new snapshot and
// swap it in atomically, so readers never observe a partially-updated index.
type snapshot struct {
	postings map[string]map[string]int // term -> chunk ID -> term frequency
	order    map[string]int            // chunk ID -> insertion ordinal
	next     int                       // next insertion ordinal
}

func emptySnapshot() *snapshot {
	return &snapshot{
		postings: make(map[string]map[string]int),
		order:    make(map[string]int),
	}
}

// Index is an inverted index with TF-IDF scoring. Reads are lock-free against
// the current snapshot; writes are serialized and swap in a new snapshot.
type Index struct {
	mu   sync.Mutex // serializes writers
	snap atomic.Pointer[snapshot]
}

// NewIndex creates an empty lexical index.
func NewIndex() *Index {
	idx := &Index{}
	idx.snap.Store(emptySnapshot())
	return idx
}

// Add indexes a single chunk.
func (idx *Index) Add(chunk *models.Chunk) {
	idx.AddBatch([]*models.Chunk{chunk})
}

// AddBatch indexes chunks under one snapshot swap. Chunks already present are
// skipped. Chunks whose text yields no tokens still count toward the corpus
// and keep their insertion ordinal.
func (idx *Index) AddBatch(chunks []*models.Chunk) {
	if len(chunks) == 0 {
		return
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	old := idx.snap.Load()
	ns := &snapshot{
		postings: make(map[string]map[string]int, len(old.postings)),
		order:    make(map[string]int, len(old.order)+len(chunks)),
		next:     old.next,
	}
	for term, plist := range old.postings {
		ns.postings[term] = plist
	}
	for id, ord := range old.order {
		ns.order[id] = ord
	}

	// Posting maps are shared with the old snapshot until first touched in
	// this batch; cloned tracks which terms are already private to ns.
	cloned := make(map[string]bool)
	for _, chunk := range chunks {
		if _, ok := ns.order[chunk.ID]; ok {
			continue
		}
		ns.order[chunk.ID] = ns.next
		ns.next++
		for _, term := range Tokenize(chunk.Text) {
			if !cloned[term] {
				np := make(map[string]int, len(ns.postings[term])+1)
				for id, tf := range ns.postings[term] {
					np[id] = tf
				}
				ns.postings[term] = np
				cloned[term] = true
			}
			ns.postings[term][chunk.ID]++
		}
	}
	idx.snap.Store(ns)
}

// Remove deletes the given chunks from the index in a single snapshot swap.
// Insertion ordinals of surviving chunks are preserved.
func (idx *Index) Remove(chunkIDs []string) {
	if len(chunkIDs) == 0 {
		return
	}
	drop := make(map[string]bool, len(chunkIDs))
	for _, id := range chunkIDs {
		drop[id] = true
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	old := idx.snap.Load()
	ns := &snapshot{
		postings: make(map[string]map[string]int, len(old.postings)),
		order:    make(map[string]int, len(old.order)),
		next:     old.next,
	}
	for id, ord := range old.order {
		if !drop[id] {
			ns.order[id] = ord
		}
	}
	for term, plist := range old.postings {
		touched := false
		for id := range plist {
			if drop[id] {
				touched = true
				break
			}
		}
		if !touched {
			ns.postings[term] = plist
			continue
		}
		np := make(map[string]int, len(plist))
		for id, tf := range plist {
			if !drop[id] {
				np[id] = tf
			}
		}
		if len(np) > 0 {
			ns.postings[term] = np
		}
	}
	idx.snap.Store(ns)
}

// Search scores chunks against the query terms with TF-IDF and returns up to
// topK results, best first. Chunks sharing no query term are excluded. Ties
// are broken by chunk insertion order, earliest first.
func (idx *Index) Search(queryText string, topK int) ([]*Result, error) {
	if topK <= 0 {
		return nil, models.NewQueryError("top_k must be positive, got %d", topK)
	}
	snap := idx.snap.Load()
	total := len(snap.order)
	if total == 0 {
		return nil, nil
	}

	scores := make(map[string]float64)
	for _, term := range UniqueTerms(queryText) {
		plist, ok := snap.postings[term]
		if !ok {
			continue
		}
		idf := math.Log(float64(total+1) / float64(len(plist)+1))
		for chunkID, tf := range plist {
			scores[chunkID] += float64(tf) * idf
		}
	}
	if len(scores) == 0 {
		return nil, nil
	}

	results := make([]*Result, 0, len(scores))
	for id, score := range scores {
		results = append(results, &Result{ChunkID: id, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return snap.order[results[i].ChunkID] < snap.order[results[j].ChunkID]
	})
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// InsertionOrder returns the insertion ordinal of a chunk, used for
// deterministic tie-breaking in fusion. The second return is false when the
// chunk is unknown.
func (idx *Index) InsertionOrder(chunkID string) (int, bool) {
	ord, ok := idx.snap.Load().order[chunkID]
	return ord, ok
}

// ChunkCount returns the number of chunks in the index.
func (idx *Index) ChunkCount() int {
	return len(idx.snap.Load().order)
}

// TermCount returns the number of distinct terms in the index.
func (idx *Index) TermCount() int {
	return len(idx.snap.Load().postings)
}
