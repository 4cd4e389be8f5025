// Package search provides hybrid retrieval (lexical + semantic), result
// fusion, reranking, and context assembly.
package search

import (
	"sort"

	"github.com/hyperjump/atsumeru/internal/lexical"
	"github.com/hyperjump/atsumeru/internal/models"
	"github.com/hyperjump/atsumeru/internal/vector"
)

// NormalizeLexicalScores min-max scales lexical scores to [0,1] within the
// result set. A single-result set normalizes to 1.0, as does a set where all
// scores are equal.
func NormalizeLexicalScores(results []*lexical.Result) map[string]float64 {
	normalized := make(map[string]float64, len(results))
	if len(results) == 0 {
		return normalized
	}
	minScore, maxScore := results[0].Score, results[0].Score
	for _, r := range results {
		if r.Score < minScore {
			minScore = r.Score
		}
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	for _, r := range results {
		if maxScore == minScore {
			normalized[r.ChunkID] = 1.0
		} else {
			normalized[r.ChunkID] = (r.Score - minScore) / (maxScore - minScore)
		}
	}
	return normalized
}

// NormalizeSemanticScores min-max scales semantic scores to [0,1] within the
// result set, with the same singleton rule as the lexical side.
func NormalizeSemanticScores(results []*vector.Result) map[string]float64 {
	normalized := make(map[string]float64, len(results))
	if len(results) == 0 {
		return normalized
	}
	minScore, maxScore := results[0].Score, results[0].Score
	for _, r := range results {
		if r.Score < minScore {
			minScore = r.Score
		}
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	for _, r := range results {
		if maxScore == minScore {
			normalized[r.ChunkID] = 1.0
		} else {
			normalized[r.ChunkID] = (r.Score - minScore) / (maxScore - minScore)
		}
	}
	return normalized
}

// Fuse merges normalized lexical and semantic score maps with the given
// weights. A chunk appearing in only one set receives 0 for the missing
// signal. Results are sorted by fused score descending, ties broken by chunk
// insertion order via orderOf (earliest first).
func Fuse(lexicalScores, semanticScores map[string]float64, lexicalWeight, semanticWeight float64, orderOf func(string) int) []*models.ScoredResult {
	merged := make(map[string]*models.ScoredResult, len(lexicalScores)+len(semanticScores))
	for id, score := range lexicalScores {
		merged[id] = &models.ScoredResult{ChunkID: id, LexicalScore: score}
	}
	for id, score := range semanticScores {
		if r, exists := merged[id]; exists {
			r.SemanticScore = score
		} else {
			merged[id] = &models.ScoredResult{ChunkID: id, SemanticScore: score}
		}
	}
	results := make([]*models.ScoredResult, 0, len(merged))
	for _, r := range merged {
		r.FusedScore = lexicalWeight*r.LexicalScore + semanticWeight*r.SemanticScore
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].FusedScore != results[j].FusedScore {
			return results[i].FusedScore > results[j].FusedScore
		}
		return orderOf(results[i].ChunkID) < orderOf(results[j].ChunkID)
	})
	return results
}
