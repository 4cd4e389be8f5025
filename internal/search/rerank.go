package search

import (
	"sort"
	"strings"

	"github.com/hyperjump/atsumeru/internal/lexical"
	"github.com/hyperjump/atsumeru/internal/models"
)

// Heuristic weights applied on top of the fused score.
const (
	exactMatchBonus = 0.5
	coverageWeight  = 0.3
	earlinessWeight = 0.2
)

// Rerank refines an already-ranked result list with cheap heuristic features:
// an exact substring match of the full query, query-term coverage, and how
// early the first matching term appears in the chunk. The sort is stable, so
// results with equal rerank scores keep their input order.
func Rerank(queryText string, results []*models.ScoredResult) []*models.ScoredResult {
	queryLower := strings.ToLower(strings.TrimSpace(queryText))
	terms := lexical.UniqueTerms(queryText)

	for _, r := range results {
		r.RerankScore = r.FusedScore + rerankBonus(queryLower, terms, r.Text)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RerankScore > results[j].RerankScore
	})
	for i, r := range results {
		r.Rank = i + 1
	}
	return results
}

func rerankBonus(queryLower string, terms []string, text string) float64 {
	if text == "" {
		return 0
	}
	textLower := strings.ToLower(text)
	var bonus float64

	if queryLower != "" && strings.Contains(textLower, queryLower) {
		bonus += exactMatchBonus
	}

	if len(terms) > 0 {
		matched := 0
		firstPos := -1
		for _, term := range terms {
			pos := strings.Index(textLower, term)
			if pos < 0 {
				continue
			}
			matched++
			if firstPos < 0 || pos < firstPos {
				firstPos = pos
			}
		}
		bonus += coverageWeight * float64(matched) / float64(len(terms))
		if firstPos >= 0 {
			bonus += (1 - float64(firstPos)/float64(len(textLower))) * earlinessWeight
		}
	}
	return bonus
}
