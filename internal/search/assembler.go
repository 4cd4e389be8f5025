package search

import (
	"unicode/utf8"

	"github.com/hyperjump/atsumeru/internal/models"
	"github.com/hyperjump/atsumeru/pkg/utils"
)

// Assemble greedily packs ranked chunks into a token-bounded bundle. A chunk
// that fits the remaining budget is included whole; the first chunk that only
// partially fits is truncated to the remaining budget, marked, and ends the
// walk. Sources record every included chunk's provenance for citation.
// A non-positive budget yields an empty bundle, not an error.
func Assemble(results []*models.ScoredResult, maxTokens int) *models.ContextBundle {
	bundle := &models.ContextBundle{
		Items:   []models.BundleItem{},
		Sources: []models.SourceRef{},
	}
	if maxTokens <= 0 {
		return bundle
	}

	remaining := maxTokens
	for _, r := range results {
		if remaining == 0 {
			break
		}
		if r.Text == "" {
			continue
		}
		tokens := utils.EstimateTokens(r.Text)
		item := models.BundleItem{ChunkID: r.ChunkID}
		if tokens <= remaining {
			item.Text = r.Text
			item.Tokens = tokens
		} else {
			prefix := remaining * utils.CharsPerToken
			if prefix > len(r.Text) {
				prefix = len(r.Text)
			}
			// Never split a multi-byte rune.
			for prefix > 0 && prefix < len(r.Text) && !utf8.RuneStart(r.Text[prefix]) {
				prefix--
			}
			item.Text = r.Text[:prefix]
			item.Tokens = remaining
			item.Truncated = true
		}
		bundle.Items = append(bundle.Items, item)
		bundle.Sources = append(bundle.Sources, models.SourceRef{
			DocumentID: r.DocumentID,
			ChunkID:    r.ChunkID,
			Position:   r.Position,
		})
		bundle.TotalTokens += item.Tokens
		remaining -= item.Tokens
		if item.Truncated {
			break
		}
	}
	return bundle
}
