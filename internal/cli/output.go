// Package cli provides CLI output utilities for Atsumeru.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/atsumeru/internal/models"
	"github.com/hyperjump/atsumeru/pkg/utils"
)

// OutputFormat is the format for CLI output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a format string from a flag.
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	cached := ""
	if response.CacheHit {
		cached = " (cached)"
	}
	fmt.Fprintf(w, "\nFound %d results in %dms%s\n\n", response.Total, response.QueryTime, cached)
	for _, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f (Lexical: %.4f, Semantic: %.4f, Fused: %.4f)\n",
			result.Rank, result.RerankScore, result.LexicalScore, result.SemanticScore, result.FusedScore)
		fmt.Fprintf(w, "Document: %s | Chunk: %s (position %d)\n", result.DocumentID, result.ChunkID, result.Position)
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(result.Text, 200))
	}
	return nil
}

// WriteContextBundle writes an assembled context bundle to w.
func WriteContextBundle(w io.Writer, bundle *models.ContextBundle, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, bundle)
	}
	fmt.Fprintf(w, "\nAssembled %d chunk(s), %d tokens\n\n", len(bundle.Items), bundle.TotalTokens)
	for i, item := range bundle.Items {
		marker := ""
		if item.Truncated {
			marker = " (truncated)"
		}
		fmt.Fprintf(w, "--- [%d] %s, %d tokens%s ---\n%s\n\n", i+1, item.ChunkID, item.Tokens, marker, item.Text)
	}
	if len(bundle.Sources) > 0 {
		fmt.Fprintln(w, "Sources:")
		for _, src := range bundle.Sources {
			fmt.Fprintf(w, "  %s (chunk %s, position %d)\n", src.DocumentID, src.ChunkID, src.Position)
		}
	}
	return nil
}

// WriteStats writes engine statistics to w.
func WriteStats(w io.Writer, stats *models.EngineStats, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, stats)
	}
	fmt.Fprintf(w, "documents:   %d\n", stats.Documents)
	fmt.Fprintf(w, "chunks:      %d\n", stats.Chunks)
	fmt.Fprintf(w, "vectors:     %d   # dimensions: %d\n", stats.Vectors, stats.Dimensions)
	fmt.Fprintf(w, "terms:       %d\n", stats.Terms)
	fmt.Fprintf(w, "cache:       %d entries, %d hits, %d misses\n", stats.Cache.Size, stats.Cache.Hits, stats.Cache.Misses)
	return nil
}
