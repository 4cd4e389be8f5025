// Package chunker splits documents into overlapping, bounded-size text chunks.
package chunker

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hyperjump/atsumeru/internal/models"
)

// Chunker splits text into chunks of roughly targetSize characters, preferring
// sentence boundaries and carrying overlap words between consecutive chunks.
type Chunker struct {
	targetSize int // target chunk size in characters
	overlap    int // words carried over between consecutive chunks
}

// NewChunker creates a chunker with the given target size (characters) and
// overlap (words).
func NewChunker(targetSize, overlap int) *Chunker {
	if targetSize <= 0 {
		targetSize = 1200
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{targetSize: targetSize, overlap: overlap}
}

// Chunk splits the document's content into chunks. Sentences are kept intact
// where possible; a sentence longer than 1.5x the target size is split on
// whitespace instead. Empty or whitespace-only content yields nil.
// Chunk IDs and positions are deterministic for identical inputs.
func (c *Chunker) Chunk(doc *models.Document) []*models.Chunk {
	text := Preprocess(doc.Content)
	if text == "" {
		return nil
	}

	hardLimit := c.targetSize * 3 / 2
	pieces := splitSentences(text, hardLimit, c.targetSize)

	var (
		chunks  []*models.Chunk
		cur     []string
		curLen  int
		carry   []string // overlap words from the previous chunk
		pos     int
	)
	flush := func() {
		if len(cur) == 0 {
			return
		}
		body := strings.Join(cur, " ")
		if len(carry) > 0 {
			body = strings.Join(carry, " ") + " " + body
		}
		chunks = append(chunks, &models.Chunk{
			ID:         fmt.Sprintf("%s_%d", doc.ID, pos),
			DocumentID: doc.ID,
			Text:       body,
			Position:   pos,
			Metadata:   inheritMetadata(doc.Metadata),
		})
		words := strings.Fields(body)
		if c.overlap > 0 && len(words) > c.overlap {
			carry = words[len(words)-c.overlap:]
		} else {
			carry = nil
		}
		cur = nil
		curLen = 0
		pos++
	}

	for _, p := range pieces {
		if curLen > 0 && curLen+1+len(p) > c.targetSize {
			flush()
		}
		cur = append(cur, p)
		curLen += len(p) + 1
	}
	flush()
	return chunks
}

// inheritMetadata copies the parent document's metadata so chunk-local keys
// never leak back into the document or into sibling chunks.
func inheritMetadata(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	return out
}

// splitSentences splits text into sentence pieces. Any piece longer than
// hardLimit is re-split on whitespace into runs of at most targetSize characters.
func splitSentences(text string, hardLimit, targetSize int) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '.' || r == '!' || r == '?' {
			// Sentence ends at a terminator followed by a space or end of text.
			if i == len(runes)-1 || runes[i+1] == ' ' {
				s := strings.TrimSpace(string(runes[start : i+1]))
				if s != "" {
					sentences = append(sentences, s)
				}
				start = i + 1
			}
		}
	}
	if start < len(runes) {
		s := strings.TrimSpace(string(runes[start:]))
		if s != "" {
			sentences = append(sentences, s)
		}
	}

	var pieces []string
	for _, s := range sentences {
		if len(s) <= hardLimit {
			pieces = append(pieces, s)
			continue
		}
		pieces = append(pieces, splitOnWhitespace(s, targetSize)...)
	}
	return pieces
}

// splitOnWhitespace splits s into word runs of at most targetSize characters.
// A single word longer than targetSize becomes its own piece.
func splitOnWhitespace(s string, targetSize int) []string {
	words := strings.Fields(s)
	var pieces []string
	var cur []string
	curLen := 0
	for _, w := range words {
		if curLen > 0 && curLen+1+len(w) > targetSize {
			pieces = append(pieces, strings.Join(cur, " "))
			cur = nil
			curLen = 0
		}
		cur = append(cur, w)
		curLen += len(w) + 1
	}
	if len(cur) > 0 {
		pieces = append(pieces, strings.Join(cur, " "))
	}
	return pieces
}

// Preprocess normalizes text for indexing (trim, collapse whitespace).
func Preprocess(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}
