// Package models defines core data structures for documents, chunks, queries, and results.
package models

import "time"

// Metadata keys set by the engine on individual chunks.
const (
	// MetaSemanticUnavailable marks a chunk whose embedding could not be
	// generated; the chunk is findable by lexical search only.
	MetaSemanticUnavailable = "semantic_search_unavailable"
)

// Document represents an ingested document. Immutable once chunked; chunks
// reference it via DocumentID.
type Document struct {
	ID        string            `json:"id" db:"id"`
	Content   string            `json:"content" db:"content"`
	Metadata  map[string]string `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}

// Chunk is a bounded text segment of a document, the unit of indexing and
// retrieval. Position is the chunk's ordinal within its parent document.
// Metadata starts as a copy of the parent document's metadata; the engine may
// add chunk-local keys (e.g. MetaSemanticUnavailable).
type Chunk struct {
	ID         string            `json:"id" db:"id"`
	DocumentID string            `json:"document_id" db:"document_id"`
	Text       string            `json:"text" db:"text"`
	Position   int               `json:"position" db:"position"`
	Metadata   map[string]string `json:"metadata,omitempty" db:"metadata"`
	Embedding  []float32         `json:"-" db:"-"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
}

// DocumentInput is the input for ingesting a document. ID is optional; when
// empty, the engine assigns one.
type DocumentInput struct {
	ID       string            `json:"id,omitempty"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ChunkFailure records a per-chunk ingestion problem. Failures never abort the
// rest of the document or batch.
type ChunkFailure struct {
	ChunkID string `json:"chunk_id"`
	Reason  string `json:"reason"`
}

// IngestReport summarizes ingestion of one document: the chunk IDs that were
// indexed plus any isolated per-chunk failures.
type IngestReport struct {
	DocumentID string         `json:"document_id"`
	ChunkIDs   []string       `json:"chunk_ids"`
	Failures   []ChunkFailure `json:"failures,omitempty"`
	Error      string         `json:"error,omitempty"`
}
