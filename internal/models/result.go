package models

// ScoredResult is a single retrieval hit with the per-signal scores. The
// lexical, semantic, fused, and rerank scores are filled in as the result
// moves through the pipeline. Results are ephemeral; only summaries (without
// Text) are cached.
type ScoredResult struct {
	ChunkID       string  `json:"chunk_id"`
	DocumentID    string  `json:"document_id"`
	Position      int     `json:"position"`
	Text          string  `json:"text,omitempty"`
	LexicalScore  float64 `json:"lexical_score"`
	SemanticScore float64 `json:"semantic_score"`
	FusedScore    float64 `json:"fused_score"`
	RerankScore   float64 `json:"rerank_score"`
	Rank          int     `json:"rank"`
}

// Summary returns a copy of r without chunk text, suitable for caching.
func (r *ScoredResult) Summary() *ScoredResult {
	s := *r
	s.Text = ""
	return &s
}

// SearchResponse is the response for a retrieval request.
type SearchResponse struct {
	Results   []*ScoredResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
	CacheHit  bool            `json:"cache_hit,omitempty"`
}

// BundleItem is one chunk's contribution to a context bundle. Truncated marks
// that only a prefix of the chunk fit the remaining token budget.
type BundleItem struct {
	ChunkID   string `json:"chunk_id"`
	Text      string `json:"text"`
	Tokens    int    `json:"tokens"`
	Truncated bool   `json:"truncated"`
}

// SourceRef records the provenance of an included chunk for citation.
type SourceRef struct {
	DocumentID string `json:"document_id"`
	ChunkID    string `json:"chunk_id"`
	Position   int    `json:"position"`
}

// ContextBundle is an ordered, token-bounded set of chunks with source
// attribution. TotalTokens never exceeds the requested budget.
type ContextBundle struct {
	Items       []BundleItem `json:"items"`
	Sources     []SourceRef  `json:"sources"`
	TotalTokens int          `json:"total_tokens"`
}

// EngineStats is the observability snapshot returned by the stats operation.
type EngineStats struct {
	Documents  int64      `json:"documents"`
	Chunks     int64      `json:"chunks"`
	Vectors    int        `json:"vectors"`
	Terms      int        `json:"terms"`
	Cache      CacheStats `json:"cache"`
	Dimensions int        `json:"embedding_dimensions"`
}

// CacheStats reports query cache occupancy and effectiveness.
type CacheStats struct {
	Size   int    `json:"size"`
	Hits   uint64 `json:"hit_count"`
	Misses uint64 `json:"miss_count"`
}
