// Package engine composes chunking, indexing, retrieval, reranking, and
// context assembly behind one facade. All dependencies are passed in through
// the constructor; there is no ambient shared state.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/atsumeru/internal/cache"
	"github.com/hyperjump/atsumeru/internal/chunker"
	"github.com/hyperjump/atsumeru/internal/config"
	"github.com/hyperjump/atsumeru/internal/embedding"
	"github.com/hyperjump/atsumeru/internal/lexical"
	"github.com/hyperjump/atsumeru/internal/models"
	"github.com/hyperjump/atsumeru/internal/search"
	"github.com/hyperjump/atsumeru/internal/storage"
	"github.com/hyperjump/atsumeru/internal/vector"
)

// loadBatchSize is the page size used when rebuilding indexes from storage.
const loadBatchSize = 500

// Engine is the retrieval-augmented context engine. Queries run concurrently
// against immutable index snapshots; ingestion is single-writer.
type Engine struct {
	writeMu sync.Mutex // serializes ingestion and removal

	cfg       *config.Config
	chunker   *chunker.Chunker
	lexical   *lexical.Index
	vectors   *vector.Store
	embedder  embedding.Embedder
	storage   storage.Storage
	retriever *search.Retriever
	cache     *cache.QueryCache
	logger    *zap.Logger
}

// New creates an engine. The embedder is the injected embedding capability;
// the engine never computes embeddings itself.
func New(cfg *config.Config, store storage.Storage, embedder embedding.Embedder, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	vectors, err := vector.NewStore(embedder.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}
	lex := lexical.NewIndex()
	return &Engine{
		cfg:       cfg,
		chunker:   chunker.NewChunker(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap),
		lexical:   lex,
		vectors:   vectors,
		embedder:  embedder,
		storage:   store,
		retriever: search.NewRetriever(lex, vectors, embedder, store, logger),
		cache:     cache.New(cfg.Cache.Capacity, cfg.Cache.TTL),
		logger:    logger,
	}, nil
}

// Ingest chunks and indexes one document. Per-chunk failures (embedding
// unavailable, dimension mismatch) are isolated into the report; such chunks
// remain findable through lexical search and are flagged in their metadata.
// Empty or unchunkable content is an IngestionError for this document only.
func (e *Engine) Ingest(ctx context.Context, input *models.DocumentInput) (*models.IngestReport, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return e.ingestLocked(ctx, input)
}

// IngestBatch ingests documents one by one. A failing document gets a report
// carrying its error; it never aborts the rest of the batch.
func (e *Engine) IngestBatch(ctx context.Context, inputs []*models.DocumentInput) []*models.IngestReport {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	reports := make([]*models.IngestReport, 0, len(inputs))
	for _, input := range inputs {
		report, err := e.ingestLocked(ctx, input)
		if err != nil {
			e.logger.Warn("document ingestion failed", zap.String("document_id", input.ID), zap.Error(err))
			report = &models.IngestReport{DocumentID: input.ID, Error: err.Error()}
		}
		reports = append(reports, report)
	}
	return reports
}

func (e *Engine) ingestLocked(ctx context.Context, input *models.DocumentInput) (*models.IngestReport, error) {
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	doc := &models.Document{
		ID:       input.ID,
		Content:  chunker.Preprocess(input.Content),
		Metadata: input.Metadata,
	}
	chunks := e.chunker.Chunk(doc)
	if len(chunks) == 0 {
		e.logger.Warn("document yielded no chunks", zap.String("document_id", doc.ID))
		return nil, &models.IngestionError{DocumentID: doc.ID, Reason: "empty or unchunkable content"}
	}

	if err := e.storage.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	report := &models.IngestReport{DocumentID: doc.ID}
	for _, ch := range chunks {
		if err := e.embedChunk(ctx, ch); err != nil {
			report.Failures = append(report.Failures, models.ChunkFailure{
				ChunkID: ch.ID,
				Reason:  err.Error(),
			})
		}
		report.ChunkIDs = append(report.ChunkIDs, ch.ID)
	}

	// Persist before indexing so a storage failure never leaves chunks
	// searchable without a backing row.
	if err := e.storage.BatchCreateChunks(ctx, chunks); err != nil {
		if derr := e.storage.DeleteDocument(ctx, doc.ID); derr != nil {
			e.logger.Warn("failed to roll back document row",
				zap.String("document_id", doc.ID), zap.Error(derr))
		}
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}

	e.lexical.AddBatch(chunks)
	for _, ch := range chunks {
		if ch.Embedding != nil {
			if err := e.vectors.Add(ch.ID, ch.Embedding); err != nil {
				e.logger.Warn("vector rejected", zap.String("chunk_id", ch.ID), zap.Error(err))
			}
		}
	}
	e.cache.Purge()

	e.logger.Debug("document ingested",
		zap.String("document_id", doc.ID),
		zap.Int("chunks", len(chunks)),
		zap.Int("failures", len(report.Failures)))
	return report, nil
}

// embedChunk generates the chunk's vector, bounded by the embedding timeout.
// On failure the chunk stays lexical-only and is flagged; no retries happen
// here - retry policy belongs to the embedding capability itself. The vector
// is only attached to the chunk; it enters the store after the chunk is
// durably persisted.
func (e *Engine) embedChunk(ctx context.Context, ch *models.Chunk) error {
	embedCtx, cancel := context.WithTimeout(ctx, e.cfg.Embedding.Timeout)
	defer cancel()

	vec, err := e.embedder.Embed(embedCtx, ch.Text)
	if err != nil {
		ch.Metadata[models.MetaSemanticUnavailable] = "true"
		e.logger.Warn("embedding failed, chunk indexed lexically only",
			zap.String("chunk_id", ch.ID), zap.Error(err))
		return fmt.Errorf("%w: %v", models.ErrEmbeddingUnavailable, err)
	}
	if len(vec) != e.vectors.Dimensions() {
		ch.Metadata[models.MetaSemanticUnavailable] = "true"
		err := &models.DimensionMismatchError{Got: len(vec), Want: e.vectors.Dimensions()}
		e.logger.Warn("vector rejected, chunk indexed lexically only",
			zap.String("chunk_id", ch.ID), zap.Error(err))
		return err
	}
	ch.Embedding = vec
	return nil
}

// Remove deletes a document and cascades to its chunks across the lexical
// index, the vector store, and durable storage.
func (e *Engine) Remove(ctx context.Context, docID string) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	chunks, err := e.storage.GetChunksByDocumentID(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}
	chunkIDs := make([]string, len(chunks))
	for i, ch := range chunks {
		chunkIDs[i] = ch.ID
	}
	e.lexical.Remove(chunkIDs)
	e.vectors.Remove(chunkIDs)
	if err := e.storage.DeleteChunksByDocumentID(ctx, docID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if err := e.storage.DeleteDocument(ctx, docID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	e.cache.Purge()
	e.logger.Debug("document removed", zap.String("document_id", docID), zap.Int("chunks", len(chunkIDs)))
	return nil
}

// Search validates the query, consults the cache, and otherwise runs the full
// retrieve + rerank pipeline. Invalid parameters are returned immediately
// without touching the cache or index.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()
	r := e.cfg.Retrieval
	if err := query.Validate(r.DefaultTopK, r.LexicalWeight, r.SemanticWeight); err != nil {
		return nil, err
	}
	if query.TopK > r.MaxTopK {
		query.TopK = r.MaxTopK
	}

	key := cache.Key(query.Query, query.TopK, *query.LexicalWeight, *query.SemanticWeight)
	if cached, ok := e.cache.Get(key); ok {
		e.rehydrate(ctx, cached)
		return &models.SearchResponse{
			Results:   cached,
			Total:     len(cached),
			QueryTime: time.Since(start).Milliseconds(),
			Query:     query.Query,
			CacheHit:  true,
		}, nil
	}

	results, err := e.retriever.Retrieve(ctx, query.Query, query.TopK, *query.LexicalWeight, *query.SemanticWeight)
	if err != nil {
		return nil, err
	}
	results = search.Rerank(query.Query, results)
	e.cache.Put(key, results)

	return &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
		Query:     query.Query,
	}, nil
}

// rehydrate fills chunk text back into cached result summaries.
func (e *Engine) rehydrate(ctx context.Context, results []*models.ScoredResult) {
	for _, r := range results {
		chunk, err := e.storage.GetChunk(ctx, r.ChunkID)
		if err != nil {
			e.logger.Warn("cached chunk no longer available", zap.String("chunk_id", r.ChunkID), zap.Error(err))
			continue
		}
		r.Text = chunk.Text
		r.DocumentID = chunk.DocumentID
		r.Position = chunk.Position
	}
}

// AnswerWithContext retrieves, reranks, and greedily assembles a token-bounded
// context bundle for the question. A non-positive budget yields an empty
// bundle, not an error.
func (e *Engine) AnswerWithContext(ctx context.Context, question string, maxContextTokens int) (*models.ContextBundle, error) {
	if maxContextTokens <= 0 {
		return search.Assemble(nil, maxContextTokens), nil
	}
	resp, err := e.Search(ctx, &models.SearchQuery{Query: question})
	if err != nil {
		return nil, err
	}
	return search.Assemble(resp.Results, maxContextTokens), nil
}

// DefaultContextTokens is the configured context budget for callers that do
// not specify one.
func (e *Engine) DefaultContextTokens() int {
	return e.cfg.Retrieval.ContextTokens
}

// Stats returns the engine's observability snapshot.
func (e *Engine) Stats(ctx context.Context) (*models.EngineStats, error) {
	docs, err := e.storage.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	chunks, err := e.storage.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	return &models.EngineStats{
		Documents:  docs,
		Chunks:     chunks,
		Vectors:    e.vectors.Size(),
		Terms:      e.lexical.TermCount(),
		Cache:      e.cache.Stats(),
		Dimensions: e.vectors.Dimensions(),
	}, nil
}

// Load rebuilds the in-memory indexes from durable storage. Chunks persisted
// without an embedding stay lexical-only, exactly as they were ingested.
func (e *Engine) Load(ctx context.Context) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	offset := 0
	total := 0
	for {
		chunks, err := e.storage.ListChunks(ctx, offset, loadBatchSize)
		if err != nil {
			return fmt.Errorf("list chunks: %w", err)
		}
		if len(chunks) == 0 {
			break
		}
		e.lexical.AddBatch(chunks)
		for _, ch := range chunks {
			if ch.Embedding == nil {
				continue
			}
			if err := e.vectors.Add(ch.ID, ch.Embedding); err != nil {
				e.logger.Warn("stored vector rejected during rebuild",
					zap.String("chunk_id", ch.ID), zap.Error(err))
			}
		}
		total += len(chunks)
		offset += loadBatchSize
	}
	e.logger.Info("indexes rebuilt from storage", zap.Int("chunks", total))
	return nil
}

// SaveVectors persists the vector store snapshot to path.
func (e *Engine) SaveVectors(path string) error {
	return e.vectors.Save(path)
}

// LoadVectors restores the vector store snapshot from path, if present.
func (e *Engine) LoadVectors(path string) error {
	return e.vectors.Load(path)
}
