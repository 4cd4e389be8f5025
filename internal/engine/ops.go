package engine

import (
	"context"
	"fmt"

	"github.com/hyperjump/atsumeru/internal/models"
)

// Op is a closed set of engine operations. Callers that accept operations
// generically (batch runners, transports) dispatch through Dispatch instead of
// switching on strings, so an unhandled variant is a compile-visible bug, not
// a silent fallthrough.
type Op interface {
	isOp()
}

// IngestOp ingests one document.
type IngestOp struct {
	Input *models.DocumentInput
}

// SearchOp runs a hybrid search.
type SearchOp struct {
	Query *models.SearchQuery
}

// AnswerOp assembles a token-bounded context bundle for a question.
type AnswerOp struct {
	Question  string
	MaxTokens int
}

// StatsOp reads the engine's observability snapshot.
type StatsOp struct{}

func (IngestOp) isOp() {}
func (SearchOp) isOp() {}
func (AnswerOp) isOp() {}
func (StatsOp) isOp()  {}

// OpResult carries the outcome of exactly one operation variant.
type OpResult struct {
	Ingest *models.IngestReport   `json:"ingest,omitempty"`
	Search *models.SearchResponse `json:"search,omitempty"`
	Answer *models.ContextBundle  `json:"answer,omitempty"`
	Stats  *models.EngineStats    `json:"stats,omitempty"`
}

// Dispatch executes op against the engine.
func (e *Engine) Dispatch(ctx context.Context, op Op) (*OpResult, error) {
	switch v := op.(type) {
	case IngestOp:
		report, err := e.Ingest(ctx, v.Input)
		if err != nil {
			return nil, err
		}
		return &OpResult{Ingest: report}, nil
	case SearchOp:
		resp, err := e.Search(ctx, v.Query)
		if err != nil {
			return nil, err
		}
		return &OpResult{Search: resp}, nil
	case AnswerOp:
		bundle, err := e.AnswerWithContext(ctx, v.Question, v.MaxTokens)
		if err != nil {
			return nil, err
		}
		return &OpResult{Answer: bundle}, nil
	case StatsOp:
		stats, err := e.Stats(ctx)
		if err != nil {
			return nil, err
		}
		return &OpResult{Stats: stats}, nil
	default:
		return nil, fmt.Errorf("unsupported operation %T", op)
	}
}
