package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/atsumeru/internal/models"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("top_k", query.TopK))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.respondEngineError(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

type answerRequest struct {
	Question  string `json:"question"`
	MaxTokens int    `json:"max_tokens"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = s.engine.DefaultContextTokens()
	}
	s.logger.Debug("answer request", zap.String("question", req.Question), zap.Int("max_tokens", req.MaxTokens))
	bundle, err := s.engine.AnswerWithContext(r.Context(), req.Question, req.MaxTokens)
	if err != nil {
		s.respondEngineError(w, "answer failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	var input models.DocumentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("ingest document request", zap.String("id", input.ID))
	report, err := s.engine.Ingest(r.Context(), &input)
	if err != nil {
		s.respondEngineError(w, "ingestion failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, report)
}

type batchIngestRequest struct {
	Documents []*models.DocumentInput `json:"documents"`
}

func (s *Server) handleIngestBatch(w http.ResponseWriter, r *http.Request) {
	var req batchIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Documents) == 0 {
		s.respondError(w, http.StatusBadRequest, "documents is required")
		return
	}
	s.logger.Debug("batch ingest request", zap.Int("documents", len(req.Documents)))
	reports := s.engine.IngestBatch(r.Context(), req.Documents)
	s.respondJSON(w, http.StatusCreated, map[string]any{"reports": reports})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.storage.GetDocument(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete document request", zap.String("id", id))
	if err := s.engine.Remove(r.Context(), id); err != nil {
		s.respondEngineError(w, "deletion failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		s.respondEngineError(w, "stats failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondEngineError maps engine errors onto HTTP statuses. Caller mistakes
// (bad query parameters, unusable documents) are 4xx; everything else is 500.
func (s *Server) respondEngineError(w http.ResponseWriter, msg string, err error) {
	var qErr *models.QueryError
	var ingErr *models.IngestionError
	switch {
	case errors.As(err, &qErr):
		s.respondError(w, http.StatusBadRequest, qErr.Error())
	case errors.As(err, &ingErr):
		s.respondError(w, http.StatusUnprocessableEntity, ingErr.Error())
	default:
		s.logger.Error(msg, zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
