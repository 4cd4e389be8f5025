package e2e

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/atsumeru/internal/config"
	"github.com/hyperjump/atsumeru/internal/embedding"
	"github.com/hyperjump/atsumeru/internal/engine"
	"github.com/hyperjump/atsumeru/internal/models"
	"github.com/hyperjump/atsumeru/internal/storage"
)

const (
	e2eSearchLimit = 30
	e2eDimensions  = 16
)

func TestE2E_SearchReturnsCorrectResults(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.DatabasePath = filepath.Join(dir, "db.sqlite")
	cfg.Retrieval.ChunkSize = 200
	cfg.Retrieval.MaxTopK = 100

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	eng, err := engine.New(cfg, store, embedding.NewHashEmbedder(e2eDimensions), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	corpus := BuildCorpus()
	if len(corpus.Documents) == 0 {
		t.Fatal("corpus has no documents")
	}
	if len(corpus.TestCases) == 0 {
		t.Fatal("corpus has no query test cases")
	}

	reports := eng.IngestBatch(ctx, corpus.ToDocumentInputs())
	for _, report := range reports {
		if report.Error != "" {
			t.Fatalf("ingest %q: %s", report.DocumentID, report.Error)
		}
	}

	t.Logf("ingested %d documents; running %d query test cases", len(corpus.Documents), len(corpus.TestCases))

	for _, tc := range corpus.TestCases {
		t.Run(tc.Description, func(t *testing.T) {
			resp, err := eng.Search(ctx, &models.SearchQuery{
				Query: tc.Query,
				TopK:  e2eSearchLimit,
			})
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			resultIDs := documentIDsFromResponse(resp)
			if !containsAny(resultIDs, tc.ExpectedDocIDs) {
				t.Errorf("query %q: expected at least one of %v in results, got %d results (ids: %v)",
					tc.Query, tc.ExpectedDocIDs, len(resultIDs), resultIDs)
			}
		})
	}
}

func documentIDsFromResponse(resp *models.SearchResponse) []string {
	ids := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		ids = append(ids, r.DocumentID)
	}
	return ids
}

func containsAny(got []string, expected []string) bool {
	set := make(map[string]bool)
	for _, id := range got {
		set[id] = true
	}
	for _, id := range expected {
		if set[id] {
			return true
		}
	}
	return false
}
