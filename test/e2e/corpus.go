// Package e2e provides end-to-end tests with a corpus and multiple queries.
package e2e

import (
	"fmt"
	"strings"

	"github.com/hyperjump/atsumeru/internal/models"
)

// CorpusDocument is a document entry in the e2e corpus.
type CorpusDocument struct {
	ID      string
	Content string
}

// QueryTestCase defines a query and the document ID(s) that must appear in
// search results. At least one of ExpectedDocIDs must be present.
type QueryTestCase struct {
	Query          string
	ExpectedDocIDs []string
	Description    string
}

// Corpus holds documents and query test cases for e2e tests.
type Corpus struct {
	Documents []CorpusDocument
	TestCases []QueryTestCase
}

// BuildCorpus returns a corpus of documents with varied content. Each document
// carries a unique signature phrase so queries can assert the correct document
// is returned.
func BuildCorpus() *Corpus {
	topics := []string{
		"Python is a high-level programming language. Python programming language is used for web development and data science.",
		"Kubernetes is an open-source container orchestration platform. Kubernetes container orchestration automates deployment and scaling.",
		"Go is a statically typed language. Go golang concurrency is achieved with goroutines and channels.",
		"PostgreSQL is an advanced relational database. PostgreSQL relational database supports JSON and full-text search.",
		"Docker enables building and shipping applications. Docker container images are portable across environments.",
		"Machine learning is a subset of AI. Machine learning algorithms learn patterns from data.",
		"Neural networks are inspired by the brain. Neural network deep learning powers modern AI.",
		"REST is an architectural style for APIs. REST API endpoints use HTTP methods and status codes.",
		"GraphQL is a query language for APIs. GraphQL query language lets clients request exactly what they need.",
		"Redis is an in-memory data store. Redis in-memory cache is used for sessions and caching.",
		"Semantic search uses meaning not just keywords. Semantic search embeddings capture context.",
		"Keyword search matches terms. Keyword search full-text uses inverted indexes.",
		"Hybrid combines keyword and semantic. Hybrid search fusion improves recall.",
		"Vector databases store embeddings. Vector database similarity uses cosine or dot product.",
		"Embeddings represent text as vectors. Embedding models sentence transform text to dense vectors.",
		"Chunking splits long documents. Chunking strategy overlap preserves context.",
		"RAG combines retrieval and generation. RAG retrieval augmented grounds language models in documents.",
		"Prompts guide model behavior. Prompt engineering few-shot uses examples in the prompt.",
		"Indexes speed up queries. Database indexing performance is critical for large tables.",
		"Caching improves performance. Caching strategy cache invalidation must be designed carefully.",
		"Message queues decouple producers and consumers. Message queue asynchronous enables scaling.",
		"Rate limiting protects APIs. Rate limiting throttling can be per-user or global.",
		"Structured logging aids debugging. Logging structured logs use JSON or key-value.",
		"Tracing follows requests across services. Distributed tracing spans show latency breakdown.",
		"Unit tests verify small units of code. Unit testing mock isolates dependencies.",
		"Graceful shutdown drains connections. Graceful shutdown signal handles SIGTERM.",
		"Health checks indicate readiness. Health check liveness is used by orchestrators.",
		"Config varies by environment. Config management environment uses 12-factor.",
		"Profiling finds bottlenecks. Performance profiling uses CPU and memory tools.",
		"Errors must be handled. Error handling retry uses backoff strategies.",
	}

	docs := make([]CorpusDocument, len(topics))
	for i, content := range topics {
		docs[i] = CorpusDocument{
			ID:      fmt.Sprintf("e2e-doc-%03d", i+1),
			Content: content,
		}
	}
	return &Corpus{
		Documents: docs,
		TestCases: buildQueryTestCases(docs),
	}
}

func buildQueryTestCases(docs []CorpusDocument) []QueryTestCase {
	phrases := []string{
		"Python programming", "Kubernetes container", "Go golang", "PostgreSQL relational",
		"Docker container", "machine learning", "neural network", "REST API",
		"GraphQL query", "Redis in-memory", "semantic search", "keyword search",
		"hybrid search", "vector database", "embedding models", "chunking strategy",
		"RAG retrieval", "prompt engineering", "database indexing", "caching strategy",
	}
	var cases []QueryTestCase
	used := make(map[string]bool)
	for _, p := range phrases {
		for _, d := range docs {
			if strings.Contains(strings.ToLower(d.Content), strings.ToLower(p)) && !used[d.ID] {
				cases = append(cases, QueryTestCase{
					Query:          p,
					ExpectedDocIDs: []string{d.ID},
					Description:    fmt.Sprintf("query %q should return doc %s", p, d.ID),
				})
				used[d.ID] = true
				break
			}
		}
	}
	return cases
}

// ToDocumentInputs converts the corpus documents for ingestion.
func (c *Corpus) ToDocumentInputs() []*models.DocumentInput {
	out := make([]*models.DocumentInput, len(c.Documents))
	for i := range c.Documents {
		d := &c.Documents[i]
		out[i] = &models.DocumentInput{ID: d.ID, Content: d.Content}
	}
	return out
}
