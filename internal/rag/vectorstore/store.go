package vectorstore

import (
	"context"
	"time"

	"github.com/supplysight/ragapi/internal/domain/ragmodel"
)

// DocumentInfo summarizes one indexed document for the admin operations.
type DocumentInfo struct {
	DocumentID     string    `json:"document_id"`
	Filename       string    `json:"filename"`
	Classification string    `json:"classification"`
	ChunkCount     int       `json:"chunks"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store is the indexed-store backend: one persisted record per chunk, vector
// ranked query plus a substring query, both scoped to a single collection.
// The backend is externally managed and concurrency safe; callers do no
// locking. Admin operations are best effort and non-atomic.
type Store interface {
	EnsureCollection(ctx context.Context) error
	// Upsert persists a single embedded chunk. Indexing loops over chunks
	// one by one; a mid-loop failure leaves earlier chunks queryable.
	Upsert(ctx context.Context, chunk ragmodel.Chunk) error
	VectorQuery(ctx context.Context, vector []float32, topN uint64, minScore float32) ([]ragmodel.SourceMatch, error)
	TextQuery(ctx context.Context, query string, topN uint64) ([]ragmodel.SourceMatch, error)
	DeleteDocument(ctx context.Context, documentID string) error
	GetDocument(ctx context.Context, documentID string) (DocumentInfo, bool, error)
	ListDocuments(ctx context.Context, skip, limit int) ([]DocumentInfo, error)
}
