package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/domain/ragmodel"
	"github.com/supplysight/ragapi/internal/rag/chunker"
	"github.com/supplysight/ragapi/internal/rag/embedding"
	"github.com/supplysight/ragapi/internal/rag/vectorstore"
	"github.com/supplysight/ragapi/pkg/logx"
)

// Indexer turns raw document text into embedded chunks in the store.
type Indexer interface {
	// IndexDocument chunks, embeds and upserts text under documentID,
	// one chunk at a time. Indexing is not atomic: a mid-document
	// failure leaves earlier chunks persisted and queryable. Returns
	// the number of chunks written.
	IndexDocument(ctx context.Context, documentID, filename, text string) (int, error)
	DeleteDocument(ctx context.Context, documentID string) error
	GetDocument(ctx context.Context, documentID string) (vectorstore.DocumentInfo, bool, error)
	ListDocuments(ctx context.Context, skip, limit int) ([]vectorstore.DocumentInfo, error)
}

type indexer struct {
	store          vectorstore.Store
	embedder       embedding.Embedder
	chunkSize      int
	chunkOverlap   int
	classification string
	logger         *logx.Logger
}

func New(cfg config.Config, store vectorstore.Store, embedder embedding.Embedder) Indexer {
	return &indexer{
		store:          store,
		embedder:       embedder,
		chunkSize:      cfg.ChunkSize,
		chunkOverlap:   cfg.ChunkOverlap,
		classification: cfg.DataClassification,
		logger:         logx.New("indexer"),
	}
}

func (ix *indexer) IndexDocument(ctx context.Context, documentID, filename, text string) (int, error) {
	log := ix.logger.With("traceId", ctx.Value(config.TraceIDKey), "documentId", documentID)

	windows := chunker.Split(text, ix.chunkSize, ix.chunkOverlap)
	if len(windows) == 0 {
		return 0, fmt.Errorf("document %s produced no chunks", documentID)
	}
	log.Info("chunked document", "chunks", len(windows))

	createdAt := time.Now().UTC()
	for i, w := range windows {
		vector, err := ix.embedder.Embed(ctx, w.Text)
		if err != nil {
			return i, fmt.Errorf("embed chunk %d of %s: %w", i, documentID, err)
		}

		chunk := ragmodel.Chunk{
			ID:         ragmodel.ChunkID(documentID, i),
			DocumentID: documentID,
			Index:      i,
			Content:    w.Text,
			Offset:     w.Offset,
			Embedding:  vector,
			Metadata: ragmodel.ChunkMetadata{
				Filename:       filename,
				Classification: ix.classification,
				CharCount:      len(w.Text),
				TotalChunks:    len(windows),
				CreatedAt:      createdAt,
			},
		}
		if err := ix.store.Upsert(ctx, chunk); err != nil {
			return i, fmt.Errorf("index chunk %d of %s: %w", i, documentID, err)
		}
	}

	log.Info("indexed document", "chunks", len(windows))
	return len(windows), nil
}

func (ix *indexer) DeleteDocument(ctx context.Context, documentID string) error {
	return ix.store.DeleteDocument(ctx, documentID)
}

func (ix *indexer) GetDocument(ctx context.Context, documentID string) (vectorstore.DocumentInfo, bool, error) {
	return ix.store.GetDocument(ctx, documentID)
}

func (ix *indexer) ListDocuments(ctx context.Context, skip, limit int) ([]vectorstore.DocumentInfo, error) {
	return ix.store.ListDocuments(ctx, skip, limit)
}
