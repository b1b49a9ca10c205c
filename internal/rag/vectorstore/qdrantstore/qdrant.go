package qdrantstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/domain/ragmodel"
	"github.com/supplysight/ragapi/internal/rag/vectorstore"
	"github.com/supplysight/ragapi/pkg/logx"
)

type store struct {
	client     *qdrant.Client
	collection string
	dimension  uint64
	logger     *logx.Logger
}

// NewStore connects to Qdrant and returns the indexed-store backend. The
// caller owns the context; the client is closed when it is cancelled.
func NewStore(ctx context.Context, cfg config.Config) (vectorstore.Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     cfg.QdrantHost,
		Port:     cfg.QdrantPort,
		UseTLS:   cfg.QdrantUseTLS,
		PoolSize: cfg.QdrantPoolSize,
	})
	if err != nil {
		return nil, &ragmodel.StorageError{Op: "connect", Err: err}
	}

	s := &store{
		client:     client,
		collection: cfg.CollectionName,
		dimension:  uint64(cfg.EmbeddingDimensions),
		logger:     logx.New("qdrant_store"),
	}
	go s.closeOnDone(ctx)
	return s, nil
}

func (s *store) closeOnDone(ctx context.Context) {
	<-ctx.Done()
	s.logger.Info("closing qdrant client")
	if err := s.client.Close(); err != nil {
		s.logger.Error("could not close qdrant client", "error", err)
	}
}

func (s *store) EnsureCollection(ctx context.Context) error {
	if s.collection == "" {
		return &ragmodel.StorageError{Op: "ensure collection", Err: errors.New("empty collection name")}
	}

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return &ragmodel.StorageError{Op: "ensure collection", Err: err}
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return &ragmodel.StorageError{Op: "create collection", Err: err}
	}

	// full-text index on content backs the keyword fallback; the keyword
	// index on document_id backs the per-document admin operations
	indexes := []struct {
		field string
		kind  qdrant.FieldType
	}{
		{"content", qdrant.FieldType_FieldTypeText},
		{"document_id", qdrant.FieldType_FieldTypeKeyword},
	}
	for _, idx := range indexes {
		_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      idx.field,
			FieldType:      idx.kind.Enum(),
		})
		if err != nil {
			return &ragmodel.StorageError{Op: "create field index", Err: err}
		}
	}
	return nil
}

// Upsert writes one chunk. Qdrant point ids must be UUIDs, so the point id
// is a deterministic UUIDv5 of the canonical chunk id; the canonical id
// itself lives in the payload.
func (s *store) Upsert(ctx context.Context, chunk ragmodel.Chunk) error {
	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(pointID(chunk.ID)),
		Vectors: qdrant.NewVectors(chunk.Embedding...),
		Payload: qdrant.NewValueMap(map[string]any{
			"id":             chunk.ID,
			"document_id":    chunk.DocumentID,
			"filename":       chunk.Metadata.Filename,
			"chunk_index":    int64(chunk.Index),
			"content":        chunk.Content,
			"classification": chunk.Metadata.Classification,
			"char_count":     int64(chunk.Metadata.CharCount),
			"total_chunks":   int64(chunk.Metadata.TotalChunks),
			"created_at":     chunk.Metadata.CreatedAt.Unix(),
		}),
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         []*qdrant.PointStruct{point},
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return &ragmodel.StorageError{Op: "upsert", Err: fmt.Errorf("chunk %s: %w", chunk.ID, err)}
	}
	return nil
}

func (s *store) VectorQuery(ctx context.Context, vector []float32, topN uint64, minScore float32) ([]ragmodel.SourceMatch, error) {
	log := s.logger.With("traceId", ctx.Value(config.TraceIDKey))

	result, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(topN),
		ScoreThreshold: qdrant.PtrOf(minScore),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		log.Error("vector query failed", "error", err)
		return nil, &ragmodel.StorageError{Op: "vector query", Err: err}
	}

	matches := make([]ragmodel.SourceMatch, 0, len(result))
	for _, hit := range result {
		matches = append(matches, toSourceMatch(hit.Payload, hit.Score))
	}
	log.Debug("vector query returned", "matches", len(matches))
	return matches, nil
}

func (s *store) TextQuery(ctx context.Context, query string, topN uint64) ([]ragmodel.SourceMatch, error) {
	log := s.logger.With("traceId", ctx.Value(config.TraceIDKey))

	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatchText("content", query)},
		},
		Limit:       qdrant.PtrOf(uint32(topN)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		log.Error("text query failed", "error", err)
		return nil, &ragmodel.StorageError{Op: "text query", Err: err}
	}

	matches := make([]ragmodel.SourceMatch, 0, len(points))
	for _, hit := range points {
		matches = append(matches, toSourceMatch(hit.Payload, config.KeywordMatchScore))
	}
	log.Debug("text query returned", "matches", len(matches))
	return matches, nil
}

func (s *store) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("document_id", documentID)},
		}),
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return &ragmodel.StorageError{Op: "delete document", Err: err}
	}
	s.logger.Info("deleted document chunks", "documentId", documentID)
	return nil
}

func (s *store) GetDocument(ctx context.Context, documentID string) (vectorstore.DocumentInfo, bool, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch("document_id", documentID)},
	}

	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint32(1)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return vectorstore.DocumentInfo{}, false, &ragmodel.StorageError{Op: "get document", Err: err}
	}
	if len(points) == 0 {
		return vectorstore.DocumentInfo{}, false, nil
	}

	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         filter,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return vectorstore.DocumentInfo{}, false, &ragmodel.StorageError{Op: "count document chunks", Err: err}
	}

	info := toDocumentInfo(points[0].Payload)
	info.ChunkCount = int(count)
	return info, true, nil
}

// ListDocuments scans a bounded page of points and aggregates unique
// document ids. Best effort: documents beyond the scan window are not
// reported.
func (s *store) ListDocuments(ctx context.Context, skip, limit int) ([]vectorstore.DocumentInfo, error) {
	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Limit:          qdrant.PtrOf(uint32(1024)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, &ragmodel.StorageError{Op: "list documents", Err: err}
	}

	seen := make(map[string]bool)
	var docs []vectorstore.DocumentInfo
	for _, p := range points {
		id := p.Payload["document_id"].GetStringValue()
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		docs = append(docs, toDocumentInfo(p.Payload))
	}

	if skip >= len(docs) {
		return nil, nil
	}
	docs = docs[skip:]
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs, nil
}

func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

func toSourceMatch(payload map[string]*qdrant.Value, score float32) ragmodel.SourceMatch {
	return ragmodel.SourceMatch{
		Content:    payload["content"].GetStringValue(),
		Source:     payload["filename"].GetStringValue(),
		Score:      score,
		DocumentID: payload["document_id"].GetStringValue(),
		Metadata: map[string]any{
			"chunk_index":    payload["chunk_index"].GetIntegerValue(),
			"classification": payload["classification"].GetStringValue(),
			"char_count":     payload["char_count"].GetIntegerValue(),
			"total_chunks":   payload["total_chunks"].GetIntegerValue(),
			"created_at":     payload["created_at"].GetIntegerValue(),
		},
	}
}

func toDocumentInfo(payload map[string]*qdrant.Value) vectorstore.DocumentInfo {
	return vectorstore.DocumentInfo{
		DocumentID:     payload["document_id"].GetStringValue(),
		Filename:       payload["filename"].GetStringValue(),
		Classification: payload["classification"].GetStringValue(),
		ChunkCount:     int(payload["total_chunks"].GetIntegerValue()),
		CreatedAt:      time.Unix(payload["created_at"].GetIntegerValue(), 0).UTC(),
	}
}
