package retriever

import (
	"context"
	"sort"
	"time"

	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/domain/ragmodel"
	"github.com/supplysight/ragapi/internal/metrics"
	"github.com/supplysight/ragapi/internal/rag/embedding"
	"github.com/supplysight/ragapi/internal/rag/vectorstore"
	"github.com/supplysight/ragapi/pkg/logx"
)

// Retriever answers "which stored chunks are relevant to this question".
type Retriever interface {
	// Retrieve embeds the query and runs a similarity search. When either
	// the embedding or the vector search fails, it degrades to a keyword
	// search whose matches carry the fixed keyword-match score. An empty
	// result is a normal outcome, not an error; an error means both paths
	// failed.
	Retrieve(ctx context.Context, query string, maxSources int, minScore float32) ([]ragmodel.SourceMatch, error)
}

type retriever struct {
	store    vectorstore.Store
	embedder embedding.Embedder
	logger   *logx.Logger
}

func New(store vectorstore.Store, embedder embedding.Embedder) Retriever {
	return &retriever{
		store:    store,
		embedder: embedder,
		logger:   logx.New("retriever"),
	}
}

func (r *retriever) Retrieve(ctx context.Context, query string, maxSources int, minScore float32) ([]ragmodel.SourceMatch, error) {
	log := r.logger.With("traceId", ctx.Value(config.TraceIDKey))

	matches, err := r.semanticSearch(ctx, query, maxSources, minScore)
	if err != nil {
		log.Warn("semantic search failed, falling back to keyword search", "error", err)
		start := time.Now()
		matches, err = r.store.TextQuery(ctx, query, uint64(maxSources))
		metrics.CaptureExecutionMetrics("vectordb_text_query", time.Since(start))
		if err != nil {
			log.Error("keyword fallback failed", "error", err)
			return nil, err
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > maxSources {
		matches = matches[:maxSources]
	}
	return matches, nil
}

func (r *retriever) semanticSearch(ctx context.Context, query string, maxSources int, minScore float32) ([]ragmodel.SourceMatch, error) {
	start := time.Now()
	vector, err := r.embedder.Embed(ctx, query)
	metrics.CaptureExecutionMetrics("embedding", time.Since(start))
	if err != nil {
		return nil, err
	}

	start = time.Now()
	matches, err := r.store.VectorQuery(ctx, vector, uint64(maxSources), minScore)
	metrics.CaptureExecutionMetrics("vectordb_query", time.Since(start))
	return matches, err
}
