package rag

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/domain/ragmodel"
	"github.com/supplysight/ragapi/internal/rag/agent"
	"github.com/supplysight/ragapi/internal/rag/indexer"
	"github.com/supplysight/ragapi/internal/rag/ingest"
	"github.com/supplysight/ragapi/internal/rag/llm"
	"github.com/supplysight/ragapi/internal/rag/pipeline"
	"github.com/supplysight/ragapi/internal/rag/vectorstore"
	"github.com/supplysight/ragapi/pkg/logx"
)

// AskParams is one question against the knowledge base. A nil Temperature
// means "use the configured default"; an explicit 0 is honored.
type AskParams struct {
	Question       string
	UseAgentic     bool
	MaxSources     int
	Temperature    *float32
	MinScore       float32
	ConversationID string
}

// AskResult is the unified answer shape for both query paths. Reasoning and
// SubQuestions are only populated when the agentic path completed fully.
type AskResult struct {
	Answer         string
	Sources        []ragmodel.SourceMatch
	Reasoning      string
	SubQuestions   []string
	ConversationID string
	ModelUsed      string
	ProcessingTime time.Duration
}

// Service is the knowledge-base surface the transport layers talk to.
type Service interface {
	Ask(ctx context.Context, params AskParams) (AskResult, error)
	IngestDocument(ctx context.Context, documentID, filename, path string) (int, error)
	DeleteDocument(ctx context.Context, documentID string) error
	GetDocument(ctx context.Context, documentID string) (vectorstore.DocumentInfo, bool, error)
	ListDocuments(ctx context.Context, skip, limit int) ([]vectorstore.DocumentInfo, error)
}

type service struct {
	pipeline pipeline.Pipeline
	agent    agent.Agent
	indexer  indexer.Indexer
	provider llm.Provider
	logger   *logx.Logger
}

func NewService(pl pipeline.Pipeline, ag agent.Agent, ix indexer.Indexer, provider llm.Provider) Service {
	return &service{
		pipeline: pl,
		agent:    ag,
		indexer:  ix,
		provider: provider,
		logger:   logx.New("rag_service"),
	}
}

func (s *service) Ask(ctx context.Context, params AskParams) (AskResult, error) {
	log := s.logger.With("traceId", ctx.Value(config.TraceIDKey))
	start := time.Now()

	opts := pipeline.Options{
		MaxSources:     params.MaxSources,
		Temperature:    params.Temperature,
		MinScore:       params.MinScore,
		ConversationID: params.ConversationID,
	}

	if params.UseAgentic {
		agentResult, err := s.agent.Ask(ctx, params.Question, opts)
		if err != nil {
			return AskResult{}, err
		}
		log.Info("agentic ask served", "duration", time.Since(start))
		return AskResult{
			Answer:         agentResult.Answer,
			Sources:        agentResult.Sources,
			Reasoning:      agentResult.Reasoning,
			SubQuestions:   agentResult.SubQuestions,
			ConversationID: agentResult.ConversationID,
			ModelUsed:      s.provider.ModelName(),
			ProcessingTime: time.Since(start),
		}, nil
	}

	direct, err := s.pipeline.Answer(ctx, params.Question, opts)
	if err != nil {
		return AskResult{}, err
	}
	log.Info("ask served", "duration", time.Since(start))
	return AskResult{
		Answer:         direct.Answer,
		Sources:        direct.Sources,
		ConversationID: direct.ConversationID,
		ModelUsed:      s.provider.ModelName(),
		ProcessingTime: time.Since(start),
	}, nil
}

// IngestDocument extracts, chunks, embeds and indexes one stored upload.
// The caller owns the lifecycle of the file at path.
func (s *service) IngestDocument(ctx context.Context, documentID, filename, path string) (int, error) {
	log := s.logger.With("traceId", ctx.Value(config.TraceIDKey), "documentId", documentID)

	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("upload not readable: %w", err)
	}

	text, err := ingest.ExtractText(path)
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", filename, err)
	}
	log.Info("extracted document text", "chars", len(text))

	return s.indexer.IndexDocument(ctx, documentID, filename, text)
}

func (s *service) DeleteDocument(ctx context.Context, documentID string) error {
	return s.indexer.DeleteDocument(ctx, documentID)
}

func (s *service) GetDocument(ctx context.Context, documentID string) (vectorstore.DocumentInfo, bool, error) {
	return s.indexer.GetDocument(ctx, documentID)
}

func (s *service) ListDocuments(ctx context.Context, skip, limit int) ([]vectorstore.DocumentInfo, error) {
	return s.indexer.ListDocuments(ctx, skip, limit)
}
