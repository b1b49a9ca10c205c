package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/domain/jobModel"
	"github.com/supplysight/ragapi/internal/domain/ragmodel"
	"github.com/supplysight/ragapi/internal/rag/llm"
	"github.com/supplysight/ragapi/internal/rag/retriever"
	"github.com/supplysight/ragapi/pkg/logx"
)

const systemMessage = "You are a helpful assistant that answers questions based on the provided context. " +
	"Always cite your sources using the [Source N] format when the information comes from the context. " +
	"If the context does not contain enough information, say so explicitly."

// Options tune one pipeline invocation. Zero values fall back to configured
// defaults; Temperature is a pointer so an explicit 0 is distinguishable
// from unset.
type Options struct {
	MaxSources     int
	Temperature    *float32
	MinScore       float32
	ConversationID string
}

// Pipeline runs one retrieve-then-generate pass per question.
type Pipeline interface {
	// Answer retrieves sources for the question and generates a grounded
	// answer. When nothing relevant is stored it returns the canned
	// insufficient-information answer with no sources and no provider
	// call. Provider failures propagate as ProviderError.
	Answer(ctx context.Context, question string, opts Options) (ragmodel.PipelineResult, error)
}

type pipeline struct {
	retriever     retriever.Retriever
	provider      llm.Provider
	conversations jobModel.ConversationStore
	defaults      Options
	maxTokens     int
	logger        *logx.Logger
}

func New(cfg config.Config, ret retriever.Retriever, provider llm.Provider, conversations jobModel.ConversationStore) Pipeline {
	return &pipeline{
		retriever:     ret,
		provider:      provider,
		conversations: conversations,
		defaults: Options{
			MaxSources:  cfg.DefaultMaxSources,
			Temperature: &cfg.DefaultTemperature,
			MinScore:    cfg.DefaultMinScore,
		},
		maxTokens: cfg.MaxTokens,
		logger:    logx.New("pipeline"),
	}
}

func (p *pipeline) Answer(ctx context.Context, question string, opts Options) (ragmodel.PipelineResult, error) {
	log := p.logger.With("traceId", ctx.Value(config.TraceIDKey))
	opts = p.withDefaults(opts)

	conversationID, history, err := p.resolveConversation(ctx, opts.ConversationID)
	if err != nil {
		return ragmodel.PipelineResult{}, err
	}

	sources, err := p.retriever.Retrieve(ctx, question, opts.MaxSources, opts.MinScore)
	if err != nil {
		return ragmodel.PipelineResult{}, err
	}

	if len(sources) == 0 {
		log.Info("no relevant sources, returning canned answer")
		result := ragmodel.PipelineResult{
			Answer:         config.InsufficientInfoAnswer,
			Sources:        []ragmodel.SourceMatch{},
			ConversationID: conversationID,
		}
		p.record(ctx, conversationID, question, result)
		return result, nil
	}

	answer, err := p.provider.Generate(ctx, llm.Request{
		Prompt:        BuildPrompt(question, sources),
		SystemMessage: systemMessage,
		Temperature:   *opts.Temperature,
		MaxTokens:     p.maxTokens,
		History:       history,
	})
	if err != nil {
		return ragmodel.PipelineResult{}, err
	}

	result := ragmodel.PipelineResult{
		Answer:         answer,
		Sources:        sources,
		ConversationID: conversationID,
	}
	p.record(ctx, conversationID, question, result)
	log.Info("answered question", "sources", len(sources), "conversationId", conversationID)
	return result, nil
}

func (p *pipeline) withDefaults(opts Options) Options {
	if opts.MaxSources <= 0 {
		opts.MaxSources = p.defaults.MaxSources
	}
	if opts.Temperature == nil {
		opts.Temperature = p.defaults.Temperature
	}
	if opts.MinScore <= 0 {
		opts.MinScore = p.defaults.MinScore
	}
	return opts
}

// resolveConversation validates a caller-supplied conversation id or mints a
// fresh one. A missing store degrades to stateless operation.
func (p *pipeline) resolveConversation(ctx context.Context, id string) (string, []string, error) {
	if p.conversations == nil {
		if id == "" {
			id = uuid.NewString()
		}
		return id, nil, nil
	}

	if id == "" {
		id = uuid.NewString()
		if err := p.conversations.InitConversation(ctx, id); err != nil {
			p.logger.Warn("could not init conversation, continuing stateless", "error", err)
		}
		return id, nil, nil
	}

	if !p.conversations.ValidateConversationID(ctx, id) {
		return "", nil, fmt.Errorf("unknown conversation id %q", id)
	}
	history, err := p.conversations.GetHistory(ctx, id)
	if err != nil {
		p.logger.Warn("could not load history, continuing without", "error", err)
		history = nil
	}
	return id, history, nil
}

func (p *pipeline) record(ctx context.Context, conversationID, question string, result ragmodel.PipelineResult) {
	if p.conversations == nil {
		return
	}
	labels := make([]string, 0, len(result.Sources))
	for _, s := range result.Sources {
		labels = append(labels, s.Source)
	}
	err := p.conversations.AppendExchange(ctx, conversationID, jobModel.Exchange{
		Question: question,
		Answer:   result.Answer,
		Sources:  labels,
	})
	if err != nil {
		p.logger.Warn("could not record exchange", "error", err, "conversationId", conversationID)
	}
}

// BuildPrompt assembles the generation prompt: every retrieved chunk becomes
// a numbered, labelled context block the model can cite back.
func BuildPrompt(question string, sources []ragmodel.SourceMatch) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	for i, s := range sources {
		label := s.Source
		if label == "" {
			label = s.DocumentID
		}
		fmt.Fprintf(&b, "[Source %d: %s]\n%s\n\n", i+1, label, s.Content)
	}
	fmt.Fprintf(&b, "Question: %s\n\nAnswer based on the context above.", question)
	return b.String()
}
