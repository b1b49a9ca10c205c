package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/domain/jobModel"
	"github.com/supplysight/ragapi/internal/domain/ragmodel"
	"github.com/supplysight/ragapi/internal/rag/llm"
	"github.com/supplysight/ragapi/internal/rag/pipeline"
	"github.com/supplysight/ragapi/internal/rag/planner"
	"github.com/supplysight/ragapi/internal/rag/retriever"
	"github.com/supplysight/ragapi/pkg/logx"
)

const (
	synthesisSystemMessage = "You are a helpful assistant that synthesizes a comprehensive answer from " +
		"intermediate findings. Cite sources using the [Source N] labels from the provided context."

	synthesisMaxTokens = 2048
	dedupPrefixRunes   = 100
)

// Agent orchestrates the multi-step answer path: decompose, fan out, merge,
// synthesize. Every failure past decomposition degrades silently to a
// single-pass answer for the original question.
type Agent interface {
	Ask(ctx context.Context, question string, opts pipeline.Options) (ragmodel.AgentResult, error)
}

type agent struct {
	planner       planner.Planner
	retriever     retriever.Retriever
	provider      llm.Provider
	fallback      pipeline.Pipeline
	conversations jobModel.ConversationStore

	maxConcurrent   int
	subQueryTimeout time.Duration
	defaults        pipeline.Options
	logger          *logx.Logger
}

func New(cfg config.Config, pl planner.Planner, ret retriever.Retriever, provider llm.Provider, fallback pipeline.Pipeline, conversations jobModel.ConversationStore) Agent {
	return &agent{
		planner:         pl,
		retriever:       ret,
		provider:        provider,
		fallback:        fallback,
		conversations:   conversations,
		maxConcurrent:   cfg.MaxConcurrentSubQueries,
		subQueryTimeout: cfg.ProviderTimeout,
		defaults: pipeline.Options{
			MaxSources:  cfg.DefaultMaxSources,
			Temperature: &cfg.DefaultTemperature,
			MinScore:    cfg.DefaultMinScore,
		},
		logger: logx.New("agent"),
	}
}

type subQueryOutcome struct {
	result  ragmodel.SubQueryResult
	sources []ragmodel.SourceMatch
}

func (a *agent) Ask(ctx context.Context, question string, opts pipeline.Options) (ragmodel.AgentResult, error) {
	log := a.logger.With("traceId", ctx.Value(config.TraceIDKey))
	opts = a.withDefaults(opts)

	subQuestions := a.planner.Decompose(ctx, question)

	outcomes, err := a.processSubQuestions(ctx, subQuestions, opts)
	if err != nil {
		log.Warn("sub-question processing failed, degrading to single pass", "error", err)
		return a.degrade(ctx, question, opts)
	}

	merged := mergeSources(outcomes, opts.MaxSources)

	answer, err := a.synthesize(ctx, question, outcomes, merged, *opts.Temperature)
	if err != nil {
		log.Warn("synthesis failed, degrading to single pass", "error", err)
		return a.degrade(ctx, question, opts)
	}

	conversationID := opts.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	result := ragmodel.AgentResult{
		Answer:         answer,
		Sources:        merged,
		Reasoning:      buildReasoning(subQuestions),
		SubQuestions:   subQuestions,
		ConversationID: conversationID,
	}
	a.record(ctx, question, result)
	log.Info("agentic answer complete", "subQuestions", len(subQuestions), "sources", len(merged))
	return result, nil
}

func (a *agent) withDefaults(opts pipeline.Options) pipeline.Options {
	if opts.MaxSources <= 0 {
		opts.MaxSources = a.defaults.MaxSources
	}
	if opts.Temperature == nil {
		opts.Temperature = a.defaults.Temperature
	}
	if opts.MinScore <= 0 {
		opts.MinScore = a.defaults.MinScore
	}
	return opts
}

// processSubQuestions answers every sub-question concurrently, bounded by the
// configured fan-out limit. Outcomes keep the decomposition order regardless
// of completion order.
func (a *agent) processSubQuestions(ctx context.Context, subQuestions []string, opts pipeline.Options) ([]subQueryOutcome, error) {
	perQuestionSources := opts.MaxSources/len(subQuestions) + 1

	outcomes := make([]subQueryOutcome, len(subQuestions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrent)

	for i, sq := range subQuestions {
		g.Go(func() error {
			taskCtx, cancel := context.WithTimeout(gctx, a.subQueryTimeout)
			defer cancel()

			outcome, err := a.answerSubQuestion(taskCtx, sq, perQuestionSources, opts)
			if err != nil {
				return fmt.Errorf("sub-question %d: %w", i, err)
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (a *agent) answerSubQuestion(ctx context.Context, question string, maxSources int, opts pipeline.Options) (subQueryOutcome, error) {
	sources, err := a.retriever.Retrieve(ctx, question, maxSources, opts.MinScore)
	if err != nil {
		return subQueryOutcome{}, err
	}

	if len(sources) == 0 {
		return subQueryOutcome{
			result: ragmodel.SubQueryResult{Question: question, Answer: config.InsufficientInfoAnswer},
		}, nil
	}

	answer, err := a.provider.Generate(ctx, llm.Request{
		Prompt:        pipeline.BuildPrompt(question, sources),
		SystemMessage: synthesisSystemMessage,
		Temperature:   *opts.Temperature,
		MaxTokens:     synthesisMaxTokens,
	})
	if err != nil {
		return subQueryOutcome{}, err
	}

	return subQueryOutcome{
		result:  ragmodel.SubQueryResult{Question: question, Answer: answer},
		sources: sources,
	}, nil
}

func (a *agent) synthesize(ctx context.Context, question string, outcomes []subQueryOutcome, sources []ragmodel.SourceMatch, temperature float32) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Original question: %s\n\n", question)

	b.WriteString("Intermediate findings:\n")
	for i, o := range outcomes {
		fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n", i+1, o.result.Question, o.result.Answer)
	}

	b.WriteString("\nSupporting context:\n")
	for i, s := range sources {
		label := s.Source
		if label == "" {
			label = s.DocumentID
		}
		fmt.Fprintf(&b, "[Source %d: %s]\n%s\n\n", i+1, label, s.Content)
	}

	b.WriteString("Synthesize a single comprehensive answer to the original question from the findings above.")

	return a.provider.Generate(ctx, llm.Request{
		Prompt:        b.String(),
		SystemMessage: synthesisSystemMessage,
		Temperature:   temperature,
		MaxTokens:     synthesisMaxTokens,
	})
}

func (a *agent) degrade(ctx context.Context, question string, opts pipeline.Options) (ragmodel.AgentResult, error) {
	direct, err := a.fallback.Answer(ctx, question, opts)
	if err != nil {
		return ragmodel.AgentResult{}, err
	}
	return ragmodel.AgentResult{
		Answer:         direct.Answer,
		Sources:        direct.Sources,
		ConversationID: direct.ConversationID,
	}, nil
}

func (a *agent) record(ctx context.Context, question string, result ragmodel.AgentResult) {
	if a.conversations == nil {
		return
	}
	labels := make([]string, 0, len(result.Sources))
	for _, s := range result.Sources {
		labels = append(labels, s.Source)
	}
	err := a.conversations.AppendExchange(ctx, result.ConversationID, jobModel.Exchange{
		Question: question,
		Answer:   result.Answer,
		Sources:  labels,
	})
	if err != nil {
		a.logger.Warn("could not record exchange", "error", err, "conversationId", result.ConversationID)
	}
}

// mergeSources flattens the per-sub-question sources, drops near-duplicates
// by content prefix, ranks by descending score and keeps the top maxSources.
// Keyword-fallback matches compete in the same ordering as semantic ones.
func mergeSources(outcomes []subQueryOutcome, maxSources int) []ragmodel.SourceMatch {
	seen := make(map[string]bool)
	var merged []ragmodel.SourceMatch
	for _, o := range outcomes {
		for _, s := range o.sources {
			key := contentKey(s.Content)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, s)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > maxSources {
		merged = merged[:maxSources]
	}
	return merged
}

func contentKey(content string) string {
	runes := []rune(content)
	if len(runes) > dedupPrefixRunes {
		runes = runes[:dedupPrefixRunes]
	}
	return string(runes)
}

func buildReasoning(subQuestions []string) string {
	var b strings.Builder
	b.WriteString("**Reasoning Process:**\n\n")
	fmt.Fprintf(&b, "1. Decomposed your question into %d sub-queries\n", len(subQuestions))
	for i, sq := range subQuestions {
		fmt.Fprintf(&b, "   - Sub-query %d: %s\n", i+1, sq)
	}
	b.WriteString("2. Retrieved and analyzed relevant information for each query\n")
	b.WriteString("3. Synthesized findings into comprehensive answer\n")
	b.WriteString("4. Verified consistency across sources\n")
	return b.String()
}
