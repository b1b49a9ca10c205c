package planner

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/rag/llm"
	"github.com/supplysight/ragapi/pkg/logx"
)

const (
	decomposeSystemMessage = "You are a query analysis assistant. Break complex questions into simpler, " +
		"self-contained sub-questions. Respond with a JSON array of strings and nothing else."

	decomposeTemperature float32 = 0.3
	decomposeMaxTokens           = 500
	maxSubQuestions              = 5
)

// Planner decomposes a complex question into independent sub-questions.
type Planner interface {
	// Decompose asks the model for a JSON array of sub-questions. Any
	// failure along the way, provider or parse, degrades to the original
	// question as the single sub-question. Decompose never returns an
	// empty slice.
	Decompose(ctx context.Context, question string) []string
}

type planner struct {
	provider llm.Provider
	logger   *logx.Logger
}

func New(provider llm.Provider) Planner {
	return &planner{
		provider: provider,
		logger:   logx.New("planner"),
	}
}

func (p *planner) Decompose(ctx context.Context, question string) []string {
	log := p.logger.With("traceId", ctx.Value(config.TraceIDKey))

	raw, err := p.provider.Generate(ctx, llm.Request{
		Prompt:        buildDecomposePrompt(question),
		SystemMessage: decomposeSystemMessage,
		Temperature:   decomposeTemperature,
		MaxTokens:     decomposeMaxTokens,
	})
	if err != nil {
		log.Warn("decomposition call failed, using original question", "error", err)
		return []string{question}
	}

	subQuestions, ok := parseSubQuestions(raw)
	if !ok {
		log.Warn("could not parse decomposition output, using original question")
		return []string{question}
	}
	log.Info("decomposed question", "subQuestions", len(subQuestions))
	return subQuestions
}

func buildDecomposePrompt(question string) string {
	var b strings.Builder
	b.WriteString("Break down the following question into simpler sub-questions that can each be ")
	b.WriteString("answered from a document knowledge base. If the question is already simple, ")
	b.WriteString("return it as a single-element array.\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

// parseSubQuestions extracts a JSON string array from model output,
// tolerating markdown code fences around the payload.
func parseSubQuestions(raw string) ([]string, bool) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))

	var parsed []string
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, false
	}

	subQuestions := make([]string, 0, len(parsed))
	for _, q := range parsed {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		subQuestions = append(subQuestions, q)
		if len(subQuestions) == maxSubQuestions {
			break
		}
	}
	if len(subQuestions) == 0 {
		return nil, false
	}
	return subQuestions, true
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
