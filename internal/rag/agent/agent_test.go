package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/domain/ragmodel"
	"github.com/supplysight/ragapi/internal/rag/llm"
	"github.com/supplysight/ragapi/internal/rag/pipeline"
)

type mockPlanner struct {
	subQuestions []string
}

func (m *mockPlanner) Decompose(ctx context.Context, question string) []string {
	return m.subQuestions
}

type mockRetriever struct {
	retrieveFunc func(ctx context.Context, query string, maxSources int, minScore float32) ([]ragmodel.SourceMatch, error)
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, maxSources int, minScore float32) ([]ragmodel.SourceMatch, error) {
	return m.retrieveFunc(ctx, query, maxSources, minScore)
}

type mockProvider struct {
	generateFunc func(ctx context.Context, req llm.Request) (string, error)
}

func (m *mockProvider) Generate(ctx context.Context, req llm.Request) (string, error) {
	return m.generateFunc(ctx, req)
}

func (m *mockProvider) ModelName() string { return "mock-model" }

type mockPipeline struct {
	answerFunc func(ctx context.Context, question string, opts pipeline.Options) (ragmodel.PipelineResult, error)
}

func (m *mockPipeline) Answer(ctx context.Context, question string, opts pipeline.Options) (ragmodel.PipelineResult, error) {
	return m.answerFunc(ctx, question, opts)
}

func testConfig() config.Config {
	return config.Config{
		DefaultMaxSources:       5,
		DefaultTemperature:      0.7,
		DefaultMinScore:         0.7,
		MaxTokens:               4096,
		MaxConcurrentSubQueries: 3,
		ProviderTimeout:         30 * time.Second,
	}
}

func TestAsk_TwoSubQuestionsEndToEnd(t *testing.T) {
	pl := &mockPlanner{subQuestions: []string{"What is X?", "What is Y?"}}
	ret := &mockRetriever{
		retrieveFunc: func(ctx context.Context, query string, maxSources int, minScore float32) ([]ragmodel.SourceMatch, error) {
			if query == "What is X?" {
				return []ragmodel.SourceMatch{{Content: "X is a widget.", Source: "x.pdf", Score: 0.95}}, nil
			}
			return []ragmodel.SourceMatch{{Content: "Y is a gadget.", Source: "y.pdf", Score: 0.80}}, nil
		},
	}
	var synthesisPrompt string
	provider := &mockProvider{
		generateFunc: func(ctx context.Context, req llm.Request) (string, error) {
			if strings.Contains(req.Prompt, "Original question:") {
				synthesisPrompt = req.Prompt
				return "X and Y together [Source 1][Source 2].", nil
			}
			return "intermediate answer", nil
		},
	}

	a := New(testConfig(), pl, ret, provider, nil, nil)
	result, err := a.Ask(context.Background(), "explain X and Y", pipeline.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Sources) != 2 {
		t.Fatalf("expected 2 merged sources, got %d", len(result.Sources))
	}
	if result.Sources[0].Source != "x.pdf" || result.Sources[1].Source != "y.pdf" {
		t.Errorf("sources not ranked by descending score: %+v", result.Sources)
	}
	// citation labels in the synthesis prompt must follow the merged rank
	if !strings.Contains(synthesisPrompt, "[Source 1: x.pdf]") ||
		!strings.Contains(synthesisPrompt, "[Source 2: y.pdf]") {
		t.Errorf("synthesis prompt labels out of rank order:\n%s", synthesisPrompt)
	}
	if len(result.SubQuestions) != 2 {
		t.Errorf("expected 2 sub-questions in result, got %d", len(result.SubQuestions))
	}
	if !strings.Contains(result.Reasoning, "Decomposed your question into 2 sub-queries") {
		t.Errorf("reasoning trace missing decomposition count:\n%s", result.Reasoning)
	}
	if !strings.Contains(result.Reasoning, "Sub-query 1: What is X?") {
		t.Errorf("reasoning trace missing sub-query line:\n%s", result.Reasoning)
	}
	for _, line := range []string{
		"2. Retrieved and analyzed relevant information for each query",
		"3. Synthesized findings into comprehensive answer",
		"4. Verified consistency across sources",
	} {
		if !strings.Contains(result.Reasoning, line) {
			t.Errorf("reasoning trace missing %q:\n%s", line, result.Reasoning)
		}
	}
}

func TestAsk_SynthesisFailureDegradesToSinglePass(t *testing.T) {
	pl := &mockPlanner{subQuestions: []string{"a", "b"}}
	ret := &mockRetriever{
		retrieveFunc: func(ctx context.Context, query string, maxSources int, minScore float32) ([]ragmodel.SourceMatch, error) {
			return []ragmodel.SourceMatch{{Content: "c " + query, Source: "s.pdf", Score: 0.9}}, nil
		},
	}
	provider := &mockProvider{
		generateFunc: func(ctx context.Context, req llm.Request) (string, error) {
			if strings.Contains(req.Prompt, "Original question:") {
				return "", &ragmodel.ProviderError{Op: "generate", Err: errors.New("overloaded")}
			}
			return "intermediate", nil
		},
	}
	direct := ragmodel.PipelineResult{
		Answer:         "direct answer",
		Sources:        []ragmodel.SourceMatch{{Content: "c", Source: "s.pdf", Score: 0.9}},
		ConversationID: "conv-1",
	}
	fallback := &mockPipeline{
		answerFunc: func(ctx context.Context, question string, opts pipeline.Options) (ragmodel.PipelineResult, error) {
			if question != "the original question" {
				t.Errorf("fallback got question %q, want the original question", question)
			}
			return direct, nil
		},
	}

	a := New(testConfig(), pl, ret, provider, fallback, nil)
	result, err := a.Ask(context.Background(), "the original question", pipeline.Options{})
	if err != nil {
		t.Fatalf("degraded path should not error: %v", err)
	}
	if result.Answer != direct.Answer {
		t.Errorf("answer = %q, want the direct single-pass answer", result.Answer)
	}
	if result.Reasoning != "" || len(result.SubQuestions) != 0 {
		t.Errorf("degraded result must not carry agentic fields: %+v", result)
	}
	if result.ConversationID != direct.ConversationID {
		t.Errorf("conversation id = %q, want %q", result.ConversationID, direct.ConversationID)
	}
}

func TestAsk_SubQuestionFailureDegradesToSinglePass(t *testing.T) {
	pl := &mockPlanner{subQuestions: []string{"a", "b"}}
	ret := &mockRetriever{
		retrieveFunc: func(ctx context.Context, query string, maxSources int, minScore float32) ([]ragmodel.SourceMatch, error) {
			if query == "b" {
				return nil, &ragmodel.StorageError{Op: "text query", Err: errors.New("down")}
			}
			return []ragmodel.SourceMatch{{Content: "c", Source: "s.pdf", Score: 0.9}}, nil
		},
	}
	provider := &mockProvider{
		generateFunc: func(ctx context.Context, req llm.Request) (string, error) { return "intermediate", nil },
	}
	fallbackCalled := false
	fallback := &mockPipeline{
		answerFunc: func(ctx context.Context, question string, opts pipeline.Options) (ragmodel.PipelineResult, error) {
			fallbackCalled = true
			return ragmodel.PipelineResult{Answer: "direct"}, nil
		},
	}

	a := New(testConfig(), pl, ret, provider, fallback, nil)
	result, err := a.Ask(context.Background(), "q", pipeline.Options{})
	if err != nil {
		t.Fatalf("degraded path should not error: %v", err)
	}
	if !fallbackCalled {
		t.Fatal("expected degradation to the single-pass pipeline")
	}
	if result.Answer != "direct" {
		t.Errorf("answer = %q, want direct", result.Answer)
	}
}

func TestMergeSources_DedupByContentPrefix(t *testing.T) {
	long := strings.Repeat("a", 150)
	outcomes := []subQueryOutcome{
		{sources: []ragmodel.SourceMatch{
			{Content: long + " tail one", Source: "1.pdf", Score: 0.9},
			{Content: "unique", Source: "2.pdf", Score: 0.8},
		}},
		{sources: []ragmodel.SourceMatch{
			// same first 100 characters as the first match
			{Content: long + " tail two", Source: "3.pdf", Score: 0.95},
		}},
	}

	merged := mergeSources(outcomes, 5)
	if len(merged) != 2 {
		t.Fatalf("expected prefix-duplicate to be dropped, got %d sources", len(merged))
	}
	// first occurrence wins, even when the duplicate scores higher
	if merged[0].Source != "1.pdf" {
		t.Errorf("kept source = %q, want 1.pdf", merged[0].Source)
	}
}

func TestMergeSources_RankAndTruncate(t *testing.T) {
	outcomes := []subQueryOutcome{
		{sources: []ragmodel.SourceMatch{
			{Content: "a", Score: 0.71},
			{Content: "b", Score: 0.99},
		}},
		{sources: []ragmodel.SourceMatch{
			{Content: "c", Score: config.KeywordMatchScore},
			{Content: "d", Score: 0.85},
		}},
	}

	merged := mergeSources(outcomes, 3)
	if len(merged) != 3 {
		t.Fatalf("expected truncation to 3, got %d", len(merged))
	}
	wantOrder := []string{"b", "d", "a"}
	for i, w := range wantOrder {
		if merged[i].Content != w {
			t.Errorf("merged[%d] = %q, want %q", i, merged[i].Content, w)
		}
	}
}

func TestAsk_SourcesNeverExceedMaxSources(t *testing.T) {
	pl := &mockPlanner{subQuestions: []string{"a", "b", "c"}}
	ret := &mockRetriever{
		retrieveFunc: func(ctx context.Context, query string, maxSources int, minScore float32) ([]ragmodel.SourceMatch, error) {
			out := make([]ragmodel.SourceMatch, maxSources)
			for i := range out {
				out[i] = ragmodel.SourceMatch{
					Content: strings.Repeat(query, 10) + string(rune('a'+i)),
					Source:  "s.pdf",
					Score:   0.7 + float32(i)*0.001,
				}
			}
			return out, nil
		},
	}
	provider := &mockProvider{
		generateFunc: func(ctx context.Context, req llm.Request) (string, error) { return "ok", nil },
	}

	a := New(testConfig(), pl, ret, provider, nil, nil)
	result, err := a.Ask(context.Background(), "q", pipeline.Options{MaxSources: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Sources) > 4 {
		t.Errorf("got %d sources, want at most 4", len(result.Sources))
	}
}
