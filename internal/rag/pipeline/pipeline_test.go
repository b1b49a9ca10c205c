package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/domain/ragmodel"
	"github.com/supplysight/ragapi/internal/rag/llm"
)

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

func testConfig() config.Config {
	return config.Config{
		DefaultMaxSources:  5,
		DefaultTemperature: 0.7,
		DefaultMinScore:    0.7,
		MaxTokens:          4096,
	}
}

func TestAnswer_NoSourcesReturnsCannedAnswer(t *testing.T) {
	ret := &mockRetriever{
		retrieveFunc: func(ctx context.Context, query string, maxSources int, minScore float32) ([]ragmodel.SourceMatch, error) {
			return nil, nil
		},
	}
	provider := &mockProvider{
		generateFunc: func(ctx context.Context, req llm.Request) (string, error) {
			t.Fatal("provider must not be called when retrieval is empty")
			return "", nil
		},
	}

	p := New(testConfig(), ret, provider, nil)
	result, err := p.Answer(context.Background(), "what is the meaning of life", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer != config.InsufficientInfoAnswer {
		t.Errorf("answer = %q, want canned insufficient-information answer", result.Answer)
	}
	if len(result.Sources) != 0 {
		t.Errorf("expected empty sources, got %d", len(result.Sources))
	}
	if result.ConversationID == "" {
		t.Error("expected a generated conversation id")
	}
}

func TestAnswer_PromptContainsLabelledSources(t *testing.T) {
	sources := []ragmodel.SourceMatch{
		{Content: "Refunds take 5 days.", Source: "policy.pdf", Score: 0.9},
		{Content: "Contact support first.", Source: "faq.txt", Score: 0.8},
	}
	ret := &mockRetriever{
		retrieveFunc: func(ctx context.Context, query string, maxSources int, minScore float32) ([]ragmodel.SourceMatch, error) {
			return sources, nil
		},
	}
	var capturedPrompt string
	provider := &mockProvider{
		generateFunc: func(ctx context.Context, req llm.Request) (string, error) {
			capturedPrompt = req.Prompt
			return "Refunds take 5 days [Source 1].", nil
		},
	}

	p := New(testConfig(), ret, provider, nil)
	result, err := p.Answer(context.Background(), "how long do refunds take?", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(capturedPrompt, "[Source 1: policy.pdf]") {
		t.Errorf("prompt missing first source label:\n%s", capturedPrompt)
	}
	if !strings.Contains(capturedPrompt, "[Source 2: faq.txt]") {
		t.Errorf("prompt missing second source label:\n%s", capturedPrompt)
	}
	if !strings.Contains(capturedPrompt, "how long do refunds take?") {
		t.Errorf("prompt missing the question:\n%s", capturedPrompt)
	}
	if len(result.Sources) != 2 {
		t.Errorf("result should carry retrieved sources, got %d", len(result.Sources))
	}
}

func TestAnswer_ProviderErrorPropagates(t *testing.T) {
	ret := &mockRetriever{
		retrieveFunc: func(ctx context.Context, query string, maxSources int, minScore float32) ([]ragmodel.SourceMatch, error) {
			return []ragmodel.SourceMatch{{Content: "x", Source: "a.txt", Score: 0.9}}, nil
		},
	}
	provider := &mockProvider{
		generateFunc: func(ctx context.Context, req llm.Request) (string, error) {
			return "", &ragmodel.ProviderError{Op: "generate", Err: errors.New("rate limited")}
		},
	}

	p := New(testConfig(), ret, provider, nil)
	_, err := p.Answer(context.Background(), "q", Options{})
	var provErr *ragmodel.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}

func TestAnswer_OptionsOverrideDefaults(t *testing.T) {
	var gotMax int
	var gotMin float32
	ret := &mockRetriever{
		retrieveFunc: func(ctx context.Context, query string, maxSources int, minScore float32) ([]ragmodel.SourceMatch, error) {
			gotMax = maxSources
			gotMin = minScore
			return nil, nil
		},
	}
	provider := &mockProvider{
		generateFunc: func(ctx context.Context, req llm.Request) (string, error) { return "", nil },
	}

	p := New(testConfig(), ret, provider, nil)
	_, err := p.Answer(context.Background(), "q", Options{MaxSources: 3, MinScore: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMax != 3 {
		t.Errorf("maxSources = %d, want 3", gotMax)
	}
	if gotMin != 0.5 {
		t.Errorf("minScore = %v, want 0.5", gotMin)
	}
}

func TestAnswer_TemperatureZeroIsHonored(t *testing.T) {
	ret := &mockRetriever{
		retrieveFunc: func(ctx context.Context, query string, maxSources int, minScore float32) ([]ragmodel.SourceMatch, error) {
			return []ragmodel.SourceMatch{{Content: "x", Source: "a.txt", Score: 0.9}}, nil
		},
	}
	var gotTemp float32 = -1
	provider := &mockProvider{
		generateFunc: func(ctx context.Context, req llm.Request) (string, error) {
			gotTemp = req.Temperature
			return "ok", nil
		},
	}

	p := New(testConfig(), ret, provider, nil)

	zero := float32(0)
	if _, err := p.Answer(context.Background(), "q", Options{Temperature: &zero}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTemp != 0 {
		t.Errorf("temperature = %v, want explicit 0", gotTemp)
	}

	// unset falls back to the configured default
	if _, err := p.Answer(context.Background(), "q", Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTemp != 0.7 {
		t.Errorf("temperature = %v, want default 0.7", gotTemp)
	}
}

func TestAnswer_PreservesSuppliedConversationID(t *testing.T) {
	ret := &mockRetriever{
		retrieveFunc: func(ctx context.Context, query string, maxSources int, minScore float32) ([]ragmodel.SourceMatch, error) {
			return nil, nil
		},
	}
	provider := &mockProvider{
		generateFunc: func(ctx context.Context, req llm.Request) (string, error) { return "", nil },
	}

	p := New(testConfig(), ret, provider, nil)
	result, err := p.Answer(context.Background(), "q", Options{ConversationID: "conv-123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ConversationID != "conv-123" {
		t.Errorf("conversation id = %q, want conv-123", result.ConversationID)
	}
}
