package mcpserver

import (
	"context"
	"testing"

	"github.com/supplysight/ragapi/internal/domain/ragmodel"
	"github.com/supplysight/ragapi/internal/rag"
	"github.com/supplysight/ragapi/internal/rag/vectorstore"
)

type mockRagService struct {
	askFunc  func(ctx context.Context, params rag.AskParams) (rag.AskResult, error)
	listFunc func(ctx context.Context, skip, limit int) ([]vectorstore.DocumentInfo, error)
}

func (m *mockRagService) Ask(ctx context.Context, params rag.AskParams) (rag.AskResult, error) {
	return m.askFunc(ctx, params)
}
func (m *mockRagService) IngestDocument(ctx context.Context, documentID, filename, path string) (int, error) {
	return 0, nil
}
func (m *mockRagService) DeleteDocument(ctx context.Context, documentID string) error { return nil }
func (m *mockRagService) GetDocument(ctx context.Context, documentID string) (vectorstore.DocumentInfo, bool, error) {
	return vectorstore.DocumentInfo{}, false, nil
}
func (m *mockRagService) ListDocuments(ctx context.Context, skip, limit int) ([]vectorstore.DocumentInfo, error) {
	return m.listFunc(ctx, skip, limit)
}

type mockRetriever struct {
	retrieveFunc func(ctx context.Context, query string, maxSources int, minScore float32) ([]ragmodel.SourceMatch, error)
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, maxSources int, minScore float32) ([]ragmodel.SourceMatch, error) {
	return m.retrieveFunc(ctx, query, maxSources, minScore)
}

func TestHandleSearch_Defaults(t *testing.T) {
	var gotMax int
	var gotMin float32
	ret := &mockRetriever{
		retrieveFunc: func(ctx context.Context, query string, maxSources int, minScore float32) ([]ragmodel.SourceMatch, error) {
			gotMax = maxSources
			gotMin = minScore
			return []ragmodel.SourceMatch{{Content: "c", Source: "s.pdf", Score: 0.9}}, nil
		},
	}
	s := NewServer(&mockRagService{}, ret)

	_, output, err := s.handleSearch(context.Background(), nil, SearchInput{Query: "refunds"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMax != 5 || gotMin != 0.7 {
		t.Errorf("defaults not applied: maxResults=%d minScore=%v", gotMax, gotMin)
	}
	if output.Count != 1 || output.Results[0].Source != "s.pdf" {
		t.Errorf("unexpected output: %+v", output)
	}
}

func TestHandleAsk(t *testing.T) {
	svc := &mockRagService{
		askFunc: func(ctx context.Context, params rag.AskParams) (rag.AskResult, error) {
			if !params.UseAgentic {
				t.Error("use_agentic not forwarded")
			}
			return rag.AskResult{
				Answer:    "answer",
				Sources:   []ragmodel.SourceMatch{{Source: "a.pdf"}},
				Reasoning: "**Reasoning Process:**",
			}, nil
		},
	}
	s := NewServer(svc, &mockRetriever{})

	_, output, err := s.handleAsk(context.Background(), nil, AskInput{Question: "q", UseAgentic: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Answer != "answer" || len(output.Sources) != 1 || output.Sources[0] != "a.pdf" {
		t.Errorf("unexpected output: %+v", output)
	}
	if output.Reasoning == "" {
		t.Error("reasoning should pass through for agentic asks")
	}
}

func TestHandleList(t *testing.T) {
	svc := &mockRagService{
		listFunc: func(ctx context.Context, skip, limit int) ([]vectorstore.DocumentInfo, error) {
			if limit != 50 {
				t.Errorf("default limit = %d, want 50", limit)
			}
			return []vectorstore.DocumentInfo{
				{DocumentID: "d1", Filename: "a.pdf", ChunkCount: 3},
			}, nil
		},
	}
	s := NewServer(svc, &mockRetriever{})

	_, output, err := s.handleList(context.Background(), nil, ListInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Count != 1 || output.Documents[0].DocumentID != "d1" {
		t.Errorf("unexpected output: %+v", output)
	}
}
