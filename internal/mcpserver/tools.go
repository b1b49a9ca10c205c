package mcpserver

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/supplysight/ragapi/internal/rag"
)

// SearchInput is the input schema for the search_documents tool.
type SearchInput struct {
	Query      string  `json:"query" jsonschema:"the search query to find relevant chunks"`
	MaxResults int     `json:"max_results,omitempty" jsonschema:"maximum number of chunks to return (default 5)"`
	MinScore   float32 `json:"min_score,omitempty" jsonschema:"minimum similarity score (default 0.7)"`
}

type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

type SearchResultOutput struct {
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	Score      float32 `json:"score"`
	DocumentID string  `json:"document_id"`
}

// AskInput is the input schema for the ask_knowledge_base tool.
type AskInput struct {
	Question   string `json:"question" jsonschema:"the question to answer from the knowledge base"`
	UseAgentic bool   `json:"use_agentic,omitempty" jsonschema:"decompose complex questions into sub-questions"`
	MaxSources int    `json:"max_sources,omitempty" jsonschema:"maximum number of sources to use (default 5)"`
}

type AskOutput struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	Reasoning string   `json:"reasoning,omitempty"`
}

// ListInput is the input schema for the list_documents tool.
type ListInput struct {
	Skip  int `json:"skip,omitempty" jsonschema:"documents to skip"`
	Limit int `json:"limit,omitempty" jsonschema:"maximum documents to return (default 50)"`
}

type ListOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

type DocumentOutput struct {
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Search the knowledge base for chunks relevant to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_knowledge_base",
		Description: "Answer a question grounded in the knowledge base, with source citations",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the documents indexed in the knowledge base",
	}, s.handleList)
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	minScore := input.MinScore
	if minScore <= 0 {
		minScore = 0.7
	}

	matches, err := s.retriever.Retrieve(ctx, input.Query, maxResults, minScore)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(matches)),
		Count:   len(matches),
	}
	for i, m := range matches {
		output.Results[i] = SearchResultOutput{
			Content:    m.Content,
			Source:     m.Source,
			Score:      m.Score,
			DocumentID: m.DocumentID,
		}
	}
	return nil, output, nil
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	result, err := s.ragService.Ask(ctx, rag.AskParams{
		Question:   input.Question,
		UseAgentic: input.UseAgentic,
		MaxSources: input.MaxSources,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	sources := make([]string, 0, len(result.Sources))
	for _, src := range result.Sources {
		sources = append(sources, src.Source)
	}
	return nil, AskOutput{
		Answer:    result.Answer,
		Sources:   sources,
		Reasoning: result.Reasoning,
	}, nil
}

func (s *Server) handleList(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListInput,
) (*mcp.CallToolResult, ListOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}

	docs, err := s.ragService.ListDocuments(ctx, input.Skip, limit)
	if err != nil {
		return nil, ListOutput{}, err
	}

	output := ListOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i, d := range docs {
		output.Documents[i] = DocumentOutput{
			DocumentID: d.DocumentID,
			Filename:   d.Filename,
			ChunkCount: d.ChunkCount,
			CreatedAt:  d.CreatedAt,
		}
	}
	return nil, output, nil
}
