package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/data/store"
	"github.com/supplysight/ragapi/internal/httpclient"
	"github.com/supplysight/ragapi/internal/mcpserver"
	"github.com/supplysight/ragapi/internal/rag"
	"github.com/supplysight/ragapi/internal/rag/agent"
	geminiembed "github.com/supplysight/ragapi/internal/rag/embedding/gemini"
	"github.com/supplysight/ragapi/internal/rag/embedding/openaiembed"
	"github.com/supplysight/ragapi/internal/rag/indexer"
	geminillm "github.com/supplysight/ragapi/internal/rag/llm/gemini"
	"github.com/supplysight/ragapi/internal/rag/llm/openaichat"
	"github.com/supplysight/ragapi/internal/rag/pipeline"
	"github.com/supplysight/ragapi/internal/rag/planner"
	"github.com/supplysight/ragapi/internal/rag/retriever"
	"github.com/supplysight/ragapi/internal/rag/vectorstore/qdrantstore"
	"github.com/supplysight/ragapi/pkg/logx"
)

func main() {
	cfg := config.Load()

	// stdout carries the MCP protocol, so logs go to stderr
	logx.InitWithWriter(os.Stderr, cfg.LogLevel, true)
	logger := logx.New("mcp_main")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	vectorStore, err := qdrantstore.NewStore(ctx, cfg)
	if err != nil {
		logger.Error("could not connect to qdrant", "error", err)
		os.Exit(1)
	}
	if err := vectorStore.EnsureCollection(ctx); err != nil {
		logger.Error("could not prepare collection", "error", err)
		os.Exit(1)
	}

	httpClient := httpclient.New(cfg)

	var ragService rag.Service
	var ret retriever.Retriever
	if cfg.LLMBackend == "openai" {
		embedder := openaiembed.NewEmbedder(cfg, httpClient)
		provider := openaichat.NewProvider(cfg, httpClient)
		ret = retriever.New(vectorStore, embedder)
		pl := pipeline.New(cfg, ret, provider, store.NewInMemoryConversationStore())
		ag := agent.New(cfg, planner.New(provider), ret, provider, pl, nil)
		ragService = rag.NewService(pl, ag, indexer.New(cfg, vectorStore, embedder), provider)
	} else {
		embedder, err := geminiembed.NewEmbedder(ctx, cfg, httpClient)
		if err != nil {
			logger.Error("could not initialize embedder", "error", err)
			os.Exit(1)
		}
		provider, err := geminillm.NewProvider(ctx, cfg, httpClient)
		if err != nil {
			logger.Error("could not initialize provider", "error", err)
			os.Exit(1)
		}
		ret = retriever.New(vectorStore, embedder)
		pl := pipeline.New(cfg, ret, provider, store.NewInMemoryConversationStore())
		ag := agent.New(cfg, planner.New(provider), ret, provider, pl, nil)
		ragService = rag.NewService(pl, ag, indexer.New(cfg, vectorStore, embedder), provider)
	}

	srv := mcpserver.NewServer(ragService, ret)
	if err := srv.Run(ctx); err != nil {
		logger.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
