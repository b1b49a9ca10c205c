package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/data/redisStore"
	"github.com/supplysight/ragapi/internal/data/store"
	"github.com/supplysight/ragapi/internal/domain/jobModel"
	"github.com/supplysight/ragapi/internal/handlers"
	"github.com/supplysight/ragapi/internal/httpclient"
	"github.com/supplysight/ragapi/internal/job"
	"github.com/supplysight/ragapi/internal/middleware"
	"github.com/supplysight/ragapi/internal/rag"
	"github.com/supplysight/ragapi/internal/rag/agent"
	"github.com/supplysight/ragapi/internal/rag/embedding"
	geminiembed "github.com/supplysight/ragapi/internal/rag/embedding/gemini"
	"github.com/supplysight/ragapi/internal/rag/embedding/openaiembed"
	"github.com/supplysight/ragapi/internal/rag/indexer"
	"github.com/supplysight/ragapi/internal/rag/llm"
	geminillm "github.com/supplysight/ragapi/internal/rag/llm/gemini"
	"github.com/supplysight/ragapi/internal/rag/llm/openaichat"
	"github.com/supplysight/ragapi/internal/rag/pipeline"
	"github.com/supplysight/ragapi/internal/rag/planner"
	"github.com/supplysight/ragapi/internal/rag/retriever"
	"github.com/supplysight/ragapi/internal/rag/vectorstore/qdrantstore"
	"github.com/supplysight/ragapi/internal/server"
	"github.com/supplysight/ragapi/internal/worker"
	"github.com/supplysight/ragapi/pkg/logx"
)

var workerWaitGroup sync.WaitGroup

func main() {
	cfg := config.Load()

	logx.Init(cfg.LogLevel, cfg.IsProd)
	logger := logx.New("main")

	flag.StringVar(&cfg.ListenAddr, "listen-addr", cfg.ListenAddr, "server listen address")
	flag.Parse()

	jobChannel := make(chan jobModel.Job, cfg.JobBufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel := make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	jobStore, conversationStore := buildStores(serviceContext, cfg, logger)
	jobService := job.InitJobService(job.ServiceConfig{
		JobChannel:        jobChannel,
		DispatcherChannel: dispatcherChannel,
		JobStore:          jobStore,
		ConversationStore: conversationStore,
	})
	logger.Info("started job service")

	vectorStore, err := qdrantstore.NewStore(serviceContext, cfg)
	if err != nil {
		logger.Error("could not connect to qdrant", "error", err)
		return
	}
	if err := vectorStore.EnsureCollection(serviceContext); err != nil {
		logger.Error("could not prepare collection", "error", err)
		return
	}

	httpClient := httpclient.New(cfg)
	embedder, provider, err := buildProviders(serviceContext, cfg, httpClient)
	if err != nil {
		logger.Error("could not initialize providers", "backend", cfg.LLMBackend, "error", err)
		return
	}
	logger.Info("providers ready", "backend", cfg.LLMBackend, "model", provider.ModelName())

	ret := retriever.New(vectorStore, embedder)
	ix := indexer.New(cfg, vectorStore, embedder)
	pl := pipeline.New(cfg, ret, provider, conversationStore)
	ag := agent.New(cfg, planner.New(provider), ret, provider, pl, conversationStore)
	ragService := rag.NewService(pl, ag, ix, provider)

	middleware.Init(cfg)
	handlers.InitHandlers(jobService, ragService, cfg)

	worker.InitServices(jobService, ragService)
	worker.InitWorkerPool(cfg, stopWorkerChannel, &workerWaitGroup)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(cfg, shutdownParams)
	go server.CreateServer(cfg)

	<-stopExecution
	logger.Info("server stopped")
}

// buildStores prefers redis and falls back to the in-memory stores when it
// is unreachable.
func buildStores(ctx context.Context, cfg config.Config, logger *logx.Logger) (jobModel.JobStore, jobModel.ConversationStore) {
	jobBackend, jobErr := redisStore.New(ctx, cfg, cfg.RedisJobDB)
	convBackend, convErr := redisStore.New(ctx, cfg, cfg.RedisConversationDB)
	if jobErr != nil || convErr != nil {
		logger.Error("redis is offline, using in-memory stores", "jobErr", jobErr, "convErr", convErr)
		return store.NewInMemoryJobStore(), store.NewInMemoryConversationStore()
	}
	return store.NewRedisJobStore(jobBackend, cfg.JobTTL),
		store.NewRedisConversationStore(convBackend, cfg.ConversationTTL)
}

func buildProviders(ctx context.Context, cfg config.Config, httpClient *http.Client) (embedding.Embedder, llm.Provider, error) {
	if cfg.LLMBackend == "openai" {
		embedder := openaiembed.NewEmbedder(cfg, httpClient)
		provider := openaichat.NewProvider(cfg, httpClient)
		return embedder, provider, nil
	}

	embedder, err := geminiembed.NewEmbedder(ctx, cfg, httpClient)
	if err != nil {
		return nil, nil, err
	}
	provider, err := geminillm.NewProvider(ctx, cfg, httpClient)
	if err != nil {
		return nil, nil, err
	}
	return embedder, provider, nil
}
