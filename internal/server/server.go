package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/supplysight/ragapi/internal/adapter/utils"
	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/middleware"
	"github.com/supplysight/ragapi/pkg/logx"
)

var (
	server  *http.Server
	_logger *logx.Logger
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

func CreateServer(cfg config.Config) {
	_logger = logx.New("server")

	r := utils.GetRouter()

	r.Router.Get("/health", middleware.GetHandler)
	r.Router.Post("/ask", middleware.AskHandler)
	r.Router.Get("/status/{id}", middleware.GetStatusHandler)
	r.Router.Post("/documents", middleware.PostDocumentHandler)
	r.Router.Get("/documents", middleware.ListDocumentsHandler)
	r.Router.Get("/documents/{id}", middleware.GetDocumentHandler)
	r.Router.Delete("/documents/{id}", middleware.DeleteDocumentHandler)
	r.Router.Get("/history/{id}", middleware.GetHistoryHandler)
	r.Router.Delete("/history/{id}", middleware.DeleteHistoryHandler)

	server = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r.Router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	_logger.Info("server is listening", "address", cfg.ListenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("server crashed", "error", err.Error(), "addr", cfg.ListenAddr)
	}
}

func ShutDownHandler(cfg config.Config, shutdownParams ShutdownParams) {
	log := logx.New("server")
	state := <-shutdownParams.GracefulShutdown
	log.Info("server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		server.SetKeepAlivesEnabled(false)

		if err := server.Shutdown(ctx); err != nil {
			log.Error("could not shutdown gracefully", "error", err)
		}

		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		log.Info("graceful shutdown complete")
	case <-ctx.Done():
		log.Info("forced shutdown")
		os.Exit(1)
	}
}
