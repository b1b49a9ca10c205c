package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/job"
	"github.com/supplysight/ragapi/internal/metrics"
	"github.com/supplysight/ragapi/internal/rag"
	"github.com/supplysight/ragapi/pkg/logx"
)

var (
	_jobService        *job.Service
	_ragService        rag.Service
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	dispatcherChannel  chan bool
	currentWorkerCount int64
	minWorkerCount     int64
	maxWorkerCount     int64
	idleWorkerTimeout  time.Duration
	jobTimeout         time.Duration
	logger             *logx.Logger
)

func InitServices(jobService *job.Service, ragService rag.Service) {
	_jobService = jobService
	_ragService = ragService
	dispatcherChannel = jobService.DispatcherChannel
}

// InitWorkerPool starts the dispatcher and the first worker. Workers retire
// when idle past the timeout, down to the configured minimum; the stop
// channel drains them all during shutdown.
func InitWorkerPool(cfg config.Config, stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	stopWorkerChannel = stopWorkerChan
	workerWaitGroup = waitGroup
	atomic.StoreInt64(&minWorkerCount, cfg.MinWorkerCount)
	atomic.StoreInt64(&maxWorkerCount, cfg.MaxWorkerCount)
	idleWorkerTimeout = cfg.IdleWorkerTimeout
	jobTimeout = cfg.RequestTimeout
	logger = logx.New("worker_pool")
	logger.Info("initializing worker pool")
	go dispatcher()
}

func dispatcher() {
	createWorker()
	logger.Info("dispatcher started")
	for range dispatcherChannel {
		if atomic.LoadInt64(&currentWorkerCount) < atomic.LoadInt64(&maxWorkerCount) {
			logger.Info("creating new worker", "workerCount", atomic.LoadInt64(&currentWorkerCount))
			createWorker()
		}
	}
}

func createWorker() {
	workerWaitGroup.Add(1)
	go worker()
	atomic.AddInt64(&currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
}

func worker() {
	for {
		select {
		case currentJob := <-_jobService.JobChannel:
			executeJob(currentJob)
			metrics.DecrementJobsInQueue()

		case <-stopWorkerChannel:
			removeWorker("stop signal received")
			return

		case <-time.After(idleWorkerTimeout):
			if atomic.LoadInt64(&currentWorkerCount) > atomic.LoadInt64(&minWorkerCount) {
				removeWorker("idle timeout")
				return
			}
		}
	}
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	metrics.DecrementActiveWorkerCount()
	logger.Info("removed worker", "reason", reason, "workerCount", atomic.LoadInt64(&currentWorkerCount))
}
