package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/supplysight/ragapi/internal/adapter/utils"
	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/domain/jobModel"
	"github.com/supplysight/ragapi/internal/job"
	"github.com/supplysight/ragapi/internal/metrics"
	"github.com/supplysight/ragapi/internal/rag"
	"github.com/supplysight/ragapi/pkg/logx"
)

var (
	handlerInstance *JobHandler
	once            sync.Once
	logJH           *logx.Logger
	logRH           *logx.Logger
)

type JobHandler struct {
	service              *job.Service
	ragService           rag.Service
	cfg                  config.Config
	requestCount         int64
	requestsPerNewWorker int64
}

type newJobData struct {
	id           string
	traceId      string
	jobType      jobModel.JobType
	documentID   string
	documentName string
	sourcePath   string
}

func InitHandlers(jobService *job.Service, ragService rag.Service, cfg config.Config) {
	once.Do(func() {
		handlerInstance = &JobHandler{
			service:              jobService,
			ragService:           ragService,
			cfg:                  cfg,
			requestsPerNewWorker: cfg.RequestsPerNewWorker,
		}

		logJH = logx.New("job_handler")
		logRH = logx.New("request_handler")
		logJH.Info("starting job handler")
	})
}

func CreateNewJob(newJob newJobData) {
	log := logJH.With("traceId", newJob.traceId, "jobId", newJob.id)
	log.Info("creating new job", "type", newJob.jobType)
	handlerInstance.pushToJobChannel(newJob)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TraceIDKey, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

func (h *JobHandler) pushToJobChannel(newJob newJobData) {
	_job := jobModel.Job{
		Id:          newJob.id,
		TraceId:     newJob.traceId,
		JobType:     newJob.jobType,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		Payload: jobModel.JobPayload{
			DocumentID:     newJob.documentID,
			DocumentName:   newJob.documentName,
			SourcePath:     newJob.sourcePath,
			Classification: h.cfg.DataClassification,
		},
	}
	if newJob.jobType == jobModel.JobTypeIngest {
		_job.CurrentStep = jobModel.IngestInit
	} else {
		_job.CurrentStep = jobModel.DeleteProcessing
	}

	metrics.IncrementJobsInQueue()

	// blocking send so the system never accepts more than it can buffer
	h.service.JobChannel <- _job
	logJH.Info("queued new job", "jobId", _job.Id)

	// ingestion is the expensive path, so it always gets a scale-up signal;
	// everything else scales on request volume
	accurateCount := atomic.AddInt64(&h.requestCount, 1)
	if accurateCount%h.requestsPerNewWorker == 0 || _job.JobType == jobModel.JobTypeIngest {
		metrics.StartDispatcherSignalCount()
		h.service.DispatcherChannel <- true
	}
}

func newIngestJob(traceId, documentName, sourcePath string) newJobData {
	return newJobData{
		id:           utils.GetNewUUID(),
		traceId:      traceId,
		jobType:      jobModel.JobTypeIngest,
		documentID:   utils.GetNewUUID(),
		documentName: documentName,
		sourcePath:   sourcePath,
	}
}

func newDeleteJob(traceId, documentID string) newJobData {
	return newJobData{
		id:         utils.GetNewUUID(),
		traceId:    traceId,
		jobType:    jobModel.JobTypeDelete,
		documentID: documentID,
	}
}
