package worker

import (
	"context"
	"os"
	"time"

	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/domain/jobModel"
	"github.com/supplysight/ragapi/internal/metrics"
)

func executeJob(job jobModel.Job) {
	start := time.Now()

	ctxTrace := context.WithValue(context.Background(), config.TraceIDKey, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, jobTimeout)
	defer cancel()

	log := logger.With("traceId", job.TraceId, "jobId", job.Id)
	log.Debug("processing job", "type", job.JobType)

	job.Status = jobModel.JobStatusRunning
	saveJobState(ctx, job)

	switch job.JobType {
	case jobModel.JobTypeIngest:
		job = ingestDocument(ctx, job)
	case jobModel.JobTypeDelete:
		job = deleteDocument(ctx, job)
	default:
		job = failJob(job, "unknown job type")
	}

	job.EndTime = time.Now()
	saveJobState(ctx, job)
	metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	log.Debug("job finished", "status", job.Status, "duration", time.Since(start))
}

func ingestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	job.CurrentStep = jobModel.IngestExtracting
	saveJobState(ctx, job)

	chunkCount, err := _ragService.IngestDocument(ctx, job.Payload.DocumentID, job.Payload.DocumentName, job.Payload.SourcePath)
	// the upload is only needed for this one pass
	if removeErr := os.Remove(job.Payload.SourcePath); removeErr != nil {
		logger.Warn("could not remove upload", "path", job.Payload.SourcePath, "error", removeErr)
	}
	if err != nil {
		logger.Error("ingestion failed", "jobId", job.Id, "error", err)
		return failJob(job, err.Error())
	}

	job.Payload.ChunkCount = chunkCount
	job.CurrentStep = jobModel.Complete
	job.Status = jobModel.JobStatusComplete
	return job
}

func deleteDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	job.CurrentStep = jobModel.DeleteProcessing
	saveJobState(ctx, job)

	if err := _ragService.DeleteDocument(ctx, job.Payload.DocumentID); err != nil {
		logger.Error("deletion failed", "jobId", job.Id, "error", err)
		return failJob(job, err.Error())
	}

	job.CurrentStep = jobModel.Complete
	job.Status = jobModel.JobStatusComplete
	return job
}

func failJob(job jobModel.Job, message string) jobModel.Job {
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	job.Error = jobModel.JobError{
		Code:    500,
		Message: message,
	}
	return job
}

func saveJobState(ctx context.Context, job jobModel.Job) {
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.Error("could not persist job state", "jobId", job.Id, "error", err)
	}
}
