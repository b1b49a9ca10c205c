package jobModel

import (
	"context"
	"time"
)

type JobStatus string
type InternalStatus string
type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	IngestInit       InternalStatus = "IngestInit"
	IngestExtracting InternalStatus = "Extracting"
	IngestChunking   InternalStatus = "Chunking"
	IngestIndexing   InternalStatus = "Indexing"
	DeleteProcessing InternalStatus = "Deleting"

	Complete InternalStatus = "Complete"
	Error    InternalStatus = "Error"

	JobTypeIngest JobType = "Ingest"
	JobTypeDelete JobType = "Delete"
)

// Job tracks one asynchronous document operation. Question answering is
// synchronous and never goes through the job queue; only ingestion and
// deletion do, because they involve long-running provider calls.
type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	Payload     JobPayload     `json:"payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	DocumentID     string `json:"document_id,omitempty"`
	DocumentName   string `json:"document_name,omitempty"`
	SourcePath     string `json:"source_path,omitempty"`
	Classification string `json:"classification,omitempty"`
	ChunkCount     int    `json:"chunk_count,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}

// ConversationStore persists the answer history per conversation id. History
// entries are rendered exchanges handed back to the generation provider as
// prior context.
type ConversationStore interface {
	ValidateConversationID(ctx context.Context, id string) bool
	InitConversation(ctx context.Context, id string) error
	AppendExchange(ctx context.Context, id string, exchange Exchange) error
	GetHistory(ctx context.Context, id string) ([]string, error)
	DeleteConversation(ctx context.Context, id string) error
}

// Exchange is one question/answer turn stored in a conversation.
type Exchange struct {
	Question string   `json:"question,omitempty"`
	Answer   string   `json:"answer,omitempty"`
	Sources  []string `json:"sources,omitempty"`
}
