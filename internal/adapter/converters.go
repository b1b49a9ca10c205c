package adapter

import (
	"fmt"
	"time"

	"github.com/supplysight/ragapi/internal/api"
	"github.com/supplysight/ragapi/internal/domain/jobModel"
	"github.com/supplysight/ragapi/internal/rag"
	"github.com/supplysight/ragapi/internal/rag/vectorstore"
)

func ToInitJobResponse(jobID, documentID string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:         jobID,
		DocumentID: documentID,
		StatusURL:  fmt.Sprintf("status/%s", jobID),
	}
}

func ToJobResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	return api.JobResponse{
		Id:        job.Id,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result: api.JobResult{
			Status:       string(job.Status),
			CurrentStep:  string(job.CurrentStep),
			DocumentID:   job.Payload.DocumentID,
			DocumentName: job.Payload.DocumentName,
			ChunkCount:   job.Payload.ChunkCount,
		},
	}
}

func ToAskResponse(result rag.AskResult) api.AskResponse {
	sources := make([]api.SourceResponse, 0, len(result.Sources))
	for _, s := range result.Sources {
		sources = append(sources, api.SourceResponse{
			Content:    s.Content,
			Source:     s.Source,
			Score:      s.Score,
			DocumentID: s.DocumentID,
			Metadata:   s.Metadata,
		})
	}

	return api.AskResponse{
		Answer:         result.Answer,
		Sources:        sources,
		ConversationID: result.ConversationID,
		ModelUsed:      result.ModelUsed,
		ProcessingTime: result.ProcessingTime.Seconds(),
		AgentReasoning: result.Reasoning,
		SubQueries:     result.SubQuestions,
	}
}

func ToDocumentResponse(info vectorstore.DocumentInfo) api.DocumentResponse {
	return api.DocumentResponse{
		DocumentID:     info.DocumentID,
		Filename:       info.Filename,
		Classification: info.Classification,
		ChunkCount:     info.ChunkCount,
		CreatedAt:      info.CreatedAt,
	}
}

func ToDocumentListResponse(infos []vectorstore.DocumentInfo) api.DocumentListResponse {
	documents := make([]api.DocumentResponse, 0, len(infos))
	for _, info := range infos {
		documents = append(documents, ToDocumentResponse(info))
	}
	return api.DocumentListResponse{
		Documents: documents,
		Count:     len(documents),
	}
}

func BadRequest(id string, message string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.JobResult{
			Status: string(jobModel.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: message,
			Retry:   false,
		},
	}
}
