package api

import "time"

// requests ---------------------

type AskRequest struct {
	Question       string   `json:"question" validate:"required" example:"What is the refund policy?"`
	UseAgentic     bool     `json:"use_agentic,omitempty"`
	MaxSources     int      `json:"max_sources,omitempty" example:"5"`
	Temperature    *float32 `json:"temperature,omitempty" example:"0.7"`
	MinScore       float32  `json:"min_score,omitempty" example:"0.7"`
	ConversationID string   `json:"conversation_id,omitempty"`
}

// responses --------------------

type SourceResponse struct {
	Content    string         `json:"content"`
	Source     string         `json:"source"`
	Score      float32        `json:"score"`
	DocumentID string         `json:"document_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type AskResponse struct {
	Answer         string           `json:"answer"`
	Sources        []SourceResponse `json:"sources"`
	ConversationID string           `json:"conversation_id"`
	ModelUsed      string           `json:"model_used"`
	ProcessingTime float64          `json:"processing_time"`
	AgentReasoning string           `json:"agent_reasoning,omitempty"`
	SubQueries     []string         `json:"sub_queries,omitempty"`
}

type DocumentResponse struct {
	DocumentID     string    `json:"document_id"`
	Filename       string    `json:"filename"`
	Classification string    `json:"classification"`
	ChunkCount     int       `json:"chunk_count"`
	CreatedAt      time.Time `json:"created_at"`
}

type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Count     int                `json:"count"`
}

type HistoryResponse struct {
	ConversationID string   `json:"conversation_id"`
	History        []string `json:"history"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type JobResult struct {
	Status       string `json:"status"`
	CurrentStep  string `json:"current_step,omitempty"`
	DocumentID   string `json:"document_id,omitempty"`
	DocumentName string `json:"document_name,omitempty"`
	ChunkCount   int    `json:"chunk_count,omitempty"`
}

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	Result    JobResult         `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type InitJobResponse struct {
	Id         string `json:"id"`
	DocumentID string `json:"document_id,omitempty"`
	StatusURL  string `json:"status_url"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
