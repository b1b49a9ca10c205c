package ragmodel

import (
	"fmt"
	"time"
)

// Document is the unit of ingestion. It is owned by the indexed store from
// ingestion until explicit deletion; chunks are its persisted representation.
type Document struct {
	ID             string    `json:"document_id"`
	Filename       string    `json:"filename"`
	Classification string    `json:"classification"`
	TotalChunks    int       `json:"total_chunks"`
	CreatedAt      time.Time `json:"created_at"`
}

// Chunk is a bounded text span of one document: the unit of embedding and
// retrieval. All chunks of a document share the document id as partition key.
type Chunk struct {
	ID         string        `json:"id"`
	DocumentID string        `json:"document_id"`
	Index      int           `json:"chunk_index"`
	Content    string        `json:"content"`
	Offset     int           `json:"offset"`
	Embedding  []float32     `json:"embedding,omitempty"`
	Metadata   ChunkMetadata `json:"metadata"`
}

type ChunkMetadata struct {
	Filename       string    `json:"filename"`
	Classification string    `json:"classification"`
	CharCount      int       `json:"char_count"`
	TotalChunks    int       `json:"total_chunks"`
	CreatedAt      time.Time `json:"created_at"`
}

// ChunkID builds the canonical chunk identifier. Every chunk stored under a
// document must use this form.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// SourceMatch is one retrieval result. The score domain depends on the
// retrieval method: vector similarity for semantic matches, the fixed
// keyword-match score for the degraded substring path.
type SourceMatch struct {
	Content    string         `json:"content"`
	Source     string         `json:"source"`
	Score      float32        `json:"score"`
	Metadata   map[string]any `json:"metadata"`
	DocumentID string         `json:"document_id"`
}

// SubQueryResult pairs a decomposed sub-question with its generated answer.
// It lives only for the duration of one orchestrator invocation.
type SubQueryResult struct {
	Question string `json:"query"`
	Answer   string `json:"answer"`
}

// PipelineResult is the output of one single-pass retrieval + generation.
type PipelineResult struct {
	Answer         string        `json:"answer"`
	Sources        []SourceMatch `json:"sources"`
	ConversationID string        `json:"conversation_id"`
}

// AgentResult is the output of one agentic query: the synthesized answer,
// the ranked top sources, a human-readable reasoning trace and the
// sub-questions that were executed.
type AgentResult struct {
	Answer         string        `json:"answer"`
	Sources        []SourceMatch `json:"sources"`
	Reasoning      string        `json:"reasoning"`
	SubQuestions   []string      `json:"sub_queries"`
	ConversationID string        `json:"conversation_id"`
}
