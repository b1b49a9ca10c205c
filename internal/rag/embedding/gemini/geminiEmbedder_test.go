package gemini

import (
	"testing"

	"google.golang.org/genai"
)

func TestFirstVector_EmptyResponse(t *testing.T) {
	tests := []struct {
		name   string
		result *genai.EmbedContentResponse
	}{
		{"nil response", nil},
		{"no embeddings", &genai.EmbedContentResponse{}},
		{"nil embedding", &genai.EmbedContentResponse{Embeddings: []*genai.ContentEmbedding{nil}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := firstVector(tt.result); err == nil {
				t.Error("expected an error, got nil")
			}
		})
	}
}

func TestFirstVector_ReturnsValues(t *testing.T) {
	result := &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: []float32{0.1, 0.2}}},
	}

	vector, err := firstVector(result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vector) != 2 || vector[0] != 0.1 {
		t.Errorf("vector = %v, want [0.1 0.2]", vector)
	}
}
