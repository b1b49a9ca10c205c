package embedding

import "context"

// Embedder turns text into fixed-dimension vectors. The dimension is
// constant for the lifetime of an index; blank input maps to a zero vector
// of that dimension rather than failing.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch preserves input order in its output.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
