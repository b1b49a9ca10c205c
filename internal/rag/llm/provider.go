package llm

import "context"

// Request carries one generation call. Temperature is in [0,1]; History is
// optional prior conversation context, oldest first.
type Request struct {
	Prompt        string
	SystemMessage string
	Temperature   float32
	MaxTokens     int
	History       []string
}

// Provider is the generation capability: prompt in, completion out.
// Transport or quota failures surface as ProviderError and are not retried
// here.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
	// ModelName identifies the configured model for response metadata.
	ModelName() string
}
