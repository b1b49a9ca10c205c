package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/domain/ragmodel"
	"github.com/supplysight/ragapi/internal/rag/llm"
	"github.com/supplysight/ragapi/pkg/logx"
	"google.golang.org/genai"
)

type llmClient struct {
	client *genai.Client
	model  string
	logger *logx.Logger
}

// NewProvider builds the Gemini generation provider.
func NewProvider(ctx context.Context, cfg config.Config, httpClient *http.Client) (llm.Provider, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.GoogleAPIKey,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, &ragmodel.ProviderError{Op: "gemini init", Err: err}
	}
	return &llmClient{
		client: c,
		model:  cfg.GeminiModel,
		logger: logx.New("llm_gemini"),
	}, nil
}

func (c *llmClient) ModelName() string { return c.model }

func (c *llmClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	log := c.logger.With("traceId", ctx.Value(config.TraceIDKey))

	contentConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.SystemMessage != "" {
		contentConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemMessage}},
		}
	}

	prompt := req.Prompt
	if len(req.History) > 0 {
		prompt = fmt.Sprintf("Prior conversation:\n%s\n\n%s", strings.Join(req.History, "\n"), prompt)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), contentConfig)
	if err != nil {
		log.Error("generation call failed", "error", err)
		return "", &ragmodel.ProviderError{Op: "generate", Err: err}
	}

	answer := result.Text()
	log.Debug("generated response", "chars", len(answer))
	return answer, nil
}
