package openaichat

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/domain/ragmodel"
	"github.com/supplysight/ragapi/internal/rag/llm"
	"github.com/supplysight/ragapi/pkg/logx"
)

type llmClient struct {
	api    openai.Client
	model  string
	logger *logx.Logger
}

// NewProvider builds the OpenAI chat-completion generation provider. A
// custom base URL covers Azure OpenAI deployments and compatible gateways.
func NewProvider(cfg config.Config, httpClient *http.Client) llm.Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}
	return &llmClient{
		api:    openai.NewClient(opts...),
		model:  cfg.OpenAIModel,
		logger: logx.New("llm_openai"),
	}
}

func (c *llmClient) ModelName() string { return c.model }

func (c *llmClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	log := c.logger.With("traceId", ctx.Value(config.TraceIDKey))

	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemMessage != "" {
		messages = append(messages, openai.SystemMessage(req.SystemMessage))
	}
	prompt := req.Prompt
	if len(req.History) > 0 {
		prompt = fmt.Sprintf("Prior conversation:\n%s\n\n%s", strings.Join(req.History, "\n"), prompt)
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(float64(req.Temperature)),
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
	})
	if err != nil {
		log.Error("generation call failed", "error", err)
		return "", &ragmodel.ProviderError{Op: "generate", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ragmodel.ProviderError{Op: "generate", Err: fmt.Errorf("empty completion")}
	}

	answer := resp.Choices[0].Message.Content
	log.Debug("generated response", "chars", len(answer), "tokens", resp.Usage.TotalTokens)
	return answer, nil
}
