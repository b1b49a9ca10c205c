package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/domain/ragmodel"
	"github.com/supplysight/ragapi/internal/rag/embedding"
	"github.com/supplysight/ragapi/pkg/logx"
	"google.golang.org/genai"
)

type client struct {
	genAi     *genai.Client
	model     string
	dimension int32
	logger    *logx.Logger
}

// NewEmbedder builds the Gemini embedding provider.
func NewEmbedder(ctx context.Context, cfg config.Config, httpClient *http.Client) (embedding.Embedder, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.GoogleAPIKey,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, &ragmodel.ProviderError{Op: "gemini embedder init", Err: err}
	}
	return &client{
		genAi:     c,
		model:     cfg.GeminiEmbeddingModel,
		dimension: cfg.EmbeddingDimensions,
		logger:    logx.New("gemini_embedding"),
	}, nil
}

func (c *client) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.ReplaceAll(text, "\n", " ")
	if strings.TrimSpace(text) == "" {
		c.logger.Warn("blank text given for embedding, returning zero vector")
		return make([]float32, c.dimension), nil
	}

	result, err := c.doCall(ctx, genai.Text(text))
	if err != nil {
		if shouldRetry(err) {
			c.logger.Warn("embedding rate limit hit, retrying once", "error", err)
			time.Sleep(5 * time.Second)
			result, err = c.doCall(ctx, genai.Text(text))
		}
		if err != nil {
			c.logger.Error("embedding call failed", "error", err)
			return nil, &ragmodel.ProviderError{Op: "embed", Err: err}
		}
	}
	vector, err := firstVector(result)
	if err != nil {
		return nil, &ragmodel.ProviderError{Op: "embed", Err: err}
	}
	return vector, nil
}

func (c *client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	// blank entries never reach the provider; they get zero vectors in place
	var contents []*genai.Content
	var positions []int
	for i, t := range texts {
		t = strings.ReplaceAll(t, "\n", " ")
		if strings.TrimSpace(t) == "" {
			vectors[i] = make([]float32, c.dimension)
			continue
		}
		contents = append(contents, &genai.Content{Parts: []*genai.Part{{Text: t}}})
		positions = append(positions, i)
	}
	if len(contents) == 0 {
		return vectors, nil
	}

	result, err := c.doCall(ctx, contents)
	if err != nil {
		if shouldRetry(err) {
			c.logger.Warn("batch embedding rate limit hit, retrying once", "error", err)
			time.Sleep(5 * time.Second)
			result, err = c.doCall(ctx, contents)
		}
		if err != nil {
			c.logger.Error("batch embedding call failed", "error", err, "texts", len(contents))
			return nil, &ragmodel.ProviderError{Op: "embed batch", Err: err}
		}
	}

	if result == nil || len(result.Embeddings) != len(contents) {
		got := 0
		if result != nil {
			got = len(result.Embeddings)
		}
		err := fmt.Errorf("provider returned %d embeddings for %d inputs", got, len(contents))
		return nil, &ragmodel.ProviderError{Op: "embed batch", Err: err}
	}
	for j, emb := range result.Embeddings {
		vectors[positions[j]] = emb.Values
	}
	return vectors, nil
}

// firstVector extracts the single embedding of a one-text call. A non-error
// response with no embeddings is still a provider failure.
func firstVector(result *genai.EmbedContentResponse) ([]float32, error) {
	if result == nil || len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, errors.New("provider returned no embeddings")
	}
	return result.Embeddings[0].Values, nil
}

func (c *client) doCall(ctx context.Context, contents []*genai.Content) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &c.dimension,
		TaskType:             "RETRIEVAL_DOCUMENT",
	})
}
