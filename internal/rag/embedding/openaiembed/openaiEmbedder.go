package openaiembed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/domain/ragmodel"
	"github.com/supplysight/ragapi/internal/rag/embedding"
	"github.com/supplysight/ragapi/pkg/logx"
)

type client struct {
	api       openai.Client
	model     string
	dimension int32
	logger    *logx.Logger
}

// NewEmbedder builds the OpenAI embedding provider. A custom base URL covers
// Azure OpenAI deployments and compatible gateways.
func NewEmbedder(cfg config.Config, httpClient *http.Client) embedding.Embedder {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}
	return &client{
		api:       openai.NewClient(opts...),
		model:     cfg.OpenAIEmbeddingModel,
		dimension: cfg.EmbeddingDimensions,
		logger:    logx.New("openai_embedding"),
	}
}

func (c *client) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.ReplaceAll(text, "\n", " ")
	if strings.TrimSpace(text) == "" {
		c.logger.Warn("blank text given for embedding, returning zero vector")
		return make([]float32, c.dimension), nil
	}

	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		c.logger.Error("embedding call failed", "error", err)
		return nil, &ragmodel.ProviderError{Op: "embed", Err: err}
	}
	if len(resp.Data) == 0 {
		return nil, &ragmodel.ProviderError{Op: "embed", Err: errors.New("provider returned no embeddings")}
	}
	return toFloat32(resp.Data[0].Embedding), nil
}

func (c *client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var inputs []string
	var positions []int
	for i, t := range texts {
		t = strings.ReplaceAll(t, "\n", " ")
		if strings.TrimSpace(t) == "" {
			vectors[i] = make([]float32, c.dimension)
			continue
		}
		inputs = append(inputs, t)
		positions = append(positions, i)
	}
	if len(inputs) == 0 {
		return vectors, nil
	}

	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
	})
	if err != nil {
		c.logger.Error("batch embedding call failed", "error", err, "texts", len(inputs))
		return nil, &ragmodel.ProviderError{Op: "embed batch", Err: err}
	}

	if err := placeByIndex(vectors, positions, resp.Data); err != nil {
		return nil, &ragmodel.ProviderError{Op: "embed batch", Err: err}
	}
	return vectors, nil
}

// placeByIndex maps response items back to their request slots through the
// explicit Index field, so ordering never depends on response order.
func placeByIndex(vectors [][]float32, positions []int, data []openai.Embedding) error {
	for _, item := range data {
		idx := int(item.Index)
		if idx < 0 || idx >= len(positions) {
			return fmt.Errorf("embedding index %d out of range for %d inputs", item.Index, len(positions))
		}
		vectors[positions[idx]] = toFloat32(item.Embedding)
	}
	return nil
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}
