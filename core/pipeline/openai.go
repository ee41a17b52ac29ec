package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
)

// OpenAIEmbedder creates an embedder backed by the OpenAI embeddings API.
// The API key is read from the OPENAI_API_KEY environment variable by the
// client. An alternative to DefaultEmbedder when no local model should run.
func OpenAIEmbedder(embeddingModel string) EmbedFunc {
	client := openai.NewClient()

	return func(text string) ([]float32, error) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		response, err := client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
			Model: openai.EmbeddingModel(embeddingModel),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}

		if len(response.Data) != 1 {
			return nil, fmt.Errorf("unexpected embedding result size: got %d want 1", len(response.Data))
		}

		embedding := make([]float32, len(response.Data[0].Embedding))
		for i, v := range response.Data[0].Embedding {
			embedding[i] = float32(v)
		}
		return embedding, nil
	}
}
