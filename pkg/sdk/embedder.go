package searchkit

import "context"

// Embedder converts query text to a vector embedding.
// Optional: without it text searches carry no vector clause.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
