package interfaces

import (
	"context"

	"github.com/reel-ai/reel/pkg/model"
)

// Embedder converts text into a fixed-length vector
type Embedder interface {
	// Embed returns the embedding of text. The length of the result equals Dimension()
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the dimensionality of the model
	Dimension() int

	// Model returns the embedding model name
	Model() string
}

// Generator produces a single text reply from role-tagged messages
type Generator interface {
	Generate(ctx context.Context, messages []model.Message) (string, error)
}
