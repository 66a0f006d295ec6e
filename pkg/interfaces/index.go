package interfaces

import (
	"context"
	"io"

	"github.com/reel-ai/reel/pkg/model"
)

// VectorIndex defines the lifecycle of a remote vector index
type VectorIndex interface {
	// Ensure creates the index described by spec unless an index with the
	// same name already exists. created reports whether a new index was made.
	// An existing index with a different dimension yields model.ErrDimensionMismatch.
	Ensure(ctx context.Context, spec model.IndexSpec) (created bool, err error)

	// Upsert inserts or overwrites vectors and returns the number written
	Upsert(ctx context.Context, vectors []*model.Vector) (int, error)

	// Query returns at most topK matches ordered by descending score
	Query(ctx context.Context, vector []float32, topK int) ([]*model.Match, error)

	// Close releases connections held by the index
	Close() error
}

// RecordSource opens a tabular input file
type RecordSource interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}
