package movie_test

import (
	"bytes"
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/reel-ai/reel/pkg/adapter"
	"github.com/reel-ai/reel/pkg/model"
	"github.com/reel-ai/reel/pkg/usecase/movie"
)

// mockEmbedder maps text to a deterministic vector
type mockEmbedder struct {
	dim   int
	calls []string
	err   error
	// unknownDim makes Dimension report 0 like an unlisted model
	unknownDim bool
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls = append(m.calls, text)
	if m.err != nil {
		return nil, m.err
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, m.dim)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed>>33)%1000) / 1000
	}
	return vec, nil
}

func (m *mockEmbedder) Dimension() int {
	if m.unknownDim {
		return 0
	}
	return m.dim
}
func (m *mockEmbedder) Model() string  { return "mock" }

// recordingIndex wraps the in-memory index and records calls
type recordingIndex struct {
	*adapter.Memory
	specs   []model.IndexSpec
	batches [][]*model.Vector
}

func newRecordingIndex() *recordingIndex {
	return &recordingIndex{Memory: adapter.NewMemory()}
}

func (r *recordingIndex) Ensure(ctx context.Context, spec model.IndexSpec) (bool, error) {
	r.specs = append(r.specs, spec)
	return r.Memory.Ensure(ctx, spec)
}

func (r *recordingIndex) Upsert(ctx context.Context, vectors []*model.Vector) (int, error) {
	r.batches = append(r.batches, vectors)
	return r.Memory.Upsert(ctx, vectors)
}

var sampleRecords = []*model.Record{
	{Title: "Heat", Description: "A crew of professional thieves plans a final heist."},
	{Title: "Up", Description: "An old man ties balloons to his house."},
	{Title: "Ran", Description: ""},
	{Title: "", Description: ""},
}

func TestIngest(t *testing.T) {
	ctx := context.Background()
	embedder := &mockEmbedder{dim: 8}
	index := newRecordingIndex()
	uc := movie.New(embedder, index)

	result, err := uc.Ingest(ctx, sampleRecords)
	gt.NoError(t, err)
	gt.True(t, result.Created)
	gt.Equal(t, result.Upserted, 3)
	gt.Equal(t, result.Skipped, 1)

	t.Run("index spec follows the embedder", func(t *testing.T) {
		gt.A(t, index.specs).Length(1)
		gt.Equal(t, index.specs[0], model.IndexSpec{
			Name:      "movie",
			Dimension: 8,
			Metric:    model.MetricCosine,
			Cloud:     "aws",
			Region:    "us-east-1",
		})
	})

	t.Run("empty description falls back to the title", func(t *testing.T) {
		gt.A(t, embedder.calls).Length(3)
		gt.Equal(t, embedder.calls[2], "Ran")
	})

	t.Run("one vector per request by default", func(t *testing.T) {
		gt.A(t, index.batches).Length(3)
		gt.Equal(t, index.batches[0][0].ID, "0")
		gt.Equal(t, index.batches[2][0].ID, "2")
		gt.Equal(t, index.batches[2][0].Metadata["title"], "Ran")
		gt.Equal(t, index.batches[2][0].Metadata["overview"], "")
	})

	t.Run("second ingest does not recreate the index", func(t *testing.T) {
		result, err := uc.Ingest(ctx, sampleRecords)
		gt.NoError(t, err)
		gt.False(t, result.Created)
		gt.A(t, index.specs).Length(2)
	})
}

func TestIngestBatchSize(t *testing.T) {
	index := newRecordingIndex()
	uc := movie.New(&mockEmbedder{dim: 4}, index, movie.WithBatchSize(2))

	_, err := uc.Ingest(context.Background(), sampleRecords[:3])
	gt.NoError(t, err)
	gt.A(t, index.batches).Length(2)
	gt.A(t, index.batches[0]).Length(2)
	gt.A(t, index.batches[1]).Length(1)
}

func TestIngestEmbedFailureStopsBeforeIndex(t *testing.T) {
	index := newRecordingIndex()
	uc := movie.New(&mockEmbedder{dim: 4, err: errors.New("rate limited")}, index)

	_, err := uc.Ingest(context.Background(), sampleRecords)
	gt.Error(t, err)
	gt.A(t, index.specs).Length(0)
}

func TestIngestDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	index := newRecordingIndex()

	_, err := movie.New(&mockEmbedder{dim: 4}, index).Ingest(ctx, sampleRecords)
	gt.NoError(t, err)

	_, err = movie.New(&mockEmbedder{dim: 6}, index).Ingest(ctx, sampleRecords)
	gt.Error(t, err).Is(model.ErrDimensionMismatch)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	embedder := &mockEmbedder{dim: 16}
	uc := movie.New(embedder, adapter.NewMemory())

	_, err := uc.Ingest(ctx, sampleRecords)
	gt.NoError(t, err)

	t.Run("identical text ranks first", func(t *testing.T) {
		matches, err := uc.Search(ctx, sampleRecords[1].Description, 10)
		gt.NoError(t, err)
		gt.A(t, matches).Length(3)
		gt.Equal(t, matches[0].ID, "1")
		gt.Equal(t, matches[0].Metadata["title"], "Up")
	})

	t.Run("result length is bounded by topK", func(t *testing.T) {
		for _, k := range []int{1, 2, 3} {
			matches, err := uc.Search(ctx, "a heist movie", k)
			gt.NoError(t, err)
			gt.True(t, len(matches) <= k)
		}
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := uc.Search(ctx, "  ", 10)
		gt.Error(t, err)
	})
}

func TestSearchAfterOpen(t *testing.T) {
	ctx := context.Background()
	index := adapter.NewMemory()
	embedder := &mockEmbedder{dim: 8}

	_, err := movie.New(embedder, index).Ingest(ctx, sampleRecords)
	gt.NoError(t, err)

	uc := movie.New(embedder, index)
	gt.NoError(t, uc.Open(ctx))
	matches, err := uc.Search(ctx, "Ran", 1)
	gt.NoError(t, err)
	gt.A(t, matches).Length(1)
	gt.Equal(t, matches[0].ID, "2")
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	uc := movie.New(&mockEmbedder{dim: 2}, adapter.NewMemory(), movie.WithOutput(&buf))

	gt.NoError(t, uc.Print([]*model.Match{
		{ID: "0", Score: 0.91234567, Metadata: map[string]string{"title": "Heat"}},
		{ID: "1", Score: 0.5, Metadata: map[string]string{"title": "Up"}},
	}))

	lines := strings.Split(buf.String(), "\n")
	gt.Equal(t, lines[0], "")
	gt.Equal(t, lines[1], "Top Recommended Movies:")
	gt.Equal(t, lines[2], "")
	gt.Equal(t, lines[3], "Heat  (score: 0.9123)")
	gt.Equal(t, lines[4], "Up  (score: 0.5)")
}

func TestFormatScore(t *testing.T) {
	gt.Equal(t, movie.FormatScore(1), "1.0")
	gt.Equal(t, movie.FormatScore(0.5), "0.5")
	gt.Equal(t, movie.FormatScore(0.123456), "0.1235")
	gt.Equal(t, movie.FormatScore(0), "0.0")
}

func TestSearchWithUnknownDimension(t *testing.T) {
	ctx := context.Background()
	index := newRecordingIndex()
	embedder := &mockEmbedder{dim: 4, unknownDim: true}

	result, err := movie.New(embedder, index).Ingest(ctx, sampleRecords)
	gt.NoError(t, err)
	gt.True(t, result.Created)
	gt.Equal(t, index.specs[0].Dimension, 4)

	uc := movie.New(embedder, index)
	gt.NoError(t, uc.Open(ctx))
	gt.A(t, index.specs).Length(1)

	matches, err := uc.Search(ctx, "Ran", 1)
	gt.NoError(t, err)
	gt.A(t, matches).Length(1)
	gt.Equal(t, matches[0].ID, "2")
	gt.A(t, index.specs).Length(2)
	gt.Equal(t, index.specs[1].Dimension, 4)

	_, err = uc.Search(ctx, "Up", 1)
	gt.NoError(t, err)
	gt.A(t, index.specs).Length(2)
}
