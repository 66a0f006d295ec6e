package movie

import (
	"io"
	"os"

	"github.com/reel-ai/reel/pkg/interfaces"
	"github.com/reel-ai/reel/pkg/model"
)

const (
	DefaultIndexName = "movie"
	DefaultCloud     = "aws"
	DefaultRegion    = "us-east-1"
	DefaultTopK      = 10
	DefaultBatchSize = 1

	// metadata keys stored with every vector
	MetadataTitle    = "title"
	MetadataOverview = "overview"
)

// UseCase provides the movie recommendation pipeline: ingest records into a
// vector index and search it with a free-text description.
type UseCase struct {
	embedder  interfaces.Embedder
	index     interfaces.VectorIndex
	output    io.Writer
	indexName string
	metric    model.Metric
	cloud     string
	region    string
	batchSize int

	// set by Open when the embedder does not know its dimension; Search
	// then ensures the index with the length of the first query vector
	ensurePending bool
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithOutput sets the output writer
func WithOutput(w io.Writer) Option {
	return func(uc *UseCase) {
		uc.output = w
	}
}

func WithIndexName(name string) Option {
	return func(uc *UseCase) {
		uc.indexName = name
	}
}

func WithMetric(m model.Metric) Option {
	return func(uc *UseCase) {
		uc.metric = m
	}
}

// WithServerless sets the cloud and region of a newly created index
func WithServerless(cloud, region string) Option {
	return func(uc *UseCase) {
		uc.cloud = cloud
		uc.region = region
	}
}

// WithBatchSize sets how many vectors go into one upsert request
func WithBatchSize(n int) Option {
	return func(uc *UseCase) {
		if n > 0 {
			uc.batchSize = n
		}
	}
}

// New creates a new movie UseCase instance
func New(
	embedder interfaces.Embedder,
	index interfaces.VectorIndex,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		embedder:  embedder,
		index:     index,
		output:    os.Stdout,
		indexName: DefaultIndexName,
		metric:    model.MetricCosine,
		cloud:     DefaultCloud,
		region:    DefaultRegion,
		batchSize: DefaultBatchSize,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// IndexSpec returns the spec used to ensure the index. Its dimension follows
// the embedding model.
func (u *UseCase) IndexSpec() model.IndexSpec {
	return model.IndexSpec{
		Name:      u.indexName,
		Dimension: u.embedder.Dimension(),
		Metric:    u.metric,
		Cloud:     u.cloud,
		Region:    u.region,
	}
}
