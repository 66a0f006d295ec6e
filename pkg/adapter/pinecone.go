package adapter

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/reel-ai/reel/pkg/model"
	"github.com/reel-ai/reel/pkg/utils/logging"
	"google.golang.org/protobuf/types/known/structpb"
)

// PineconeConfig holds the secret used to reach the Pinecone control plane
type PineconeConfig struct {
	APIKey    string
	Namespace string
}

// Pinecone implements interfaces.VectorIndex with a serverless Pinecone index
type Pinecone struct {
	client    *pinecone.Client
	namespace string
	conn      *pinecone.IndexConnection
	dimension int

	readyTimeout time.Duration
	pollInterval time.Duration
}

type PineconeOption func(*Pinecone)

// WithReadyTimeout bounds how long Ensure waits for a new index to be ready
func WithReadyTimeout(d time.Duration) PineconeOption {
	return func(p *Pinecone) {
		p.readyTimeout = d
	}
}

func (p *Pinecone) ReadyTimeout() time.Duration { return p.readyTimeout }

func NewPinecone(cfg PineconeConfig, opts ...PineconeOption) (*Pinecone, error) {
	if cfg.APIKey == "" {
		return nil, goerr.Wrap(model.ErrMissingSecret, "Pinecone API key is empty")
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: cfg.APIKey,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create pinecone client")
	}

	p := &Pinecone{
		client:       client,
		namespace:    cfg.Namespace,
		readyTimeout: 5 * time.Minute,
		pollInterval: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Pinecone) Ensure(ctx context.Context, spec model.IndexSpec) (bool, error) {
	if err := spec.Validate(); err != nil {
		return false, err
	}

	indexes, err := p.client.ListIndexes(ctx)
	if err != nil {
		return false, goerr.Wrap(err, "failed to list pinecone indexes")
	}

	var existing *pinecone.Index
	for _, idx := range indexes {
		if idx.Name == spec.Name {
			existing = idx
			break
		}
	}

	created := false
	if existing == nil {
		dim := int32(spec.Dimension)
		metric := pinecone.IndexMetric(spec.Metric)
		idx, err := p.client.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
			Name:      spec.Name,
			Dimension: &dim,
			Metric:    &metric,
			Cloud:     pinecone.Cloud(spec.Cloud),
			Region:    spec.Region,
		})
		if err != nil {
			return false, goerr.Wrap(err, "failed to create pinecone index", goerr.V("index", spec.Name))
		}
		logging.From(ctx).Info("index created", "index", spec.Name, "dimension", spec.Dimension, "metric", spec.Metric)

		if existing, err = p.waitReady(ctx, idx.Name); err != nil {
			return false, err
		}
		created = true
	} else if existing.Dimension != nil && int(*existing.Dimension) != spec.Dimension {
		return false, goerr.Wrap(model.ErrDimensionMismatch, "existing index has a different dimension",
			goerr.V("index", spec.Name),
			goerr.V("existing", *existing.Dimension),
			goerr.V("requested", spec.Dimension),
		)
	}

	if p.conn != nil {
		_ = p.conn.Close()
	}
	conn, err := p.client.Index(pinecone.NewIndexConnParams{
		Host:      existing.Host,
		Namespace: p.namespace,
	})
	if err != nil {
		return false, goerr.Wrap(err, "failed to connect pinecone index", goerr.V("host", existing.Host))
	}
	p.conn = conn
	p.dimension = spec.Dimension

	return created, nil
}

func (p *Pinecone) waitReady(ctx context.Context, name string) (*pinecone.Index, error) {
	ctx, cancel := context.WithTimeout(ctx, p.readyTimeout)
	defer cancel()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		idx, err := p.client.DescribeIndex(ctx, name)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to describe pinecone index", goerr.V("index", name))
		}
		if idx.Status != nil && idx.Status.Ready {
			return idx, nil
		}

		select {
		case <-ctx.Done():
			return nil, goerr.Wrap(ctx.Err(), "pinecone index did not become ready", goerr.V("index", name))
		case <-ticker.C:
		}
	}
}

func (p *Pinecone) Upsert(ctx context.Context, vectors []*model.Vector) (int, error) {
	if p.conn == nil {
		return 0, goerr.New("index is not ensured")
	}
	if err := model.CheckDimension(p.dimension, vectors...); err != nil {
		return 0, err
	}

	batch := make([]*pinecone.Vector, 0, len(vectors))
	for _, v := range vectors {
		meta, err := toStruct(v.Metadata)
		if err != nil {
			return 0, goerr.Wrap(err, "failed to convert metadata", goerr.V("id", v.ID))
		}
		values := v.Values
		batch = append(batch, &pinecone.Vector{
			Id:       v.ID,
			Values:   &values,
			Metadata: meta,
		})
	}

	n, err := p.conn.UpsertVectors(ctx, batch)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to upsert vectors", goerr.V("count", len(batch)))
	}
	return int(n), nil
}

func (p *Pinecone) Query(ctx context.Context, vector []float32, topK int) ([]*model.Match, error) {
	if p.conn == nil {
		return nil, goerr.New("index is not ensured")
	}
	if topK <= 0 {
		return nil, nil
	}

	resp, err := p.conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query pinecone index", goerr.V("top_k", topK))
	}

	matches := make([]*model.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		matches = append(matches, &model.Match{
			ID:       m.Vector.Id,
			Score:    m.Score,
			Metadata: fromStruct(m.Vector.Metadata),
		})
	}
	return matches, nil
}

func (p *Pinecone) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Close(); err != nil {
		return goerr.Wrap(err, "failed to close pinecone connection")
	}
	p.conn = nil
	return nil
}

func toStruct(meta map[string]string) (*structpb.Struct, error) {
	fields := make(map[string]any, len(meta))
	for k, v := range meta {
		fields[k] = v
	}
	return structpb.NewStruct(fields)
}

func fromStruct(s *structpb.Struct) map[string]string {
	if s == nil {
		return nil
	}
	meta := make(map[string]string, len(s.GetFields()))
	for k, v := range s.GetFields() {
		meta[k] = v.GetStringValue()
	}
	return meta
}
