package adapter

import (
	"context"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"github.com/reel-ai/reel/pkg/model"
	"github.com/reel-ai/reel/pkg/utils/logging"
)

const (
	milvusFieldID     = "id"
	milvusFieldVector = "vector"
	milvusMaxVarChar  = 65535
)

// MilvusConfig points at a Milvus or Zilliz endpoint
type MilvusConfig struct {
	Address string
	APIKey  string
	// MetadataFields lists metadata keys stored as VarChar columns
	MetadataFields []string
}

// Milvus implements interfaces.VectorIndex with one Milvus collection per index
type Milvus struct {
	client *milvusclient.Client
	fields []string
	spec   *model.IndexSpec
}

func NewMilvus(ctx context.Context, cfg MilvusConfig) (*Milvus, error) {
	if cfg.Address == "" {
		return nil, goerr.New("milvus address is required")
	}

	client, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: cfg.Address,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect milvus", goerr.V("address", cfg.Address))
	}

	return &Milvus{
		client: client,
		fields: cfg.MetadataFields,
	}, nil
}

func milvusMetric(m model.Metric) entity.MetricType {
	switch m {
	case model.MetricEuclidean:
		return entity.L2
	case model.MetricDotProduct:
		return entity.IP
	default:
		return entity.COSINE
	}
}

func (m *Milvus) Ensure(ctx context.Context, spec model.IndexSpec) (bool, error) {
	if err := spec.Validate(); err != nil {
		return false, err
	}

	exists, err := m.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(spec.Name))
	if err != nil {
		return false, goerr.Wrap(err, "failed to check milvus collection", goerr.V("collection", spec.Name))
	}

	if exists {
		if err := m.checkDimension(ctx, spec); err != nil {
			return false, err
		}
	} else {
		schema := entity.NewSchema().
			WithName(spec.Name).
			WithField(entity.NewField().
				WithName(milvusFieldID).
				WithDataType(entity.FieldTypeVarChar).
				WithIsPrimaryKey(true).
				WithMaxLength(255)).
			WithField(entity.NewField().
				WithName(milvusFieldVector).
				WithDataType(entity.FieldTypeFloatVector).
				WithDim(int64(spec.Dimension)))
		for _, name := range m.fields {
			schema.WithField(entity.NewField().
				WithName(name).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(milvusMaxVarChar))
		}

		if err := m.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(spec.Name, schema)); err != nil {
			return false, goerr.Wrap(err, "failed to create milvus collection", goerr.V("collection", spec.Name))
		}

		idx := index.NewHNSWIndex(milvusMetric(spec.Metric), 16, 200)
		if _, err := m.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(spec.Name, milvusFieldVector, idx)); err != nil {
			return false, goerr.Wrap(err, "failed to create milvus index", goerr.V("collection", spec.Name))
		}
		logging.From(ctx).Info("collection created", "collection", spec.Name, "dimension", spec.Dimension)
	}

	task, err := m.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(spec.Name))
	if err != nil {
		return false, goerr.Wrap(err, "failed to load milvus collection", goerr.V("collection", spec.Name))
	}
	if err := task.Await(ctx); err != nil {
		return false, goerr.Wrap(err, "failed to wait for milvus collection load", goerr.V("collection", spec.Name))
	}

	m.spec = &spec
	return !exists, nil
}

func (m *Milvus) checkDimension(ctx context.Context, spec model.IndexSpec) error {
	coll, err := m.client.DescribeCollection(ctx, milvusclient.NewDescribeCollectionOption(spec.Name))
	if err != nil {
		return goerr.Wrap(err, "failed to describe milvus collection", goerr.V("collection", spec.Name))
	}
	if coll.Schema == nil {
		return nil
	}

	for _, f := range coll.Schema.Fields {
		if f.Name != milvusFieldVector {
			continue
		}
		dim, err := strconv.Atoi(f.TypeParams["dim"])
		if err != nil {
			return nil
		}
		if dim != spec.Dimension {
			return goerr.Wrap(model.ErrDimensionMismatch, "existing collection has a different dimension",
				goerr.V("collection", spec.Name),
				goerr.V("existing", dim),
				goerr.V("requested", spec.Dimension),
			)
		}
	}
	return nil
}

func (m *Milvus) Upsert(ctx context.Context, vectors []*model.Vector) (int, error) {
	if m.spec == nil {
		return 0, goerr.New("index is not ensured")
	}
	if len(vectors) == 0 {
		return 0, nil
	}
	if err := model.CheckDimension(m.spec.Dimension, vectors...); err != nil {
		return 0, err
	}

	ids := make([]string, len(vectors))
	values := make([][]float32, len(vectors))
	meta := make(map[string][]string, len(m.fields))
	for i, v := range vectors {
		ids[i] = v.ID
		values[i] = v.Values
		for _, name := range m.fields {
			meta[name] = append(meta[name], v.Metadata[name])
		}
	}

	opt := milvusclient.NewColumnBasedInsertOption(m.spec.Name).
		WithVarcharColumn(milvusFieldID, ids).
		WithFloatVectorColumn(milvusFieldVector, m.spec.Dimension, values)
	for _, name := range m.fields {
		opt.WithVarcharColumn(name, meta[name])
	}

	result, err := m.client.Upsert(ctx, opt)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to upsert milvus rows", goerr.V("count", len(vectors)))
	}
	return int(result.UpsertCount), nil
}

func (m *Milvus) Query(ctx context.Context, vector []float32, topK int) ([]*model.Match, error) {
	if m.spec == nil {
		return nil, goerr.New("index is not ensured")
	}
	if topK <= 0 {
		return nil, nil
	}
	if len(vector) != m.spec.Dimension {
		return nil, goerr.Wrap(model.ErrDimensionMismatch, "query vector length differs from index",
			goerr.V("expected", m.spec.Dimension),
			goerr.V("actual", len(vector)),
		)
	}

	opt := milvusclient.NewSearchOption(m.spec.Name, topK, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(milvusFieldVector).
		WithOutputFields(m.fields...)
	results, err := m.client.Search(ctx, opt)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search milvus collection", goerr.V("collection", m.spec.Name))
	}
	if len(results) == 0 {
		return nil, nil
	}

	rs := results[0]
	matches := make([]*model.Match, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		id, err := rs.IDs.GetAsString(i)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read milvus id", goerr.V("row", i))
		}

		meta := make(map[string]string, len(m.fields))
		for _, name := range m.fields {
			col := rs.Fields.GetColumn(name)
			if col == nil {
				continue
			}
			if s, err := col.GetAsString(i); err == nil {
				meta[name] = s
			}
		}

		var score float32
		if i < len(rs.Scores) {
			score = rs.Scores[i]
		}
		matches = append(matches, &model.Match{ID: id, Score: score, Metadata: meta})
	}
	return matches, nil
}

func (m *Milvus) Close() error {
	if err := m.client.Close(context.Background()); err != nil {
		return goerr.Wrap(err, "failed to close milvus client")
	}
	return nil
}
