package adapter

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/reel-ai/reel/pkg/model"
)

// Memory is an in-process exact vector index. It keeps the same contract
// as the remote backends and is used for offline runs and tests.
type Memory struct {
	mu      sync.RWMutex
	indexes map[string]*memoryIndex
	active  string
}

type memoryIndex struct {
	spec    model.IndexSpec
	order   []string
	vectors map[string]*model.Vector
}

func NewMemory() *Memory {
	return &Memory{
		indexes: make(map[string]*memoryIndex),
	}
}

func (m *Memory) Ensure(ctx context.Context, spec model.IndexSpec) (bool, error) {
	if err := spec.Validate(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.active = spec.Name
	if idx, ok := m.indexes[spec.Name]; ok {
		if idx.spec.Dimension != spec.Dimension {
			return false, goerr.Wrap(model.ErrDimensionMismatch, "existing index has a different dimension",
				goerr.V("index", spec.Name),
				goerr.V("existing", idx.spec.Dimension),
				goerr.V("requested", spec.Dimension),
			)
		}
		return false, nil
	}

	m.indexes[spec.Name] = &memoryIndex{
		spec:    spec,
		vectors: make(map[string]*model.Vector),
	}
	return true, nil
}

func (m *Memory) current() (*memoryIndex, error) {
	idx, ok := m.indexes[m.active]
	if !ok {
		return nil, goerr.New("index is not ensured")
	}
	return idx, nil
}

func (m *Memory) Upsert(ctx context.Context, vectors []*model.Vector) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, err := m.current()
	if err != nil {
		return 0, err
	}
	if err := model.CheckDimension(idx.spec.Dimension, vectors...); err != nil {
		return 0, err
	}

	for _, v := range vectors {
		if _, ok := idx.vectors[v.ID]; !ok {
			idx.order = append(idx.order, v.ID)
		}
		copied := *v
		copied.Values = append([]float32(nil), v.Values...)
		idx.vectors[v.ID] = &copied
	}
	return len(vectors), nil
}

func (m *Memory) Query(ctx context.Context, vector []float32, topK int) ([]*model.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, err := m.current()
	if err != nil {
		return nil, err
	}
	if len(vector) != idx.spec.Dimension {
		return nil, goerr.Wrap(model.ErrDimensionMismatch, "query vector dimension does not match index",
			goerr.V("expected", idx.spec.Dimension),
			goerr.V("actual", len(vector)),
		)
	}
	if topK <= 0 {
		return nil, nil
	}

	matches := make([]*model.Match, 0, len(idx.order))
	for _, id := range idx.order {
		v := idx.vectors[id]
		matches = append(matches, &model.Match{
			ID:       v.ID,
			Score:    score(idx.spec.Metric, vector, v.Values),
			Metadata: v.Metadata,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (m *Memory) Close() error { return nil }

// score returns a similarity where larger is closer for every metric
func score(metric model.Metric, a, b []float32) float32 {
	switch metric {
	case model.MetricDotProduct:
		return dot(a, b)
	case model.MetricEuclidean:
		var sum float64
		for i := range a {
			d := float64(a[i] - b[i])
			sum += d * d
		}
		return float32(1 / (1 + math.Sqrt(sum)))
	default:
		na, nb := math.Sqrt(float64(dot(a, a))), math.Sqrt(float64(dot(b, b)))
		if na == 0 || nb == 0 {
			return 0
		}
		return float32(float64(dot(a, b)) / (na * nb))
	}
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
