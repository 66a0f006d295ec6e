package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

type Metric string

const (
	MetricCosine     Metric = "cosine"
	MetricEuclidean  Metric = "euclidean"
	MetricDotProduct Metric = "dotproduct"
)

// Validate checks if the metric is supported by the index backends
func (m Metric) Validate() error {
	switch m {
	case MetricCosine, MetricEuclidean, MetricDotProduct:
		return nil
	default:
		return goerr.Wrap(ErrInvalidMetric, "unsupported metric", goerr.V("metric", m))
	}
}

// ParseMetric converts a user supplied metric name (case-insensitive)
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

// IndexSpec describes a vector index. Name is the idempotency key of
// index creation.
type IndexSpec struct {
	Name      string
	Dimension int
	Metric    Metric
	Cloud     string
	Region    string
}

// Validate checks the spec before it is sent to a remote service
func (s IndexSpec) Validate() error {
	if s.Name == "" {
		return goerr.New("index name is empty")
	}
	if s.Dimension <= 0 {
		return goerr.New("index dimension must be positive", goerr.V("dimension", s.Dimension))
	}
	return s.Metric.Validate()
}

// Vector is an embedding with its identifier and descriptive fields
type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]string
}

// Match is a single result of a top-K query
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]string
}

// CheckDimension returns ErrDimensionMismatch unless every vector has
// exactly dim values.
func CheckDimension(dim int, vectors ...*Vector) error {
	for _, v := range vectors {
		if len(v.Values) != dim {
			return goerr.Wrap(ErrDimensionMismatch, "vector dimension does not match index",
				goerr.V("id", v.ID),
				goerr.V("expected", dim),
				goerr.V("actual", len(v.Values)),
			)
		}
	}
	return nil
}
