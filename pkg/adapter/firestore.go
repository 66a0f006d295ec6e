package adapter

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/reel-ai/reel/pkg/model"
	"github.com/reel-ai/reel/pkg/utils/logging"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	firestoreIndexCollection  = "reel_indexes"
	firestoreVectorCollection = "vectors"
	firestoreEmbeddingField   = "embedding"
	firestoreMetadataField    = "metadata"
	firestoreDistanceField    = "distance"
)

// FirestoreConfig selects the project and database holding the index
type FirestoreConfig struct {
	ProjectID  string
	DatabaseID string
}

// Firestore implements interfaces.VectorIndex on top of Firestore vector search.
// Each index is a document in reel_indexes with its vectors in a subcollection.
type Firestore struct {
	client     *firestore.Client
	projectID  string
	databaseID string
	spec       *model.IndexSpec
}

type firestoreIndexDoc struct {
	Name      string `firestore:"name"`
	Dimension int    `firestore:"dimension"`
	Metric    string `firestore:"metric"`
}

func NewFirestore(ctx context.Context, cfg FirestoreConfig) (*Firestore, error) {
	if cfg.ProjectID == "" {
		return nil, goerr.New("firestore project ID is required")
	}
	databaseID := cfg.DatabaseID
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, cfg.ProjectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", cfg.ProjectID),
			goerr.V("database", databaseID),
		)
	}

	return &Firestore{
		client:     client,
		projectID:  cfg.ProjectID,
		databaseID: databaseID,
	}, nil
}

func (f *Firestore) Ensure(ctx context.Context, spec model.IndexSpec) (bool, error) {
	if err := spec.Validate(); err != nil {
		return false, err
	}

	ref := f.client.Collection(firestoreIndexCollection).Doc(spec.Name)
	snap, err := ref.Get(ctx)
	switch {
	case status.Code(err) == codes.NotFound:
		doc := firestoreIndexDoc{
			Name:      spec.Name,
			Dimension: spec.Dimension,
			Metric:    string(spec.Metric),
		}
		if _, err := ref.Create(ctx, doc); err != nil {
			if status.Code(err) != codes.AlreadyExists {
				return false, goerr.Wrap(err, "failed to create index document", goerr.V("index", spec.Name))
			}
			// created concurrently; fall through to the dimension check
			return f.Ensure(ctx, spec)
		}
		logging.From(ctx).Info("index created; searching requires a Firestore vector index",
			"index", spec.Name,
			"dimension", spec.Dimension,
			"create_index", VectorIndexCommand(f.projectID, f.databaseID, spec.Dimension),
		)
		f.spec = &spec
		return true, nil

	case err != nil:
		return false, goerr.Wrap(err, "failed to get index document", goerr.V("index", spec.Name))
	}

	var existing firestoreIndexDoc
	if err := snap.DataTo(&existing); err != nil {
		return false, goerr.Wrap(err, "failed to decode index document", goerr.V("index", spec.Name))
	}
	if existing.Dimension != spec.Dimension {
		return false, goerr.Wrap(model.ErrDimensionMismatch, "existing index has a different dimension",
			goerr.V("index", spec.Name),
			goerr.V("existing", existing.Dimension),
			goerr.V("requested", spec.Dimension),
		)
	}

	if m, err := model.ParseMetric(existing.Metric); err == nil {
		spec.Metric = m
	}
	f.spec = &spec
	return false, nil
}

func (f *Firestore) vectors() *firestore.CollectionRef {
	return f.client.Collection(firestoreIndexCollection).Doc(f.spec.Name).Collection(firestoreVectorCollection)
}

func (f *Firestore) Upsert(ctx context.Context, vectors []*model.Vector) (int, error) {
	if f.spec == nil {
		return 0, goerr.New("index is not ensured")
	}
	if err := model.CheckDimension(f.spec.Dimension, vectors...); err != nil {
		return 0, err
	}

	coll := f.vectors()
	for i, v := range vectors {
		data := map[string]any{
			firestoreEmbeddingField: firestore.Vector32(v.Values),
			firestoreMetadataField:  v.Metadata,
		}
		if _, err := coll.Doc(v.ID).Set(ctx, data); err != nil {
			return i, goerr.Wrap(err, "failed to write vector document", goerr.V("id", v.ID))
		}
	}
	return len(vectors), nil
}

func (f *Firestore) Query(ctx context.Context, vector []float32, topK int) ([]*model.Match, error) {
	if f.spec == nil {
		return nil, goerr.New("index is not ensured")
	}
	if topK <= 0 {
		return nil, nil
	}

	measure := firestore.DistanceMeasureCosine
	switch f.spec.Metric {
	case model.MetricEuclidean:
		measure = firestore.DistanceMeasureEuclidean
	case model.MetricDotProduct:
		measure = firestore.DistanceMeasureDotProduct
	}

	q := f.vectors().FindNearest(firestoreEmbeddingField, firestore.Vector32(vector), topK, measure,
		&firestore.FindNearestOptions{DistanceResultField: firestoreDistanceField})

	iter := q.Documents(ctx)
	defer iter.Stop()

	var matches []*model.Match
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if status.Code(err) == codes.FailedPrecondition {
			return nil, goerr.Wrap(err, "Firestore vector index is missing, create it with: "+
				VectorIndexCommand(f.projectID, f.databaseID, f.spec.Dimension),
				goerr.V("index", f.spec.Name))
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate nearest vectors", goerr.V("index", f.spec.Name))
		}

		data := doc.Data()
		distance, _ := data[firestoreDistanceField].(float64)
		matches = append(matches, &model.Match{
			ID:       doc.Ref.ID,
			Score:    firestoreScore(f.spec.Metric, distance),
			Metadata: toStringMap(data[firestoreMetadataField]),
		})
	}
	return matches, nil
}

// VectorIndexCommand returns the gcloud command that creates the vector
// index FindNearest needs on the vectors collection group.
func VectorIndexCommand(projectID, databaseID string, dimension int) string {
	return fmt.Sprintf(
		`gcloud firestore indexes composite create --project=%s --database=%s `+
			`--collection-group=%s --query-scope=COLLECTION `+
			`--field-config=field-path=%s,vector-config='{"dimension":"%d","flat":"{}"}'`,
		projectID, databaseID, firestoreVectorCollection, firestoreEmbeddingField, dimension)
}

// firestoreScore converts a Firestore distance into a higher-is-better score.
func firestoreScore(metric model.Metric, distance float64) float32 {
	switch metric {
	case model.MetricEuclidean:
		return float32(1 / (1 + distance))
	case model.MetricDotProduct:
		return float32(distance)
	default:
		return float32(1 - distance)
	}
}

func toStringMap(v any) map[string]string {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, val := range raw {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}

func (f *Firestore) Close() error {
	if err := f.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close firestore client")
	}
	return nil
}
