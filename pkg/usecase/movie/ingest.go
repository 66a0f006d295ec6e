package movie

import (
	"context"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/reel-ai/reel/pkg/model"
	"github.com/reel-ai/reel/pkg/utils/logging"
)

// IngestResult summarizes one Ingest call
type IngestResult struct {
	Created  bool
	Upserted int
	Skipped  int
}

// Ingest embeds records and stores them in the index.
// 1. Embed every record's text (description, or title when it is empty)
// 2. Ensure the index exists with the embedder's dimension
// 3. Upsert vectors in batches, keyed by the record's row number
func (u *UseCase) Ingest(ctx context.Context, records []*model.Record) (*IngestResult, error) {
	logger := logging.From(ctx)
	result := &IngestResult{}

	vectors := make([]*model.Vector, 0, len(records))
	for i, rec := range records {
		text := rec.Text()
		if text == "" {
			logger.Warn("skip record without title and description", "row", i)
			result.Skipped++
			continue
		}

		values, err := u.embedder.Embed(ctx, text)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to embed record", goerr.V("row", i), goerr.V("title", rec.Title))
		}

		vectors = append(vectors, &model.Vector{
			ID:     strconv.Itoa(i),
			Values: values,
			Metadata: map[string]string{
				MetadataTitle:    rec.Title,
				MetadataOverview: rec.Description,
			},
		})
		logger.Debug("record embedded", "row", i, "title", rec.Title)
	}

	spec := u.IndexSpec()
	if spec.Dimension == 0 && len(vectors) > 0 {
		spec.Dimension = len(vectors[0].Values)
	}
	if err := model.CheckDimension(spec.Dimension, vectors...); err != nil {
		return nil, err
	}

	created, err := u.index.Ensure(ctx, spec)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to ensure index", goerr.V("index", spec.Name))
	}
	result.Created = created

	for start := 0; start < len(vectors); start += u.batchSize {
		end := min(start+u.batchSize, len(vectors))
		n, err := u.index.Upsert(ctx, vectors[start:end])
		if err != nil {
			return nil, goerr.Wrap(err, "failed to upsert vectors",
				goerr.V("index", spec.Name),
				goerr.V("from", vectors[start].ID),
			)
		}
		result.Upserted += n
	}

	logger.Info("records ingested",
		"index", spec.Name,
		"created", result.Created,
		"upserted", result.Upserted,
		"skipped", result.Skipped,
	)
	return result, nil
}
