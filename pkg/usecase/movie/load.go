package movie

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/reel-ai/reel/pkg/interfaces"
	"github.com/reel-ai/reel/pkg/model"
)

const (
	DefaultTitleColumn       = "original_title"
	DefaultDescriptionColumn = "overview"
	DefaultLimit             = 200
)

// LoadOptions selects the columns and the number of rows read from a CSV
type LoadOptions struct {
	TitleColumn       string
	DescriptionColumn string
	// Limit keeps only the first Limit rows. Zero or negative reads all rows.
	Limit int
}

func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		TitleColumn:       DefaultTitleColumn,
		DescriptionColumn: DefaultDescriptionColumn,
		Limit:             DefaultLimit,
	}
}

// Load opens path through src and parses it with LoadRecords
func Load(ctx context.Context, src interfaces.RecordSource, path string, opts LoadOptions) ([]*model.Record, error) {
	r, err := src.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	records, err := LoadRecords(r, opts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load records", goerr.V("path", path))
	}
	return records, nil
}

// LoadRecords reads a header-driven CSV. Missing cells become the empty
// string; a missing column is an error.
func LoadRecords(r io.Reader, opts LoadOptions) ([]*model.Record, error) {
	if opts.TitleColumn == "" {
		opts.TitleColumn = DefaultTitleColumn
	}
	if opts.DescriptionColumn == "" {
		opts.DescriptionColumn = DefaultDescriptionColumn
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, goerr.New("CSV has no header row")
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read CSV header")
	}

	titleIdx, descIdx := -1, -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		switch name {
		case opts.TitleColumn:
			titleIdx = i
		case opts.DescriptionColumn:
			descIdx = i
		}
	}
	if titleIdx < 0 {
		return nil, goerr.Wrap(model.ErrMissingColumn, "title column not found", goerr.V("column", opts.TitleColumn))
	}
	if descIdx < 0 {
		return nil, goerr.Wrap(model.ErrMissingColumn, "description column not found", goerr.V("column", opts.DescriptionColumn))
	}

	var records []*model.Record
	for opts.Limit <= 0 || len(records) < opts.Limit {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read CSV row", goerr.V("row", len(records)+1))
		}

		records = append(records, &model.Record{
			Title:       cell(row, titleIdx),
			Description: cell(row, descIdx),
		})
	}

	return records, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}
