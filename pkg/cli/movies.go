package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/reel-ai/reel/pkg/adapter"
	"github.com/reel-ai/reel/pkg/interfaces"
	"github.com/reel-ai/reel/pkg/model"
	"github.com/reel-ai/reel/pkg/usecase/movie"
	"github.com/reel-ai/reel/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const recommendPrompt = "\nEnter your movie description: "

// movieConfig holds flags shared by the movies sub-commands
type movieConfig struct {
	config

	records           string
	titleColumn       string
	descriptionColumn string
	limit             int64
	indexName         string
	metric            string
	cloud             string
	region            string
	batchSize         int64
	topK              int64
}

func movieIndexFlags(mc *movieConfig) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "index",
			Usage:       "Index name",
			Value:       movie.DefaultIndexName,
			Sources:     cli.EnvVars("REEL_INDEX_NAME"),
			Destination: &mc.indexName,
		},
		&cli.StringFlag{
			Name:        "metric",
			Usage:       "Similarity metric used when the index is created (cosine, euclidean, dotproduct)",
			Value:       string(model.MetricCosine),
			Destination: &mc.metric,
		},
		&cli.StringFlag{
			Name:        "cloud",
			Usage:       "Cloud of a newly created serverless index",
			Value:       movie.DefaultCloud,
			Destination: &mc.cloud,
		},
		&cli.StringFlag{
			Name:        "region",
			Usage:       "Region of a newly created serverless index",
			Value:       movie.DefaultRegion,
			Destination: &mc.region,
		},
	}
	flags = append(flags, globalFlags(&mc.config)...)
	flags = append(flags, llmFlags(&mc.config)...)
	flags = append(flags, embeddingFlags(&mc.config)...)
	flags = append(flags, indexFlags(&mc.config)...)
	return flags
}

func movieRecordFlags(mc *movieConfig) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "records",
			Usage:       "CSV file of movies, local path or gs://bucket/object",
			Value:       "movies.csv",
			Sources:     cli.EnvVars("REEL_RECORDS"),
			Destination: &mc.records,
		},
		&cli.StringFlag{
			Name:        "title-column",
			Usage:       "CSV column holding the movie title",
			Value:       movie.DefaultTitleColumn,
			Destination: &mc.titleColumn,
		},
		&cli.StringFlag{
			Name:        "description-column",
			Usage:       "CSV column holding the movie description",
			Value:       movie.DefaultDescriptionColumn,
			Destination: &mc.descriptionColumn,
		},
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Number of leading rows to ingest (0 for all)",
			Value:       movie.DefaultLimit,
			Destination: &mc.limit,
		},
		&cli.IntFlag{
			Name:        "batch-size",
			Usage:       "Vectors per upsert request",
			Value:       movie.DefaultBatchSize,
			Destination: &mc.batchSize,
		},
	}
}

func topKFlag(mc *movieConfig) cli.Flag {
	return &cli.IntFlag{
		Name:        "top-k",
		Aliases:     []string{"k"},
		Usage:       "Number of recommendations",
		Value:       movie.DefaultTopK,
		Destination: &mc.topK,
	}
}

// newUseCase validates every secret first, then builds the embedder, the
// index and the movie use case.
func (mc *movieConfig) newUseCase(ctx context.Context, w io.Writer) (*movie.UseCase, interfaces.VectorIndex, error) {
	if err := mc.requireSecrets(mc.secretsFor(true)...); err != nil {
		return nil, nil, err
	}

	metric, err := model.ParseMetric(mc.metric)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := mc.newEmbedder(ctx)
	if err != nil {
		return nil, nil, err
	}

	index, err := mc.newIndex(ctx, []string{movie.MetadataTitle, movie.MetadataOverview})
	if err != nil {
		return nil, nil, err
	}

	uc := movie.New(embedder, index,
		movie.WithOutput(w),
		movie.WithIndexName(mc.indexName),
		movie.WithMetric(metric),
		movie.WithServerless(mc.cloud, mc.region),
		movie.WithBatchSize(int(mc.batchSize)),
	)
	return uc, index, nil
}

func (mc *movieConfig) loadRecords(ctx context.Context) ([]*model.Record, error) {
	source := adapter.NewStorage()
	defer source.Close()

	records, err := movie.Load(ctx, source, mc.records, movie.LoadOptions{
		TitleColumn:       mc.titleColumn,
		DescriptionColumn: mc.descriptionColumn,
		Limit:             int(mc.limit),
	})
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("records loaded", "path", mc.records, "count", len(records))
	return records, nil
}

func moviesCommand() *cli.Command {
	return &cli.Command{
		Name:  "movies",
		Usage: "Movie recommendations backed by a vector index",
		Commands: []*cli.Command{
			movieIngestCommand(),
			movieSearchCommand(),
			movieRecommendCommand(),
		},
	}
}

func movieIngestCommand() *cli.Command {
	var mc movieConfig

	flags := movieRecordFlags(&mc)
	flags = append(flags, movieIndexFlags(&mc)...)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Embed movie descriptions from a CSV file and upsert them into the index",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = mc.setup(ctx, "movies ingest")

			uc, index, err := mc.newUseCase(ctx, c.Root().Writer)
			if err != nil {
				return err
			}
			defer index.Close()

			records, err := mc.loadRecords(ctx)
			if err != nil {
				return err
			}

			result, err := withSpinner("ingesting", func() (*movie.IngestResult, error) {
				return uc.Ingest(ctx, records)
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Upserted %d movies into %q (skipped %d)\n",
				result.Upserted, mc.indexName, result.Skipped)
			return nil
		},
	}
}

func movieSearchCommand() *cli.Command {
	var (
		mc    movieConfig
		query string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Movie description; prompts interactively when empty",
			Destination: &query,
		},
		topKFlag(&mc),
	}
	flags = append(flags, movieIndexFlags(&mc)...)

	return &cli.Command{
		Name:  "search",
		Usage: "Recommend movies from an existing index",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = mc.setup(ctx, "movies search")
			w := c.Root().Writer

			if mc.indexBackend == backendMemory {
				return goerr.New("memory index is empty in a new process; use movies recommend or a persistent backend",
					goerr.V("index-backend", mc.indexBackend))
			}

			uc, index, err := mc.newUseCase(ctx, w)
			if err != nil {
				return err
			}
			defer index.Close()

			if err := uc.Open(ctx); err != nil {
				return err
			}

			recommend := func(ctx context.Context, description string) (string, error) {
				matches, err := withSpinner("searching", func() ([]*model.Match, error) {
					return uc.Search(ctx, description, int(mc.topK))
				})
				if err != nil {
					return "", err
				}
				return movie.FormatMatches(matches), nil
			}

			if query != "" {
				out, err := recommend(ctx, query)
				if err != nil {
					return err
				}
				fmt.Fprint(w, out)
				return nil
			}

			reader, err := newLineReader(c.Root().Reader, w)
			if err != nil {
				return err
			}
			defer reader.Close()

			return runLoop(ctx, reader, w, recommendPrompt, recommend)
		},
	}
}

func movieRecommendCommand() *cli.Command {
	var mc movieConfig

	flags := []cli.Flag{topKFlag(&mc)}
	flags = append(flags, movieRecordFlags(&mc)...)
	flags = append(flags, movieIndexFlags(&mc)...)

	return &cli.Command{
		Name:  "recommend",
		Usage: "Ingest the CSV, then ask for one movie description and print recommendations",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = mc.setup(ctx, "movies recommend")
			w := c.Root().Writer

			uc, index, err := mc.newUseCase(ctx, w)
			if err != nil {
				return err
			}
			defer index.Close()

			records, err := mc.loadRecords(ctx)
			if err != nil {
				return err
			}
			if _, err := withSpinner("ingesting", func() (*movie.IngestResult, error) {
				return uc.Ingest(ctx, records)
			}); err != nil {
				return err
			}

			reader, err := newLineReader(c.Root().Reader, w)
			if err != nil {
				return err
			}
			defer reader.Close()

			description, err := reader.ReadLine(recommendPrompt)
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
					return nil
				}
				return goerr.Wrap(err, "failed to read description")
			}

			matches, err := withSpinner("searching", func() ([]*model.Match, error) {
				return uc.Search(ctx, description, int(mc.topK))
			})
			if err != nil {
				return err
			}
			return uc.Print(matches)
		},
	}
}
