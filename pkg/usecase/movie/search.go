package movie

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/reel-ai/reel/pkg/model"
)

// Search returns at most topK movies closest to the description, best first.
// The index must already be ensured.
func (u *UseCase) Search(ctx context.Context, query string, topK int) ([]*model.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerr.New("query is empty")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := u.embedder.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}

	if u.ensurePending {
		spec := u.IndexSpec()
		spec.Dimension = len(vector)
		if _, err := u.index.Ensure(ctx, spec); err != nil {
			return nil, goerr.Wrap(err, "failed to ensure index", goerr.V("index", spec.Name))
		}
		u.ensurePending = false
	}

	matches, err := u.index.Query(ctx, vector, topK)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query index", goerr.V("top_k", topK))
	}
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Open ensures the index so that Search can run without a prior Ingest.
// When the embedder reports no dimension, ensuring is deferred to the first
// Search.
func (u *UseCase) Open(ctx context.Context) error {
	spec := u.IndexSpec()
	if spec.Dimension == 0 {
		u.ensurePending = true
		return nil
	}
	if _, err := u.index.Ensure(ctx, spec); err != nil {
		return goerr.Wrap(err, "failed to ensure index", goerr.V("index", spec.Name))
	}
	return nil
}

// FormatMatches renders the recommendation list shown to the user
func FormatMatches(matches []*model.Match) string {
	var b strings.Builder
	b.WriteString("\nTop Recommended Movies:\n\n")
	for _, m := range matches {
		fmt.Fprintf(&b, "%s  (score: %s)\n", m.Metadata[MetadataTitle], formatScore(m.Score))
	}
	return b.String()
}

// Print writes FormatMatches output to the UseCase output
func (u *UseCase) Print(matches []*model.Match) error {
	if _, err := fmt.Fprint(u.output, FormatMatches(matches)); err != nil {
		return goerr.Wrap(err, "failed to write recommendations")
	}
	return nil
}

// formatScore rounds to four decimals and drops trailing zeros, keeping at
// least one fractional digit (1 -> "1.0").
func formatScore(score float32) string {
	rounded := math.Round(float64(score)*1e4) / 1e4
	s := strconv.FormatFloat(rounded, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
