package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/reel-ai/reel/pkg/interfaces"
	"github.com/reel-ai/reel/pkg/model"
	"github.com/reel-ai/reel/pkg/utils/logging"
)

// Pipeline chains role-prompted generations. Stage 0 receives the task and
// every later stage receives the previous stage's output.
type Pipeline struct {
	generator interfaces.Generator
	stages    []*Stage
}

type Option func(*Pipeline)

func WithStages(stages []*Stage) Option {
	return func(p *Pipeline) {
		if len(stages) > 0 {
			p.stages = stages
		}
	}
}

func New(generator interfaces.Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		generator: generator,
		stages:    DefaultStages(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type StageResult struct {
	Stage  *Stage
	Output string
}

// Run executes every stage in order. The first failing stage aborts the run.
func (p *Pipeline) Run(ctx context.Context, task string) ([]*StageResult, error) {
	logger := logging.From(ctx)
	results := make([]*StageResult, 0, len(p.stages))

	input := task
	for i, stage := range p.stages {
		logger.Debug("run stage", "stage", stage.Name, "index", i)

		output, err := p.generator.Generate(ctx, []model.Message{
			model.SystemMessage(stage.System),
			model.UserMessage(input),
		})
		if err != nil {
			return nil, goerr.Wrap(err, "stage failed", goerr.V("stage", stage.Name), goerr.V("index", i))
		}

		results = append(results, &StageResult{Stage: stage, Output: output})
		input = output
	}

	return results, nil
}

// FormatResults renders stage outputs as "<Label>: <output>" lines, with a
// blank line before the first one.
func FormatResults(results []*StageResult) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, r := range results {
		fmt.Fprintf(&b, "%s: %s\n", r.Stage.Label, r.Output)
	}
	return b.String()
}
