package agent_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/reel-ai/reel/pkg/model"
	"github.com/reel-ai/reel/pkg/usecase/agent"
)

// echoGenerator replies with "<system>|<user>" so chaining is visible
type echoGenerator struct {
	calls  int
	failAt int
}

func (g *echoGenerator) Generate(ctx context.Context, messages []model.Message) (string, error) {
	g.calls++
	if g.failAt > 0 && g.calls == g.failAt {
		return "", errors.New("upstream error")
	}
	return messages[0].Content + "|" + messages[1].Content, nil
}

func TestDefaultStages(t *testing.T) {
	stages := agent.DefaultStages()
	gt.A(t, stages).Length(3)
	gt.Equal(t, stages[0].Label, "Plan")
	gt.Equal(t, stages[0].System, "You are a planning agent.")
	gt.Equal(t, stages[1].Label, "Research")
	gt.Equal(t, stages[1].System, "You are a research agent.")
	gt.Equal(t, stages[2].Label, "Final Output")
	gt.Equal(t, stages[2].System, "You are a writing agent.")
}

func TestPipelineRun(t *testing.T) {
	gen := &echoGenerator{}
	results, err := agent.New(gen).Run(context.Background(), "a sci-fi pitch")
	gt.NoError(t, err)
	gt.A(t, results).Length(3)
	gt.Equal(t, gen.calls, 3)

	gt.Equal(t, results[0].Output, "You are a planning agent.|a sci-fi pitch")
	gt.Equal(t, results[1].Output, "You are a research agent.|"+results[0].Output)
	gt.Equal(t, results[2].Output, "You are a writing agent.|"+results[1].Output)
}

func TestPipelineRunAbortsOnFailure(t *testing.T) {
	gen := &echoGenerator{failAt: 2}
	results, err := agent.New(gen).Run(context.Background(), "task")
	gt.Error(t, err)
	gt.A(t, results).Length(0)
	gt.Equal(t, gen.calls, 2)
}

func TestFormatResults(t *testing.T) {
	results, err := agent.New(&echoGenerator{}).Run(context.Background(), "t")
	gt.NoError(t, err)

	lines := strings.Split(agent.FormatResults(results), "\n")
	gt.Equal(t, lines[0], "")
	gt.S(t, lines[1]).Contains("Plan: ")
	gt.S(t, lines[2]).Contains("Research: ")
	gt.S(t, lines[3]).Contains("Final Output: ")
}

func TestParseStages(t *testing.T) {
	stages, err := agent.ParseStages([]byte(`
stages:
  - name: critic
    system: You are a film critic.
  - label: Summary
    system: Summarize in one line.
`))
	gt.NoError(t, err)
	gt.A(t, stages).Length(2)
	gt.Equal(t, stages[0].Label, "critic")
	gt.Equal(t, stages[1].Name, "Summary")

	_, err = agent.ParseStages([]byte("stages: []"))
	gt.Error(t, err)

	_, err = agent.ParseStages([]byte("stages:\n  - name: empty\n"))
	gt.Error(t, err)

	_, err = agent.ParseStages([]byte("stages: {"))
	gt.Error(t, err)
}

func TestLoadStagesWithPipeline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	gt.NoError(t, os.WriteFile(path, []byte("stages:\n  - name: solo\n    system: Answer briefly.\n"), 0600))

	stages, err := agent.LoadStages(path)
	gt.NoError(t, err)

	gen := &echoGenerator{}
	results, err := agent.New(gen, agent.WithStages(stages)).Run(context.Background(), "hi")
	gt.NoError(t, err)
	gt.A(t, results).Length(1)
	gt.Equal(t, results[0].Output, "Answer briefly.|hi")

	_, err = agent.LoadStages(filepath.Join(t.TempDir(), "missing.yaml"))
	gt.Error(t, err)
}
