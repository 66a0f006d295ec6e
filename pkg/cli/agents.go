package cli

import (
	"context"
	"strings"

	"github.com/reel-ai/reel/pkg/usecase/agent"
	"github.com/urfave/cli/v3"
)

const defaultAgentModel = "gpt-4.1"

func agentsCommand() *cli.Command {
	var (
		cfg       config
		rolesPath string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "roles",
			Aliases:     []string{"r"},
			Usage:       "YAML file defining the agent stages (planner, researcher, writer by default)",
			Sources:     cli.EnvVars("REEL_ROLES_FILE"),
			Destination: &rolesPath,
		},
		chatModelFlag(&cfg, defaultAgentModel),
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "agents",
		Usage: "Run each task through a chain of role-prompted agents",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx, "agents")

			var opts []agent.Option
			if rolesPath != "" {
				stages, err := agent.LoadStages(rolesPath)
				if err != nil {
					return err
				}
				opts = append(opts, agent.WithStages(stages))
			}

			generator, err := cfg.newGenerator(ctx, c)
			if err != nil {
				return err
			}
			pipeline := agent.New(generator, opts...)

			reader, err := newLineReader(c.Root().Reader, c.Root().Writer)
			if err != nil {
				return err
			}
			defer reader.Close()

			return runLoop(ctx, reader, c.Root().Writer, "Task: ", func(ctx context.Context, task string) (string, error) {
				results, err := withSpinner("agents working", func() ([]*agent.StageResult, error) {
					return pipeline.Run(ctx, task)
				})
				if err != nil {
					return "", err
				}
				return strings.TrimSuffix(agent.FormatResults(results), "\n"), nil
			})
		},
	}
}
