package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/reel-ai/reel/pkg/adapter"
	"github.com/reel-ai/reel/pkg/model"
	"github.com/reel-ai/reel/pkg/usecase/check"
	"github.com/urfave/cli/v3"
)

const defaultCheckModel = "gpt-4o-mini"

func checkCommand() *cli.Command {
	var (
		cfg     config
		message string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "message",
			Usage:       "Message sent to the model once the key passes the check",
			Value:       "Hello",
			Destination: &message,
		},
		chatModelFlag(&cfg, defaultCheckModel),
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "check",
		Usage: "Inspect the OpenAI API key and send one test message",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx, "check")
			w := c.Root().Writer

			verdict := check.InspectKey(cfg.openAIAPIKey)
			fmt.Fprintln(w, verdict.Message())
			if verdict.Fatal() {
				return goerr.Wrap(model.ErrMissingSecret, "openai-api-key is required")
			}

			generator, err := cfg.newOpenAI(adapter.WithOpenAIChatModel(cfg.chatModel))
			if err != nil {
				return err
			}

			reply, err := withSpinner("waiting for reply", func() (string, error) {
				return generator.Generate(ctx, []model.Message{model.UserMessage(message)})
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(w, reply)
			return nil
		},
	}
}
