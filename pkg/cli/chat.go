package cli

import (
	"context"

	"github.com/reel-ai/reel/pkg/adapter"
	"github.com/reel-ai/reel/pkg/usecase/chat"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var (
		cfg          config
		systemPrompt string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "system",
			Aliases:     []string{"s"},
			Usage:       "System prompt sent with every message",
			Value:       chat.DefaultSystemPrompt,
			Destination: &systemPrompt,
		},
		chatModelFlag(&cfg, adapter.DefaultOpenAIChatModel),
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Customer support chatbot; type exit or quit to leave",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx, "chat")

			generator, err := cfg.newGenerator(ctx, c)
			if err != nil {
				return err
			}
			session := chat.New(generator, chat.WithSystemPrompt(systemPrompt))

			reader, err := newLineReader(c.Root().Reader, c.Root().Writer)
			if err != nil {
				return err
			}
			defer reader.Close()

			return runLoop(ctx, reader, c.Root().Writer, "You: ", func(ctx context.Context, input string) (string, error) {
				reply, err := withSpinner("thinking", func() (string, error) {
					return session.Send(ctx, input)
				})
				if err != nil {
					return "", err
				}
				return "Bot: " + reply, nil
			})
		},
	}
}
