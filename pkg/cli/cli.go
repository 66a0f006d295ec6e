package cli

import (
	"context"

	"github.com/reel-ai/reel/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "reel",
		Usage: "Console tools for embeddings, vector search and chat completion",
		Commands: []*cli.Command{
			moviesCommand(),
			chatCommand(),
			agentsCommand(),
			checkCommand(),
		},
	}
}

func Run(ctx context.Context, argv []string) *Error {
	if err := loadEnv(envOptions(argv)); err != nil {
		return &Error{Code: 1, Message: err.Error(), Err: err}
	}

	if err := newApp().Run(ctx, argv); err != nil {
		logging.Default().Error("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
			Err:     err,
		}
	}

	return nil
}
