package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mattn/go-isatty"
	"github.com/reel-ai/reel/pkg/usecase/chat"
)

// lineReader reads one line of user input after showing prompt
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// turnFunc handles one user input and returns the text to print
type turnFunc func(ctx context.Context, input string) (string, error)

// runLoop reads lines until EOF, interrupt or an exit keyword, passing every
// non-empty line to turn. A turn error stops the loop and is returned.
func runLoop(ctx context.Context, r lineReader, w io.Writer, prompt string, turn turnFunc) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := r.ReadLine(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return nil
		}
		if err != nil {
			return goerr.Wrap(err, "failed to read input")
		}

		if chat.IsExit(line) {
			return nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		output, err := turn(ctx, line)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, output); err != nil {
			return goerr.Wrap(err, "failed to write output")
		}
	}
}

// newLineReader returns a readline editor for terminals and a plain line
// scanner for piped input.
func newLineReader(in io.Reader, out io.Writer) (lineReader, error) {
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		rl, err := readline.NewEx(&readline.Config{
			Stdin:           io.NopCloser(in),
			Stdout:          out,
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize readline")
		}
		return &readlineReader{rl: rl}, nil
	}

	return &scanReader{scanner: bufio.NewScanner(in), out: out}, nil
}

type readlineReader struct {
	rl *readline.Instance
}

func (r *readlineReader) ReadLine(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	return r.rl.Readline()
}

func (r *readlineReader) Close() error {
	return r.rl.Close()
}

type scanReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (r *scanReader) ReadLine(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scanReader) Close() error { return nil }

// withSpinner shows a spinner on stderr while fn runs, when stderr is a terminal
func withSpinner[T any](message string, fn func() (T, error)) (T, error) {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	s.Start()
	defer s.Stop()

	return fn()
}
