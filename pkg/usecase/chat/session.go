package chat

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/reel-ai/reel/pkg/interfaces"
	"github.com/reel-ai/reel/pkg/model"
	"github.com/reel-ai/reel/pkg/utils/logging"
)

const DefaultSystemPrompt = "You are a helpful customer support assistant."

// ExitKeywords end an interactive loop. Input is compared after lowercasing.
var ExitKeywords = []string{"exit", "quit"}

// IsExit reports whether the input is an exit keyword, ignoring case
func IsExit(input string) bool {
	lower := strings.ToLower(input)
	for _, kw := range ExitKeywords {
		if lower == kw {
			return true
		}
	}
	return false
}

// Session sends each user line with a fixed system prompt. No history is
// kept between turns.
type Session struct {
	generator    interfaces.Generator
	systemPrompt string
	sessionID    model.SessionID
}

type Option func(*Session)

func WithSystemPrompt(prompt string) Option {
	return func(s *Session) {
		if prompt != "" {
			s.systemPrompt = prompt
		}
	}
}

func New(generator interfaces.Generator, opts ...Option) *Session {
	s := &Session{
		generator:    generator,
		systemPrompt: DefaultSystemPrompt,
		sessionID:    model.NewSessionID(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() model.SessionID { return s.sessionID }

// Messages builds the request payload for one turn
func (s *Session) Messages(text string) []model.Message {
	return []model.Message{
		model.SystemMessage(s.systemPrompt),
		model.UserMessage(text),
	}
}

// Send runs one request/response cycle and returns the assistant reply
func (s *Session) Send(ctx context.Context, text string) (string, error) {
	logging.From(ctx).Debug("send message", "session_id", s.sessionID, "length", len(text))

	reply, err := s.generator.Generate(ctx, s.Messages(text))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate reply", goerr.V("session_id", s.sessionID))
	}
	return reply, nil
}
