package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/reel-ai/reel/pkg/model"
	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultOpenAIEmbeddingModel = "text-embedding-3-large"
	DefaultOpenAIChatModel      = "gpt-4.1-mini"
)

// openAIDimensions is the native output size of known embedding models
var openAIDimensions = map[string]int{
	"text-embedding-3-large": 3072,
	"text-embedding-3-small": 1536,
	"text-embedding-ada-002": 1536,
}

// OpenAIConfig holds the secret and endpoint used to reach the OpenAI API
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

// OpenAI implements interfaces.Embedder and interfaces.Generator
type OpenAI struct {
	client         *openai.Client
	embeddingModel string
	chatModel      string
	dimension      int
}

type OpenAIOption func(*OpenAI)

func WithOpenAIEmbeddingModel(name string) OpenAIOption {
	return func(o *OpenAI) {
		o.embeddingModel = name
	}
}

func WithOpenAIChatModel(name string) OpenAIOption {
	return func(o *OpenAI) {
		o.chatModel = name
	}
}

// WithOpenAIDimension requests a shortened embedding. Only text-embedding-3
// models accept it.
func WithOpenAIDimension(dim int) OpenAIOption {
	return func(o *OpenAI) {
		o.dimension = dim
	}
}

// NewOpenAI creates an OpenAI client. It does not contact the API.
func NewOpenAI(cfg OpenAIConfig, opts ...OpenAIOption) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, goerr.Wrap(model.ErrMissingSecret, "OpenAI API key is empty")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	o := &OpenAI{
		client:         openai.NewClientWithConfig(clientCfg),
		embeddingModel: DefaultOpenAIEmbeddingModel,
		chatModel:      DefaultOpenAIChatModel,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

func (o *OpenAI) Model() string { return o.embeddingModel }

// Dimension returns the configured dimension, or the native dimension of
// the embedding model. Unknown models report 0.
func (o *OpenAI) Dimension() int {
	if o.dimension > 0 {
		return o.dimension
	}
	return openAIDimensions[o.embeddingModel]
}

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(o.embeddingModel),
	}
	if o.dimension > 0 {
		req.Dimensions = o.dimension
	}

	resp, err := o.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embedding", goerr.V("model", o.embeddingModel))
	}
	if len(resp.Data) == 0 {
		return nil, goerr.Wrap(model.ErrEmptyResponse, "no embedding data returned", goerr.V("model", o.embeddingModel))
	}

	return resp.Data[0].Embedding, nil
}

func (o *OpenAI) Generate(ctx context.Context, messages []model.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    o.chatModel,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openAIRole(msg.Role),
			Content: msg.Content,
		})
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create chat completion", goerr.V("model", o.chatModel))
	}
	if len(resp.Choices) == 0 {
		return "", goerr.Wrap(model.ErrEmptyResponse, "no choices returned", goerr.V("model", o.chatModel))
	}

	return resp.Choices[0].Message.Content, nil
}

func openAIRole(r model.Role) string {
	switch r {
	case model.RoleSystem:
		return openai.ChatMessageRoleSystem
	case model.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
