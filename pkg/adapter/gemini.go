package adapter

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/reel-ai/reel/pkg/model"
	"google.golang.org/genai"
)

const (
	DefaultGeminiGenerativeModel = "gemini-2.5-flash"
	DefaultGeminiEmbeddingModel  = "gemini-embedding-001"
	DefaultGeminiDimension       = 3072
)

// GeminiConfig identifies the Vertex AI project that serves Gemini
type GeminiConfig struct {
	Project  string
	Location string
}

// GeminiClient implements interfaces.Embedder and interfaces.Generator
type GeminiClient struct {
	client          *genai.Client
	generativeModel string
	embeddingModel  string
	dimension       int
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.generativeModel = model
	}
}

func WithEmbeddingModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.embeddingModel = model
	}
}

func WithEmbeddingDimension(dim int) GeminiOption {
	return func(g *GeminiClient) {
		g.dimension = dim
	}
}

func NewGemini(ctx context.Context, cfg GeminiConfig, opts ...GeminiOption) (*GeminiClient, error) {
	if cfg.Project == "" {
		return nil, goerr.Wrap(model.ErrMissingSecret, "Gemini project is empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.Project,
		Location: cfg.Location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiClient{
		client:          client,
		generativeModel: DefaultGeminiGenerativeModel,
		embeddingModel:  DefaultGeminiEmbeddingModel,
		dimension:       DefaultGeminiDimension,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (g *GeminiClient) Model() string  { return g.embeddingModel }
func (g *GeminiClient) Dimension() int { return g.dimension }

func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	dim := int32(g.dimension)
	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content", goerr.V("model", g.embeddingModel))
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, goerr.Wrap(model.ErrEmptyResponse, "no embedding returned", goerr.V("model", g.embeddingModel))
	}

	return resp.Embeddings[0].Values, nil
}

// Generate sends messages to Gemini. System messages are joined into the
// system instruction; the rest keep their order as contents.
func (g *GeminiClient) Generate(ctx context.Context, messages []model.Message) (string, error) {
	var (
		system   []string
		contents []*genai.Content
	)
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			system = append(system, msg.Content)
		case model.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	config := &genai.GenerateContentConfig{}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), "")
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.generativeModel, contents, config)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content", goerr.V("model", g.generativeModel))
	}

	text := resp.Text()
	if text == "" {
		return "", goerr.Wrap(model.ErrEmptyResponse, "no text in response", goerr.V("model", g.generativeModel))
	}
	return text, nil
}
