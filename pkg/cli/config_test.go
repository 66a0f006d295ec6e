package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/reel-ai/reel/pkg/adapter"
	"github.com/reel-ai/reel/pkg/model"
)

func clearSecrets(t *testing.T) {
	for _, key := range []string{"OPENAI_API_KEY", "PINECONE_API_KEY", "GEMINI_PROJECT_ID", "REEL_PROVIDER", "REEL_INDEX_BACKEND"} {
		t.Setenv(key, "")
		gt.NoError(t, os.Unsetenv(key))
	}
}

func runApp(t *testing.T, args ...string) (string, error) {
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	app.ErrWriter = &buf
	err := app.Run(context.Background(), append([]string{"reel"}, args...))
	return buf.String(), err
}

func TestRequireSecrets(t *testing.T) {
	cfg := &config{openAIAPIKey: "sk-proj-x", pineconeAPIKey: "  \t"}

	gt.NoError(t, cfg.requireSecrets("openai-api-key"))

	err := cfg.requireSecrets("openai-api-key", "pinecone-api-key")
	gt.Error(t, err).Is(model.ErrMissingSecret)
	gt.S(t, err.Error()).Contains("missing API keys")
}

func TestSecretsFor(t *testing.T) {
	cfg := &config{provider: providerOpenAI, indexBackend: backendPinecone}
	gt.Equal(t, cfg.secretsFor(true), []string{"openai-api-key", "pinecone-api-key"})
	gt.Equal(t, cfg.secretsFor(false), []string{"openai-api-key"})

	cfg = &config{provider: providerGemini, indexBackend: backendMemory}
	gt.Equal(t, cfg.secretsFor(true), []string{"gemini-project"})
}

func TestNewClientsFailWithoutSecrets(t *testing.T) {
	ctx := context.Background()

	_, err := (&config{provider: providerOpenAI}).newEmbedder(ctx)
	gt.Error(t, err).Is(model.ErrMissingSecret)

	_, err = (&config{provider: providerOpenAI, chatModel: "gpt-4.1-mini"}).newGenerator(ctx, nil)
	gt.Error(t, err).Is(model.ErrMissingSecret)

	_, err = (&config{provider: providerGemini, geminiLocation: "us-central1"}).newEmbedder(ctx)
	gt.Error(t, err).Is(model.ErrMissingSecret)

	_, err = (&config{indexBackend: backendPinecone}).newIndex(ctx, nil)
	gt.Error(t, err).Is(model.ErrMissingSecret)

	_, err = (&config{indexBackend: backendFirestore}).newIndex(ctx, nil)
	gt.Error(t, err)

	_, err = (&config{indexBackend: backendMilvus}).newIndex(ctx, nil)
	gt.Error(t, err)

	_, err = (&config{provider: "claude"}).newEmbedder(ctx)
	gt.Error(t, err)

	_, err = (&config{indexBackend: "faiss"}).newIndex(ctx, nil)
	gt.Error(t, err)
}

func TestNewIndexMemory(t *testing.T) {
	idx, err := (&config{indexBackend: backendMemory}).newIndex(context.Background(), nil)
	gt.NoError(t, err)
	gt.NoError(t, idx.Close())
}

func TestMoviesFailFastWithoutKeys(t *testing.T) {
	clearSecrets(t)

	path := filepath.Join(t.TempDir(), "movies.csv")
	gt.NoError(t, os.WriteFile(path, []byte("original_title,overview\nHeat,thieves\n"), 0600))

	for _, sub := range []string{"ingest", "recommend", "search"} {
		t.Run(sub, func(t *testing.T) {
			args := []string{"movies", sub, "--env-file", ""}
			if sub != "search" {
				args = append(args, "--records", path)
			}
			_, err := runApp(t, args...)
			gt.Error(t, err).Is(model.ErrMissingSecret)
		})
	}
}

func TestMoviesNamesEveryMissingKey(t *testing.T) {
	clearSecrets(t)

	cfg := &movieConfig{config: config{provider: providerOpenAI, indexBackend: backendPinecone, openAIAPIKey: "sk-proj-x"}}
	_, _, err := cfg.newUseCase(context.Background(), nil)
	gt.Error(t, err).Is(model.ErrMissingSecret)
}

func TestCheckCommandMissingKey(t *testing.T) {
	clearSecrets(t)

	out, err := runApp(t, "check", "--env-file", "")
	gt.Error(t, err).Is(model.ErrMissingSecret)
	gt.S(t, out).Contains("No API key was found")
}

func TestChatFailsWithoutKey(t *testing.T) {
	clearSecrets(t)

	_, err := runApp(t, "chat", "--env-file", "")
	gt.Error(t, err).Is(model.ErrMissingSecret)

	_, err = runApp(t, "agents", "--env-file", "")
	gt.Error(t, err).Is(model.ErrMissingSecret)
}

func TestAgentsRejectsBadRolesFile(t *testing.T) {
	clearSecrets(t)

	path := filepath.Join(t.TempDir(), "roles.yaml")
	gt.NoError(t, os.WriteFile(path, []byte("stages: []\n"), 0600))

	_, err := runApp(t, "agents", "--env-file", "", "--roles", path)
	gt.Error(t, err)
}

func TestNewIndexPineconeReadyTimeout(t *testing.T) {
	cfg := &config{indexBackend: backendPinecone, pineconeAPIKey: "dummy", readyTimeout: 45 * time.Second}
	idx, err := cfg.newIndex(context.Background(), nil)
	gt.NoError(t, err)

	pc, ok := idx.(*adapter.Pinecone)
	gt.True(t, ok)
	gt.Equal(t, pc.ReadyTimeout(), 45*time.Second)
}

func TestMoviesSearchRejectsMemoryBackend(t *testing.T) {
	clearSecrets(t)
	t.Setenv("OPENAI_API_KEY", "sk-proj-dummy")

	_, err := runApp(t, "movies", "search", "--env-file", "", "--index-backend", "memory", "--query", "heist")
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("memory index is empty")
}
