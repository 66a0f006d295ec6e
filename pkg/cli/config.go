package cli

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/reel-ai/reel/pkg/adapter"
	"github.com/reel-ai/reel/pkg/interfaces"
	"github.com/reel-ai/reel/pkg/model"
	"github.com/reel-ai/reel/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	providerOpenAI = "openai"
	providerGemini = "gemini"

	backendPinecone  = "pinecone"
	backendFirestore = "firestore"
	backendMilvus    = "milvus"
	backendMemory    = "memory"
)

// config holds configuration values
type config struct {
	// Logging and environment
	logLevel    string
	envFile     string
	envOverride bool

	// Model providers
	provider       string
	openAIAPIKey   string
	openAIBaseURL  string
	geminiProject  string
	geminiLocation string
	embeddingModel string
	chatModel      string

	// Vector index
	indexBackend      string
	pineconeAPIKey    string
	namespace         string
	firestoreProject  string
	firestoreDatabase string
	milvusAddress     string
	milvusAPIKey      string
	readyTimeout      time.Duration
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("REEL_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "env-file",
			Usage:       "Dotenv file loaded before flags are resolved",
			Value:       defaultEnvFile,
			Sources:     cli.EnvVars("REEL_ENV_FILE"),
			Destination: &cfg.envFile,
		},
		&cli.BoolFlag{
			Name:        "env-override",
			Usage:       "Let values in the env file replace existing environment variables",
			Destination: &cfg.envOverride,
		},
	}
}

// llmFlags returns flags for model provider configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "provider",
			Usage:       "Model provider (openai, gemini)",
			Value:       providerOpenAI,
			Sources:     cli.EnvVars("REEL_PROVIDER"),
			Destination: &cfg.provider,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Sources:     cli.EnvVars("OPENAI_API_KEY"),
			Destination: &cfg.openAIAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-base-url",
			Usage:       "OpenAI compatible API endpoint",
			Sources:     cli.EnvVars("OPENAI_BASE_URL"),
			Destination: &cfg.openAIBaseURL,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
	}
}

// embeddingFlags returns flags selecting the embedding model
func embeddingFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Embedding model name (provider default when empty)",
			Sources:     cli.EnvVars("REEL_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
	}
}

// chatModelFlag returns the --model flag with a command specific default
func chatModelFlag(cfg *config, defaultModel string) cli.Flag {
	return &cli.StringFlag{
		Name:        "model",
		Aliases:     []string{"m"},
		Usage:       "Chat model name",
		Value:       defaultModel,
		Destination: &cfg.chatModel,
	}
}

// indexFlags returns flags for the vector index backend with destination config
func indexFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "index-backend",
			Usage:       "Vector index backend (pinecone, firestore, milvus, memory). memory lives only for one process, so it suits recommend but not search",
			Value:       backendPinecone,
			Sources:     cli.EnvVars("REEL_INDEX_BACKEND"),
			Destination: &cfg.indexBackend,
		},
		&cli.StringFlag{
			Name:        "pinecone-api-key",
			Usage:       "Pinecone API key",
			Sources:     cli.EnvVars("PINECONE_API_KEY"),
			Destination: &cfg.pineconeAPIKey,
		},
		&cli.DurationFlag{
			Name:        "ready-timeout",
			Usage:       "How long to wait for a newly created Pinecone index to become ready",
			Value:       5 * time.Minute,
			Destination: &cfg.readyTimeout,
		},
		&cli.StringFlag{
			Name:        "namespace",
			Usage:       "Pinecone namespace",
			Sources:     cli.EnvVars("PINECONE_NAMESPACE"),
			Destination: &cfg.namespace,
		},
		&cli.StringFlag{
			Name:        "firestore-project",
			Usage:       "Google Cloud project ID for the Firestore index (searching needs a vector index on the vectors collection group, created with gcloud firestore indexes composite create)",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.firestoreProject,
		},
		&cli.StringFlag{
			Name:        "firestore-database",
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.firestoreDatabase,
		},
		&cli.StringFlag{
			Name:        "milvus-address",
			Usage:       "Milvus endpoint (host:port)",
			Sources:     cli.EnvVars("MILVUS_ADDRESS"),
			Destination: &cfg.milvusAddress,
		},
		&cli.StringFlag{
			Name:        "milvus-api-key",
			Usage:       "Milvus or Zilliz API key",
			Sources:     cli.EnvVars("MILVUS_API_KEY"),
			Destination: &cfg.milvusAPIKey,
		},
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// setup attaches a logger with the configured level and a session ID to ctx
func (cfg *config) setup(ctx context.Context, command string) context.Context {
	logger := logging.New(cfg.logLevel, nil).With(
		"session_id", model.NewSessionID(),
		"command", command,
	)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// requireSecrets fails when any of the named secrets is empty. It runs before
// any client is built so that no request is sent with a missing key.
func (cfg *config) requireSecrets(names ...string) error {
	values := map[string]string{
		"openai-api-key":   cfg.openAIAPIKey,
		"pinecone-api-key": cfg.pineconeAPIKey,
		"gemini-project":   cfg.geminiProject,
	}

	var missing []string
	for _, name := range names {
		if blank(values[name]) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return goerr.Wrap(model.ErrMissingSecret, "missing API keys", goerr.V("missing", missing))
	}
	return nil
}

// secretsFor lists the secrets needed by the selected provider and backend
func (cfg *config) secretsFor(withIndex bool) []string {
	var names []string
	switch cfg.provider {
	case providerGemini:
		names = append(names, "gemini-project")
	default:
		names = append(names, "openai-api-key")
	}
	if withIndex && cfg.indexBackend == backendPinecone {
		names = append(names, "pinecone-api-key")
	}
	return names
}

// newOpenAI creates a new OpenAI adapter instance
func (cfg *config) newOpenAI(opts ...adapter.OpenAIOption) (*adapter.OpenAI, error) {
	if err := cfg.requireSecrets("openai-api-key"); err != nil {
		return nil, err
	}
	return adapter.NewOpenAI(adapter.OpenAIConfig{
		APIKey:  strings.TrimSpace(cfg.openAIAPIKey),
		BaseURL: cfg.openAIBaseURL,
	}, opts...)
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context, opts ...adapter.GeminiOption) (*adapter.GeminiClient, error) {
	if err := cfg.requireSecrets("gemini-project"); err != nil {
		return nil, err
	}
	if blank(cfg.geminiLocation) {
		return nil, goerr.New("gemini-location is required")
	}
	return adapter.NewGemini(ctx, adapter.GeminiConfig{
		Project:  cfg.geminiProject,
		Location: cfg.geminiLocation,
	}, opts...)
}

// newEmbedder creates the embedder of the selected provider
func (cfg *config) newEmbedder(ctx context.Context) (interfaces.Embedder, error) {
	switch cfg.provider {
	case providerOpenAI:
		var opts []adapter.OpenAIOption
		if cfg.embeddingModel != "" {
			opts = append(opts, adapter.WithOpenAIEmbeddingModel(cfg.embeddingModel))
		}
		return cfg.newOpenAI(opts...)

	case providerGemini:
		var opts []adapter.GeminiOption
		if cfg.embeddingModel != "" {
			opts = append(opts, adapter.WithEmbeddingModel(cfg.embeddingModel))
		}
		return cfg.newGemini(ctx, opts...)

	default:
		return nil, goerr.New("unknown provider", goerr.V("provider", cfg.provider))
	}
}

// newGenerator creates the chat generator of the selected provider. The
// --model default names an OpenAI model, so the gemini provider only honors
// a model that was set explicitly.
func (cfg *config) newGenerator(ctx context.Context, c *cli.Command) (interfaces.Generator, error) {
	switch cfg.provider {
	case providerOpenAI:
		return cfg.newOpenAI(adapter.WithOpenAIChatModel(cfg.chatModel))

	case providerGemini:
		var opts []adapter.GeminiOption
		if c != nil && c.IsSet("model") {
			opts = append(opts, adapter.WithGenerativeModel(cfg.chatModel))
		}
		return cfg.newGemini(ctx, opts...)

	default:
		return nil, goerr.New("unknown provider", goerr.V("provider", cfg.provider))
	}
}

// newIndex creates the vector index of the selected backend
func (cfg *config) newIndex(ctx context.Context, metadataFields []string) (interfaces.VectorIndex, error) {
	switch cfg.indexBackend {
	case backendPinecone:
		if err := cfg.requireSecrets("pinecone-api-key"); err != nil {
			return nil, err
		}
		var opts []adapter.PineconeOption
		if cfg.readyTimeout > 0 {
			opts = append(opts, adapter.WithReadyTimeout(cfg.readyTimeout))
		}
		return adapter.NewPinecone(adapter.PineconeConfig{
			APIKey:    strings.TrimSpace(cfg.pineconeAPIKey),
			Namespace: cfg.namespace,
		}, opts...)

	case backendFirestore:
		if blank(cfg.firestoreProject) {
			return nil, goerr.New("firestore-project is required")
		}
		return adapter.NewFirestore(ctx, adapter.FirestoreConfig{
			ProjectID:  cfg.firestoreProject,
			DatabaseID: cfg.firestoreDatabase,
		})

	case backendMilvus:
		if blank(cfg.milvusAddress) {
			return nil, goerr.New("milvus-address is required")
		}
		return adapter.NewMilvus(ctx, adapter.MilvusConfig{
			Address:        cfg.milvusAddress,
			APIKey:         cfg.milvusAPIKey,
			MetadataFields: metadataFields,
		})

	case backendMemory:
		return adapter.NewMemory(), nil

	default:
		return nil, goerr.New("unknown index backend", goerr.V("backend", cfg.indexBackend))
	}
}
