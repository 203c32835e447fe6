package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/normsqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/normsqa/internal/core/domain"
)

// mockAIValidator records which validations were requested.
type mockAIValidator struct {
	embeddingErr error
	llmErr       error
	embedding    *domain.EmbeddingSettings
	llm          *domain.LLMSettings
}

func (m *mockAIValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	m.embedding = cfg
	return m.embeddingErr
}

func (m *mockAIValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	m.llm = cfg
	return m.llmErr
}

func envFrom(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func newTestSettings(env map[string]string) (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store, nil)
	svc.lookupEnv = envFrom(env)
	return svc, store
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	svc, _ := newTestSettings(nil)

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	svc, store := newTestSettings(nil)
	_ = store.Set("paths.pdf_dir", "/data/norms")
	_ = store.Set("embedding.provider", "ollama")
	_ = store.Set("embedding.model", "mxbai-embed-large")
	_ = store.Set("ingest.chunk_size", int64(800))
	_ = store.Set("ingest.chunk_overlap", 0)
	_ = store.Set("ingest.batch_interval", "2s")
	_ = store.Set("retrieval.score_threshold", 0.25)
	_ = store.Set("retrieval.k", 5)

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, "/data/norms", settings.Paths.PDFDir)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "mxbai-embed-large", settings.Embedding.Model)
	assert.Equal(t, 800, settings.Ingest.ChunkSize)
	assert.Equal(t, 0, settings.Ingest.ChunkOverlap)
	assert.Equal(t, 2*time.Second, settings.Ingest.BatchInterval)
	assert.InDelta(t, 0.25, settings.Retrieval.ScoreThreshold, 1e-9)
	assert.Equal(t, 5, settings.Retrieval.K)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	svc, store := newTestSettings(nil)
	_ = store.Set("embedding.provider", "invalid_provider")
	_ = store.Set("ingest.backoff", "soon")

	settings, err := svc.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Ingest.Backoff, settings.Ingest.Backoff)
}

func TestSettingsService_EnvironmentOverrides(t *testing.T) {
	svc, store := newTestSettings(map[string]string{
		EnvOpenAIKey:    "sk-env",
		EnvAnthropicKey: "ant-env",
		EnvPDFDir:       "/env/pdfs",
		EnvIndexDir:     "",
	})
	_ = store.Set("paths.index_dir", "/file/index")
	_ = store.Set("llm.provider", "anthropic")

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, "/env/pdfs", settings.Paths.PDFDir)
	assert.Equal(t, "/file/index", settings.Paths.IndexDir, "empty variables are ignored")
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
	assert.Equal(t, "ant-env", settings.LLM.APIKey)
	require.NoError(t, svc.Validate())
}

func TestSettingsService_SaveDoesNotPersistEnvironment(t *testing.T) {
	svc, store := newTestSettings(map[string]string{EnvOpenAIKey: "sk-env"})

	require.NoError(t, svc.SetPaths("/new/pdfs", ""))

	assert.Equal(t, "/new/pdfs", store.GetString("paths.pdf_dir"))
	assert.Equal(t, "vectordb", store.GetString("paths.index_dir"))
	assert.Empty(t, store.GetString("embedding.api_key"))
	assert.Empty(t, store.GetString("llm.api_key"))
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	t.Run("local provider gets default model and URL", func(t *testing.T) {
		svc, _ := newTestSettings(nil)

		require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

		settings, _ := svc.Get()
		assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
		assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	})

	t.Run("cloud provider needs a key", func(t *testing.T) {
		svc, _ := newTestSettings(nil)

		err := svc.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "")

		var cerr *domain.ConfigError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "embedding.api_key", cerr.Field)
	})

	t.Run("key from environment is enough", func(t *testing.T) {
		svc, _ := newTestSettings(map[string]string{EnvOpenAIKey: "sk"})
		assert.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-small", ""))
	})

	t.Run("anthropic has no embeddings", func(t *testing.T) {
		svc, _ := newTestSettings(nil)
		err := svc.SetEmbeddingProvider(domain.AIProviderAnthropic, "", "key")
		assert.ErrorIs(t, err, domain.ErrConfig)
	})

	t.Run("unknown provider", func(t *testing.T) {
		svc, _ := newTestSettings(nil)
		assert.ErrorIs(t, svc.SetEmbeddingProvider("acme", "", ""), domain.ErrConfig)
	})
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	svc, store := newTestSettings(nil)

	require.NoError(t, svc.SetLLMProvider(domain.AIProviderAnthropic, "", "ant-key"))

	settings, _ := svc.Get()
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", settings.LLM.Model)
	assert.Empty(t, settings.LLM.BaseURL)
	assert.Equal(t, "ant-key", store.GetString("llm.api_key"))
}

func TestSettingsService_Validate(t *testing.T) {
	svc, store := newTestSettings(map[string]string{EnvOpenAIKey: "sk"})
	require.NoError(t, svc.Validate())

	_ = store.Set("ingest.chunk_overlap", 600)

	err := svc.Validate()
	var cerr *domain.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "ingest.chunk_overlap", cerr.Field)
}

func TestSettingsService_ValidateProviders(t *testing.T) {
	svc, _ := newTestSettings(nil)
	assert.NoError(t, svc.ValidateEmbeddingConfig())
	assert.NoError(t, svc.ValidateLLMConfig())

	validator := &mockAIValidator{llmErr: domain.ErrLLMUnavailable}
	svc.aiValidator = validator

	assert.NoError(t, svc.ValidateEmbeddingConfig())
	assert.ErrorIs(t, svc.ValidateLLMConfig(), domain.ErrLLMUnavailable)
	require.NotNil(t, validator.embedding)
	assert.Equal(t, "text-embedding-ada-002", validator.embedding.Model)
}

func TestSettingsService_GetDefaults(t *testing.T) {
	svc, _ := newTestSettings(nil)
	assert.Equal(t, domain.DefaultAppSettings(), svc.GetDefaults())
}
