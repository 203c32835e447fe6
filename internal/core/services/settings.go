package services

import (
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driven"
	"github.com/custodia-labs/normsqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyPDFDir         = "paths.pdf_dir"
	keyIndexDir       = "paths.index_dir"
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyLLMProvider    = "llm.provider"
	keyLLMModel       = "llm.model"
	keyLLMBaseURL     = "llm.base_url"
	keyLLMAPIKey      = "llm.api_key"
	keyChunkSize      = "ingest.chunk_size"
	keyChunkOverlap   = "ingest.chunk_overlap"
	keyBatchSize      = "ingest.batch_size"
	keyBatchInterval  = "ingest.batch_interval"
	keyFilesPerGroup  = "ingest.files_per_group"
	keyMaxAttempts    = "ingest.max_attempts"
	keyBackoff        = "ingest.backoff"
	keyK              = "retrieval.k"
	keyFetchK         = "retrieval.fetch_k"
	keyScoreThreshold = "retrieval.score_threshold"
	keyMMRLambda      = "retrieval.mmr_lambda"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvPDFDir       = "NORMSQA_PDF_DIR"
	EnvIndexDir     = "NORMSQA_INDEX_DIR"
)

const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
//
// Values come from the config store with defaults for anything unset.
// Environment variables are applied on top by Get but are never written
// back to the store.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// Get retrieves current application settings with environment overrides.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.stored()
	s.applyEnv(settings)
	return settings, nil
}

// stored reads settings from the config store only.
func (s *SettingsService) stored() *domain.AppSettings {
	defaults := domain.DefaultAppSettings()

	return &domain.AppSettings{
		Paths: domain.PathSettings{
			PDFDir:   s.getString(keyPDFDir, defaults.Paths.PDFDir),
			IndexDir: s.getString(keyIndexDir, defaults.Paths.IndexDir),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Ingest: domain.IngestSettings{
			ChunkSize:     s.getInt(keyChunkSize, defaults.Ingest.ChunkSize),
			ChunkOverlap:  s.getIntAllowZero(keyChunkOverlap, defaults.Ingest.ChunkOverlap),
			BatchSize:     s.getInt(keyBatchSize, defaults.Ingest.BatchSize),
			BatchInterval: s.getDuration(keyBatchInterval, defaults.Ingest.BatchInterval),
			FilesPerGroup: s.getInt(keyFilesPerGroup, defaults.Ingest.FilesPerGroup),
			MaxAttempts:   s.getInt(keyMaxAttempts, defaults.Ingest.MaxAttempts),
			Backoff:       s.getDuration(keyBackoff, defaults.Ingest.Backoff),
		},
		Retrieval: domain.RetrievalSettings{
			K:              s.getInt(keyK, defaults.Retrieval.K),
			FetchK:         s.getInt(keyFetchK, defaults.Retrieval.FetchK),
			ScoreThreshold: s.getFloat(keyScoreThreshold, defaults.Retrieval.ScoreThreshold),
			MMRLambda:      s.getFloat(keyMMRLambda, defaults.Retrieval.MMRLambda),
		},
	}
}

// applyEnv overlays environment variables. Provider API keys apply to
// whichever of embedding and LLM uses that provider.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if v, ok := s.env(EnvPDFDir); ok {
		settings.Paths.PDFDir = v
	}
	if v, ok := s.env(EnvIndexDir); ok {
		settings.Paths.IndexDir = v
	}

	keys := map[domain.AIProvider]string{
		domain.AIProviderOpenAI:    EnvOpenAIKey,
		domain.AIProviderAnthropic: EnvAnthropicKey,
	}
	if name, ok := keys[settings.Embedding.Provider]; ok {
		if v, ok := s.env(name); ok {
			settings.Embedding.APIKey = v
		}
	}
	if name, ok := keys[settings.LLM.Provider]; ok {
		if v, ok := s.env(name); ok {
			settings.LLM.APIKey = v
		}
	}
}

func (s *SettingsService) env(name string) (string, bool) {
	if s.lookupEnv == nil {
		return "", false
	}
	v, ok := s.lookupEnv(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyPDFDir, settings.Paths.PDFDir},
		{keyIndexDir, settings.Paths.IndexDir},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyChunkSize, settings.Ingest.ChunkSize},
		{keyChunkOverlap, settings.Ingest.ChunkOverlap},
		{keyBatchSize, settings.Ingest.BatchSize},
		{keyBatchInterval, settings.Ingest.BatchInterval.String()},
		{keyFilesPerGroup, settings.Ingest.FilesPerGroup},
		{keyMaxAttempts, settings.Ingest.MaxAttempts},
		{keyBackoff, settings.Ingest.Backoff.String()},
		{keyK, settings.Retrieval.K},
		{keyFetchK, settings.Retrieval.FetchK},
		{keyScoreThreshold, settings.Retrieval.ScoreThreshold},
		{keyMMRLambda, settings.Retrieval.MMRLambda},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyLLMAPIKey, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
// An empty apiKey for a cloud provider is accepted when the key is
// available from the environment.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return &domain.ConfigError{Field: keyEmbedProvider, Reason: fmt.Sprintf("unknown provider %q", provider)}
	}
	if !provider.SupportsEmbeddings() {
		return &domain.ConfigError{
			Field:  keyEmbedProvider,
			Reason: fmt.Sprintf("%s does not support embeddings", provider.Description()),
		}
	}

	settings := s.stored()
	if provider.RequiresAPIKey() && apiKey == "" && !s.hasEnvKey(provider) && settings.Embedding.APIKey == "" {
		return &domain.ConfigError{Field: keyEmbedAPIKey, Reason: fmt.Sprintf("API key required for %s", provider)}
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	if apiKey != "" {
		settings.Embedding.APIKey = apiKey
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return &domain.ConfigError{Field: keyLLMProvider, Reason: fmt.Sprintf("unknown provider %q", provider)}
	}

	settings := s.stored()
	if provider.RequiresAPIKey() && apiKey == "" && !s.hasEnvKey(provider) && settings.LLM.APIKey == "" {
		return &domain.ConfigError{Field: keyLLMAPIKey, Reason: fmt.Sprintf("API key required for %s", provider)}
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	if apiKey != "" {
		settings.LLM.APIKey = apiKey
	}

	return s.Save(settings)
}

// SetPaths configures the corpus and index directories.
func (s *SettingsService) SetPaths(pdfDir, indexDir string) error {
	settings := s.stored()
	if pdfDir != "" {
		settings.Paths.PDFDir = pdfDir
	}
	if indexDir != "" {
		settings.Paths.IndexDir = indexDir
	}
	return s.Save(settings)
}

// Validate checks the effective settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

func (s *SettingsService) hasEnvKey(provider domain.AIProvider) bool {
	switch provider {
	case domain.AIProviderOpenAI:
		_, ok := s.env(EnvOpenAIKey)
		return ok
	case domain.AIProviderAnthropic:
		_, ok := s.env(EnvAnthropicKey)
		return ok
	default:
		return false
	}
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a custom URL for local providers and clears it for
// cloud ones.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return defaultOllamaURL
	}
	return current
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
