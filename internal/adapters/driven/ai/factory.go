// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"fmt"

	ollamaembed "github.com/custodia-labs/normsqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/normsqa/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/normsqa/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/normsqa/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/normsqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driven"
)

// Services holds the provider clients the pipeline runs with.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

// Close releases all resources held by Services.
func (s *Services) Close() {
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.LLM != nil {
		s.LLM.Close()
	}
}

// NewServices builds both provider clients from the application settings.
// Connectivity is not checked; failures surface on first use and are
// classified by the adapters.
func NewServices(settings *domain.AppSettings) (*Services, error) {
	if settings == nil {
		return nil, &domain.ConfigError{Field: "settings", Reason: "missing"}
	}

	embedding, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, err
	}
	if embedding == nil {
		return nil, &domain.ConfigError{Field: "embedding", Reason: "provider is not configured"}
	}

	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		embedding.Close()
		return nil, err
	}
	if llm == nil {
		embedding.Close()
		return nil, &domain.ConfigError{Field: "llm", Reason: "provider is not configured"}
	}

	return &Services{Embedding: embedding, LLM: llm}, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderAnthropic:
		return nil, &domain.ConfigError{
			Field:  "embedding.provider",
			Reason: "anthropic does not support embeddings, use ollama or openai",
		}
	case domain.AIProviderOllama, domain.AIProviderOpenAI:
	case "":
		return nil, nil
	default:
		return nil, &domain.ConfigError{
			Field:  "embedding.provider",
			Reason: fmt.Sprintf("unsupported embedding provider: %s", settings.Provider),
		}
	}

	if !settings.IsConfigured() {
		return nil, nil
	}

	if settings.Provider == domain.AIProviderOllama {
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil
	}
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || settings.Provider == "" {
		return nil, nil
	}
	if !settings.Provider.IsValid() {
		return nil, &domain.ConfigError{
			Field:  "llm.provider",
			Reason: fmt.Sprintf("unsupported LLM provider: %s", settings.Provider),
		}
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	default:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	}
}
