package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/normsqa/internal/core/domain"
	"github.com/custodia-labs/normsqa/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// DefaultPingTimeout bounds one connectivity check.
const DefaultPingTimeout = 5 * time.Second

// ConfigValidator checks provider settings by building the client and
// pinging the provider. A failed check is a *domain.ConfigError naming the
// setting most likely at fault, with the provider error as its cause.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator using DefaultPingTimeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: DefaultPingTimeout}
}

// ValidateEmbedding checks the embedding settings. Unconfigured settings
// pass: there is nothing to check yet.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return v.ping("embedding", config.Provider, svc.Ping)
}

// ValidateLLM checks the LLM settings. Unconfigured settings pass.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	svc, err := CreateLLMService(config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return v.ping("llm", config.Provider, svc.Ping)
}

func (v *ConfigValidator) ping(section string, provider domain.AIProvider, ping func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	err := ping(ctx)
	if err == nil {
		return nil
	}
	field, reason := blame(section, provider, err)
	return &domain.ConfigError{Field: field, Reason: reason, Err: err}
}

// blame maps a ping failure to the setting to fix. Rejected credentials
// point at the API key, rejected requests at the model, anything else at
// the endpoint.
func blame(section string, provider domain.AIProvider, err error) (field, reason string) {
	switch {
	case errors.Is(err, domain.ErrConfig):
		return section + ".api_key", fmt.Sprintf("%s rejected the credentials", provider)
	case errors.Is(err, domain.ErrInvalidInput):
		return section + ".model", fmt.Sprintf("%s rejected the request", provider)
	default:
		return section + ".base_url", fmt.Sprintf("%s is unreachable", provider)
	}
}
