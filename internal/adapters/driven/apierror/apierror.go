// Package apierror classifies failures of the HTTP model providers so the
// core can tell retryable errors from permanent ones.
package apierror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/normsqa/internal/core/domain"
)

// maxBody bounds how much of an error body ends up in a message.
const maxBody = 300

// FromStatus turns a non-2xx response into an error.
//
//   - 429 wraps domain.ErrRateLimited.
//   - 5xx, 408 and 409 wrap unavailable.
//   - 401 and 403 wrap domain.ErrConfig.
//   - Other 4xx wrap domain.ErrInvalidInput.
func FromStatus(provider string, status int, body []byte, unavailable error) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxBody {
		msg = msg[:maxBody] + "..."
	}

	var kind error
	switch {
	case status == http.StatusTooManyRequests:
		kind = domain.ErrRateLimited
	case status >= 500, status == http.StatusRequestTimeout, status == http.StatusConflict:
		kind = unavailable
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		kind = domain.ErrConfig
	default:
		kind = domain.ErrInvalidInput
	}
	return fmt.Errorf("%s: status %d: %s: %w", provider, status, msg, kind)
}

// FromTransport wraps a failed round trip. Cancellation by the caller is
// passed through unchanged; anything else wraps unavailable.
func FromTransport(provider string, err error, unavailable error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", provider, unavailable, err)
}
